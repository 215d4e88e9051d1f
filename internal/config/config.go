// Package config loads the synchronization engine's configuration using the
// same layered precedence (defaults -> config file -> environment ->
// flags, flags applied by the caller) the teacher's own config package uses.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/docsync/internal/logger"
	"github.com/spf13/viper"
)

// Config is the top-level configuration structure (§6).
type Config struct {
	VS         VSConfig         `mapstructure:"vs"`
	XS         XSConfig         `mapstructure:"xs"`
	Codec      CodecConfig      `mapstructure:"codec"`
	Sync       SyncConfig       `mapstructure:"sync"`
	StateStore StateStoreConfig `mapstructure:"state_store"`
	Embedder   EmbedderConfig   `mapstructure:"embedder"`
	Logging    logger.Config    `mapstructure:"logging"`
}

// EmbedderConfig configures the local Ollama embedder the Hydrator calls
// through (§6's caller-supplied embed() function; out of scope beyond this
// one reference backend per §1).
type EmbedderConfig struct {
	OllamaHost  string `mapstructure:"ollama_host"`
	Concurrency int    `mapstructure:"concurrency"`
}

// VSConfig configures the VS Adapter's subprocess CLI.
type VSConfig struct {
	ExecutablePath   string `mapstructure:"executable_path"`
	RepositoryPath   string `mapstructure:"repository_path"`
	RemoteName       string `mapstructure:"remote_name"`
	RemoteURL        string `mapstructure:"remote_url"`
	CommandTimeoutMS int    `mapstructure:"command_timeout_ms"`
}

// XSConfig configures the XS Adapter's working-copy data directory.
type XSConfig struct {
	DataPath string `mapstructure:"data_path"`
}

// CodecConfig configures the Document Codec (§4.3).
type CodecConfig struct {
	ChunkSize      int    `mapstructure:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	ChunkStrategy  string `mapstructure:"chunk_strategy"`
}

// Validate enforces the 0 <= overlap < chunk_size invariant from §6.
func (c CodecConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.New("codec.chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("codec.chunk_overlap must satisfy 0 <= overlap < chunk_size (got overlap=%d, size=%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingModel == "" {
		return errors.New("codec.embedding_model must be set")
	}
	return nil
}

// SyncConfig configures the Sync Manager.
type SyncConfig struct {
	AutoStageOnCommit bool   `mapstructure:"auto_stage_on_commit"`
	ManifestDirName   string `mapstructure:"manifest_dir_name"`
}

// StateStoreConfig configures the side-band State Store (§6).
type StateStoreConfig struct {
	Path string `mapstructure:"path"`
}

// manifestDirDefault and manifestDirFallback resolve the Open Question in
// SPEC_FULL.md §D: both are searched on read, only the default is written.
const (
	manifestDirDefault  = ".docsync"
	manifestDirFallback = ".xsvs"
)

// ManifestSearchDirs returns the ordered list of directory names to probe
// when looking for an existing Manifest.
func (c SyncConfig) ManifestSearchDirs() []string {
	dirs := []string{manifestDirDefault, manifestDirFallback}
	if c.ManifestDirName != "" && c.ManifestDirName != manifestDirDefault {
		dirs = append([]string{c.ManifestDirName}, dirs...)
	}
	return dirs
}

// ManifestWriteDir returns the single directory name a new Manifest is
// written to (§9 open question: only the default is written on create).
func (c SyncConfig) ManifestWriteDir() string {
	if c.ManifestDirName != "" {
		return c.ManifestDirName
	}
	return manifestDirDefault
}

// LoadConfig loads configuration with the hierarchy:
// Flags (handled by caller) > Env Vars > Config File > Defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("docsync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.docsync")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded configuration", "file", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Codec.Validate(); err != nil {
		return nil, fmt.Errorf("codec config invalid: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vs.executable_path", "dolt")
	v.SetDefault("vs.repository_path", "./data/repo")
	v.SetDefault("vs.remote_name", "origin")
	v.SetDefault("vs.command_timeout_ms", 30000)

	v.SetDefault("xs.data_path", "./xs_data")

	v.SetDefault("codec.chunk_size", 512)
	v.SetDefault("codec.chunk_overlap", 50)
	v.SetDefault("codec.embedding_model", "nomic-embed-text")
	v.SetDefault("codec.chunk_strategy", "byte")

	v.SetDefault("sync.auto_stage_on_commit", true)
	v.SetDefault("sync.manifest_dir_name", manifestDirDefault)

	v.SetDefault("state_store.path", "./data/state/docsync.db")

	v.SetDefault("embedder.ollama_host", "http://localhost:11434")
	v.SetDefault("embedder.concurrency", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

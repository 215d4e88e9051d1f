// Package wire composes the synchronization engine's dependency graph:
// config -> logger -> state store -> VS/XS adapters -> delta detector ->
// stager/hydrator -> sync manager -> dispatcher, the same layering the
// teacher's own wire package uses for its review pipeline.
package wire

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/wire"

	"github.com/sevigo/docsync/internal/config"
	"github.com/sevigo/docsync/internal/deltadetector"
	"github.com/sevigo/docsync/internal/hydrator"
	"github.com/sevigo/docsync/internal/jobs"
	"github.com/sevigo/docsync/internal/logger"
	"github.com/sevigo/docsync/internal/stager"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/syncmanager"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// AppSet is the full provider set for wire's code generator. wire_gen.go is
// hand-composed from it rather than produced by `go generate`, since the
// toolchain is not run as part of this build (§9).
var AppSet = wire.NewSet(
	config.LoadConfig,
	statestore.Open,
	provideVSClient,
	provideXSStore,
	provideEmbedFunc,
	deltadetector.New,
	stager.New,
	hydrator.New,
	syncmanager.New,
	syncmanager.NewLockRegistry,
	jobs.NewDispatcher,
	provideLogWriter,
	provideDefaultSlogLogger,
)

func provideVSClient(cfg *config.Config, logger *slog.Logger) vsadapter.VS {
	timeout := time.Duration(cfg.VS.CommandTimeoutMS) * time.Millisecond
	return vsadapter.NewClient(logger, cfg.VS.ExecutablePath, cfg.VS.RepositoryPath, timeout)
}

func provideXSStore(cfg *config.Config, logger *slog.Logger) (*xsadapter.Store, error) {
	return xsadapter.Open(logger, cfg.XS.DataPath)
}

func provideEmbedFunc(cfg *config.Config, logger *slog.Logger) (hydrator.EmbedFunc, error) {
	embedder, err := xsadapter.NewOllamaEmbedder(cfg.Embedder.OllamaHost, cfg.Codec.EmbeddingModel, logger)
	if err != nil {
		return nil, fmt.Errorf("wire: build embedder: %w", err)
	}
	return embedder.Embed, nil
}

func provideLogWriter() io.Writer {
	return os.Stdout
}

func provideDefaultSlogLogger(cfg *config.Config, writer io.Writer) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, writer)
	slog.SetDefault(l)
	return l
}

package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sevigo/docsync/internal/config"
	"github.com/sevigo/docsync/internal/core"
)

// ManifestStore persists the Repository Manifest (§3) as a small JSON file
// outside the versioned tables, under the project root and apart from the
// sqlite side-band database, so bootstrap (§4.7) can read it before the VS
// repository even exists.
type ManifestStore struct {
	projectRoot string
	sync        config.SyncConfig
}

// NewManifestStore returns a ManifestStore rooted at projectRoot.
func NewManifestStore(projectRoot string, syncCfg config.SyncConfig) *ManifestStore {
	return &ManifestStore{projectRoot: projectRoot, sync: syncCfg}
}

// Load searches, in order, every directory ManifestSearchDirs names and
// returns the first Manifest found. Returns ErrNotFound if none exist.
func (m *ManifestStore) Load() (*core.Manifest, error) {
	for _, dir := range m.sync.ManifestSearchDirs() {
		path := filepath.Join(m.projectRoot, dir, "manifest.json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("statestore: read manifest at %s: %w", path, err)
		}

		var manifest core.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("statestore: parse manifest at %s: %w", path, err)
		}
		return &manifest, nil
	}
	return nil, ErrNotFound
}

// Save writes manifest to the configured write directory only (§9 open
// question: only the default/configured name is written on create, even
// though the fallback is still searched on read).
func (m *ManifestStore) Save(manifest core.Manifest) error {
	dir := filepath.Join(m.projectRoot, m.sync.ManifestWriteDir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("statestore: create manifest dir: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: marshal manifest: %w", err)
	}

	path := filepath.Join(dir, "manifest.json")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("statestore: write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("statestore: rename manifest into place: %w", err)
	}
	return nil
}

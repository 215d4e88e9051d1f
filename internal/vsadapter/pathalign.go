package vsadapter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sevigo/docsync/internal/core"
)

// markerDir is the name of the VS's own metadata directory, analogous to
// ".git" for git, used to detect whether a repository is actually present at
// a given path.
const markerDir = ".dolt"

// requiredMarkerEntries are the structural entries a valid marker directory
// must contain; a marker directory holding only a transient scratch subtree
// (e.g. just "noms/temptf") is invalid (§4.8).
var requiredMarkerEntries = []string{"config.json", "noms"}

// ResolveEffectivePath implements the §4.8 path-alignment algorithm: look
// for the VS marker at configuredPath; if absent, scan one level deeper for
// a subdirectory whose marker contains the required structural entries.
// A marker found at projectRoot but outside configuredPath is reported as
// core.ErrRogueManifest.
func ResolveEffectivePath(configuredPath, projectRoot string) (effective string, err error) {
	if isValidMarker(filepath.Join(configuredPath, markerDir)) {
		return configuredPath, nil
	}

	entries, readErr := os.ReadDir(configuredPath)
	if readErr == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			candidate := filepath.Join(configuredPath, e.Name())
			if isValidMarker(filepath.Join(candidate, markerDir)) {
				return candidate, nil
			}
		}
	}

	if projectRoot != "" && projectRoot != configuredPath {
		if isValidMarker(filepath.Join(projectRoot, markerDir)) {
			return "", fmt.Errorf("%w: found at %s, configured path is %s", core.ErrRogueManifest, projectRoot, configuredPath)
		}
	}

	return "", core.ErrRepoNotInitialized
}

func isValidMarker(markerPath string) bool {
	info, err := os.Stat(markerPath)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, required := range requiredMarkerEntries {
		if _, err := os.Stat(filepath.Join(markerPath, required)); err != nil {
			return false
		}
	}
	return true
}

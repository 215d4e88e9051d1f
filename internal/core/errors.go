package core

import "errors"

// Error kinds (§7). Each is a sentinel so callers can use errors.Is, the same
// pattern the teacher uses for storage.ErrNotFound.
var (
	ErrExecutableNotFound = errors.New("vs executable not found")
	ErrEmptyRepository    = errors.New("clone target has no commits")
	ErrRemoteNotFound     = errors.New("remote not found")
	ErrRemoteAuthFailed   = errors.New("remote authentication failed")
	ErrUncommittedChanges = errors.New("vs working tree has unexpected uncommitted changes")
	ErrLocalChangesExist  = errors.New("xs has local changes pending sync to vs")
	ErrConflicts          = errors.New("vs merge produced conflicts")
	ErrModelMismatch      = errors.New("embedding model does not match sync state")
	ErrSchemaMissing      = errors.New("documents/collections schema is missing")
	ErrContentHashMismatch = errors.New("content hash does not match recorded hash")
	ErrStagerFailure      = errors.New("stager failed to apply xs->vs delta")
	ErrHydratorFailure    = errors.New("hydrator failed to apply vs->xs delta")
	ErrCancelled          = errors.New("operation cancelled")
	ErrInconsistent       = errors.New("detected unclassified invariant violation")

	// ErrRepoNotInitialized mirrors the teacher's ErrRepoNotFound: the VS
	// Adapter has not been pointed at an initialized repository yet.
	ErrRepoNotInitialized = errors.New("vs repository not initialized at configured path")

	// ErrRogueManifest flags a marker directory found outside the
	// configured VS path (§4.8).
	ErrRogueManifest = errors.New("vs marker directory found outside configured path")
)

// Package core defines the data structures and interfaces shared across the
// synchronization engine. These types are intentionally store-agnostic: they
// describe what a Document or Chunk is, not how the Version Store or Vector
// Store happen to persist it.
package core

import "time"

// Document is a unit of user content addressable by (CollectionName, DocID).
type Document struct {
	DocID        string
	CollectionName string
	Content      string
	ContentHash  string // lowercase-hex SHA-256 of Content
	Title        string
	DocType      string
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Collection is a named container of Documents plus the codec configuration
// that is an immutable part of its identity.
type Collection struct {
	Name           string
	DisplayName    string
	Description    string
	EmbeddingModel string
	ChunkSize      int
	ChunkOverlap   int
	ChunkStrategy  string // defaults to "byte"; see SPEC_FULL.md §D
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DocumentCount  int
}

// Chunk is a fragment of a Document placed in the Vector Store.
type Chunk struct {
	ID           string // "{doc_id}_chunk_{i}"
	SourceID     string // doc_id
	CollectionName string
	ContentHash  string // hash of the parent Document
	ChunkIndex   int
	TotalChunks  int
	Content      string
	Embedding    []float32
	Metadata     map[string]string // user metadata merged with the system keys; codec.PartitionIngress separates them
}

// SyncDirection identifies which store was the source of a synchronized change.
type SyncDirection string

const (
	DirectionVSToXS SyncDirection = "vs_to_xs"
	DirectionXSToVS SyncDirection = "xs_to_vs"
)

// SyncAction classifies what happened to a document during a sync.
type SyncAction string

const (
	ActionAdded    SyncAction = "added"
	ActionModified SyncAction = "modified"
	ActionDeleted  SyncAction = "deleted"
	ActionStaged   SyncAction = "staged"
)

// SyncLogEntry is the side-band record of the last known-synchronized state
// of one (CollectionName, DocID) pair.
type SyncLogEntry struct {
	CollectionName string
	DocID          string
	ContentHash    string
	ChunkIDs       []string
	Direction      SyncDirection
	Action         SyncAction
	SyncedAt       time.Time
}

// SyncStatus is the lifecycle state of a collection's Sync State.
type SyncStatus string

const (
	StatusClean      SyncStatus = "clean"
	StatusPending     SyncStatus = "pending"
	StatusInProgress SyncStatus = "in_progress"
	StatusError      SyncStatus = "error"
)

// SyncState is the per-collection side-band record of sync progress.
type SyncState struct {
	CollectionName  string
	LastSyncCommit  string
	LastSyncAt      time.Time
	DocumentCount   int
	ChunkCount      int
	EmbeddingModel  string
	Status          SyncStatus
	ErrorMessage    string
}

// Manifest is the bootstrap anchor persisted outside the versioned tables.
type Manifest struct {
	CurrentBranch string
	CurrentCommit string
	RemoteURL     string
	InitMode      string
}

// DeltaKind classifies one row in a VS<->XS delta set.
type DeltaKind string

const (
	DeltaNew      DeltaKind = "new"
	DeltaModified DeltaKind = "modified"
	DeltaDeleted  DeltaKind = "deleted"
)

// Delta is one pending change discovered by the Delta Detector.
type Delta struct {
	CollectionName string
	DocID          string
	Kind           DeltaKind
	ContentHash    string // new hash, empty for deletes
}

// DeltaSet is the full pending-change set for one direction.
type DeltaSet struct {
	New      []Delta
	Modified []Delta
	Deleted  []Delta
}

// Empty reports whether the delta set has no pending changes.
func (d DeltaSet) Empty() bool {
	return len(d.New) == 0 && len(d.Modified) == 0 && len(d.Deleted) == 0
}

// OperationStatus is the uniform result envelope's status field (§6).
type OperationStatus string

const (
	OpCompleted          OperationStatus = "completed"
	OpNoChanges          OperationStatus = "no_changes"
	OpLocalChangesExist  OperationStatus = "local_changes_exist"
	OpConflicts          OperationStatus = "conflicts"
	OpFailed             OperationStatus = "failed"
)

// DocRef identifies an offending document when an operation is blocked.
type DocRef struct {
	CollectionName string
	DocID          string
}

// Result is the uniform envelope returned by every Sync Manager operation.
type Result struct {
	Status         OperationStatus
	CommitHash     string
	Added          int
	Modified       int
	Deleted        int
	StagedFromXS   int
	FastForward    bool
	HadConflicts   bool
	BlockedReason  string
	Offending      []DocRef
	Err            error
}

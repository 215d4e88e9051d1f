// Package vsadapter implements the VS Adapter (§4.1): a thin, typed surface
// over the external version-control CLI, reached only via subprocess
// invocation per the spec's "accessed only through its command-line tool"
// constraint.
package vsadapter

import "time"

// Result is the raw outcome of one CLI invocation (§4.1, §6).
type Result struct {
	OK       bool
	Stdout   string
	Stderr   string
	ExitCode int
}

// Status is the working-tree status (§4.1 status()).
type Status struct {
	Branch   string
	Staged   []string
	Modified []string
}

// Branch describes one entry of list_branches.
type Branch struct {
	Name    string
	Current bool
	Head    string
}

// Commit describes one entry of a commit log.
type Commit struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
}

// PullResult is the outcome of pull().
type PullResult struct {
	Success      bool
	FastForward  bool
	HadConflicts bool
}

// MergeResult is the outcome of merge().
type MergeResult struct {
	Success      bool
	HadConflicts bool
	MergeCommit  string
}

// ConflictRow identifies one conflicted row surfaced by conflicts(table).
type ConflictRow struct {
	Table string
	RowID string
}

// ResolveSide picks a side when resolving a conflicted row.
type ResolveSide string

const (
	ResolveOurs   ResolveSide = "ours"
	ResolveTheirs ResolveSide = "theirs"
)

// DiffKind classifies one row of a diff stream (§4.1, §6).
type DiffKind string

const (
	DiffAdded    DiffKind = "added"
	DiffModified DiffKind = "modified"
	DiffRemoved  DiffKind = "removed"
)

// DiffRow is one row of the diff(from, to, table) result.
type DiffRow struct {
	Kind       DiffKind
	ID         string
	FromHash   string
	ToHash     string
	ToContent  string
}

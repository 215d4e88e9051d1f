package vsadapter

import "context"

// VS is the capability set the Sync Manager and its collaborators depend on.
// The CLI-based Client is one implementation; a direct-SQL VS could be
// another (§9 "Dispatch over store kinds").
//
//go:generate mockgen -source=interface.go -destination=mock_vsadapter/mock_vs.go -package=mock_vsadapter
type VS interface {
	// Init initializes a new repository at the effective path.
	Init(ctx context.Context) error

	// Clone clones remoteURL into the effective path. Returns
	// core.ErrEmptyRepository if the clone target has no commits.
	Clone(ctx context.Context, remoteURL string) error

	// Status reports the working-tree status.
	Status(ctx context.Context) (Status, error)

	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// HeadCommit returns the current HEAD commit hash.
	HeadCommit(ctx context.Context) (string, error)

	// ListBranches lists all local branches.
	ListBranches(ctx context.Context) ([]Branch, error)

	// CreateBranch creates a new branch from the current HEAD.
	CreateBranch(ctx context.Context, name string) error

	// Checkout switches to ref, optionally creating it first.
	Checkout(ctx context.Context, ref string, create bool) error

	// AddAll stages every pending change in the working tree.
	AddAll(ctx context.Context) error

	// Commit commits the staged changes and returns the new commit hash.
	Commit(ctx context.Context, message string) (string, error)

	// Push pushes branch to remote.
	Push(ctx context.Context, remote, branch string) error

	// Pull fetches and merges/rebases branch from remote.
	Pull(ctx context.Context, remote, branch string) (PullResult, error)

	// Fetch fetches updates from remote without merging.
	Fetch(ctx context.Context, remote string) error

	// Merge merges src into the current branch.
	Merge(ctx context.Context, src string) (MergeResult, error)

	// Conflicts lists the conflicted rows of table.
	Conflicts(ctx context.Context, table string) ([]ConflictRow, error)

	// Resolve marks a conflicted row resolved by picking one side.
	Resolve(ctx context.Context, table, rowID string, side ResolveSide) error

	// ResetHard resets the working tree to match ref, discarding all
	// staged and uncommitted changes.
	ResetHard(ctx context.Context, ref string) error

	// Diff returns the row-level diff of table between two refs.
	Diff(ctx context.Context, from, to, table string) ([]DiffRow, error)

	// Log returns the commit history reachable from ref, most recent first.
	// Used to decide whether two commits are in an ancestor/descendant
	// relationship (§4.7 checkout's full-regenerate fallback).
	Log(ctx context.Context, ref string) ([]Commit, error)

	// Exec runs a write statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string) (int64, error)

	// QueryJSON runs a read statement and returns its rows as a list of
	// string-keyed maps.
	QueryJSON(ctx context.Context, sql string) ([]map[string]any, error)
}

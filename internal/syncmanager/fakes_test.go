package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// fakeVS is an in-memory vsadapter.VS stub covering every method the Sync
// Manager calls, enough to drive the state machine without a real CLI.
type fakeVS struct {
	vsadapter.VS

	branch string
	head   string
	log    []vsadapter.Commit
	// branchHeads moves head on Checkout to the listed ref's commit.
	branchHeads map[string]string

	status       vsadapter.Status
	collections  []map[string]any
	documents    []map[string]any
	diffRows     []vsadapter.DiffRow
	conflicts    []vsadapter.ConflictRow

	pullResult  vsadapter.PullResult
	mergeResult vsadapter.MergeResult

	execStatements []string
	addAllCalls    int
	resetCalls     []string
	checkoutCalls  []string
	cloneCalls     []string

	pullErr  error
	mergeErr error
}

func (f *fakeVS) CurrentBranch(ctx context.Context) (string, error) { return f.branch, nil }
func (f *fakeVS) HeadCommit(ctx context.Context) (string, error)    { return f.head, nil }
func (f *fakeVS) Status(ctx context.Context) (vsadapter.Status, error) { return f.status, nil }
func (f *fakeVS) Log(ctx context.Context, ref string) ([]vsadapter.Commit, error) { return f.log, nil }

func (f *fakeVS) Checkout(ctx context.Context, ref string, create bool) error {
	f.checkoutCalls = append(f.checkoutCalls, ref)
	f.branch = ref
	if h, ok := f.branchHeads[ref]; ok {
		f.head = h
	}
	return nil
}

func (f *fakeVS) Clone(ctx context.Context, remoteURL string) error {
	f.cloneCalls = append(f.cloneCalls, remoteURL)
	return nil
}

func (f *fakeVS) ResetHard(ctx context.Context, ref string) error {
	f.resetCalls = append(f.resetCalls, ref)
	f.head = ref
	return nil
}

func (f *fakeVS) AddAll(ctx context.Context) error {
	f.addAllCalls++
	return nil
}

func (f *fakeVS) Exec(ctx context.Context, sql string) (int64, error) {
	f.execStatements = append(f.execStatements, sql)
	return 1, nil
}

func (f *fakeVS) Commit(ctx context.Context, message string) (string, error) {
	f.head = f.head + "1"
	return f.head, nil
}

func (f *fakeVS) Pull(ctx context.Context, remote, branch string) (vsadapter.PullResult, error) {
	if f.pullErr != nil {
		return vsadapter.PullResult{}, f.pullErr
	}
	if f.pullResult.Success || f.pullResult.HadConflicts {
		if !f.pullResult.HadConflicts {
			f.head = f.head + "-pulled"
		}
		return f.pullResult, nil
	}
	return vsadapter.PullResult{Success: true}, nil
}

func (f *fakeVS) Merge(ctx context.Context, src string) (vsadapter.MergeResult, error) {
	if f.mergeErr != nil {
		return vsadapter.MergeResult{}, f.mergeErr
	}
	return f.mergeResult, nil
}

func (f *fakeVS) Conflicts(ctx context.Context, table string) ([]vsadapter.ConflictRow, error) {
	return f.conflicts, nil
}

func (f *fakeVS) Diff(ctx context.Context, from, to, table string) ([]vsadapter.DiffRow, error) {
	return f.diffRows, nil
}

func (f *fakeVS) QueryJSON(ctx context.Context, sql string) ([]map[string]any, error) {
	switch {
	case containsAll(sql, "FROM collections"):
		return f.collections, nil
	case containsAll(sql, "FROM documents"):
		return f.documents, nil
	default:
		return nil, nil
	}
}

func containsAll(haystack string, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// fakeXS is an in-memory xsadapter.XS stub.
type fakeXS struct {
	xsadapter.XS

	records            []xsadapter.Record
	createdCollections []string
	deletedCollections []string
	addedIDs           []string
	listErr            error
	collectionConfig   xsadapter.CollectionConfig
	collectionErr      error
}

func (f *fakeXS) CollectionConfig(ctx context.Context, name string) (xsadapter.CollectionConfig, error) {
	if f.collectionErr != nil {
		return xsadapter.CollectionConfig{}, f.collectionErr
	}
	return f.collectionConfig, nil
}

func (f *fakeXS) ListIDsWithMetadata(ctx context.Context, name string) ([]xsadapter.Record, error) {
	return f.records, nil
}

func (f *fakeXS) ListCollections(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []string{"docs"}, nil
}

func (f *fakeXS) CreateCollection(ctx context.Context, name string, cfg xsadapter.CollectionConfig) error {
	f.createdCollections = append(f.createdCollections, name)
	return nil
}

func (f *fakeXS) DeleteCollection(ctx context.Context, name string) error {
	f.deletedCollections = append(f.deletedCollections, name)
	f.records = nil
	return nil
}

func (f *fakeXS) Add(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error {
	f.addedIDs = append(f.addedIDs, ids...)
	return nil
}

func (f *fakeXS) Delete(ctx context.Context, name string, ids []string) error { return nil }

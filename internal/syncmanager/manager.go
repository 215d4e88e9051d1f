// Package syncmanager implements the Sync Manager (§4.7): the top-level
// state machine orchestrating init, commit, pull, checkout, merge, reset,
// status and bootstrap, each under a repository-wide exclusive guard (§5).
package syncmanager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/deltadetector"
	"github.com/sevigo/docsync/internal/hydrator"
	"github.com/sevigo/docsync/internal/stager"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// Manager is the Sync Manager: the only permitted writer of XS and VS (§5).
type Manager struct {
	repoID   string
	vs       vsadapter.VS
	xs       xsadapter.XS
	state    *statestore.Store
	detector *deltadetector.Detector
	stager   *stager.Stager
	hydrator *hydrator.Hydrator
	locks    *repoLockRegistry
	logger   *slog.Logger
}

// New returns a Manager for one VS/XS repository pairing, identified by
// repoID (the VS path is a reasonable choice). locks may be shared across
// multiple Managers that operate on the same underlying repository so their
// operations still serialize against one another.
func New(repoID string, vs vsadapter.VS, xs xsadapter.XS, state *statestore.Store, detector *deltadetector.Detector, stg *stager.Stager, hyd *hydrator.Hydrator, locks *repoLockRegistry, logger *slog.Logger) *Manager {
	if locks == nil {
		locks = &repoLockRegistry{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repoID: repoID, vs: vs, xs: xs, state: state, detector: detector, stager: stg, hydrator: hyd, locks: locks, logger: logger}
}

// NewLockRegistry constructs a registry that can be shared across Managers
// pointed at the same repository.
func NewLockRegistry() *repoLockRegistry { return &repoLockRegistry{} }

func (m *Manager) withLock(ctx context.Context, fn func(ctx context.Context) (*core.Result, error)) (*core.Result, error) {
	lock := m.locks.lockFor(m.repoID)
	lock.Lock()
	defer lock.Unlock()

	result, err := fn(ctx)
	if ctx.Err() != nil {
		m.unwind(context.Background())
		return &core.Result{Status: core.OpFailed, Err: core.ErrCancelled}, core.ErrCancelled
	}
	return result, err
}

// unwind performs the bounded-cost cancellation rollback (§5): discard
// staged VS changes back to HEAD and mark every known collection's Sync
// State as errored.
func (m *Manager) unwind(ctx context.Context) {
	head, err := m.vs.HeadCommit(ctx)
	if err == nil && head != "" {
		if resetErr := m.vs.ResetHard(ctx, head); resetErr != nil {
			m.logger.ErrorContext(ctx, "syncmanager: unwind reset_hard failed", "error", resetErr)
		}
	}
	states, err := m.state.ListSyncStates(ctx)
	if err != nil {
		return
	}
	for _, s := range states {
		_ = m.state.MarkError(ctx, s.CollectionName, core.ErrCancelled.Error())
	}
}

// loadCollection reads a Collection's codec identity from the VS collections
// table (§6 schema contract).
func (m *Manager) loadCollection(ctx context.Context, name string) (core.Collection, error) {
	sql := fmt.Sprintf("SELECT collection_name, embedding_model, chunk_size, chunk_overlap FROM collections WHERE collection_name = %s", sqlQuote(name))
	rows, err := m.vs.QueryJSON(ctx, sql)
	if err != nil {
		return core.Collection{}, fmt.Errorf("syncmanager: load collection %s: %w", name, err)
	}
	if len(rows) == 0 {
		return core.Collection{}, fmt.Errorf("%w: collection %s", core.ErrSchemaMissing, name)
	}
	row := rows[0]
	coll := core.Collection{Name: name}
	if v, ok := row["embedding_model"].(string); ok {
		coll.EmbeddingModel = v
	}
	if v, ok := row["chunk_size"].(float64); ok {
		coll.ChunkSize = int(v)
	}
	if v, ok := row["chunk_overlap"].(float64); ok {
		coll.ChunkOverlap = int(v)
	}
	return coll, nil
}

// insertCollectionRow writes the VS collections row for a collection whose
// codec identity was sourced from the XS (§4.7 initialize_from_xs, §8
// Scenario 1: the VS has no commits yet, so no such row exists).
func (m *Manager) insertCollectionRow(ctx context.Context, coll core.Collection) error {
	sql := fmt.Sprintf(
		`INSERT INTO collections (collection_name, display_name, embedding_model, chunk_size, chunk_overlap, created_at, updated_at, document_count) VALUES (%s, %s, %s, %d, %d, %s, %s, 0)`,
		sqlQuote(coll.Name), sqlQuote(coll.Name), sqlQuote(coll.EmbeddingModel), coll.ChunkSize, coll.ChunkOverlap,
		sqlQuote(nowUTC().Format(time.RFC3339)), sqlQuote(nowUTC().Format(time.RFC3339)),
	)
	if _, err := m.vs.Exec(ctx, sql); err != nil {
		return fmt.Errorf("syncmanager: insert collection row %s: %w", coll.Name, err)
	}
	return nil
}

func (m *Manager) ensureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(documentsSchemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.vs.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("syncmanager: apply schema: %w", err)
		}
	}
	return nil
}

func sqlQuote(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '\'')
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, r)
	}
	out = append(out, '\'')
	return string(out)
}

func nowUTC() time.Time { return time.Now().UTC() }

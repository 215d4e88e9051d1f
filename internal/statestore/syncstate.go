package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sevigo/docsync/internal/core"
)

type syncStateRow struct {
	CollectionName string `db:"collection_name"`
	LastSyncCommit string `db:"last_sync_commit"`
	LastSyncAt     string `db:"last_sync_at"`
	DocumentCount  int    `db:"document_count"`
	ChunkCount     int    `db:"chunk_count"`
	EmbeddingModel string `db:"embedding_model"`
	Status         string `db:"status"`
	ErrorMessage   string `db:"error_message"`
}

// GetSyncState returns the Sync State for a collection, or ErrNotFound if
// the collection has never been synced (§3: created on first sync).
func (s *Store) GetSyncState(ctx context.Context, collectionName string) (*core.SyncState, error) {
	var row syncStateRow
	err := s.GetContext(ctx, &row,
		`SELECT collection_name, last_sync_commit, last_sync_at, document_count, chunk_count, embedding_model, status, error_message
		 FROM sync_state WHERE collection_name = ?`, collectionName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("statestore: get sync state: %w", err)
	}

	lastSyncAt, err := parseTime(row.LastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("statestore: parse last_sync_at: %w", err)
	}
	return &core.SyncState{
		CollectionName: row.CollectionName,
		LastSyncCommit: row.LastSyncCommit,
		LastSyncAt:     lastSyncAt,
		DocumentCount:  row.DocumentCount,
		ChunkCount:     row.ChunkCount,
		EmbeddingModel: row.EmbeddingModel,
		Status:         core.SyncStatus(row.Status),
		ErrorMessage:   row.ErrorMessage,
	}, nil
}

// ListSyncStates returns the Sync State for every collection known to the
// store, used by status() (§4.7) to build sync_state_per_collection.
func (s *Store) ListSyncStates(ctx context.Context) ([]core.SyncState, error) {
	var rows []syncStateRow
	err := s.SelectContext(ctx, &rows,
		`SELECT collection_name, last_sync_commit, last_sync_at, document_count, chunk_count, embedding_model, status, error_message
		 FROM sync_state ORDER BY collection_name`)
	if err != nil {
		return nil, fmt.Errorf("statestore: list sync states: %w", err)
	}

	states := make([]core.SyncState, len(rows))
	for i, row := range rows {
		lastSyncAt, err := parseTime(row.LastSyncAt)
		if err != nil {
			return nil, fmt.Errorf("statestore: parse last_sync_at: %w", err)
		}
		states[i] = core.SyncState{
			CollectionName: row.CollectionName,
			LastSyncCommit: row.LastSyncCommit,
			LastSyncAt:     lastSyncAt,
			DocumentCount:  row.DocumentCount,
			ChunkCount:     row.ChunkCount,
			EmbeddingModel: row.EmbeddingModel,
			Status:         core.SyncStatus(row.Status),
			ErrorMessage:   row.ErrorMessage,
		}
	}
	return states, nil
}

// PutSyncState inserts or replaces the Sync State for a collection. Only the
// Sync Manager writes this (§5).
func (s *Store) PutSyncState(ctx context.Context, state core.SyncState) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO sync_state (collection_name, last_sync_commit, last_sync_at, document_count, chunk_count, embedding_model, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(collection_name) DO UPDATE SET
		   last_sync_commit=excluded.last_sync_commit, last_sync_at=excluded.last_sync_at,
		   document_count=excluded.document_count, chunk_count=excluded.chunk_count,
		   embedding_model=excluded.embedding_model, status=excluded.status, error_message=excluded.error_message`,
		state.CollectionName, state.LastSyncCommit, state.LastSyncAt.UTC().Format(timeLayout),
		state.DocumentCount, state.ChunkCount, state.EmbeddingModel, string(state.Status), state.ErrorMessage)
	if err != nil {
		return fmt.Errorf("statestore: put sync state: %w", err)
	}
	return nil
}

// MarkError sets a collection's Sync State to StatusError with message,
// used by the cancellation/unwind path (§5).
func (s *Store) MarkError(ctx context.Context, collectionName, message string) error {
	_, err := s.ExecContext(ctx,
		`UPDATE sync_state SET status = ?, error_message = ? WHERE collection_name = ?`,
		string(core.StatusError), message, collectionName)
	if err != nil {
		return fmt.Errorf("statestore: mark error: %w", err)
	}
	return nil
}

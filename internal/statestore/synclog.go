package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sevigo/docsync/internal/core"
)

// ErrNotFound mirrors the teacher's storage.ErrNotFound (§7: the Sync Log
// and Sync State are read under the operation lock; a missing entry is not
// itself one of the §7 error kinds, so it gets the same plain sentinel the
// teacher uses for "no row").
var ErrNotFound = errors.New("state store: record not found")

type syncLogRow struct {
	CollectionName string `db:"collection_name"`
	DocID          string `db:"doc_id"`
	ContentHash    string `db:"content_hash"`
	ChunkIDsJSON   string `db:"chunk_ids_json"`
	Direction      string `db:"direction"`
	Action         string `db:"action"`
	SyncedAt       string `db:"synced_at"`
}

// GetSyncLogEntry returns the Sync Log entry for (collectionName, docID), or
// ErrNotFound if none exists.
func (s *Store) GetSyncLogEntry(ctx context.Context, collectionName, docID string) (*core.SyncLogEntry, error) {
	var row syncLogRow
	err := s.GetContext(ctx, &row,
		`SELECT collection_name, doc_id, content_hash, chunk_ids_json, direction, action, synced_at
		 FROM sync_log WHERE collection_name = ? AND doc_id = ?`, collectionName, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("statestore: get sync log entry: %w", err)
	}
	return rowToEntry(row)
}

// ListSyncLogEntries returns every Sync Log entry for a collection.
func (s *Store) ListSyncLogEntries(ctx context.Context, collectionName string) ([]core.SyncLogEntry, error) {
	var rows []syncLogRow
	err := s.SelectContext(ctx, &rows,
		`SELECT collection_name, doc_id, content_hash, chunk_ids_json, direction, action, synced_at
		 FROM sync_log WHERE collection_name = ? ORDER BY doc_id`, collectionName)
	if err != nil {
		return nil, fmt.Errorf("statestore: list sync log entries: %w", err)
	}

	entries := make([]core.SyncLogEntry, len(rows))
	for i, row := range rows {
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries[i] = *entry
	}
	return entries, nil
}

// PutSyncLogEntry inserts or replaces the Sync Log entry for (collection,
// doc_id). The Sync Log is the last thing written on success (§7): callers
// must write VS/XS before calling this.
func (s *Store) PutSyncLogEntry(ctx context.Context, entry core.SyncLogEntry) error {
	chunkIDsJSON, err := json.Marshal(entry.ChunkIDs)
	if err != nil {
		return fmt.Errorf("statestore: marshal chunk ids: %w", err)
	}

	_, err = s.ExecContext(ctx,
		`INSERT INTO sync_log (collection_name, doc_id, content_hash, chunk_ids_json, direction, action, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(collection_name, doc_id) DO UPDATE SET
		   content_hash=excluded.content_hash, chunk_ids_json=excluded.chunk_ids_json,
		   direction=excluded.direction, action=excluded.action, synced_at=excluded.synced_at`,
		entry.CollectionName, entry.DocID, entry.ContentHash, string(chunkIDsJSON),
		string(entry.Direction), string(entry.Action), entry.SyncedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("statestore: put sync log entry: %w", err)
	}
	return nil
}

// DeleteSyncLogEntry removes the Sync Log entry for (collection, doc_id).
func (s *Store) DeleteSyncLogEntry(ctx context.Context, collectionName, docID string) error {
	_, err := s.ExecContext(ctx,
		`DELETE FROM sync_log WHERE collection_name = ? AND doc_id = ?`, collectionName, docID)
	if err != nil {
		return fmt.Errorf("statestore: delete sync log entry: %w", err)
	}
	return nil
}

func rowToEntry(row syncLogRow) (*core.SyncLogEntry, error) {
	var chunkIDs []string
	if err := json.Unmarshal([]byte(row.ChunkIDsJSON), &chunkIDs); err != nil {
		return nil, fmt.Errorf("statestore: unmarshal chunk ids: %w", err)
	}
	syncedAt, err := parseTime(row.SyncedAt)
	if err != nil {
		return nil, fmt.Errorf("statestore: parse synced_at: %w", err)
	}
	return &core.SyncLogEntry{
		CollectionName: row.CollectionName,
		DocID:          row.DocID,
		ContentHash:    row.ContentHash,
		ChunkIDs:       chunkIDs,
		Direction:      core.SyncDirection(row.Direction),
		Action:         core.SyncAction(row.Action),
		SyncedAt:       syncedAt,
	}, nil
}

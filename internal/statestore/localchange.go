package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetLocalChangeFlag reports whether (collectionName, docID) carries the
// advisory Local-Change flag (§3). A missing row means false, not an error:
// the flag is advisory, and its absence is the common case.
func (s *Store) GetLocalChangeFlag(ctx context.Context, collectionName, docID string) (bool, error) {
	var flag bool
	err := s.GetContext(ctx, &flag,
		`SELECT flag FROM local_change_flags WHERE collection_name = ? AND doc_id = ?`, collectionName, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("statestore: get local change flag: %w", err)
	}
	return flag, nil
}

// SetLocalChangeFlag sets or clears the Local-Change flag for a document.
func (s *Store) SetLocalChangeFlag(ctx context.Context, collectionName, docID string, flag bool) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO local_change_flags (collection_name, doc_id, flag) VALUES (?, ?, ?)
		 ON CONFLICT(collection_name, doc_id) DO UPDATE SET flag=excluded.flag`,
		collectionName, docID, flag)
	if err != nil {
		return fmt.Errorf("statestore: set local change flag: %w", err)
	}
	return nil
}

// ClearLocalChangeFlag removes the row entirely.
func (s *Store) ClearLocalChangeFlag(ctx context.Context, collectionName, docID string) error {
	_, err := s.ExecContext(ctx,
		`DELETE FROM local_change_flags WHERE collection_name = ? AND doc_id = ?`, collectionName, docID)
	if err != nil {
		return fmt.Errorf("statestore: clear local change flag: %w", err)
	}
	return nil
}

// ListLocalChangeFlags returns every doc_id in a collection currently
// flagged as locally changed.
func (s *Store) ListLocalChangeFlags(ctx context.Context, collectionName string) ([]string, error) {
	var docIDs []string
	err := s.SelectContext(ctx, &docIDs,
		`SELECT doc_id FROM local_change_flags WHERE collection_name = ? AND flag = 1 ORDER BY doc_id`, collectionName)
	if err != nil {
		return nil, fmt.Errorf("statestore: list local change flags: %w", err)
	}
	return docIDs, nil
}

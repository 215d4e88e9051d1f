// Package stager implements the Stager (§4.5): applies XS -> VS deltas by
// inserting, updating and deleting rows in the VS documents table, then
// staging them with a single add_all. It never commits; that is the Sync
// Manager's job.
package stager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sevigo/docsync/internal/codec"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// Result is the outcome of one Apply call (§4.5).
type Result struct {
	Added      int
	Modified   int
	Deleted    int
	StagedRows int
}

// Stager applies an XS->VS DeltaSet to the VS documents table, cleaning up
// after itself on failure the same way the teacher's cloneAndIndex/
// incrementalUpdate remove a half-written clone directory on error.
type Stager struct {
	vs     vsadapter.VS
	xs     xsadapter.XS
	state  *statestore.Store
	logger *slog.Logger
}

// New returns a Stager writing through vs, reading chunk content from xs.
func New(vs vsadapter.VS, xs xsadapter.XS, state *statestore.Store, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{vs: vs, xs: xs, state: state, logger: logger}
}

// Apply applies delta to collectionName, then issues a single add_all. On
// any failure the VS working tree is reset to lastKnownCleanCommit and the
// error is returned. A deleted row's Sync Log entry is removed here; no Sync
// Log entry is written for inserted or updated rows.
func (s *Stager) Apply(ctx context.Context, collectionName string, delta core.DeltaSet, chunkOverlap int, lastKnownCleanCommit string) (Result, error) {
	var res Result

	for _, d := range delta.New {
		if err := s.insertDocument(ctx, collectionName, d.DocID, chunkOverlap); err != nil {
			return res, s.abandon(ctx, lastKnownCleanCommit, fmt.Errorf("%w: insert %s: %w", core.ErrStagerFailure, d.DocID, err))
		}
		res.Added++
		res.StagedRows++
	}

	for _, d := range delta.Modified {
		if err := s.updateDocument(ctx, collectionName, d.DocID, chunkOverlap); err != nil {
			return res, s.abandon(ctx, lastKnownCleanCommit, fmt.Errorf("%w: update %s: %w", core.ErrStagerFailure, d.DocID, err))
		}
		res.Modified++
		res.StagedRows++
	}

	for _, d := range delta.Deleted {
		if err := s.deleteDocument(ctx, collectionName, d.DocID); err != nil {
			return res, s.abandon(ctx, lastKnownCleanCommit, fmt.Errorf("%w: delete %s: %w", core.ErrStagerFailure, d.DocID, err))
		}
		res.Deleted++
		res.StagedRows++
	}

	if res.StagedRows == 0 {
		return res, nil
	}

	if err := s.vs.AddAll(ctx); err != nil {
		return res, s.abandon(ctx, lastKnownCleanCommit, fmt.Errorf("%w: add_all: %w", core.ErrStagerFailure, err))
	}
	return res, nil
}

func (s *Stager) insertDocument(ctx context.Context, collectionName, docID string, chunkOverlap int) error {
	content, metadata, err := s.reassemble(ctx, collectionName, docID, chunkOverlap)
	if err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("stager: marshal metadata: %w", err)
	}

	stmt := fmt.Sprintf(
		`INSERT INTO documents (doc_id, collection_name, content, content_hash, metadata_json) VALUES (%s, %s, %s, %s, %s)`,
		sqlQuote(docID), sqlQuote(collectionName), sqlQuote(content), sqlQuote(codec.ContentHash(content)), sqlQuote(string(metadataJSON)),
	)
	_, err = s.vs.Exec(ctx, stmt)
	return err
}

func (s *Stager) updateDocument(ctx context.Context, collectionName, docID string, chunkOverlap int) error {
	content, metadata, err := s.reassemble(ctx, collectionName, docID, chunkOverlap)
	if err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("stager: marshal metadata: %w", err)
	}

	stmt := fmt.Sprintf(
		`UPDATE documents SET content = %s, content_hash = %s, metadata_json = %s WHERE doc_id = %s AND collection_name = %s`,
		sqlQuote(content), sqlQuote(codec.ContentHash(content)), sqlQuote(string(metadataJSON)), sqlQuote(docID), sqlQuote(collectionName),
	)
	_, err = s.vs.Exec(ctx, stmt)
	return err
}

func (s *Stager) deleteDocument(ctx context.Context, collectionName, docID string) error {
	stmt := fmt.Sprintf(
		`DELETE FROM documents WHERE doc_id = %s AND collection_name = %s`,
		sqlQuote(docID), sqlQuote(collectionName),
	)
	if _, err := s.vs.Exec(ctx, stmt); err != nil {
		return err
	}
	return s.state.DeleteSyncLogEntry(ctx, collectionName, docID)
}

// reassemble reads every chunk for docID from the XS and decodes it back
// into (content, user metadata) via the codec's ingress rules (§4.3).
func (s *Stager) reassemble(ctx context.Context, collectionName, docID string, chunkOverlap int) (string, map[string]string, error) {
	records, err := s.xs.ListIDsWithMetadata(ctx, collectionName)
	if err != nil {
		return "", nil, fmt.Errorf("stager: list xs chunks: %w", err)
	}

	var chunks []core.Chunk
	for _, rec := range records {
		_, sys := codec.PartitionIngress(rec.Metadata)
		if sys.SourceID != docID {
			continue
		}
		chunks = append(chunks, core.Chunk{ID: rec.ID, ChunkIndex: sys.ChunkIndex, Content: rec.Content, Metadata: rec.Metadata})
	}
	if len(chunks) == 0 {
		return "", nil, fmt.Errorf("stager: no xs chunks found for doc_id %s", docID)
	}

	content, userMeta, err := codec.Decode(chunks, chunkOverlap)
	if err != nil {
		return "", nil, err
	}
	return content, userMeta, nil
}

// abandon resets the VS working tree to lastKnownCleanCommit, per §4.5's
// "batch is abandoned... reset_hard to the last known clean commit."
func (s *Stager) abandon(ctx context.Context, lastKnownCleanCommit string, cause error) error {
	if lastKnownCleanCommit != "" {
		if resetErr := s.vs.ResetHard(ctx, lastKnownCleanCommit); resetErr != nil {
			s.logger.ErrorContext(ctx, "stager: failed to reset vs after abandoned batch", "error", resetErr)
		}
	}
	return cause
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

// Package hydrator implements the Hydrator (§4.6): applies VS -> XS deltas,
// either incrementally from a VS diff stream or by fully regenerating a
// collection's chunks and embeddings from the VS documents table.
package hydrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sevigo/docsync/internal/codec"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
	"golang.org/x/sync/errgroup"
)

// EmbedFunc computes embeddings for a batch of chunk contents (§6's
// caller-supplied embed(list<string>) -> list<vector>).
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Result is the outcome of one hydration pass.
type Result struct {
	Added    int
	Modified int
	Deleted  int
}

// Hydrator writes chunks and embeddings into the XS from VS-owned content.
type Hydrator struct {
	vs              vsadapter.VS
	xs              xsadapter.XS
	state           *statestore.Store
	embed           EmbedFunc
	embedConcurrency int
	logger          *slog.Logger
}

// New returns a Hydrator. embedConcurrency bounds how many XS insert batches
// of one document run concurrently; 0 defaults to 4.
func New(vs vsadapter.VS, xs xsadapter.XS, state *statestore.Store, embed EmbedFunc, embedConcurrency int, logger *slog.Logger) *Hydrator {
	if embedConcurrency <= 0 {
		embedConcurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{vs: vs, xs: xs, state: state, embed: embed, embedConcurrency: embedConcurrency, logger: logger}
}

// Incremental consumes the VS diff stream between fromCommit and toCommit for
// collectionName and applies it to the XS, refusing with core.ErrModelMismatch
// if the collection's configured embedding model differs from the one
// recorded in its Sync State (§4.6 "embedding model invariant").
func (h *Hydrator) Incremental(ctx context.Context, collectionName, fromCommit, toCommit string, coll core.Collection) (Result, error) {
	if state, err := h.state.GetSyncState(ctx, collectionName); err == nil {
		if state.EmbeddingModel != "" && state.EmbeddingModel != coll.EmbeddingModel {
			return Result{}, fmt.Errorf("%w: sync state has %q, configured %q", core.ErrModelMismatch, state.EmbeddingModel, coll.EmbeddingModel)
		}
	} else if err != statestore.ErrNotFound {
		return Result{}, fmt.Errorf("hydrator: get sync state: %w", err)
	}

	rows, err := h.vs.Diff(ctx, fromCommit, toCommit, "documents")
	if err != nil {
		return Result{}, fmt.Errorf("hydrator: diff: %w", err)
	}

	// Ordering within a batch is by (collection, doc_id); ties broken by diff
	// order (§4.6). All rows here already belong to one collection, so a
	// stable sort on ID alone preserves diff order for ties.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	var res Result
	for _, row := range rows {
		switch row.Kind {
		case vsadapter.DiffAdded:
			if err := h.hydrateDoc(ctx, collectionName, row.ID, row.ToContent, coll, toCommit); err != nil {
				return res, err
			}
			res.Added++
		case vsadapter.DiffModified:
			if err := h.replaceDoc(ctx, collectionName, row.ID, row.ToContent, coll, toCommit); err != nil {
				return res, err
			}
			res.Modified++
		case vsadapter.DiffRemoved:
			if err := h.removeDoc(ctx, collectionName, row.ID); err != nil {
				return res, err
			}
			res.Deleted++
		}
	}
	return res, nil
}

// FullRegenerate drops and recreates collectionName in the XS using coll's
// codec identity, then re-hydrates every VS row for it (§4.6 "full
// regenerate"). atCommit is recorded as each chunk's source_commit metadata.
func (h *Hydrator) FullRegenerate(ctx context.Context, collectionName string, coll core.Collection, atCommit string) (Result, error) {
	if err := h.xs.DeleteCollection(ctx, collectionName); err != nil {
		h.logger.WarnContext(ctx, "hydrator: delete collection before regenerate failed, continuing", "collection", collectionName, "error", err)
	}
	if err := h.xs.CreateCollection(ctx, collectionName, xsadapter.CollectionConfig{
		EmbeddingModel: coll.EmbeddingModel, ChunkSize: coll.ChunkSize, ChunkOverlap: coll.ChunkOverlap,
	}); err != nil {
		return Result{}, fmt.Errorf("hydrator: recreate collection: %w", err)
	}

	sqlStmt := fmt.Sprintf("SELECT doc_id, content FROM documents WHERE collection_name = %s", sqlQuote(collectionName))
	rows, err := h.vs.QueryJSON(ctx, sqlStmt)
	if err != nil {
		return Result{}, fmt.Errorf("hydrator: query documents: %w", err)
	}

	var res Result
	for _, row := range rows {
		docID, _ := row["doc_id"].(string)
		content, _ := row["content"].(string)
		if err := h.hydrateDoc(ctx, collectionName, docID, content, coll, atCommit); err != nil {
			return res, err
		}
		res.Added++
	}
	return res, nil
}

func (h *Hydrator) hydrateDoc(ctx context.Context, collectionName, docID, content string, coll core.Collection, sourceCommit string) error {
	doc := core.Document{
		DocID: docID, CollectionName: collectionName, Content: content, ContentHash: codec.ContentHash(content),
	}
	chunks := codec.Encode(doc, coll.ChunkSize, coll.ChunkOverlap, sourceCommit)
	if err := h.embedAndInsert(ctx, collectionName, chunks); err != nil {
		return fmt.Errorf("%w: doc %s: %w", core.ErrHydratorFailure, docID, err)
	}

	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}
	if err := h.state.PutSyncLogEntry(ctx, core.SyncLogEntry{
		CollectionName: collectionName, DocID: docID, ContentHash: doc.ContentHash, ChunkIDs: chunkIDs,
		Direction: core.DirectionVSToXS, Action: core.ActionAdded, SyncedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("%w: doc %s: sync log: %w", core.ErrHydratorFailure, docID, err)
	}
	return nil
}

func (h *Hydrator) replaceDoc(ctx context.Context, collectionName, docID, content string, coll core.Collection, sourceCommit string) error {
	if err := h.deleteExistingChunks(ctx, collectionName, docID); err != nil {
		return fmt.Errorf("%w: doc %s: %w", core.ErrHydratorFailure, docID, err)
	}

	doc := core.Document{
		DocID: docID, CollectionName: collectionName, Content: content, ContentHash: codec.ContentHash(content),
	}
	chunks := codec.Encode(doc, coll.ChunkSize, coll.ChunkOverlap, sourceCommit)
	if err := h.embedAndInsert(ctx, collectionName, chunks); err != nil {
		return fmt.Errorf("%w: doc %s: %w", core.ErrHydratorFailure, docID, err)
	}

	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}
	return h.state.PutSyncLogEntry(ctx, core.SyncLogEntry{
		CollectionName: collectionName, DocID: docID, ContentHash: doc.ContentHash, ChunkIDs: chunkIDs,
		Direction: core.DirectionVSToXS, Action: core.ActionModified, SyncedAt: time.Now().UTC(),
	})
}

func (h *Hydrator) removeDoc(ctx context.Context, collectionName, docID string) error {
	if err := h.deleteExistingChunks(ctx, collectionName, docID); err != nil {
		return fmt.Errorf("%w: doc %s: %w", core.ErrHydratorFailure, docID, err)
	}
	return h.state.DeleteSyncLogEntry(ctx, collectionName, docID)
}

func (h *Hydrator) deleteExistingChunks(ctx context.Context, collectionName, docID string) error {
	entry, err := h.state.GetSyncLogEntry(ctx, collectionName, docID)
	if err != nil {
		if err == statestore.ErrNotFound {
			return nil
		}
		return err
	}
	if len(entry.ChunkIDs) == 0 {
		return nil
	}
	return h.xs.Delete(ctx, collectionName, entry.ChunkIDs)
}

// embedAndInsert computes embeddings for all of chunks' content in one embed
// call, then inserts them into the XS in batches of 32 run with bounded
// concurrency via errgroup, the same concurrency idiom the teacher uses to
// bound batched Qdrant upserts.
func (h *Hydrator) embedAndInsert(ctx context.Context, collectionName string, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := h.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed: expected %d vectors, got %d", len(chunks), len(embeddings))
	}

	ids := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		docs[i] = c.Content
		metadatas[i] = c.Metadata
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(h.embedConcurrency)
	batchSize := 32
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		start, end := start, end
		g.Go(func() error {
			return h.xs.Add(gCtx, collectionName, ids[start:end], docs[start:end], metadatas[start:end], embeddings[start:end])
		})
	}
	return g.Wait()
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

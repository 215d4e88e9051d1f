// Package deltadetector implements the Delta Detector (§4.4): pure-read
// comparison of the VS documents table and the XS chunk store against the
// Sync Log, in both directions. Neither detector ever mutates a store; the
// Stager and Hydrator do that.
package deltadetector

import (
	"context"
	"fmt"
	"sort"

	"github.com/sevigo/docsync/internal/codec"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// Detector computes VS<->XS delta sets for a collection, grounded on
// repomanager's scan-then-classify shape (internal/repomanager/sync.go and
// scan.go) but reading from the VS/XS capability sets instead of a git
// worktree.
type Detector struct {
	vs    vsadapter.VS
	xs    xsadapter.XS
	state *statestore.Store
}

// New returns a Detector reading from vs, xs and state.
func New(vs vsadapter.VS, xs xsadapter.XS, state *statestore.Store) *Detector {
	return &Detector{vs: vs, xs: xs, state: state}
}

type vsDocRow struct {
	DocID       string `db:"doc_id"`
	ContentHash string `db:"content_hash"`
}

// VSToXSPending computes the pending-changes set the Hydrator would need to
// apply to bring the XS up to date with the VS documents table for
// collectionName (§4.4 "VS -> XS pending").
func (d *Detector) VSToXSPending(ctx context.Context, collectionName string) (core.DeltaSet, error) {
	vsRows, err := d.queryDocuments(ctx, collectionName)
	if err != nil {
		return core.DeltaSet{}, err
	}

	logEntries, err := d.state.ListSyncLogEntries(ctx, collectionName)
	if err != nil {
		return core.DeltaSet{}, fmt.Errorf("deltadetector: list sync log: %w", err)
	}
	logByDocID := make(map[string]core.SyncLogEntry, len(logEntries))
	for _, e := range logEntries {
		logByDocID[e.DocID] = e
	}

	var set core.DeltaSet
	seen := make(map[string]struct{}, len(vsRows))
	for _, row := range vsRows {
		seen[row.DocID] = struct{}{}
		entry, ok := logByDocID[row.DocID]
		if !ok {
			set.New = append(set.New, core.Delta{
				CollectionName: collectionName, DocID: row.DocID, Kind: core.DeltaNew, ContentHash: row.ContentHash,
			})
			continue
		}
		if entry.ContentHash != row.ContentHash {
			set.Modified = append(set.Modified, core.Delta{
				CollectionName: collectionName, DocID: row.DocID, Kind: core.DeltaModified, ContentHash: row.ContentHash,
			})
		}
	}

	for _, e := range logEntries {
		if _, ok := seen[e.DocID]; !ok {
			set.Deleted = append(set.Deleted, core.Delta{
				CollectionName: collectionName, DocID: e.DocID, Kind: core.DeltaDeleted,
			})
		}
	}

	sortDeltas(set.New)
	sortDeltas(set.Modified)
	sortDeltas(set.Deleted)
	return set, nil
}

// XSToVSPending computes the pending-changes set the Stager would need to
// apply to bring the VS up to date with the XS for collectionName (§4.4
// "XS -> VS pending"). chunkOverlap must be the collection's configured
// overlap, needed to reassemble chunk content for the hash-mismatch check.
func (d *Detector) XSToVSPending(ctx context.Context, collectionName string, chunkOverlap int) (core.DeltaSet, error) {
	records, err := d.xs.ListIDsWithMetadata(ctx, collectionName)
	if err != nil {
		return core.DeltaSet{}, fmt.Errorf("deltadetector: list xs chunks: %w", err)
	}

	byDocID := make(map[string][]core.Chunk)
	for _, rec := range records {
		_, sys := codec.PartitionIngress(rec.Metadata)
		byDocID[sys.SourceID] = append(byDocID[sys.SourceID], core.Chunk{
			ID:         rec.ID,
			SourceID:   sys.SourceID,
			ChunkIndex: sys.ChunkIndex,
			Content:    rec.Content,
			Metadata:   rec.Metadata,
		})
	}

	logEntries, err := d.state.ListSyncLogEntries(ctx, collectionName)
	if err != nil {
		return core.DeltaSet{}, fmt.Errorf("deltadetector: list sync log: %w", err)
	}
	logByDocID := make(map[string]core.SyncLogEntry, len(logEntries))
	for _, e := range logEntries {
		logByDocID[e.DocID] = e
	}

	var set core.DeltaSet
	seen := make(map[string]struct{}, len(byDocID))
	for docID, chunks := range byDocID {
		seen[docID] = struct{}{}

		flagged, err := d.state.GetLocalChangeFlag(ctx, collectionName, docID)
		if err != nil {
			return core.DeltaSet{}, fmt.Errorf("deltadetector: get local change flag: %w", err)
		}

		// codec.Decode itself fails on a content_hash mismatch against the
		// chunk's own recorded system metadata; that is a different check
		// than the one here (against the Sync Log's last-known hash), so the
		// reassembled content is still used even when Decode reports an error.
		content, _, _ := codec.Decode(chunks, chunkOverlap)
		reassembledHash := codec.ContentHash(content)

		entry, hasEntry := logByDocID[docID]
		switch {
		case !hasEntry:
			set.New = append(set.New, core.Delta{
				CollectionName: collectionName, DocID: docID, Kind: core.DeltaNew, ContentHash: reassembledHash,
			})
		case flagged || entry.ContentHash != reassembledHash:
			set.Modified = append(set.Modified, core.Delta{
				CollectionName: collectionName, DocID: docID, Kind: core.DeltaModified, ContentHash: reassembledHash,
			})
		}
	}

	for _, e := range logEntries {
		if _, ok := seen[e.DocID]; !ok {
			set.Deleted = append(set.Deleted, core.Delta{
				CollectionName: collectionName, DocID: e.DocID, Kind: core.DeltaDeleted,
			})
		}
	}

	sortDeltas(set.New)
	sortDeltas(set.Modified)
	sortDeltas(set.Deleted)
	return set, nil
}

func (d *Detector) queryDocuments(ctx context.Context, collectionName string) ([]vsDocRow, error) {
	sql := fmt.Sprintf(
		"SELECT doc_id, content_hash FROM documents WHERE collection_name = '%s'",
		escapeSingleQuotes(collectionName),
	)
	rows, err := d.vs.QueryJSON(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("deltadetector: query documents: %w", err)
	}

	out := make([]vsDocRow, 0, len(rows))
	for _, row := range rows {
		docID, _ := row["doc_id"].(string)
		hash, _ := row["content_hash"].(string)
		out = append(out, vsDocRow{DocID: docID, ContentHash: hash})
	}
	return out, nil
}

func escapeSingleQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func sortDeltas(deltas []core.Delta) {
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].DocID < deltas[j].DocID })
}

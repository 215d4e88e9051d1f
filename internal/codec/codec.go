// Package codec implements the Document Codec (§4.3): deterministic
// chunking, content hashing, chunk-id assembly, and the metadata
// partition/merge rules that keep VS-owned and XS-owned fields from
// colliding.
package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/docsync/internal/core"
)

// Encode splits a Document into the Chunks that should live in the XS,
// computing each chunk's content hash reference, index metadata, and merged
// user+system metadata, using the owning Collection's chunkSize/chunkOverlap.
// Embeddings are left nil; the caller (Hydrator) fills them in via the
// configured embed() function.
func Encode(doc core.Document, chunkSize, chunkOverlap int, sourceCommit string) []core.Chunk {
	pieces := Chunk(doc.Content, chunkSize, chunkOverlap)
	total := len(pieces)
	chunks := make([]core.Chunk, total)

	for i, piece := range pieces {
		merged, _ := PartitionEgress(doc.Metadata, SystemValues{
			SourceID:       doc.DocID,
			CollectionName: doc.CollectionName,
			ContentHash:    doc.ContentHash,
			ChunkIndex:     i,
			TotalChunks:    total,
			SourceCommit:   sourceCommit,
		})
		chunks[i] = core.Chunk{
			ID:             ChunkID(doc.DocID, i),
			SourceID:       doc.DocID,
			CollectionName: doc.CollectionName,
			ContentHash:    doc.ContentHash,
			ChunkIndex:     i,
			TotalChunks:    total,
			Content:        piece,
			Metadata:       merged,
		}
	}
	return chunks
}

// Decode reassembles a Document's content from its Chunks, removing overlap,
// verifying the reassembled content hashes to the content_hash recorded in
// chunk metadata, and returning the recovered user metadata (§4.3 ingress).
// It fails with core.ErrContentHashMismatch if verification fails.
func Decode(chunks []core.Chunk, chunkOverlap int) (content string, userMetadata map[string]string, err error) {
	if len(chunks) == 0 {
		return "", nil, fmt.Errorf("codec: no chunks to decode")
	}

	sorted := make([]core.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkIndex < sorted[j].ChunkIndex })

	var b strings.Builder
	for i, c := range sorted {
		piece := c.Content
		if i > 0 && chunkOverlap > 0 {
			if len(piece) >= chunkOverlap {
				piece = piece[chunkOverlap:]
			} else {
				// A trailing chunk shorter than the overlap lies wholly
				// inside the previous chunk.
				piece = ""
			}
		}
		b.WriteString(piece)
	}
	content = b.String()

	userMeta, sys := PartitionIngress(sorted[0].Metadata)
	gotHash := ContentHash(content)
	if sys.ContentHash != "" && sys.ContentHash != gotHash {
		return content, userMeta, fmt.Errorf("%w: recorded %s, recomputed %s", core.ErrContentHashMismatch, sys.ContentHash, gotHash)
	}
	return content, userMeta, nil
}

package codec

import "fmt"

// Chunk walks the content's byte stream and produces the deterministic
// windowed chunks described in §4.3: start at 0, emit content[start:start+S]
// clipped to length, advance start by (S-O), stop when start >= len(content).
// Empty content yields exactly one empty chunk.
//
// Two independent implementations of this exact algorithm over the same
// (content, S, O) must produce byte-for-byte identical arrays (the chunking
// law, §8) — that is the whole reason the walk is specified this precisely
// instead of left to a library's own windowing choice.
func Chunk(content string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		panic("codec: chunkSize must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		panic(fmt.Sprintf("codec: overlap must satisfy 0 <= overlap < chunkSize (got overlap=%d, size=%d)", overlap, chunkSize))
	}

	b := []byte(content)
	if len(b) == 0 {
		return []string{""}
	}

	stride := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(b); start += stride {
		end := start + chunkSize
		if end > len(b) {
			end = len(b)
		}
		chunks = append(chunks, string(b[start:end]))
	}
	return chunks
}

// ChunkID assembles the chunk id exactly as "{doc_id}_chunk_{i}" (§4.3).
// Ids are never reused across modifications: an update deletes all chunks
// for a doc_id and inserts fresh ones under the same scheme.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}

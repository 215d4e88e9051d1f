package codec

import (
	"testing"

	"github.com/sevigo/docsync/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyContent(t *testing.T) {
	chunks := Chunk("", 512, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestChunk_ExactMultipleNoOverlap(t *testing.T) {
	content := make([]byte, 30)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	chunks := Chunk(string(content), 10, 0)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Len(t, c, 10)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	content := "the quick brown fox jumps over the lazy dog, repeatedly, to pad this out a bit further than one window"
	a := Chunk(content, 20, 5)
	b := Chunk(content, 20, 5)
	assert.Equal(t, a, b, "two runs over the same input must produce byte-identical chunk arrays")
}

func TestChunk_PanicsOnInvalidOverlap(t *testing.T) {
	assert.Panics(t, func() { Chunk("abc", 10, 10) })
	assert.Panics(t, func() { Chunk("abc", 10, -1) })
	assert.Panics(t, func() { Chunk("abc", 0, 0) })
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc1_chunk_0", ChunkID("doc1", 0))
	assert.Equal(t, "doc1_chunk_7", ChunkID("doc1", 7))
}

func TestContentHash_Stable(t *testing.T) {
	h1 := ContentHash("ABC")
	h2 := ContentHash("ABC")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, ContentHash("ABD"))
}

func TestPartitionEgress_RenamesCollidingKeys(t *testing.T) {
	userMeta := map[string]string{
		"author":      "kim",
		"content_hash": "should-be-renamed",
	}
	merged, renamed := PartitionEgress(userMeta, SystemValues{
		SourceID:       "d1",
		CollectionName: "teachings",
		ContentHash:    "real-hash",
		ChunkIndex:     2,
		TotalChunks:    5,
	})

	assert.Equal(t, "real-hash", merged["content_hash"])
	assert.Equal(t, "should-be-renamed", merged["user_content_hash"])
	assert.Equal(t, "kim", merged["author"])
	assert.Equal(t, "2", merged["chunk_index"])
	assert.Equal(t, "5", merged["total_chunks"])
	assert.Equal(t, "user_content_hash", renamed["content_hash"])
}

func TestMetadataRoundTrip(t *testing.T) {
	userMeta := map[string]string{
		"author":      "kim",
		"content_hash": "user-supplied-value",
		"tag":         "draft",
	}
	merged, _ := PartitionEgress(userMeta, SystemValues{
		SourceID:       "d1",
		CollectionName: "teachings",
		ContentHash:    "real-hash",
		ChunkIndex:     0,
		TotalChunks:    1,
	})

	recovered, _ := PartitionIngress(merged)
	assert.Equal(t, userMeta, recovered, "decode(encode(metadata)) must return the original user metadata unchanged")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	doc := core.Document{
		DocID:          "d1",
		CollectionName: "teachings",
		Content:        "ABC",
		ContentHash:    ContentHash("ABC"),
		Metadata:       map[string]string{"author": "kim"},
	}

	chunks := Encode(doc, 512, 50, "commit123")
	require.Len(t, chunks, 1)
	assert.Equal(t, "d1_chunk_0", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].TotalChunks)

	content, userMeta, err := Decode(chunks, 50)
	require.NoError(t, err)
	assert.Equal(t, "ABC", content)
	assert.Equal(t, "kim", userMeta["author"])
}

func TestDecode_DetectsHashMismatch(t *testing.T) {
	doc := core.Document{
		DocID:          "d1",
		CollectionName: "teachings",
		Content:        "ABC",
		ContentHash:    ContentHash("ABC"),
	}
	chunks := Encode(doc, 512, 50, "")
	chunks[0].Content = "TAMPERED"

	_, _, err := Decode(chunks, 50)
	assert.ErrorIs(t, err, core.ErrContentHashMismatch)
}

func TestEncode_MultiChunkWithOverlap(t *testing.T) {
	content := "0123456789abcdefghij" // 20 bytes
	doc := core.Document{
		DocID:          "d2",
		CollectionName: "c",
		Content:        content,
		ContentHash:    ContentHash(content),
	}
	chunks := Encode(doc, 10, 3, "")
	require.True(t, len(chunks) >= 2)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, len(chunks), c.TotalChunks)
	}

	decoded, _, err := Decode(chunks, 3)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

// Package xsadapter implements the XS Adapter (§4.2): a typed surface over
// the external vector store, plus one reference driver backed by a pure-Go
// HNSW graph per collection and a SQLite table for chunk content/metadata.
package xsadapter

// CollectionConfig is the codec identity carried by a collection (§3): the
// triple (embedding_model, chunk_size, chunk_overlap) plus the vector
// dimensionality the embedder produces.
type CollectionConfig struct {
	EmbeddingModel string `db:"embedding_model"`
	ChunkSize      int    `db:"chunk_size"`
	ChunkOverlap   int    `db:"chunk_overlap"`
	Dimensions     int    `db:"dimensions"`
}

// Record is one chunk as returned by Get/ListIDsWithMetadata: content and
// metadata round-trip losslessly (§6); Get and ListIDsWithMetadata leave
// Embedding nil.
type Record struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

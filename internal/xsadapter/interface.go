package xsadapter

import "context"

// XS is the capability set the Sync Manager and its collaborators depend on
// (§4.2, §9 "Dispatch over store kinds"). Contract: single-writer per
// collection; callers must not interleave writes without serialization
// through the Sync Manager.
//
//go:generate mockgen -source=interface.go -destination=mock_xsadapter/mock_xs.go -package=mock_xsadapter
type XS interface {
	// ListCollections lists every collection currently present.
	ListCollections(ctx context.Context) ([]string, error)

	// CreateCollection creates a new, empty collection with cfg as its
	// immutable codec identity.
	CreateCollection(ctx context.Context, name string, cfg CollectionConfig) error

	// CollectionConfig returns the codec identity a collection was created
	// with, the source of truth initialize_from_xs reads before the VS has
	// ever heard of the collection (§4.7 initialize_from_xs).
	CollectionConfig(ctx context.Context, name string) (CollectionConfig, error)

	// DeleteCollection drops a collection and all its chunks.
	DeleteCollection(ctx context.Context, name string) error

	// Count returns the number of chunks currently stored for name.
	Count(ctx context.Context, name string) (int, error)

	// Add inserts new chunks. ids, docs, metadatas and embeddings must be
	// parallel slices of equal length.
	Add(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error

	// Update replaces existing chunks in place, same parallel-slice contract
	// as Add.
	Update(ctx context.Context, name string, ids, docs []string, metadatas []map[string]string, embeddings [][]float32) error

	// Delete removes chunks by id. Deleting an id that does not exist is a
	// no-op.
	Delete(ctx context.Context, name string, ids []string) error

	// Get retrieves chunks by id, returning content and metadata for each
	// (embeddings are not returned; this is a content-roundtrip accessor,
	// not a similarity query, which is out of scope per §1).
	Get(ctx context.Context, name string, ids []string) ([]Record, error)

	// ListIDsWithMetadata enumerates every chunk id and its metadata for a
	// collection, the primitive the Delta Detector scans (§4.4).
	ListIDsWithMetadata(ctx context.Context, name string) ([]Record, error)
}

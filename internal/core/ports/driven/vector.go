package driven

import "context"

// VectorRecord is one vector to upsert into an external index.
type VectorRecord struct {
	// ID is the external vector id. Each id maps to exactly one chunk.
	ID string

	// Values is the embedding vector.
	Values []float32

	// Metadata is attached to the vector and filterable at query time.
	// The registry writes user_id, document_id, chunk_id, modality and
	// group_id here.
	Metadata map[string]string
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ID is the matched vector id.
	ID string

	// Score is the similarity score, higher is closer.
	Score float64

	// Metadata is the vector's stored metadata.
	Metadata map[string]string
}

// VectorIndex is one external similarity index. Namespaces partition the
// index per user and enforce tenant isolation independent of any metadata
// filter.
type VectorIndex interface {
	// Name returns the index name (see domain.IndexText and friends).
	Name() string

	// Dimensions returns the vector length the index accepts.
	Dimensions() int

	// Upsert writes vectors into the given namespace. Idempotent per id.
	Upsert(ctx context.Context, namespace string, records []VectorRecord) error

	// Query returns the topK nearest vectors in the namespace, optionally
	// restricted to vectors whose metadata matches every filter entry.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]VectorHit, error)

	// Delete removes vectors by id from the namespace. Deleting an absent
	// id is not an error.
	Delete(ctx context.Context, namespace string, ids []string) error

	// UpdateMetadata merges metadata onto one vector. Idempotent, so it is
	// safe to retry after partial group-sync failures.
	UpdateMetadata(ctx context.Context, namespace, id string, metadata map[string]string) error
}

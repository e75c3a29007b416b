package domain

import "time"

// Index names, one per modality/dimension pair. Text vectors and cross-modal
// image vectors have different dimensions and must never share an index:
// collapsing them would corrupt similarity geometry.
const (
	// IndexText holds text chunk embeddings (text encoder space).
	IndexText = "text-chunks"

	// IndexUploadedImages holds embeddings of directly uploaded images
	// (cross-modal encoder space).
	IndexUploadedImages = "uploaded-images"

	// IndexExtractedImages holds embeddings of images extracted from
	// documents (cross-modal encoder space).
	IndexExtractedImages = "extracted-images"
)

// VectorMapping links one externally stored embedding vector to exactly one
// chunk. A chunk may carry zero mappings (not yet embedded) or several
// (re-embedded after a model upgrade), but each external vector id maps to
// exactly one chunk.
type VectorMapping struct {
	// VectorID is the id of the vector in the external index.
	VectorID string

	// ChunkID is the owning chunk.
	ChunkID string

	// IndexName is the external index holding the vector.
	IndexName string

	// Model identifies the embedding model/version that produced the vector.
	Model string

	// Dimensions is the vector length.
	Dimensions int

	// CreatedAt is when the mapping was written.
	CreatedAt time.Time
}

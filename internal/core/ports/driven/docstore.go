package driven

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// DocumentStore persists documents, chunks and vector mappings.
// Backed by SQLite with cascade-delete foreign keys. Every method is scoped
// to the owning user: no entity is visible across users.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, userID, id string) (*domain.Document, error)

	// ListDocuments returns all documents owned by the user.
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)

	// UpdateDocumentState transitions the processing state and records the
	// error message for failed documents.
	UpdateDocumentState(ctx context.Context, userID, id string, state domain.ProcessingState, errMsg string) error

	// UpdateDocumentCounts records the aggregate chunk and image counts.
	UpdateDocumentCounts(ctx context.Context, userID, id string, chunkCount, imageCount int) error

	// SetDocumentGroup updates the relational group reference. A nil
	// groupID clears the assignment.
	SetDocumentGroup(ctx context.Context, userID, id string, groupID *string) error

	// DeleteDocument removes the document; foreign keys cascade to its
	// chunks, vector mappings and tags. Deleting an absent document
	// returns domain.ErrNotFound.
	DeleteDocument(ctx context.Context, userID, id string) error

	// SaveChunk atomically persists a chunk row together with its vector
	// mapping rows.
	SaveChunk(ctx context.Context, chunk *domain.Chunk, mappings []domain.VectorMapping) error

	// GetChunk retrieves a chunk by id.
	GetChunk(ctx context.Context, userID, id string) (*domain.Chunk, error)

	// ListChunks returns all chunks of a document in position order.
	ListChunks(ctx context.Context, userID, documentID string) ([]domain.Chunk, error)

	// ListMappings returns every vector mapping belonging to a document's
	// chunks. Used to collect external vector ids before deletion.
	ListMappings(ctx context.Context, userID, documentID string) ([]domain.VectorMapping, error)
}

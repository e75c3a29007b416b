package driving

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// DocumentService exposes document management to external actors.
type DocumentService interface {
	// Get returns a document with its current processing state.
	Get(ctx context.Context, userID, id string) (*domain.Document, error)

	// List returns all documents owned by the user.
	List(ctx context.Context, userID string) ([]domain.Document, error)

	// Delete removes a document, its chunks, vector mappings, tags and all
	// corresponding external vectors. Idempotent: deleting an already
	// deleted document reports domain.ErrNotFound.
	Delete(ctx context.Context, userID, id string) error

	// ReassignGroup moves a document to a group (nil clears the
	// assignment), updating both the relational reference and the group
	// metadata on every one of the document's vectors.
	ReassignGroup(ctx context.Context, userID, id string, groupID *string) error
}

// GroupService exposes group management to external actors.
type GroupService interface {
	// Create makes a new group.
	Create(ctx context.Context, userID, name string) (*domain.Group, error)

	// List returns all groups owned by the user.
	List(ctx context.Context, userID string) ([]domain.Group, error)

	// Delete removes a group, detaching its documents.
	Delete(ctx context.Context, userID, id string) error
}

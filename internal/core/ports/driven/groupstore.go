package driven

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// GroupStore persists user-defined document groups.
type GroupStore interface {
	// SaveGroup stores or updates a group.
	SaveGroup(ctx context.Context, group *domain.Group) error

	// GetGroup retrieves a group by id.
	GetGroup(ctx context.Context, userID, id string) (*domain.Group, error)

	// ListGroups returns all groups owned by the user.
	ListGroups(ctx context.Context, userID string) ([]domain.Group, error)

	// DeleteGroup removes the group and clears the group reference on its
	// documents rather than deleting them.
	DeleteGroup(ctx context.Context, userID, id string) error
}

package driven

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// TagStore persists detected tags. (chunk, label) pairs are unique among
// image tags and (document, label) pairs unique among document tags;
// saving a duplicate updates the existing tag in place.
type TagStore interface {
	// SaveTag stores or updates a tag.
	SaveTag(ctx context.Context, tag *domain.Tag) error

	// ListTagsForChunk returns the verified tags of an image chunk.
	ListTagsForChunk(ctx context.Context, userID, chunkID string) ([]domain.Tag, error)

	// SearchTags returns tags matching any of the given labels with
	// confidence at or above minConfidence, newest first, capped at limit.
	SearchTags(ctx context.Context, userID string, labels []string, minConfidence float64, limit int) ([]domain.Tag, error)
}

package driving

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// SearchService provides hybrid retrieval to external actors.
type SearchService interface {
	// Search vectorizes the query (text, or raw image bytes when image is
	// non-nil), runs a namespaced vector search on the route's index and
	// applies lexical reranking and highlighting per the options.
	Search(ctx context.Context, userID, query string, image []byte, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchTags returns persisted tags matching any of the labels with at
	// least the given confidence.
	SearchTags(ctx context.Context, userID string, labels []string, minConfidence float64, limit int) ([]domain.Tag, error)
}

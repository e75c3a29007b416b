package domain

import "fmt"

// SearchRoute selects the vector index a query runs against.
type SearchRoute string

const (
	// RouteText searches text chunks.
	RouteText SearchRoute = "text"

	// RouteImage searches directly uploaded images.
	RouteImage SearchRoute = "image"

	// RouteExtractedImage searches images extracted from documents.
	RouteExtractedImage SearchRoute = "extracted_image"
)

// Result count bounds for a single search.
const (
	MinResultCount     = 1
	MaxResultCount     = 50
	DefaultResultCount = 10
)

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// Route selects the target modality.
	Route SearchRoute

	// Limit is the requested result count K, bounded [1,50].
	// Zero means DefaultResultCount.
	Limit int

	// GroupID optionally restricts results to one group.
	GroupID *string

	// LexicalWeight w in [0,1] blends lexical relevance into the vector
	// score on the text route. Zero disables reranking entirely and must
	// reproduce the vector-only ordering.
	LexicalWeight float64
}

// Validate checks option bounds. A zero Limit is allowed and resolved to
// the default by the search service.
func (o SearchOptions) Validate() error {
	switch o.Route {
	case RouteText, RouteImage, RouteExtractedImage:
	default:
		return fmt.Errorf("%w: unknown route %q", ErrInvalidParameter, o.Route)
	}
	if o.Limit != 0 && (o.Limit < MinResultCount || o.Limit > MaxResultCount) {
		return fmt.Errorf("%w: limit %d outside [%d,%d]", ErrInvalidParameter, o.Limit, MinResultCount, MaxResultCount)
	}
	if o.LexicalWeight < 0 || o.LexicalWeight > 1 {
		return fmt.Errorf("%w: lexical weight %.3f outside [0,1]", ErrInvalidParameter, o.LexicalWeight)
	}
	return nil
}

// HighlightSpan is a character range in retrieved text matching a query
// term, returned for UI emphasis. End is exclusive.
type HighlightSpan struct {
	Start int
	End   int
}

// ParentRef identifies the document an extracted image came from.
type ParentRef struct {
	// DocumentID is the parent document.
	DocumentID string

	// Name is the parent document's display name.
	Name string

	// Page is the page the image was extracted from, when known.
	Page *int
}

// SearchResult is a single retrieval hit with its modality-specific payload.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Score is the final relevance score after any lexical blending.
	Score float64

	// Modality is the chunk modality.
	Modality Modality

	// Content is the chunk text (text route) or the image location
	// reference (image routes).
	Content string

	// Highlights are merged, non-overlapping match spans in Content.
	// Only populated on the text route.
	Highlights []HighlightSpan

	// Tags are the verified tags of the image, joined on the image route.
	Tags []Tag

	// Parent identifies the source document, joined on the extracted
	// image route.
	Parent *ParentRef
}

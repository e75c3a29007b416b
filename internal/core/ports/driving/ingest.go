package driving

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// ExtractedImage is one image pulled out of a document by the caller's
// format converter, together with the page it came from.
type ExtractedImage struct {
	// Data is the raw image bytes.
	Data []byte

	// Page is the source page number, when known.
	Page *int
}

// IngestRequest describes one upload. Format parsing happens upstream:
// callers hand the engine plain text plus any embedded images.
type IngestRequest struct {
	// UserID is the owning user.
	UserID string

	// Name is the display name for the document.
	Name string

	// ContentType is the MIME type of the original upload.
	ContentType string

	// GroupID optionally assigns the document to a group.
	GroupID *string

	// Text is the extracted plain text content. Empty for image uploads.
	Text string

	// Image is a directly uploaded image. Direct uploads go through the
	// tagging pipeline; extracted images never do.
	Image []byte

	// ExtractedImages are images embedded inside the document.
	// Only indexed when ExtractImages is set.
	ExtractedImages []ExtractedImage

	// ExtractImages enables indexing of embedded images.
	ExtractImages bool
}

// IngestService accepts uploads and runs the ingestion pipeline.
type IngestService interface {
	// Ingest processes one upload synchronously (tagging excepted, which is
	// scheduled in the background) and returns the resulting document with
	// its final processing state.
	Ingest(ctx context.Context, req IngestRequest) (*domain.Document, error)
}

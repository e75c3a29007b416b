package domain

import "time"

// Modality identifies the content type of a chunk.
type Modality string

const (
	// ModalityText is plain text content.
	ModalityText Modality = "text"

	// ModalityImage is image content, either uploaded directly or
	// extracted from a document.
	ModalityImage Modality = "image"
)

// Provenance records how a chunk entered the system.
type Provenance string

const (
	// ProvenanceUploaded marks content the user uploaded directly.
	ProvenanceUploaded Provenance = "uploaded"

	// ProvenanceImported marks content extracted from inside a document,
	// such as an image embedded in a PDF.
	ProvenanceImported Provenance = "imported"
)

// ProcessingState is the lifecycle state of a document.
type ProcessingState string

const (
	// StateQueued means the document was accepted but processing has not started.
	StateQueued ProcessingState = "queued"

	// StateProcessing means chunks are being written.
	StateProcessing ProcessingState = "processing"

	// StateCompleted means all chunks are written and, for uploaded images,
	// tagging has been scheduled. Completion never waits on tagging.
	StateCompleted ProcessingState = "completed"

	// StateFailed means ingestion hit an unrecoverable error. The document
	// carries the error message.
	StateFailed ProcessingState = "failed"
)

// Document represents one logical upload.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// UserID is the owning user. Every read and write is scoped to it.
	UserID string

	// Name is the human-readable display name.
	Name string

	// ContentType is the MIME type of the original upload.
	ContentType string

	// GroupID is the optional group assignment.
	GroupID *string

	// ChunkCount is the number of chunks written for this document.
	ChunkCount int

	// ImageCount is the number of image chunks written for this document.
	ImageCount int

	// State is the processing lifecycle state.
	State ProcessingState

	// ErrorMessage holds the ingestion error when State is StateFailed.
	ErrorMessage string

	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed.
	UpdatedAt time.Time
}

// Chunk is the atomic retrievable unit: a text segment or one image.
// Every chunk belongs to exactly one document; ids are globally unique
// and immutable.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// UserID is the owning user, denormalised for scoped queries.
	UserID string

	// Modality is text or image.
	Modality Modality

	// Position is the ordinal index within the document.
	Position int

	// Provenance records whether the content was uploaded directly or
	// extracted from inside a document.
	Provenance Provenance

	// Location is the byte location or storage reference of the content.
	Location string

	// Page is the optional page number in the source document.
	Page *int

	// StartOffset and EndOffset bound the chunk's character range within
	// the source text, when known.
	StartOffset *int
	EndOffset   *int

	// Content is the chunk text. Empty for image chunks.
	Content string

	// Preview is a short excerpt for display.
	Preview string
}

// previewLen caps the stored preview excerpt.
const previewLen = 160

// MakePreview derives the display preview from chunk content.
func MakePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen])
}

package domain

import (
	"fmt"
	"time"
)

// TagSource distinguishes what a tag describes.
type TagSource string

const (
	// TagSourceImage marks a tag attached to a single image chunk.
	TagSourceImage TagSource = "image"

	// TagSourceDocument marks a tag attached to a whole document.
	TagSourceDocument TagSource = "document"
)

// BoundingBox localises a detection within an image.
// Coordinates are normalised to [0,1] relative to the image size.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Tag is a detected label associated with an image chunk or a whole document.
type Tag struct {
	// ID is the unique identifier for the tag.
	ID string

	// UserID is the owning user.
	UserID string

	// Label is the detected label text.
	Label string

	// Confidence is the detector confidence in [0,1].
	Confidence float64

	// Verified reports whether the detection passed the verification stage.
	// Only verified tags are persisted by the tagging pipeline.
	Verified bool

	// Box is the detection bounding box. Set when Verified is true.
	Box *BoundingBox

	// Category is an optional label category.
	Category string

	// Source says whether the tag describes an image chunk or a document.
	Source TagSource

	// ChunkID is set when Source is TagSourceImage.
	ChunkID *string

	// DocumentID is set when Source is TagSourceDocument.
	DocumentID *string

	// CreatedAt is when the tag was persisted.
	CreatedAt time.Time
}

// Validate checks the tag's structural invariants: exactly one of the chunk
// or document references is set, matching the tag's source kind, and the
// confidence is within [0,1].
func (t Tag) Validate() error {
	if t.Label == "" {
		return fmt.Errorf("%w: tag label is empty", ErrInvalidParameter)
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("%w: tag confidence %.3f outside [0,1]", ErrInvalidParameter, t.Confidence)
	}
	switch t.Source {
	case TagSourceImage:
		if t.ChunkID == nil || t.DocumentID != nil {
			return fmt.Errorf("%w: image tag must reference exactly one chunk", ErrInvalidParameter)
		}
	case TagSourceDocument:
		if t.DocumentID == nil || t.ChunkID != nil {
			return fmt.Errorf("%w: document tag must reference exactly one document", ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("%w: unknown tag source %q", ErrInvalidParameter, t.Source)
	}
	if t.Verified && t.Box == nil {
		return fmt.Errorf("%w: verified tag must carry a bounding box", ErrInvalidParameter)
	}
	return nil
}

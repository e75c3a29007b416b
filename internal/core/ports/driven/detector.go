package driven

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// Detection is one localisation result from the zero-shot detector.
type Detection struct {
	// Label is the queried label.
	Label string

	// Confidence is the detector confidence in [0,1].
	Confidence float64

	// Box localises the detection, normalised to [0,1].
	Box domain.BoundingBox
}

// ObjectDetector runs zero-shot localisation queries restricted to a single
// label. It is the expensive, high-precision half of the tagging pipeline
// and is invoked at most once per candidate label.
type ObjectDetector interface {
	// Detect returns all detections of the given label in the image.
	// An empty slice means the label was not found; that is not an error.
	Detect(ctx context.Context, image []byte, label string) ([]Detection, error)
}

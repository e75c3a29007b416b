package services

import (
	"context"
	"fmt"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/logger"
)

// EmbeddedVector is a vector produced by the dispatcher together with the
// index it belongs in and the model that produced it.
type EmbeddedVector struct {
	// Values is the embedding.
	Values []float32

	// IndexName is the target index for the vector.
	IndexName string

	// Model identifies the producing model/version.
	Model string

	// Dimensions is the vector length.
	Dimensions int
}

// Dispatcher routes content to the correct embedding model and selects the
// matching vector index. Text content goes through the text encoder; image
// content and image-route queries go through the cross-modal encoder so
// that text queries and image vectors share one space. The two encoders
// have different dimensions, which is why their vectors never share an
// index.
type Dispatcher struct {
	text       driven.TextEmbedder
	crossModal driven.CrossModalEmbedder
}

// NewDispatcher creates a dispatcher over the two encoders.
// Either encoder may be nil; routes needing it then fail with
// domain.ErrEmbeddingUnavailable.
func NewDispatcher(text driven.TextEmbedder, crossModal driven.CrossModalEmbedder) *Dispatcher {
	return &Dispatcher{
		text:       text,
		crossModal: crossModal,
	}
}

// IndexForRoute maps a search route to its index name.
func IndexForRoute(route domain.SearchRoute) string {
	switch route {
	case domain.RouteImage:
		return domain.IndexUploadedImages
	case domain.RouteExtractedImage:
		return domain.IndexExtractedImages
	default:
		return domain.IndexText
	}
}

// EmbedText embeds chunk text for the text index.
func (d *Dispatcher) EmbedText(ctx context.Context, text string) (EmbeddedVector, error) {
	if d.text == nil {
		return EmbeddedVector{}, domain.ErrEmbeddingUnavailable
	}

	values, err := d.text.Embed(ctx, text)
	if err != nil {
		return EmbeddedVector{}, fmt.Errorf("%w: text encoder: %v", domain.ErrVectorizationFailed, err)
	}

	return EmbeddedVector{
		Values:     values,
		IndexName:  domain.IndexText,
		Model:      d.text.ModelName(),
		Dimensions: d.text.Dimensions(),
	}, nil
}

// EmbedImage embeds raw image bytes for the given image index
// (domain.IndexUploadedImages or domain.IndexExtractedImages).
func (d *Dispatcher) EmbedImage(ctx context.Context, image []byte, indexName string) (EmbeddedVector, error) {
	if d.crossModal == nil {
		return EmbeddedVector{}, domain.ErrEmbeddingUnavailable
	}

	values, err := d.crossModal.EmbedImage(ctx, image)
	if err != nil {
		return EmbeddedVector{}, fmt.Errorf("%w: cross-modal encoder: %v", domain.ErrVectorizationFailed, err)
	}

	return EmbeddedVector{
		Values:     values,
		IndexName:  indexName,
		Model:      d.crossModal.ModelName(),
		Dimensions: d.crossModal.Dimensions(),
	}, nil
}

// EmbedQuery embeds a query for the given route. Image-route text queries go
// through the cross-modal encoder's text tower so they land in the same
// space as the stored image vectors. A non-nil image takes precedence over
// query text.
func (d *Dispatcher) EmbedQuery(ctx context.Context, route domain.SearchRoute, query string, image []byte) (EmbeddedVector, error) {
	indexName := IndexForRoute(route)

	if route == domain.RouteText {
		if image != nil {
			return EmbeddedVector{}, fmt.Errorf("%w: image queries are not supported on the text route", domain.ErrInvalidParameter)
		}
		return d.EmbedText(ctx, query)
	}

	if image != nil {
		return d.EmbedImage(ctx, image, indexName)
	}

	if d.crossModal == nil {
		return EmbeddedVector{}, domain.ErrEmbeddingUnavailable
	}

	logger.Debug("Dispatcher: cross-modal text query for index %s", indexName)
	values, err := d.crossModal.EmbedText(ctx, query)
	if err != nil {
		return EmbeddedVector{}, fmt.Errorf("%w: cross-modal encoder: %v", domain.ErrVectorizationFailed, err)
	}

	return EmbeddedVector{
		Values:     values,
		IndexName:  indexName,
		Model:      d.crossModal.ModelName(),
		Dimensions: d.crossModal.Dimensions(),
	}, nil
}

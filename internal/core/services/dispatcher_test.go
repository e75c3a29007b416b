package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-labs/mural/internal/core/domain"
)

func TestDispatcherEmbedText(t *testing.T) {
	d := NewDispatcher(&mockTextEmbedder{embedding: []float32{1, 2, 3, 4}, dims: 4}, nil)

	vec, err := d.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexText, vec.IndexName)
	assert.Equal(t, "mock-text-embed", vec.Model)
	assert.Equal(t, 4, vec.Dimensions)
	assert.Equal(t, []float32{1, 2, 3, 4}, vec.Values)
}

func TestDispatcherEmbedTextFailure(t *testing.T) {
	d := NewDispatcher(&mockTextEmbedder{embedErr: errors.New("boom")}, nil)

	_, err := d.EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrVectorizationFailed)
}

func TestDispatcherNoEncoders(t *testing.T) {
	d := NewDispatcher(nil, nil)

	_, err := d.EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = d.EmbedImage(context.Background(), []byte{1}, domain.IndexUploadedImages)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestDispatcherEmbedImage(t *testing.T) {
	d := NewDispatcher(nil, &mockCrossModalEmbedder{imageVec: []float32{5, 6, 7, 8}, dims: 4})

	vec, err := d.EmbedImage(context.Background(), []byte{1}, domain.IndexExtractedImages)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexExtractedImages, vec.IndexName)
	assert.Equal(t, "mock-cross-modal", vec.Model)
}

func TestDispatcherQueryRouting(t *testing.T) {
	text := &mockTextEmbedder{embedding: []float32{1, 0, 0, 0}}
	crossModal := &mockCrossModalEmbedder{textVec: []float32{0, 1, 0, 0}, imageVec: []float32{0, 0, 1, 0}}
	d := NewDispatcher(text, crossModal)
	ctx := context.Background()

	// Text route uses the text encoder.
	vec, err := d.EmbedQuery(ctx, domain.RouteText, "query", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexText, vec.IndexName)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec.Values)

	// Image-route text queries go through the cross-modal text tower so
	// they land in the image vector space.
	vec, err = d.EmbedQuery(ctx, domain.RouteImage, "query", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexUploadedImages, vec.IndexName)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec.Values)

	// Image-by-example queries embed the image.
	vec, err = d.EmbedQuery(ctx, domain.RouteExtractedImage, "", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, domain.IndexExtractedImages, vec.IndexName)
	assert.Equal(t, []float32{0, 0, 1, 0}, vec.Values)
}

func TestDispatcherRejectsImageOnTextRoute(t *testing.T) {
	d := NewDispatcher(&mockTextEmbedder{embedding: []float32{1}}, &mockCrossModalEmbedder{})

	_, err := d.EmbedQuery(context.Background(), domain.RouteText, "query", []byte{1})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestIndexForRoute(t *testing.T) {
	assert.Equal(t, domain.IndexText, IndexForRoute(domain.RouteText))
	assert.Equal(t, domain.IndexUploadedImages, IndexForRoute(domain.RouteImage))
	assert.Equal(t, domain.IndexExtractedImages, IndexForRoute(domain.RouteExtractedImage))
}

package memory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextEmbedderDeterministic(t *testing.T) {
	e := NewTextEmbedder(64)

	a, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestTextEmbedderUnitNorm(t *testing.T) {
	e := NewTextEmbedder(64)

	vec, err := e.Embed(context.Background(), "some document text")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestTextEmbedderDistinguishesTexts(t *testing.T) {
	e := NewTextEmbedder(64)

	a, err := e.Embed(context.Background(), "cats and dogs")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "quarterly revenue report")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTextEmbedderEmptyInput(t *testing.T) {
	e := NewTextEmbedder(16)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vec)
}

func TestEmbedBatchMatchesSingle(t *testing.T) {
	e := NewTextEmbedder(32)

	single, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	batch, err := e.EmbedBatch(context.Background(), []string{"hello world", "other"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, single, batch[0])
}

func TestCrossModalEmbedderSharedSpace(t *testing.T) {
	e := NewCrossModalEmbedder(32)

	text, err := e.EmbedText(context.Background(), "a red bicycle")
	require.NoError(t, err)
	image, err := e.EmbedImage(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47, 1, 2, 3})
	require.NoError(t, err)

	assert.Len(t, text, 32)
	assert.Len(t, image, 32)
}

func TestCrossModalEmbedderImageDeterministic(t *testing.T) {
	e := NewCrossModalEmbedder(32)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	a, err := e.EmbedImage(context.Background(), data)
	require.NoError(t, err)
	b, err := e.EmbedImage(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// Package memory provides deterministic local embedders. Vectors are
// derived from token hashes, so equal inputs always embed identically and
// nothing leaves the process. Used in tests and as the offline fallback
// when no embedding credentials are configured; the vectors carry no
// semantic meaning beyond exact token overlap.
package memory

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Interface assertions.
var (
	_ driven.TextEmbedder       = (*TextEmbedder)(nil)
	_ driven.CrossModalEmbedder = (*CrossModalEmbedder)(nil)
)

// TextEmbedder embeds text by hashing tokens into a fixed-size vector.
type TextEmbedder struct {
	dims int
}

// NewTextEmbedder creates a local text embedder with the given dimensions.
func NewTextEmbedder(dims int) *TextEmbedder {
	return &TextEmbedder{dims: dims}
}

func (e *TextEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashEmbed([]byte(strings.ToLower(text)), e.dims, tokenise(text)), nil
}

func (e *TextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *TextEmbedder) Dimensions() int {
	return e.dims
}

func (e *TextEmbedder) ModelName() string {
	return "local-hash"
}

// CrossModalEmbedder embeds text and image bytes into the same local
// hash space.
type CrossModalEmbedder struct {
	dims int
}

// NewCrossModalEmbedder creates a local cross-modal embedder.
func NewCrossModalEmbedder(dims int) *CrossModalEmbedder {
	return &CrossModalEmbedder{dims: dims}
}

func (e *CrossModalEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return hashEmbed([]byte(strings.ToLower(text)), e.dims, tokenise(text)), nil
}

func (e *CrossModalEmbedder) EmbedImage(_ context.Context, image []byte) ([]float32, error) {
	// Hash fixed-size windows of the raw bytes so similar prefixes still
	// land in overlapping buckets.
	const window = 64
	var chunks []string
	for start := 0; start < len(image); start += window {
		end := start + window
		if end > len(image) {
			end = len(image)
		}
		chunks = append(chunks, string(image[start:end]))
	}
	return hashEmbed(image, e.dims, chunks), nil
}

func (e *CrossModalEmbedder) Dimensions() int {
	return e.dims
}

func (e *CrossModalEmbedder) ModelName() string {
	return "local-hash"
}

func tokenise(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

// hashEmbed buckets each token into the vector by FNV hash and normalises
// to unit length. Empty input yields the zero vector.
func hashEmbed(seed []byte, dims int, tokens []string) []float32 {
	vec := make([]float32, dims)
	if len(tokens) == 0 && len(seed) == 0 {
		return vec
	}

	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()
		bucket := int(sum % uint64(dims))
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// No tokens (e.g. binary input): fall back to hashing the seed.
		h := fnv.New64a()
		_, _ = h.Write(seed)
		vec[int(h.Sum64()%uint64(dims))] = 1
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

package driven

import "context"

// TextEmbedder generates vector embeddings for text content.
// Text vectors live in their own index and must never be mixed with
// cross-modal vectors: the dimensions differ.
type TextEmbedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector length (D_t).
	Dimensions() int

	// ModelName identifies the model/version producing the vectors.
	ModelName() string
}

// CrossModalEmbedder generates embeddings in a shared image/text space so
// that text queries can be matched against image vectors.
type CrossModalEmbedder interface {
	// EmbedText embeds query text into the shared space.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedImage embeds raw image bytes into the shared space.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// Dimensions returns the embedding vector length (D_i).
	Dimensions() int

	// ModelName identifies the model/version producing the vectors.
	ModelName() string
}

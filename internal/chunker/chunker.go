// Package chunker splits document text into fixed-size overlapping chunks.
package chunker

import (
	"github.com/google/uuid"

	"github.com/mural-labs/mural/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultChunkOverlap = 20

// Chunker splits document content into fixed-size chunks with overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for the window to advance
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split cuts the document's text into chunks. Each chunk records its
// character-offset range within the source text. Empty content produces
// no chunks.
func (c *Chunker) Split(doc *domain.Document, content string) []domain.Chunk {
	if content == "" {
		return nil
	}

	contentLen := len(content)
	estimated := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunkContent := content[start:end]
		startOffset := start
		endOffset := end

		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			UserID:      doc.UserID,
			Modality:    domain.ModalityText,
			Position:    position,
			Provenance:  domain.ProvenanceUploaded,
			StartOffset: &startOffset,
			EndOffset:   &endOffset,
			Content:     chunkContent,
			Preview:     domain.MakePreview(chunkContent),
		})
		position++

		if end == contentLen {
			break
		}
		start += c.chunkSize - c.overlap
	}

	return chunks
}

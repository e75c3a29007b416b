package driving

import (
	"context"

	"github.com/mural-labs/mural/internal/core/domain"
)

// ChatService answers natural-language questions by orchestrating
// retrieval and generation.
type ChatService interface {
	// Ask runs the orchestration pipeline for one question. When onDelta is
	// non-nil it receives answer fragments as they are generated. The
	// returned Answer carries the full text and the retrieval sources.
	Ask(ctx context.Context, userID, question string, onDelta func(delta string) error) (*domain.Answer, error)
}

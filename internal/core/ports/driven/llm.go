package driven

import "context"

// ChatMessage is a single message in a generation request.
type ChatMessage struct {
	// Role is "system", "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// GenerateOptions tunes a generation call.
type GenerateOptions struct {
	// MaxTokens limits the response length. Zero means provider default.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// LLMService provides language generation operations.
type LLMService interface {
	// Generate produces a single-shot completion for the conversation.
	Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error)

	// GenerateStream produces a completion, invoking onDelta for every
	// text fragment as it arrives, and returns the full text. A non-nil
	// error from onDelta cancels the stream.
	GenerateStream(ctx context.Context, messages []ChatMessage, opts GenerateOptions, onDelta func(delta string) error) (string, error)
}

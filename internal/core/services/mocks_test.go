package services

import (
	"context"
	"sync"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// --- Mock implementations shared across the service tests ---

// mockTextEmbedder implements driven.TextEmbedder for testing.
type mockTextEmbedder struct {
	embedding []float32
	embedErr  error
	failFirst int
	calls     int
	dims      int
}

func (m *mockTextEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.failFirst > 0 {
		m.failFirst--
		return nil, m.embedErr
	}
	if m.embedErr != nil && m.embedding == nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockTextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vec, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (m *mockTextEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockTextEmbedder) ModelName() string {
	return "mock-text-embed"
}

// mockCrossModalEmbedder implements driven.CrossModalEmbedder for testing.
type mockCrossModalEmbedder struct {
	textVecs  map[string][]float32
	textVec   []float32
	imageVec  []float32
	textErr   error
	imageErr  error
	failFirst int
	dims      int
}

func (m *mockCrossModalEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if m.textErr != nil {
		return nil, m.textErr
	}
	if vec, ok := m.textVecs[text]; ok {
		return vec, nil
	}
	return m.textVec, nil
}

func (m *mockCrossModalEmbedder) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	if m.failFirst > 0 {
		m.failFirst--
		return nil, m.imageErr
	}
	if m.imageErr != nil && m.imageVec == nil {
		return nil, m.imageErr
	}
	return m.imageVec, nil
}

func (m *mockCrossModalEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockCrossModalEmbedder) ModelName() string {
	return "mock-cross-modal"
}

// flakyIndex wraps a driven.VectorIndex and fails the first N calls of each
// operation, for retry and consistency tests.
type flakyIndex struct {
	driven.VectorIndex

	mu              sync.Mutex
	upsertFailures  int
	updateFailures  int
	deleteFailures  int
	upsertAttempts  int
	updateAttempts  int
	deleteAttempts  int
	upsertErr       error
	updateErr       error
	deleteErr       error
	deletedVectorCt int
}

func (f *flakyIndex) Upsert(ctx context.Context, namespace string, records []driven.VectorRecord) error {
	f.mu.Lock()
	f.upsertAttempts++
	fail := f.upsertFailures > 0
	if fail {
		f.upsertFailures--
	}
	f.mu.Unlock()
	if fail {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, namespace, records)
}

func (f *flakyIndex) UpdateMetadata(ctx context.Context, namespace, id string, metadata map[string]string) error {
	f.mu.Lock()
	f.updateAttempts++
	fail := f.updateFailures > 0
	if fail {
		f.updateFailures--
	}
	f.mu.Unlock()
	if fail {
		return f.updateErr
	}
	return f.VectorIndex.UpdateMetadata(ctx, namespace, id, metadata)
}

func (f *flakyIndex) Delete(ctx context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	f.deleteAttempts++
	fail := f.deleteFailures > 0
	if fail {
		f.deleteFailures--
	}
	f.deletedVectorCt += len(ids)
	f.mu.Unlock()
	if fail {
		return f.deleteErr
	}
	return f.VectorIndex.Delete(ctx, namespace, ids)
}

// mockDetector implements driven.ObjectDetector for testing.
type mockDetector struct {
	detections map[string][]driven.Detection
	detectErr  error
	calls      []string
}

func (m *mockDetector) Detect(_ context.Context, _ []byte, label string) ([]driven.Detection, error) {
	m.calls = append(m.calls, label)
	if m.detectErr != nil {
		return nil, m.detectErr
	}
	return m.detections[label], nil
}

// mockLLM implements driven.LLMService for testing. Generate returns the
// queued responses in order; GenerateStream streams streamText rune by rune.
type mockLLM struct {
	responses   []string
	generateErr error
	streamText  string
	streamErr   error
	prompts     []string
}

func (m *mockLLM) Generate(_ context.Context, messages []driven.ChatMessage, _ driven.GenerateOptions) (string, error) {
	if len(messages) > 0 {
		m.prompts = append(m.prompts, messages[len(messages)-1].Content)
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockLLM) GenerateStream(_ context.Context, messages []driven.ChatMessage, _ driven.GenerateOptions, onDelta func(delta string) error) (string, error) {
	if len(messages) > 0 {
		m.prompts = append(m.prompts, messages[0].Content)
	}
	if m.streamErr != nil {
		return "", m.streamErr
	}
	if onDelta != nil {
		for _, r := range m.streamText {
			if err := onDelta(string(r)); err != nil {
				return "", err
			}
		}
	}
	return m.streamText, nil
}

// syncQueue implements driven.TaskQueue by running tasks inline, so tests
// observe background effects without timing dependence.
type syncQueue struct {
	names []string
}

func (q *syncQueue) Enqueue(name string, task func(ctx context.Context)) {
	q.names = append(q.names, name)
	task(context.Background())
}

func (q *syncQueue) Close() {}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

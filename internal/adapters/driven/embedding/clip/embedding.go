// Package clip provides a cross-modal embedding adapter backed by a CLIP
// inference server. Text and images are embedded into one shared space, so
// text queries can be matched against stored image vectors.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure CrossModalEmbedder implements the interface.
var _ driven.CrossModalEmbedder = (*CrossModalEmbedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8200"
	DefaultModel      = "clip-vit-base-patch32"
	DefaultDimensions = 512
	DefaultTimeout    = 60 * time.Second
)

// Config holds configuration for the CLIP embedder.
type Config struct {
	// BaseURL is the inference server base URL (default: http://localhost:8200).
	BaseURL string

	// Model identifies the CLIP variant served (default: clip-vit-base-patch32).
	Model string

	// Dimensions is the shared embedding space size (default: 512).
	Dimensions int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// CrossModalEmbedder embeds text and images via a CLIP inference server.
type CrossModalEmbedder struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

// embedTextRequest is the /embed/text request format.
type embedTextRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// embedImageRequest is the /embed/image request format. Image bytes travel
// base64-encoded.
type embedImageRequest struct {
	Model string `json:"model"`
	Image string `json:"image"`
}

// embedResponse is the response format of both endpoints.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewCrossModalEmbedder creates a new CLIP embedder.
func NewCrossModalEmbedder(cfg Config) *CrossModalEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CrossModalEmbedder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// EmbedText embeds query text into the shared space.
func (s *CrossModalEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return s.post(ctx, "/embed/text", embedTextRequest{Model: s.model, Text: text})
}

// EmbedImage embeds raw image bytes into the shared space.
func (s *CrossModalEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return s.post(ctx, "/embed/image", embedImageRequest{
		Model: s.model,
		Image: base64.StdEncoding.EncodeToString(image),
	})
}

// Dimensions returns the shared embedding space size.
func (s *CrossModalEmbedder) Dimensions() int {
	return s.dimensions
}

// ModelName returns the CLIP variant being served.
func (s *CrossModalEmbedder) ModelName() string {
	return s.model
}

func (s *CrossModalEmbedder) post(ctx context.Context, path string, payload any) ([]float32, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp embedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != "" {
		return nil, fmt.Errorf("clip error: %s", embedResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clip error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(embedResp.Embedding) != s.dimensions {
		return nil, fmt.Errorf("clip returned %d dimensions, want %d", len(embedResp.Embedding), s.dimensions)
	}

	embedding := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

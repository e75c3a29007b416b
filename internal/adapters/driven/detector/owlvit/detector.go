// Package owlvit provides a zero-shot object detection adapter backed by an
// OWL-ViT inference server. Detection is the expensive verification half of
// the tagging pipeline, so requests are rate limited to protect the model
// server from candidate bursts.
package owlvit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure Detector implements the interface.
var _ driven.ObjectDetector = (*Detector)(nil)

// Default configuration values.
const (
	DefaultBaseURL        = "http://localhost:8300"
	DefaultModel          = "owlvit-base-patch32"
	DefaultTimeout        = 120 * time.Second
	DefaultRequestsPerSec = 4
	DefaultBurst          = 2
)

// Config holds configuration for the OWL-ViT detector.
type Config struct {
	// BaseURL is the inference server base URL (default: http://localhost:8300).
	BaseURL string

	// Model identifies the detector variant served (default: owlvit-base-patch32).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSec caps the request rate against the model server
	// (default: 4).
	RequestsPerSec float64

	// Burst is the rate limiter burst size (default: 2).
	Burst int
}

// Detector runs single-label zero-shot detection queries.
type Detector struct {
	client  *http.Client
	baseURL string
	model   string
	limiter *rate.Limiter
}

// detectRequest is the /detect request format. Image bytes travel
// base64-encoded; queries carries the single label under verification.
type detectRequest struct {
	Model   string   `json:"model"`
	Image   string   `json:"image"`
	Queries []string `json:"queries"`
}

// detectResponse is the /detect response format. Boxes are normalised
// [x, y, width, height] in [0,1].
type detectResponse struct {
	Detections []struct {
		Label      string     `json:"label"`
		Confidence float64    `json:"confidence"`
		Box        [4]float64 `json:"box"`
	} `json:"detections"`
	Error string `json:"error,omitempty"`
}

// NewDetector creates a new OWL-ViT detector.
func NewDetector(cfg Config) *Detector {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = DefaultRequestsPerSec
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	return &Detector{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
	}
}

// Detect returns all detections of the given label in the image. An empty
// slice means the label was not found.
func (d *Detector) Detect(ctx context.Context, image []byte, label string) ([]driven.Detection, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	jsonBody, err := json.Marshal(detectRequest{
		Model:   d.model,
		Image:   base64.StdEncoding.EncodeToString(image),
		Queries: []string{label},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var detectResp detectResponse
	if err := json.Unmarshal(body, &detectResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if detectResp.Error != "" {
		return nil, fmt.Errorf("owlvit error: %s", detectResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("owlvit error (status %d): %s", resp.StatusCode, string(body))
	}

	detections := make([]driven.Detection, 0, len(detectResp.Detections))
	for _, det := range detectResp.Detections {
		detections = append(detections, driven.Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box: domain.BoundingBox{
				X:      det.Box[0],
				Y:      det.Box[1],
				Width:  det.Box[2],
				Height: det.Box[3],
			},
		})
	}
	return detections, nil
}

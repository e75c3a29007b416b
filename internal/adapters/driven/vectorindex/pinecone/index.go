// Package pinecone provides a vector index adapter over the Pinecone data
// plane REST API. Namespaces partition every index per user, so tenant
// isolation holds at the index itself rather than depending on a metadata
// filter.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for one Pinecone index.
type Config struct {
	// Host is the index host URL, e.g. https://text-chunks-abc123.svc.pinecone.io (required).
	Host string

	// APIKey is the Pinecone API key (required).
	APIKey string

	// Name is the logical index name (see domain.IndexText and friends).
	Name string

	// Dimensions is the vector length the index accepts.
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index is one remote Pinecone index.
type Index struct {
	client  *http.Client
	host    string
	apiKey  string
	name    string
	dims    int
}

// wire formats of the Pinecone data plane.

type upsertRequest struct {
	Vectors   []vectorPayload `json:"vectors"`
	Namespace string          `json:"namespace"`
}

type vectorPayload struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryRequest struct {
	Namespace       string            `json:"namespace"`
	Vector          []float32         `json:"vector"`
	TopK            int               `json:"topK"`
	Filter          map[string]string `json:"filter,omitempty"`
	IncludeMetadata bool              `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
}

type updateRequest struct {
	ID          string            `json:"id"`
	Namespace   string            `json:"namespace"`
	SetMetadata map[string]string `json:"setMetadata"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewIndex creates a client for one Pinecone index.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		host:   cfg.Host,
		apiKey: cfg.APIKey,
		name:   cfg.Name,
		dims:   cfg.Dimensions,
	}, nil
}

// Name returns the logical index name.
func (x *Index) Name() string { return x.name }

// Dimensions returns the vector length the index accepts.
func (x *Index) Dimensions() int { return x.dims }

// Upsert writes vectors into the namespace. Idempotent per id.
func (x *Index) Upsert(ctx context.Context, namespace string, records []driven.VectorRecord) error {
	vectors := make([]vectorPayload, len(records))
	for i, rec := range records {
		if x.dims > 0 && len(rec.Values) != x.dims {
			return fmt.Errorf("pinecone: vector %s has %d dimensions, index %s wants %d",
				rec.ID, len(rec.Values), x.name, x.dims)
		}
		vectors[i] = vectorPayload{ID: rec.ID, Values: rec.Values, Metadata: rec.Metadata}
	}

	return x.post(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: namespace,
	}, nil)
}

// Query returns the topK nearest vectors in the namespace.
func (x *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]driven.VectorHit, error) {
	var resp queryResponse
	err := x.post(ctx, "/query", queryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, len(resp.Matches))
	for i, m := range resp.Matches {
		hits[i] = driven.VectorHit{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return hits, nil
}

// Delete removes vectors by id from the namespace. Absent ids are ignored
// by the service, which is what makes delete retries safe.
func (x *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return x.post(ctx, "/vectors/delete", deleteRequest{
		IDs:       ids,
		Namespace: namespace,
	}, nil)
}

// UpdateMetadata merges metadata onto one vector.
func (x *Index) UpdateMetadata(ctx context.Context, namespace, id string, metadata map[string]string) error {
	return x.post(ctx, "/vectors/update", updateRequest{
		ID:          id,
		Namespace:   namespace,
		SetMetadata: metadata,
	}, nil)
}

// post sends one data plane request and decodes the response into out when
// out is non-nil.
func (x *Index) post(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.VectorIndex using exact
// cosine similarity. Namespaces are fully isolated maps, so a query can
// never cross tenants regardless of filters.
type Index struct {
	name string
	dims int

	mu         sync.RWMutex
	namespaces map[string]map[string]storedVector
}

type storedVector struct {
	values   []float32
	metadata map[string]string
}

// NewIndex creates an in-memory index with the given name and dimensions.
func NewIndex(name string, dims int) *Index {
	return &Index{
		name:       name,
		dims:       dims,
		namespaces: make(map[string]map[string]storedVector),
	}
}

// Name returns the index name.
func (i *Index) Name() string { return i.name }

// Dimensions returns the vector length the index accepts.
func (i *Index) Dimensions() int { return i.dims }

// Upsert writes vectors into the namespace. Idempotent per id.
func (i *Index) Upsert(_ context.Context, namespace string, records []driven.VectorRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	ns, ok := i.namespaces[namespace]
	if !ok {
		ns = make(map[string]storedVector)
		i.namespaces[namespace] = ns
	}
	for _, rec := range records {
		if len(rec.Values) != i.dims {
			return fmt.Errorf("vector %s has %d dimensions, index %s wants %d", rec.ID, len(rec.Values), i.name, i.dims)
		}
		meta := make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		ns[rec.ID] = storedVector{
			values:   append([]float32(nil), rec.Values...),
			metadata: meta,
		}
	}
	return nil
}

// Query returns the topK nearest vectors in the namespace by cosine
// similarity, restricted to vectors whose metadata matches every filter
// entry.
func (i *Index) Query(_ context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	ns := i.namespaces[namespace]

	hits := make([]driven.VectorHit, 0, len(ns))
	for id, stored := range ns {
		if !matchesFilter(stored.metadata, filter) {
			continue
		}
		meta := make(map[string]string, len(stored.metadata))
		for k, v := range stored.metadata {
			meta[k] = v
		}
		hits = append(hits, driven.VectorHit{
			ID:       id,
			Score:    cosine(vector, stored.values),
			Metadata: meta,
		})
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes vectors by id. Absent ids are ignored.
func (i *Index) Delete(_ context.Context, namespace string, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	ns := i.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

// UpdateMetadata merges metadata onto one vector.
func (i *Index) UpdateMetadata(_ context.Context, namespace, id string, metadata map[string]string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	ns := i.namespaces[namespace]
	stored, ok := ns[id]
	if !ok {
		return fmt.Errorf("vector %s not found in namespace %s", id, namespace)
	}
	for k, v := range metadata {
		stored.metadata[k] = v
	}
	ns[id] = stored
	return nil
}

// Count returns the number of vectors in a namespace, for tests.
func (i *Index) Count(namespace string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.namespaces[namespace])
}

// Metadata returns a copy of one vector's metadata, for tests.
func (i *Index) Metadata(namespace, id string) (map[string]string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	stored, ok := i.namespaces[namespace][id]
	if !ok {
		return nil, false
	}
	meta := make(map[string]string, len(stored.metadata))
	for k, v := range stored.metadata {
		meta[k] = v
	}
	return meta, true
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Useful for tests and offline operation; it mirrors the SQLite store's
// cascade semantics.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
	mappings  map[string][]domain.VectorMapping

	// onDelete observes relational document deletion, for tests asserting
	// the order of dual-store operations.
	onDelete func(documentID string)
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
		mappings:  make(map[string][]domain.VectorMapping),
	}
}

// OnDelete registers a hook invoked just before a document row is removed.
func (s *DocumentStore) OnDelete(fn func(documentID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = fn
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by id.
func (s *DocumentStore) GetDocument(_ context.Context, userID, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents owned by the user, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, userID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for _, doc := range s.documents {
		if doc.UserID == userID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateDocumentState transitions the processing state.
func (s *DocumentStore) UpdateDocumentState(_ context.Context, userID, id string, state domain.ProcessingState, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	doc.State = state
	doc.ErrorMessage = errMsg
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// UpdateDocumentCounts records the aggregate chunk and image counts.
func (s *DocumentStore) UpdateDocumentCounts(_ context.Context, userID, id string, chunkCount, imageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	doc.ChunkCount = chunkCount
	doc.ImageCount = imageCount
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// SetDocumentGroup updates the relational group reference.
func (s *DocumentStore) SetDocumentGroup(_ context.Context, userID, id string, groupID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	doc.GroupID = groupID
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes the document with its chunks and mappings.
func (s *DocumentStore) DeleteDocument(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	if s.onDelete != nil {
		s.onDelete(id)
	}
	delete(s.documents, id)
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			delete(s.chunks, chunkID)
			delete(s.mappings, chunkID)
		}
	}
	return nil
}

// SaveChunk persists a chunk with its vector mappings.
func (s *DocumentStore) SaveChunk(_ context.Context, chunk *domain.Chunk, mappings []domain.VectorMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = *chunk
	s.mappings[chunk.ID] = append([]domain.VectorMapping(nil), mappings...)
	return nil
}

// GetChunk retrieves a chunk by id.
func (s *DocumentStore) GetChunk(_ context.Context, userID, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok || chunk.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// ListChunks returns all chunks of a document in position order.
func (s *DocumentStore) ListChunks(_ context.Context, userID, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.UserID == userID && chunk.DocumentID == documentID {
			result = append(result, chunk)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// ListMappings returns every vector mapping of the document's chunks.
func (s *DocumentStore) ListMappings(_ context.Context, userID, documentID string) ([]domain.VectorMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.VectorMapping
	for chunkID, chunk := range s.chunks {
		if chunk.UserID == userID && chunk.DocumentID == documentID {
			result = append(result, s.mappings[chunkID]...)
		}
	}
	return result, nil
}

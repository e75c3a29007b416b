package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure TagStore implements the interface.
var _ driven.TagStore = (*TagStore)(nil)

// TagStore is an in-memory implementation of driven.TagStore.
type TagStore struct {
	mu   sync.RWMutex
	tags map[string]domain.Tag
}

// NewTagStore creates a new in-memory tag store.
func NewTagStore() *TagStore {
	return &TagStore{tags: make(map[string]domain.Tag)}
}

// SaveTag stores or updates a tag. A tag with the same (chunk, label) or
// (document, label) pair replaces the existing one.
func (s *TagStore) SaveTag(_ context.Context, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.tags {
		if existing.UserID != tag.UserID || existing.Label != tag.Label {
			continue
		}
		sameChunk := existing.ChunkID != nil && tag.ChunkID != nil && *existing.ChunkID == *tag.ChunkID
		sameDoc := existing.DocumentID != nil && tag.DocumentID != nil && *existing.DocumentID == *tag.DocumentID
		if sameChunk || sameDoc {
			delete(s.tags, id)
			break
		}
	}
	s.tags[tag.ID] = *tag
	return nil
}

// ListTagsForChunk returns the tags of an image chunk.
func (s *TagStore) ListTagsForChunk(_ context.Context, userID, chunkID string) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Tag
	for _, tag := range s.tags {
		if tag.UserID == userID && tag.ChunkID != nil && *tag.ChunkID == chunkID {
			result = append(result, tag)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})
	return result, nil
}

// SearchTags returns tags matching any label above the confidence floor,
// newest first.
func (s *TagStore) SearchTags(_ context.Context, userID string, labels []string, minConfidence float64, limit int) ([]domain.Tag, error) {
	wanted := make(map[string]bool, len(labels))
	for _, l := range labels {
		wanted[l] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Tag
	for _, tag := range s.tags {
		if tag.UserID == userID && wanted[tag.Label] && tag.Confidence >= minConfidence {
			result = append(result, tag)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// Ensure GroupStore implements the interface.
var _ driven.GroupStore = (*GroupStore)(nil)

// GroupStore is an in-memory implementation of driven.GroupStore.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[string]domain.Group

	// docs, when set, lets DeleteGroup detach documents the way the SQLite
	// store's ON DELETE SET NULL does.
	docs *DocumentStore
}

// NewGroupStore creates a new in-memory group store. docs may be nil.
func NewGroupStore(docs *DocumentStore) *GroupStore {
	return &GroupStore{
		groups: make(map[string]domain.Group),
		docs:   docs,
	}
}

// SaveGroup stores or updates a group.
func (s *GroupStore) SaveGroup(_ context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = *group
	return nil
}

// GetGroup retrieves a group by id.
func (s *GroupStore) GetGroup(_ context.Context, userID, id string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[id]
	if !ok || group.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &group, nil
}

// ListGroups returns all groups owned by the user, sorted by name.
func (s *GroupStore) ListGroups(_ context.Context, userID string) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Group
	for _, group := range s.groups {
		if group.UserID == userID {
			result = append(result, group)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeleteGroup removes the group and clears the group reference on its
// documents.
func (s *GroupStore) DeleteGroup(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	group, ok := s.groups[id]
	if !ok || group.UserID != userID {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.groups, id)
	s.mu.Unlock()

	if s.docs == nil {
		return nil
	}
	docs, err := s.docs.ListDocuments(ctx, userID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.GroupID != nil && *doc.GroupID == id {
			if err := s.docs.SetDocumentGroup(ctx, userID, doc.ID, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

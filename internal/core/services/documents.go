package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/core/ports/driving"
	"github.com/mural-labs/mural/internal/logger"
)

// Ensure the managers implement their interfaces.
var (
	_ driving.DocumentService = (*DocumentManager)(nil)
	_ driving.GroupService    = (*GroupManager)(nil)
)

// DocumentManager exposes document reads and the registry's coordinated
// mutations.
type DocumentManager struct {
	docStore driven.DocumentStore
	registry *Registry
}

// NewDocumentManager creates the document management service.
func NewDocumentManager(docStore driven.DocumentStore, registry *Registry) *DocumentManager {
	return &DocumentManager{docStore: docStore, registry: registry}
}

// Get returns a document with its current processing state.
func (m *DocumentManager) Get(ctx context.Context, userID, id string) (*domain.Document, error) {
	return m.docStore.GetDocument(ctx, userID, id)
}

// List returns all documents owned by the user.
func (m *DocumentManager) List(ctx context.Context, userID string) ([]domain.Document, error) {
	return m.docStore.ListDocuments(ctx, userID)
}

// Delete removes the document and its vectors through the registry.
func (m *DocumentManager) Delete(ctx context.Context, userID, id string) error {
	return m.registry.DeleteDocument(ctx, userID, id)
}

// ReassignGroup moves the document to a group, keeping the relational
// reference and the vector metadata aligned.
func (m *DocumentManager) ReassignGroup(ctx context.Context, userID, id string, groupID *string) error {
	return m.registry.ReassignGroup(ctx, userID, id, groupID)
}

// GroupManager exposes group management.
type GroupManager struct {
	groupStore driven.GroupStore
}

// NewGroupManager creates the group management service.
func NewGroupManager(groupStore driven.GroupStore) *GroupManager {
	return &GroupManager{groupStore: groupStore}
}

// Create makes a new group with a fresh id.
func (m *GroupManager) Create(ctx context.Context, userID, name string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrInvalidParameter)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidParameter)
	}

	group := &domain.Group{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.groupStore.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save group: %w", err)
	}
	logger.Info("Created group %q (%s)", name, group.ID)
	return group, nil
}

// List returns all groups owned by the user.
func (m *GroupManager) List(ctx context.Context, userID string) ([]domain.Group, error) {
	return m.groupStore.ListGroups(ctx, userID)
}

// Delete removes the group, detaching its documents.
func (m *GroupManager) Delete(ctx context.Context, userID, id string) error {
	if err := m.groupStore.DeleteGroup(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/mural-labs/mural/internal/adapters/driven/storage/memory"
	vectormem "github.com/mural-labs/mural/internal/adapters/driven/vectorindex/memory"
	"github.com/mural-labs/mural/internal/core/domain"
)

func TestDocumentManagerDelete(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	idx := vectormem.NewIndex(domain.IndexText, 4)
	reg := NewRegistry(docStore, idx)
	mgr := NewDocumentManager(docStore, reg)

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	require.NoError(t, reg.WriteChunk(ctx, testChunk("user-1", "doc-1"), nil, []EmbeddedVector{testVector(domain.IndexText)}))

	require.NoError(t, mgr.Delete(ctx, "user-1", "doc-1"))
	assert.Equal(t, 0, idx.Count("user-1"))

	_, err := mgr.Get(ctx, "user-1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentManagerList(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	mgr := NewDocumentManager(docStore, NewRegistry(docStore))

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-2", UserID: "user-2"}))

	docs, err := mgr.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
}

func TestGroupManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	groupStore := storagemem.NewGroupStore(docStore)
	mgr := NewGroupManager(groupStore)

	group, err := mgr.Create(ctx, "user-1", "research")
	require.NoError(t, err)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "research", group.Name)

	groups, err := mgr.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	// Deleting the group detaches its documents instead of deleting them.
	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", UserID: "user-1", GroupID: &group.ID,
	}))
	require.NoError(t, mgr.Delete(ctx, "user-1", group.ID))

	doc, err := docStore.GetDocument(ctx, "user-1", "doc-1")
	require.NoError(t, err)
	assert.Nil(t, doc.GroupID)

	groups, err = mgr.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupManagerCreateValidation(t *testing.T) {
	mgr := NewGroupManager(storagemem.NewGroupStore(nil))

	_, err := mgr.Create(context.Background(), "user-1", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = mgr.Create(context.Background(), "", "name")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGroupManagerDeleteAbsent(t *testing.T) {
	mgr := NewGroupManager(storagemem.NewGroupStore(nil))
	err := mgr.Delete(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

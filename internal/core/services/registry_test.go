package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/mural-labs/mural/internal/adapters/driven/storage/memory"
	vectormem "github.com/mural-labs/mural/internal/adapters/driven/vectorindex/memory"
	"github.com/mural-labs/mural/internal/core/domain"
)

func testChunk(userID, docID string) *domain.Chunk {
	return &domain.Chunk{
		ID:         "chunk-1",
		DocumentID: docID,
		UserID:     userID,
		Modality:   domain.ModalityText,
		Provenance: domain.ProvenanceUploaded,
		Content:    "the quick brown fox",
		Preview:    "the quick brown fox",
	}
}

func testVector(indexName string) EmbeddedVector {
	return EmbeddedVector{
		Values:     []float32{1, 0, 0, 0},
		IndexName:  indexName,
		Model:      "mock-text-embed",
		Dimensions: 4,
	}
}

func TestRegistryWriteChunk(t *testing.T) {
	docStore := storagemem.NewDocumentStore()
	idx := vectormem.NewIndex(domain.IndexText, 4)
	reg := NewRegistry(docStore, idx)

	chunk := testChunk("user-1", "doc-1")
	err := reg.WriteChunk(context.Background(), chunk, nil, []EmbeddedVector{testVector(domain.IndexText)})
	require.NoError(t, err)

	// Relational side.
	got, err := docStore.GetChunk(context.Background(), "user-1", chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)

	mappings, err := docStore.ListMappings(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, domain.IndexText, mappings[0].IndexName)

	// Vector side: the vector lives in the owner's namespace with the
	// metadata the hydration path depends on.
	assert.Equal(t, 1, idx.Count("user-1"))
	meta, ok := idx.Metadata("user-1", mappings[0].VectorID)
	require.True(t, ok)
	assert.Equal(t, chunk.ID, meta["chunk_id"])
	assert.Equal(t, "doc-1", meta["document_id"])
	assert.Equal(t, "user-1", meta["user_id"])
	assert.Equal(t, "", meta["group_id"])
}

func TestRegistryWriteChunkGroupMetadata(t *testing.T) {
	docStore := storagemem.NewDocumentStore()
	idx := vectormem.NewIndex(domain.IndexText, 4)
	reg := NewRegistry(docStore, idx)

	groupID := "group-7"
	chunk := testChunk("user-1", "doc-1")
	require.NoError(t, reg.WriteChunk(context.Background(), chunk, &groupID, []EmbeddedVector{testVector(domain.IndexText)}))

	mappings, err := docStore.ListMappings(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	meta, ok := idx.Metadata("user-1", mappings[0].VectorID)
	require.True(t, ok)
	assert.Equal(t, "group-7", meta["group_id"])
}

func TestRegistryWriteChunkRetriesUpsert(t *testing.T) {
	docStore := storagemem.NewDocumentStore()
	flaky := &flakyIndex{
		VectorIndex:    vectormem.NewIndex(domain.IndexText, 4),
		upsertFailures: 1,
		upsertErr:      errors.New("transient"),
	}
	reg := NewRegistry(docStore, flaky)
	reg.retryDelay = time.Millisecond

	chunk := testChunk("user-1", "doc-1")
	err := reg.WriteChunk(context.Background(), chunk, nil, []EmbeddedVector{testVector(domain.IndexText)})
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.upsertAttempts)
}

func TestRegistryWriteChunkExhaustedRetries(t *testing.T) {
	docStore := storagemem.NewDocumentStore()
	flaky := &flakyIndex{
		VectorIndex:    vectormem.NewIndex(domain.IndexText, 4),
		upsertFailures: 100,
		upsertErr:      errors.New("index down"),
	}
	reg := NewRegistry(docStore, flaky)
	reg.retryDelay = time.Millisecond

	chunk := testChunk("user-1", "doc-1")
	err := reg.WriteChunk(context.Background(), chunk, nil, []EmbeddedVector{testVector(domain.IndexText)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexWriteFailed)
	assert.Equal(t, 3, flaky.upsertAttempts)

	// The relational write went first: the mapping row identifies the hole.
	mappings, merr := docStore.ListMappings(context.Background(), "user-1", "doc-1")
	require.NoError(t, merr)
	assert.Len(t, mappings, 1)
}

func TestRegistryReassignGroup(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	idx := vectormem.NewIndex(domain.IndexText, 4)
	reg := NewRegistry(docStore, idx)

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	chunk := testChunk("user-1", "doc-1")
	require.NoError(t, reg.WriteChunk(ctx, chunk, nil, []EmbeddedVector{testVector(domain.IndexText)}))

	groupID := "group-9"
	require.NoError(t, reg.ReassignGroup(ctx, "user-1", "doc-1", &groupID))

	doc, err := docStore.GetDocument(ctx, "user-1", "doc-1")
	require.NoError(t, err)
	require.NotNil(t, doc.GroupID)
	assert.Equal(t, "group-9", *doc.GroupID)

	mappings, err := docStore.ListMappings(ctx, "user-1", "doc-1")
	require.NoError(t, err)
	meta, ok := idx.Metadata("user-1", mappings[0].VectorID)
	require.True(t, ok)
	assert.Equal(t, "group-9", meta["group_id"])

	// Clearing the assignment propagates too.
	require.NoError(t, reg.ReassignGroup(ctx, "user-1", "doc-1", nil))
	meta, _ = idx.Metadata("user-1", mappings[0].VectorID)
	assert.Equal(t, "", meta["group_id"])
}

func TestRegistryReassignGroupPartialFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	flaky := &flakyIndex{
		VectorIndex:    vectormem.NewIndex(domain.IndexText, 4),
		updateFailures: 100,
		updateErr:      errors.New("index down"),
	}
	reg := NewRegistry(docStore, flaky)
	reg.retryDelay = time.Millisecond

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	chunk := testChunk("user-1", "doc-1")
	require.NoError(t, reg.WriteChunk(ctx, chunk, nil, []EmbeddedVector{testVector(domain.IndexText)}))

	groupID := "group-9"
	err := reg.ReassignGroup(ctx, "user-1", "doc-1", &groupID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRegistryInconsistency)

	// The relational side already moved; a retry after the index recovers
	// converges the metadata.
	doc, gerr := docStore.GetDocument(ctx, "user-1", "doc-1")
	require.NoError(t, gerr)
	require.NotNil(t, doc.GroupID)

	flaky.updateFailures = 0
	require.NoError(t, reg.ReassignGroup(ctx, "user-1", "doc-1", &groupID))
	mappings, _ := docStore.ListMappings(ctx, "user-1", "doc-1")
	meta, ok := flaky.VectorIndex.(*vectormem.Index).Metadata("user-1", mappings[0].VectorID)
	require.True(t, ok)
	assert.Equal(t, "group-9", meta["group_id"])
}

func TestRegistryDeleteDocument(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	idx := vectormem.NewIndex(domain.IndexText, 4)
	reg := NewRegistry(docStore, idx)

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	chunk := testChunk("user-1", "doc-1")
	require.NoError(t, reg.WriteChunk(ctx, chunk, nil, []EmbeddedVector{testVector(domain.IndexText)}))

	// Vectors must already be gone when the relational cascade runs: the
	// mapping rows are the only record of the external ids.
	docStore.OnDelete(func(string) {
		assert.Equal(t, 0, idx.Count("user-1"))
	})

	require.NoError(t, reg.DeleteDocument(ctx, "user-1", "doc-1"))

	_, err := docStore.GetDocument(ctx, "user-1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docStore.GetChunk(ctx, "user-1", chunk.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryDeleteDocumentIdempotent(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	reg := NewRegistry(docStore, vectormem.NewIndex(domain.IndexText, 4))

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	require.NoError(t, reg.DeleteDocument(ctx, "user-1", "doc-1"))

	err := reg.DeleteDocument(ctx, "user-1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryDeleteDocumentIndexFailureStillCascades(t *testing.T) {
	ctx := context.Background()
	docStore := storagemem.NewDocumentStore()
	flaky := &flakyIndex{
		VectorIndex:    vectormem.NewIndex(domain.IndexText, 4),
		deleteFailures: 100,
		deleteErr:      errors.New("index down"),
	}
	reg := NewRegistry(docStore, flaky)

	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", UserID: "user-1"}))
	chunk := testChunk("user-1", "doc-1")
	require.NoError(t, reg.WriteChunk(ctx, chunk, nil, []EmbeddedVector{testVector(domain.IndexText)}))

	// An orphaned vector is invisible once its metadata row is gone; an
	// orphaned metadata row would stay user-visible. The cascade wins.
	require.NoError(t, reg.DeleteDocument(ctx, "user-1", "doc-1"))

	_, err := docStore.GetDocument(ctx, "user-1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryIndexUnknown(t *testing.T) {
	reg := NewRegistry(storagemem.NewDocumentStore())
	_, err := reg.Index("nope")
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/mural-labs/mural/internal/adapters/driven/storage/memory"
	vectormem "github.com/mural-labs/mural/internal/adapters/driven/vectorindex/memory"
	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driving"
)

type ingestFixture struct {
	docStore   *storagemem.DocumentStore
	tagStore   *storagemem.TagStore
	textIdx    *vectormem.Index
	uploadIdx  *vectormem.Index
	extractIdx *vectormem.Index
	text       *mockTextEmbedder
	crossModal *mockCrossModalEmbedder
	detector   *mockDetector
	queue      *syncQueue
	ingestor   *Ingestor
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		docStore:   storagemem.NewDocumentStore(),
		tagStore:   storagemem.NewTagStore(),
		textIdx:    vectormem.NewIndex(domain.IndexText, 4),
		uploadIdx:  vectormem.NewIndex(domain.IndexUploadedImages, 4),
		extractIdx: vectormem.NewIndex(domain.IndexExtractedImages, 4),
		text:       &mockTextEmbedder{embedding: []float32{1, 0, 0, 0}},
		crossModal: &mockCrossModalEmbedder{imageVec: []float32{0, 1, 0, 0}, textVec: []float32{0, 0, 1, 0}},
		detector:   &mockDetector{},
		queue:      &syncQueue{},
	}
	registry := NewRegistry(f.docStore, f.textIdx, f.uploadIdx, f.extractIdx)
	dispatcher := NewDispatcher(f.text, f.crossModal)
	tagging := NewTaggingPipeline(f.crossModal, f.detector, f.tagStore, DefaultTaggingConfig())
	f.ingestor = NewIngestor(f.docStore, registry, dispatcher, tagging, f.queue, nil)
	return f
}

func TestIngestTextDocument(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	doc, err := f.ingestor.Ingest(ctx, driving.IngestRequest{
		UserID:      "user-1",
		Name:        "notes.txt",
		ContentType: "text/plain",
		Text:        "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, doc.State)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, 0, doc.ImageCount)

	chunks, err := f.docStore.ListChunks(ctx, "user-1", doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ModalityText, chunks[0].Modality)
	assert.Equal(t, "hello world", chunks[0].Content)

	assert.Equal(t, 1, f.textIdx.Count("user-1"))
	assert.Equal(t, 0, f.uploadIdx.Count("user-1"))
}

func TestIngestRejectsEmptyRequest(t *testing.T) {
	f := newIngestFixture()

	_, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = f.ingestor.Ingest(context.Background(), driving.IngestRequest{Text: "content"})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestIngestDirectImageSchedulesTagging(t *testing.T) {
	f := newIngestFixture()

	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID:      "user-1",
		Name:        "photo.png",
		ContentType: "image/png",
		Image:       []byte{0x89, 0x50},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, doc.State)
	assert.Equal(t, 1, doc.ImageCount)
	assert.Equal(t, 1, f.uploadIdx.Count("user-1"))
	assert.Equal(t, []string{"tag-image"}, f.queue.names)
}

func TestIngestTextEmbeddingRetriedOnce(t *testing.T) {
	f := newIngestFixture()
	f.text.failFirst = 1
	f.text.embedErr = errors.New("transient")

	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID: "user-1",
		Text:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, doc.State)
	assert.Equal(t, 2, f.text.calls)
}

func TestIngestTextEmbeddingFailureFailsDocument(t *testing.T) {
	f := newIngestFixture()
	f.text.failFirst = 10
	f.text.embedErr = errors.New("encoder down")

	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID: "user-1",
		Text:   "hello",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVectorizationFailed)
	require.NotNil(t, doc)
	assert.Equal(t, domain.StateFailed, doc.State)
	assert.NotEmpty(t, doc.ErrorMessage)

	stored, gerr := f.docStore.GetDocument(context.Background(), "user-1", doc.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domain.StateFailed, stored.State)
}

func TestIngestExtractedImagesSkipUnembeddable(t *testing.T) {
	f := newIngestFixture()
	f.crossModal.failFirst = 1
	f.crossModal.imageErr = errors.New("corrupt image")

	page := 3
	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID:        "user-1",
		Name:          "report.pdf",
		ContentType:   "application/pdf",
		Text:          "body text",
		ExtractImages: true,
		ExtractedImages: []driving.ExtractedImage{
			{Data: []byte{0x01}, Page: &page},
			{Data: []byte{0x02}, Page: &page},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, doc.State)

	// embedImageOnceRetried retries the transient failure once, so the
	// first extracted image recovers and both are written.
	assert.Equal(t, 2, doc.ImageCount)
	assert.Equal(t, 2, f.extractIdx.Count("user-1"))
}

func TestIngestExtractedImagesSkippedPermanentFailure(t *testing.T) {
	f := newIngestFixture()
	f.crossModal.failFirst = 2
	f.crossModal.imageErr = errors.New("corrupt image")

	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID:        "user-1",
		Text:          "body text",
		ExtractImages: true,
		ExtractedImages: []driving.ExtractedImage{
			{Data: []byte{0x01}},
			{Data: []byte{0x02}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, doc.State)

	// The first image exhausts its single retry and is skipped; the second
	// succeeds. The document still completes.
	assert.Equal(t, 1, doc.ImageCount)
	assert.Equal(t, 2, doc.ChunkCount)
}

func TestIngestExtractedImagesNeverTagged(t *testing.T) {
	f := newIngestFixture()

	_, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID:        "user-1",
		Text:          "body text",
		ExtractImages: true,
		ExtractedImages: []driving.ExtractedImage{
			{Data: []byte{0x01}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, f.queue.names)
}

func TestIngestExtractFlagDisabled(t *testing.T) {
	f := newIngestFixture()

	doc, err := f.ingestor.Ingest(context.Background(), driving.IngestRequest{
		UserID: "user-1",
		Text:   "body text",
		ExtractedImages: []driving.ExtractedImage{
			{Data: []byte{0x01}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.ImageCount)
	assert.Equal(t, 0, f.extractIdx.Count("user-1"))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mural-labs/mural/internal/chunker"
	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/core/ports/driving"
	"github.com/mural-labs/mural/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// Ingestor orchestrates the ingestion pipeline: chunking, embedding via the
// dispatcher, dual-store writes through the registry, and background
// tagging for directly uploaded images.
type Ingestor struct {
	docStore   driven.DocumentStore
	registry   *Registry
	dispatcher *Dispatcher
	tagging    *TaggingPipeline
	queue      driven.TaskQueue
	chunker    *chunker.Chunker
}

// NewIngestor creates the ingestion pipeline. tagging and queue may be nil;
// uploads then complete without visual tags.
func NewIngestor(
	docStore driven.DocumentStore,
	registry *Registry,
	dispatcher *Dispatcher,
	tagging *TaggingPipeline,
	queue driven.TaskQueue,
	ck *chunker.Chunker,
) *Ingestor {
	if ck == nil {
		ck = chunker.New()
	}
	return &Ingestor{
		docStore:   docStore,
		registry:   registry,
		dispatcher: dispatcher,
		tagging:    tagging,
		queue:      queue,
		chunker:    ck,
	}
}

// Ingest processes one upload. Chunks are written synchronously; tagging is
// scheduled in the background and never holds the document in processing.
// On unrecoverable errors the document is marked failed with the error
// message and the error is returned.
func (s *Ingestor) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.Document, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidParameter)
	}
	if req.Text == "" && req.Image == nil {
		return nil, fmt.Errorf("%w: upload has no content", domain.ErrInvalidParameter)
	}

	logger.Section("Ingestion")

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Name:        req.Name,
		ContentType: req.ContentType,
		GroupID:     req.GroupID,
		State:       domain.StateQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.docStore.UpdateDocumentState(ctx, req.UserID, doc.ID, domain.StateProcessing, ""); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	doc.State = domain.StateProcessing

	chunkCount, imageCount, err := s.writeContent(ctx, doc, req)
	if err != nil {
		return s.fail(ctx, doc, err)
	}

	if err := s.docStore.UpdateDocumentCounts(ctx, req.UserID, doc.ID, chunkCount, imageCount); err != nil {
		return s.fail(ctx, doc, fmt.Errorf("update counts: %w", err))
	}
	doc.ChunkCount = chunkCount
	doc.ImageCount = imageCount

	if err := s.docStore.UpdateDocumentState(ctx, req.UserID, doc.ID, domain.StateCompleted, ""); err != nil {
		return s.fail(ctx, doc, fmt.Errorf("mark completed: %w", err))
	}
	doc.State = domain.StateCompleted

	logger.Info("Ingested document %s: %d chunks, %d images", doc.ID, chunkCount, imageCount)
	return doc, nil
}

// writeContent writes every chunk for the upload and returns the chunk and
// image counts.
func (s *Ingestor) writeContent(ctx context.Context, doc *domain.Document, req driving.IngestRequest) (int, int, error) {
	chunkCount := 0
	imageCount := 0

	if req.Text != "" {
		chunks := s.chunker.Split(doc, req.Text)
		logger.Debug("Chunked %q into %d chunks", doc.Name, len(chunks))

		for i := range chunks {
			chunk := chunks[i]
			vec, err := s.embedTextOnceRetried(ctx, chunk.Content)
			if err != nil {
				// Text chunks are required content.
				return chunkCount, imageCount, err
			}
			if err := s.registry.WriteChunk(ctx, &chunk, doc.GroupID, []EmbeddedVector{vec}); err != nil {
				return chunkCount, imageCount, err
			}
			chunkCount++
		}
	}

	if req.Image != nil {
		chunk := &domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			Modality:   domain.ModalityImage,
			Position:   chunkCount,
			Provenance: domain.ProvenanceUploaded,
			Location:   fmt.Sprintf("upload/%s", doc.ID),
		}
		vec, err := s.embedImageOnceRetried(ctx, req.Image, domain.IndexUploadedImages)
		if err != nil {
			// A direct image upload has no other content to fall back on.
			return chunkCount, imageCount, err
		}
		if err := s.registry.WriteChunk(ctx, chunk, doc.GroupID, []EmbeddedVector{vec}); err != nil {
			return chunkCount, imageCount, err
		}
		chunkCount++
		imageCount++

		s.scheduleTagging(doc.UserID, chunk.ID, req.Image, vec.Values)
	}

	if req.ExtractImages {
		for i, img := range req.ExtractedImages {
			chunk := &domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				UserID:     doc.UserID,
				Modality:   domain.ModalityImage,
				Position:   chunkCount,
				Provenance: domain.ProvenanceImported,
				Location:   fmt.Sprintf("extracted/%s/%d", doc.ID, i),
				Page:       img.Page,
			}
			vec, err := s.embedImageOnceRetried(ctx, img.Data, domain.IndexExtractedImages)
			if err != nil {
				if errors.Is(err, domain.ErrVectorizationFailed) {
					// Extracted images are optional content: skip and continue.
					logger.Warn("Skipping unembeddable extracted image %d of document %s: %v", i, doc.ID, err)
					continue
				}
				return chunkCount, imageCount, err
			}
			if err := s.registry.WriteChunk(ctx, chunk, doc.GroupID, []EmbeddedVector{vec}); err != nil {
				return chunkCount, imageCount, err
			}
			chunkCount++
			imageCount++
			// Extracted images are never tagged: a cost-bounding policy
			// enforced here, not in the tagging pipeline.
		}
	}

	return chunkCount, imageCount, nil
}

// embedTextOnceRetried retries a failed text embedding exactly once before
// giving up.
func (s *Ingestor) embedTextOnceRetried(ctx context.Context, text string) (EmbeddedVector, error) {
	vec, err := s.dispatcher.EmbedText(ctx, text)
	if err != nil && errors.Is(err, domain.ErrVectorizationFailed) {
		logger.Debug("Retrying text embedding after: %v", err)
		vec, err = s.dispatcher.EmbedText(ctx, text)
	}
	return vec, err
}

// embedImageOnceRetried retries a failed image embedding exactly once
// before giving up.
func (s *Ingestor) embedImageOnceRetried(ctx context.Context, image []byte, indexName string) (EmbeddedVector, error) {
	vec, err := s.dispatcher.EmbedImage(ctx, image, indexName)
	if err != nil && errors.Is(err, domain.ErrVectorizationFailed) {
		logger.Debug("Retrying image embedding after: %v", err)
		vec, err = s.dispatcher.EmbedImage(ctx, image, indexName)
	}
	return vec, err
}

// scheduleTagging enqueues a background tagging job for a directly
// uploaded image. Fire and forget: the job's failure domain is its own and
// the document never waits on it.
func (s *Ingestor) scheduleTagging(userID, chunkID string, image []byte, imageVec []float32) {
	if s.tagging == nil || s.queue == nil {
		logger.Debug("Tagging not configured, skipping for chunk %s", chunkID)
		return
	}

	s.queue.Enqueue("tag-image", func(jobCtx context.Context) {
		if err := s.tagging.TagImage(jobCtx, userID, chunkID, image, imageVec); err != nil {
			// Non-fatal by design: tag absence is the only visible symptom.
			logger.Warn("Tagging failed for chunk %s: %v", chunkID, err)
		}
	})
}

// fail records the error on the document and surfaces it.
func (s *Ingestor) fail(ctx context.Context, doc *domain.Document, cause error) (*domain.Document, error) {
	doc.State = domain.StateFailed
	doc.ErrorMessage = cause.Error()
	if err := s.docStore.UpdateDocumentState(ctx, doc.UserID, doc.ID, domain.StateFailed, cause.Error()); err != nil {
		logger.Warn("Could not record failure on document %s: %v", doc.ID, err)
	}
	return doc, cause
}

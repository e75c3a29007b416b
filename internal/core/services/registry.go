package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/logger"
)

// Metadata keys written onto every vector.
const (
	metaUserID     = "user_id"
	metaDocumentID = "document_id"
	metaChunkID    = "chunk_id"
	metaModality   = "modality"
	metaGroupID    = "group_id"
)

// Registry is the dual-store consistency layer. It keeps one relational
// record per chunk and one external-vector-id mapping per embedding, and
// preserves their alignment across writes and deletes without distributed
// transactions: ordered writes with idempotent retries, and a defined
// source-of-truth per operation (write: relational first; delete: vectors
// first).
type Registry struct {
	docStore driven.DocumentStore
	indexes  map[string]driven.VectorIndex

	maxRetries int
	retryDelay time.Duration
}

// NewRegistry creates a registry over the metadata store and the vector
// indexes, keyed by index name.
func NewRegistry(docStore driven.DocumentStore, indexes ...driven.VectorIndex) *Registry {
	byName := make(map[string]driven.VectorIndex, len(indexes))
	for _, idx := range indexes {
		byName[idx.Name()] = idx
	}
	return &Registry{
		docStore:   docStore,
		indexes:    byName,
		maxRetries: 3,
		retryDelay: 250 * time.Millisecond,
	}
}

// Index returns the vector index with the given name.
func (r *Registry) Index(name string) (driven.VectorIndex, error) {
	idx, ok := r.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: no index named %q", domain.ErrVectorIndexUnavailable, name)
	}
	return idx, nil
}

// WriteChunk atomically persists the chunk row and one vector mapping row
// per vector, then upserts the vectors into their indexes under the owning
// user's namespace. The relational write goes first: if an index upsert
// ultimately fails the mapping row still identifies the hole for
// reconciliation.
func (r *Registry) WriteChunk(ctx context.Context, chunk *domain.Chunk, groupID *string, vectors []EmbeddedVector) error {
	mappings := make([]domain.VectorMapping, len(vectors))
	for i, vec := range vectors {
		mappings[i] = domain.VectorMapping{
			VectorID:   uuid.New().String(),
			ChunkID:    chunk.ID,
			IndexName:  vec.IndexName,
			Model:      vec.Model,
			Dimensions: vec.Dimensions,
			CreatedAt:  time.Now().UTC(),
		}
	}

	if err := r.docStore.SaveChunk(ctx, chunk, mappings); err != nil {
		return fmt.Errorf("save chunk %s: %w", chunk.ID, err)
	}

	group := ""
	if groupID != nil {
		group = *groupID
	}

	// Index writes are independent per index and may run concurrently.
	g, gctx := errgroup.WithContext(ctx)
	for i := range vectors {
		vec := vectors[i]
		mapping := mappings[i]
		g.Go(func() error {
			record := driven.VectorRecord{
				ID:     mapping.VectorID,
				Values: vec.Values,
				Metadata: map[string]string{
					metaUserID:     chunk.UserID,
					metaDocumentID: chunk.DocumentID,
					metaChunkID:    chunk.ID,
					metaModality:   string(chunk.Modality),
					metaGroupID:    group,
				},
			}
			return r.upsertWithRetry(gctx, vec.IndexName, chunk.UserID, record)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn("Registry inconsistency: chunk %s has a mapping row without its vector: %v", chunk.ID, err)
		return fmt.Errorf("%w: chunk %s: %v", domain.ErrIndexWriteFailed, chunk.ID, err)
	}

	return nil
}

// upsertWithRetry retries index upserts with backoff. Upserts are
// idempotent per vector id, so a retry after an ambiguous failure is safe.
func (r *Registry) upsertWithRetry(ctx context.Context, indexName, namespace string, record driven.VectorRecord) error {
	idx, err := r.Index(indexName)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay * time.Duration(attempt)):
			}
		}
		if lastErr = idx.Upsert(ctx, namespace, []driven.VectorRecord{record}); lastErr == nil {
			return nil
		}
		logger.Debug("Registry: upsert attempt %d on %s failed: %v", attempt+1, indexName, lastErr)
	}
	return lastErr
}

// ReassignGroup updates the relational group reference and then the
// group_id metadata on every vector belonging to the document, across all
// indexes. Group filtering happens at the vector index, so a mismatch
// between the two stores silently over- or under-filters queries. The
// relational write goes first and is the source of truth; the metadata
// updates are idempotent and the whole operation can be retried until all
// indexes have converged.
func (r *Registry) ReassignGroup(ctx context.Context, userID, documentID string, groupID *string) error {
	if err := r.docStore.SetDocumentGroup(ctx, userID, documentID, groupID); err != nil {
		return fmt.Errorf("set document group: %w", err)
	}

	mappings, err := r.docStore.ListMappings(ctx, userID, documentID)
	if err != nil {
		return fmt.Errorf("list mappings: %w", err)
	}

	group := ""
	if groupID != nil {
		group = *groupID
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range mappings {
		mapping := m
		g.Go(func() error {
			idx, err := r.Index(mapping.IndexName)
			if err != nil {
				return err
			}
			var lastErr error
			for attempt := 0; attempt < r.maxRetries; attempt++ {
				if attempt > 0 {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(r.retryDelay * time.Duration(attempt)):
					}
				}
				lastErr = idx.UpdateMetadata(gctx, userID, mapping.VectorID, map[string]string{metaGroupID: group})
				if lastErr == nil {
					return nil
				}
			}
			return fmt.Errorf("update metadata on %s vector %s: %w", mapping.IndexName, mapping.VectorID, lastErr)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn("Registry inconsistency: document %s group metadata incomplete, retry reassignment: %v", documentID, err)
		return fmt.Errorf("%w: document %s: %v", domain.ErrRegistryInconsistency, documentID, err)
	}

	return nil
}

// DeleteDocument removes the document's vectors from every index, then the
// relational rows via cascade. The external vector ids only exist in the
// mapping rows, so they are collected before the relational delete. A
// failed index delete is logged and does not abort the cascade: an
// orphaned vector is invisible to user-scoped queries once its metadata is
// gone, whereas an orphaned metadata row would stay user-visible.
// Idempotent: a second delete observes domain.ErrNotFound.
func (r *Registry) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if _, err := r.docStore.GetDocument(ctx, userID, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get document: %w", err)
	}

	mappings, err := r.docStore.ListMappings(ctx, userID, documentID)
	if err != nil {
		return fmt.Errorf("list mappings: %w", err)
	}

	idsByIndex := make(map[string][]string)
	for _, m := range mappings {
		idsByIndex[m.IndexName] = append(idsByIndex[m.IndexName], m.VectorID)
	}

	// Vector removal first. Failures are logged for reconciliation but
	// never block the relational cascade.
	g, gctx := errgroup.WithContext(ctx)
	for name, ids := range idsByIndex {
		indexName, vectorIDs := name, ids
		g.Go(func() error {
			idx, err := r.Index(indexName)
			if err != nil {
				logger.Warn("Registry: cannot delete %d vectors, index %s unavailable", len(vectorIDs), indexName)
				return nil
			}
			if err := idx.Delete(gctx, userID, vectorIDs); err != nil {
				logger.Warn("Registry inconsistency: %d orphaned vectors left in %s for document %s: %v",
					len(vectorIDs), indexName, documentID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := r.docStore.DeleteDocument(ctx, userID, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A concurrent delete won the race; same outcome.
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete document rows: %w", err)
	}

	logger.Info("Deleted document %s (%d vectors across %d indexes)", documentID, len(mappings), len(idsByIndex))
	return nil
}

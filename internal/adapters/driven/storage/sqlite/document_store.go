package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, name, content_type, group_id, chunk_count, image_count, state, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			content_type = excluded.content_type,
			group_id = excluded.group_id,
			chunk_count = excluded.chunk_count,
			image_count = excluded.image_count,
			state = excluded.state,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, doc.ID, doc.UserID, doc.Name, doc.ContentType, nullStringPtr(doc.GroupID),
		doc.ChunkCount, doc.ImageCount, string(doc.State), doc.ErrorMessage,
		doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *documentStore) GetDocument(ctx context.Context, userID, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, content_type, group_id, chunk_count, image_count, state, error_message, created_at, updated_at
		FROM documents WHERE id = ? AND user_id = ?
	`, id, userID)
	return scanDocument(row)
}

// ListDocuments returns all documents owned by the user, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, name, content_type, group_id, chunk_count, image_count, state, error_message, created_at, updated_at
		FROM documents WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentState transitions the processing state.
func (s *documentStore) UpdateDocumentState(ctx context.Context, userID, id string, state domain.ProcessingState, errMsg string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET state = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, string(state), errMsg, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("updating document state: %w", err)
	}
	return requireRow(result)
}

// UpdateDocumentCounts records the aggregate chunk and image counts.
func (s *documentStore) UpdateDocumentCounts(ctx context.Context, userID, id string, chunkCount, imageCount int) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET chunk_count = ?, image_count = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, chunkCount, imageCount, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("updating document counts: %w", err)
	}
	return requireRow(result)
}

// SetDocumentGroup updates the relational group reference.
func (s *documentStore) SetDocumentGroup(ctx context.Context, userID, id string, groupID *string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET group_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, nullStringPtr(groupID), time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("setting document group: %w", err)
	}
	return requireRow(result)
}

// DeleteDocument removes the document. Foreign keys cascade to chunks,
// vector mappings and tags.
func (s *documentStore) DeleteDocument(ctx context.Context, userID, id string) error {
	result, err := s.store.db.ExecContext(ctx, `
		DELETE FROM documents WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireRow(result)
}

// SaveChunk atomically persists a chunk row together with its vector
// mapping rows.
func (s *documentStore) SaveChunk(ctx context.Context, chunk *domain.Chunk, mappings []domain.VectorMapping) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, user_id, modality, position, provenance, location, page, start_offset, end_offset, content, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			modality = excluded.modality,
			position = excluded.position,
			location = excluded.location,
			content = excluded.content,
			preview = excluded.preview
	`, chunk.ID, chunk.DocumentID, chunk.UserID, string(chunk.Modality), chunk.Position,
		string(chunk.Provenance), chunk.Location, nullIntPtr(chunk.Page),
		nullIntPtr(chunk.StartOffset), nullIntPtr(chunk.EndOffset), chunk.Content, chunk.Preview)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	for _, m := range mappings {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vector_mappings (vector_id, chunk_id, index_name, model, dimensions, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(vector_id) DO NOTHING
		`, m.VectorID, m.ChunkID, m.IndexName, m.Model, m.Dimensions, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving vector mapping: %w", err)
		}
	}

	return tx.Commit()
}

// GetChunk retrieves a chunk by id.
func (s *documentStore) GetChunk(ctx context.Context, userID, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, user_id, modality, position, provenance, location, page, start_offset, end_offset, content, preview
		FROM chunks WHERE id = ? AND user_id = ?
	`, id, userID)
	return scanChunk(row)
}

// ListChunks returns all chunks of a document in position order.
func (s *documentStore) ListChunks(ctx context.Context, userID, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, user_id, modality, position, provenance, location, page, start_offset, end_offset, content, preview
		FROM chunks WHERE document_id = ? AND user_id = ?
		ORDER BY position ASC
	`, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	return chunks, rows.Err()
}

// ListMappings returns every vector mapping belonging to the document's
// chunks.
func (s *documentStore) ListMappings(ctx context.Context, userID, documentID string) ([]domain.VectorMapping, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT m.vector_id, m.chunk_id, m.index_name, m.model, m.dimensions, m.created_at
		FROM vector_mappings m
		JOIN chunks c ON c.id = m.chunk_id
		WHERE c.document_id = ? AND c.user_id = ?
	`, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing vector mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.VectorMapping
	for rows.Next() {
		var m domain.VectorMapping
		var createdAt sql.NullTime
		if err := rows.Scan(&m.VectorID, &m.ChunkID, &m.IndexName, &m.Model, &m.Dimensions, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning vector mapping: %w", err)
		}
		if createdAt.Valid {
			m.CreatedAt = createdAt.Time
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var groupID sql.NullString
	var state string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.ContentType, &groupID,
		&doc.ChunkCount, &doc.ImageCount, &state, &doc.ErrorMessage, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.GroupID = strPtr(groupID)
	doc.State = domain.ProcessingState(state)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var modality, provenance string
	var page, startOffset, endOffset sql.NullInt64
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.UserID, &modality, &chunk.Position,
		&provenance, &chunk.Location, &page, &startOffset, &endOffset, &chunk.Content, &chunk.Preview); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Modality = domain.Modality(modality)
	chunk.Provenance = domain.Provenance(provenance)
	chunk.Page = intPtr(page)
	chunk.StartOffset = intPtr(startOffset)
	chunk.EndOffset = intPtr(endOffset)
	return &chunk, nil
}

// requireRow maps zero affected rows to domain.ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

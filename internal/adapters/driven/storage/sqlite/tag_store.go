package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
)

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// SaveTag stores or updates a tag. A tag with the same (chunk, label) or
// (document, label) pair replaces the existing one.
func (s *tagStore) SaveTag(ctx context.Context, tag *domain.Tag) error {
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	switch {
	case tag.ChunkID != nil:
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM tags WHERE chunk_id = ? AND label = ?", *tag.ChunkID, tag.Label); err != nil {
			return fmt.Errorf("replacing chunk tag: %w", err)
		}
	case tag.DocumentID != nil:
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM tags WHERE document_id = ? AND label = ?", *tag.DocumentID, tag.Label); err != nil {
			return fmt.Errorf("replacing document tag: %w", err)
		}
	}

	var boxX, boxY, boxWidth, boxHeight sql.NullFloat64
	if tag.Box != nil {
		boxX = sql.NullFloat64{Float64: tag.Box.X, Valid: true}
		boxY = sql.NullFloat64{Float64: tag.Box.Y, Valid: true}
		boxWidth = sql.NullFloat64{Float64: tag.Box.Width, Valid: true}
		boxHeight = sql.NullFloat64{Float64: tag.Box.Height, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, label, confidence, verified, box_x, box_y, box_width, box_height, category, source, chunk_id, document_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tag.ID, tag.UserID, tag.Label, tag.Confidence, tag.Verified,
		boxX, boxY, boxWidth, boxHeight, tag.Category, string(tag.Source),
		nullStringPtr(tag.ChunkID), nullStringPtr(tag.DocumentID), tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving tag: %w", err)
	}

	return tx.Commit()
}

// ListTagsForChunk returns the tags of an image chunk, highest confidence
// first.
func (s *tagStore) ListTagsForChunk(ctx context.Context, userID, chunkID string) ([]domain.Tag, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, label, confidence, verified, box_x, box_y, box_width, box_height, category, source, chunk_id, document_id, created_at
		FROM tags WHERE user_id = ? AND chunk_id = ?
		ORDER BY confidence DESC
	`, userID, chunkID)
	if err != nil {
		return nil, fmt.Errorf("listing chunk tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

// SearchTags returns tags matching any of the labels with confidence at or
// above minConfidence, newest first.
func (s *tagStore) SearchTags(ctx context.Context, userID string, labels []string, minConfidence float64, limit int) ([]domain.Tag, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	args := make([]any, 0, len(labels)+3)
	args = append(args, userID)
	for _, label := range labels {
		args = append(args, label)
	}
	args = append(args, minConfidence, limit)

	rows, err := s.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, label, confidence, verified, box_x, box_y, box_width, box_height, category, source, chunk_id, document_id, created_at
		FROM tags WHERE user_id = ? AND label IN (%s) AND confidence >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("searching tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]domain.Tag, error) {
	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		var source string
		var boxX, boxY, boxWidth, boxHeight sql.NullFloat64
		var chunkID, documentID sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Label, &tag.Confidence, &tag.Verified,
			&boxX, &boxY, &boxWidth, &boxHeight, &tag.Category, &source,
			&chunkID, &documentID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tag.Source = domain.TagSource(source)
		tag.ChunkID = strPtr(chunkID)
		tag.DocumentID = strPtr(documentID)
		if boxX.Valid {
			tag.Box = &domain.BoundingBox{
				X:      boxX.Float64,
				Y:      boxY.Float64,
				Width:  boxWidth.Float64,
				Height: boxHeight.Float64,
			}
		}
		if createdAt.Valid {
			tag.CreatedAt = createdAt.Time
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

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

// groupStore implements driven.GroupStore.
type groupStore struct {
	store *Store
}

var _ driven.GroupStore = (*groupStore)(nil)

// SaveGroup stores or updates a group.
func (s *groupStore) SaveGroup(ctx context.Context, group *domain.Group) error {
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO groups (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, group.ID, group.UserID, group.Name, group.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id.
func (s *groupStore) GetGroup(ctx context.Context, userID, id string) (*domain.Group, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM groups WHERE id = ? AND user_id = ?
	`, id, userID)

	var group domain.Group
	var createdAt sql.NullTime
	if err := row.Scan(&group.ID, &group.UserID, &group.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	if createdAt.Valid {
		group.CreatedAt = createdAt.Time
	}
	return &group, nil
}

// ListGroups returns all groups owned by the user, sorted by name.
func (s *groupStore) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM groups WHERE user_id = ?
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		var createdAt sql.NullTime
		if err := rows.Scan(&group.ID, &group.UserID, &group.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		if createdAt.Valid {
			group.CreatedAt = createdAt.Time
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// DeleteGroup removes the group. The documents foreign key is ON DELETE SET
// NULL, so member documents are detached rather than deleted.
func (s *groupStore) DeleteGroup(ctx context.Context, userID, id string) error {
	result, err := s.store.db.ExecContext(ctx, `
		DELETE FROM groups WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	return requireRow(result)
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

// GroupRepository reads lesson groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a repository instance.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ListAll returns every group ordered by name.
func (r *GroupRepository) ListAll(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT id, name, teacher_id, created_at FROM student_groups ORDER BY name ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

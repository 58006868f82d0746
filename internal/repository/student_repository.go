package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

const studentColumns = "id, last_name, first_name, active, created_at, updated_at"

// StudentRepository reads the student directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListActive returns every active student ordered by name.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE active = TRUE ORDER BY last_name ASC, first_name ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

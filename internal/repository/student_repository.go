package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// StudentRepository reads the student roster source.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByCodes loads students by code.
func (r *StudentRepository) FindByCodes(ctx context.Context, codes []string) ([]models.Student, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	const query = `SELECT code, full_name, email FROM students WHERE code = ANY($1)`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	return students, nil
}

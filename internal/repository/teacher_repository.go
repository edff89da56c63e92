package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// TeacherRepository reads teachers and their subject eligibility.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID loads one teacher.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, nip, email, full_name, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByIDs loads the requested teachers.
func (r *TeacherRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, nip, email, full_name, active, created_at, updated_at FROM teachers WHERE id = ANY($1)`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find teachers: %w", err)
	}
	return teachers, nil
}

// ListSubjects returns the subjects each of the given teachers may grade.
func (r *TeacherRepository) ListSubjects(ctx context.Context, teacherIDs []string) ([]models.TeacherSubject, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT teacher_id, subject_id FROM teacher_subjects WHERE teacher_id = ANY($1)`
	var subjects []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}

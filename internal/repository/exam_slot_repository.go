package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

const examSlotColumns = "id, subject_id, semester, academic_year, name, exam_date, start_at, end_at, exam_type, status, exam_id, meta, created_at, updated_at"

// ExamSlotRepository persists exam slots.
type ExamSlotRepository struct {
	db *sqlx.DB
}

// NewExamSlotRepository creates an exam slot repository.
func NewExamSlotRepository(db *sqlx.DB) *ExamSlotRepository {
	return &ExamSlotRepository{db: db}
}

func (r *ExamSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a slot. ID and timestamps are filled in when empty.
func (r *ExamSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	if len(slot.Meta) == 0 {
		slot.Meta = []byte("{}")
	}

	const query = `INSERT INTO exam_slots (id, subject_id, semester, academic_year, name, exam_date, start_at, end_at, exam_type, status, exam_id, meta, created_at, updated_at)
VALUES (:id, :subject_id, :semester, :academic_year, :name, :exam_date, :start_at, :end_at, :exam_type, :status, :exam_id, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create exam slot: %w", err)
	}
	return nil
}

// FindByID loads a slot.
func (r *ExamSlotRepository) FindByID(ctx context.Context, id string) (*models.ExamSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_slots WHERE id = $1", examSlotColumns)
	var slot models.ExamSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// List returns slots with optional filtering and pagination.
func (r *ExamSlotRepository) List(ctx context.Context, filter models.ExamSlotFilter) ([]models.ExamSlot, int, error) {
	base := "FROM exam_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("exam_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("exam_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"start_at":   true,
		"exam_date":  true,
		"name":       true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "start_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", examSlotColumns, base, sortBy, order, size, offset)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exam slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exam slots: %w", err)
	}

	return slots, total, nil
}

// AttachExam links an exam and moves the slot to next, provided it is still in from
// and has no exam. It reports whether a row changed.
func (r *ExamSlotRepository) AttachExam(ctx context.Context, exec sqlx.ExtContext, id, examID string, from, next models.ExamSlotStatus) (bool, error) {
	const query = `UPDATE exam_slots SET exam_id = $2, status = $3, updated_at = $4 WHERE id = $1 AND status = $5 AND exam_id IS NULL`
	res, err := r.exec(exec).ExecContext(ctx, query, id, examID, next, time.Now().UTC(), from)
	if err != nil {
		return false, fmt.Errorf("attach exam to slot: %w", err)
	}
	return affected(res)
}

// UpdateStatus moves a slot from one status to the next. It reports false when the slot
// was no longer in from.
func (r *ExamSlotRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, next models.ExamSlotStatus) (bool, error) {
	const query = `UPDATE exam_slots SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.exec(exec).ExecContext(ctx, query, id, next, time.Now().UTC(), from)
	if err != nil {
		return false, fmt.Errorf("update exam slot status: %w", err)
	}
	return affected(res)
}

// DeleteUnassigned removes a slot that has no exam attached yet. Rooms and seats cascade.
func (r *ExamSlotRepository) DeleteUnassigned(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	const query = `DELETE FROM exam_slots WHERE id = $1 AND status = $2`
	res, err := r.exec(exec).ExecContext(ctx, query, id, models.ExamSlotStatusUnassigned)
	if err != nil {
		return false, fmt.Errorf("delete exam slot: %w", err)
	}
	return affected(res)
}

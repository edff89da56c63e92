package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var examSlotRowColumns = []string{"id", "subject_id", "semester", "academic_year", "name", "exam_date", "start_at", "end_at", "exam_type", "status", "exam_id", "meta", "created_at", "updated_at"}

func TestExamSlotRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec("INSERT INTO exam_slots").
		WithArgs(sqlmock.AnyArg(), "math", "1", "2024/2025", "Math midterm 1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "MIDTERM", "UNASSIGNED", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.ExamSlot{
		SubjectID:    "math",
		Semester:     "1",
		AcademicYear: "2024/2025",
		Name:         "Math midterm 1",
		ExamType:     models.ExamTypeMidterm,
		Status:       models.ExamSlotStatusUnassigned,
	}
	require.NoError(t, repo.Create(context.Background(), nil, slot))
	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, "{}", string(slot.Meta))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	now := time.Now()
	status := models.ExamSlotStatusOpen
	rows := sqlmock.NewRows(examSlotRowColumns).
		AddRow("slot-1", "math", "1", "2024/2025", "Math", now, now, now.Add(time.Hour), "MIDTERM", "OPEN", "exam-1", []byte("{}"), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_slots WHERE 1=1 AND subject_id = $1 AND status = $2 ORDER BY start_at ASC LIMIT 20 OFFSET 0")).
		WithArgs("math", "OPEN").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exam_slots WHERE 1=1 AND subject_id = $1 AND status = $2")).
		WithArgs("math", "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	slots, total, err := repo.List(context.Background(), models.ExamSlotFilter{SubjectID: "math", Status: &status, SortBy: "id; DROP TABLE"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.ExamSlotStatusOpen, slots[0].Status)
	require.NotNil(t, slots[0].ExamID)
	assert.Equal(t, "exam-1", *slots[0].ExamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryUpdateStatusCompareAndSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_slots SET status = $2")).
		WithArgs("slot-1", "OPEN", sqlmock.AnyArg(), "UNOPENED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_slots SET status = $2")).
		WithArgs("slot-1", "OPEN", sqlmock.AnyArg(), "UNOPENED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), nil, "slot-1", models.ExamSlotStatusUnopened, models.ExamSlotStatusOpen)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), nil, "slot-1", models.ExamSlotStatusUnopened, models.ExamSlotStatusOpen)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryAttachExam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_slots SET exam_id = $2")).
		WithArgs("slot-1", "exam-1", "UNOPENED", sqlmock.AnyArg(), "UNASSIGNED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AttachExam(context.Background(), nil, "slot-1", "exam-1", models.ExamSlotStatusUnassigned, models.ExamSlotStatusUnopened)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryDeleteUnassigned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_slots WHERE id = $1 AND status = $2")).
		WithArgs("slot-1", "UNASSIGNED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteUnassigned(context.Background(), nil, "slot-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

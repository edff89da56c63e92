package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

func TestRoomRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "active", "created_at", "updated_at"}).
			AddRow("room-1", "A-101", 30, true, now, now))

	rooms, err := repo.FindByIDs(context.Background(), []string{"room-1", "room-2"})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 30, rooms[0].Capacity)

	none, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCodes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, full_name, email FROM students WHERE code = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"code", "full_name", "email"}).
			AddRow("S001", "Ana", "ana@example.edu").
			AddRow("S002", "Budi", "budi@example.edu"))

	students, err := repo.FindByCodes(context.Background(), []string{"S001", "S002"})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDsAndSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nip", "email", "full_name", "active", "created_at", "updated_at"}).
			AddRow("t1", nil, "t1@example.edu", "Teacher One", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id, subject_id FROM teacher_subjects")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "subject_id"}).AddRow("t1", "math"))

	teachers, err := repo.FindByIDs(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Nil(t, teachers[0].NIP)

	subjects, err := repo.ListSubjects(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "math", subjects[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exams WHERE id = $1")).
		WithArgs("exam-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "exam_type", "subject_id", "semester", "academic_year", "created_at"}).
			AddRow("exam-1", "Math UTS", "MIDTERM", "math", "1", "2024/2025", time.Now()))

	exam, err := repo.FindByID(context.Background(), "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "math", exam.SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	var dest map[string]string

	assert.ErrorIs(t, repo.Get(context.Background(), "exam_slots:detail:1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "exam_slots:*"))
	assert.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, repo.Close())
}

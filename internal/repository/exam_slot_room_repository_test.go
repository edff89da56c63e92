package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

func TestExamSlotRoomRepositoryCreateRoomsAndSeats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRoomRepository(db)

	mock.ExpectExec("INSERT INTO exam_slot_rooms").
		WithArgs(sqlmock.AnyArg(), "slot-1", "room-1", nil, nil, 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_slot_room_students").
		WithArgs("sr-1", "S001", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_slot_room_students").
		WithArgs("sr-1", "S002", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rooms := []models.ExamSlotRoom{{ExamSlotID: "slot-1", RoomID: "room-1", StudentCount: 2}}
	require.NoError(t, repo.CreateRooms(context.Background(), nil, rooms))
	assert.NotEmpty(t, rooms[0].ID)

	require.NoError(t, repo.CreateStudents(context.Background(), nil, []models.ExamSlotRoomStudent{
		{ExamSlotRoomID: "sr-1", StudentCode: "S001", SeatNumber: 1},
		{ExamSlotRoomID: "sr-1", StudentCode: "S002", SeatNumber: 2},
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRoomRepositoryRoomBookings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRoomRepository(db)

	from := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE esr.room_id = ANY($1) AND es.start_at < $3 AND es.end_at > $2")).
		WithArgs(sqlmock.AnyArg(), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "exam_slot_id", "exam_slot_room_id", "start_at", "end_at"}).
			AddRow("room-1", "slot-0", "sr-0", from, from.Add(time.Hour)))

	bookings, err := repo.RoomBookings(context.Background(), nil, []string{"room-1"}, from, to)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "sr-0", bookings[0].ExamSlotRoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRoomRepositoryTeacherDuties(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRoomRepository(db)

	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UNION ALL").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "role", "exam_slot_id", "exam_slot_room_id", "room_id", "subject_id", "start_at", "end_at"}).
			AddRow("t2", "PROCTOR", "slot-0", "sr-0", "room-9", "physics", start, start.Add(2*time.Hour)))

	duties, err := repo.TeacherDuties(context.Background(), nil, []string{"t2"}, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, duties, 1)
	assert.Equal(t, models.TeacherDutyProctor, duties[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRoomRepositoryAssignTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRoomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_slot_rooms SET grading_teacher_id = $2")).
		WithArgs("sr-1", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_slot_rooms SET proctor_teacher_id = $2")).
		WithArgs("missing", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AssignTeacher(context.Background(), nil, "sr-1", models.TeacherDutyGrader, "t1"))
	assert.Error(t, repo.AssignTeacher(context.Background(), nil, "missing", models.TeacherDutyProctor, "t1"))
	assert.Error(t, repo.AssignTeacher(context.Background(), nil, "sr-1", models.TeacherDutyRole("JANITOR"), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKeysSortsAndDeduplicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	lock := regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")
	mock.ExpectExec(lock).WithArgs("room:a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(lock).WithArgs("room:b").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, LockKeys(context.Background(), db, []string{"room:b", "room:a", "room:b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKeysPropagatesErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("pg_advisory_xact_lock").WillReturnError(errors.New("deadlock"))
	assert.Error(t, LockKeys(context.Background(), db, []string{"teacher:t1"}))
}

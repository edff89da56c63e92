package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// ExamSlotRoomRepository persists slot rooms, their seats and the bookings derived from them.
type ExamSlotRoomRepository struct {
	db *sqlx.DB
}

// NewExamSlotRoomRepository creates an exam slot room repository.
func NewExamSlotRoomRepository(db *sqlx.DB) *ExamSlotRoomRepository {
	return &ExamSlotRoomRepository{db: db}
}

func (r *ExamSlotRoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateRooms inserts slot rooms. IDs and timestamps are filled in when empty.
func (r *ExamSlotRoomRepository) CreateRooms(ctx context.Context, exec sqlx.ExtContext, rooms []models.ExamSlotRoom) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO exam_slot_rooms (id, exam_slot_id, room_id, proctor_teacher_id, grading_teacher_id, student_count, created_at, updated_at)
VALUES (:id, :exam_slot_id, :room_id, :proctor_teacher_id, :grading_teacher_id, :student_count, :created_at, :updated_at)`
	for i := range rooms {
		if rooms[i].ID == "" {
			rooms[i].ID = uuid.NewString()
		}
		if rooms[i].CreatedAt.IsZero() {
			rooms[i].CreatedAt = now
		}
		rooms[i].UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, rooms[i]); err != nil {
			return fmt.Errorf("create exam slot room: %w", err)
		}
	}
	return nil
}

// CreateStudents seats students in slot rooms.
func (r *ExamSlotRoomRepository) CreateStudents(ctx context.Context, exec sqlx.ExtContext, seats []models.ExamSlotRoomStudent) error {
	target := r.exec(exec)
	const query = `INSERT INTO exam_slot_room_students (exam_slot_room_id, student_code, seat_number) VALUES (:exam_slot_room_id, :student_code, :seat_number)`
	for _, seat := range seats {
		if _, err := sqlx.NamedExecContext(ctx, target, query, seat); err != nil {
			return fmt.Errorf("seat student %s: %w", seat.StudentCode, err)
		}
	}
	return nil
}

// ListBySlot returns the rooms of a slot with room data.
func (r *ExamSlotRoomRepository) ListBySlot(ctx context.Context, slotID string) ([]models.ExamSlotRoomDetail, error) {
	const query = `SELECT esr.id, esr.exam_slot_id, esr.room_id, esr.proctor_teacher_id, esr.grading_teacher_id, esr.student_count, esr.created_at, esr.updated_at,
rm.name AS room_name, rm.capacity AS room_capacity
FROM exam_slot_rooms esr
JOIN rooms rm ON rm.id = esr.room_id
WHERE esr.exam_slot_id = $1
ORDER BY rm.name ASC`
	var rooms []models.ExamSlotRoomDetail
	if err := r.db.SelectContext(ctx, &rooms, query, slotID); err != nil {
		return nil, fmt.Errorf("list exam slot rooms: %w", err)
	}
	return rooms, nil
}

// ListStudents returns the seated students of the given slot rooms in seat order.
func (r *ExamSlotRoomRepository) ListStudents(ctx context.Context, slotRoomIDs []string) ([]models.SlotRoomStudent, error) {
	if len(slotRoomIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ers.exam_slot_room_id, ers.seat_number, st.code, st.full_name, st.email
FROM exam_slot_room_students ers
JOIN students st ON st.code = ers.student_code
WHERE ers.exam_slot_room_id = ANY($1)
ORDER BY ers.exam_slot_room_id, ers.seat_number`
	var students []models.SlotRoomStudent
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(slotRoomIDs)); err != nil {
		return nil, fmt.Errorf("list exam slot students: %w", err)
	}
	return students, nil
}

// FindWindows loads slot rooms with the window and status of their slot.
func (r *ExamSlotRoomRepository) FindWindows(ctx context.Context, exec sqlx.ExtContext, slotRoomIDs []string) ([]models.ExamSlotRoomWindow, error) {
	if len(slotRoomIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT esr.id, esr.exam_slot_id, esr.room_id, esr.proctor_teacher_id, esr.grading_teacher_id,
es.subject_id, es.status, es.start_at, es.end_at
FROM exam_slot_rooms esr
JOIN exam_slots es ON es.id = esr.exam_slot_id
WHERE esr.id = ANY($1)`
	var windows []models.ExamSlotRoomWindow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &windows, query, pq.Array(slotRoomIDs)); err != nil {
		return nil, fmt.Errorf("find exam slot room windows: %w", err)
	}
	return windows, nil
}

// RoomBookings returns the bookings of the given rooms that intersect [from, to).
func (r *ExamSlotRoomRepository) RoomBookings(ctx context.Context, exec sqlx.ExtContext, roomIDs []string, from, to time.Time) ([]models.RoomBooking, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT esr.room_id, esr.exam_slot_id, esr.id AS exam_slot_room_id, es.start_at, es.end_at
FROM exam_slot_rooms esr
JOIN exam_slots es ON es.id = esr.exam_slot_id
WHERE esr.room_id = ANY($1) AND es.start_at < $3 AND es.end_at > $2
ORDER BY es.start_at`
	var bookings []models.RoomBooking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, pq.Array(roomIDs), from, to); err != nil {
		return nil, fmt.Errorf("list room bookings: %w", err)
	}
	return bookings, nil
}

// TeacherDuties returns proctor and grader duties of the given teachers that intersect [from, to).
func (r *ExamSlotRoomRepository) TeacherDuties(ctx context.Context, exec sqlx.ExtContext, teacherIDs []string, from, to time.Time) ([]models.TeacherDuty, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT esr.proctor_teacher_id AS teacher_id, 'PROCTOR' AS role, esr.exam_slot_id, esr.id AS exam_slot_room_id, esr.room_id, es.subject_id, es.start_at, es.end_at
FROM exam_slot_rooms esr
JOIN exam_slots es ON es.id = esr.exam_slot_id
WHERE esr.proctor_teacher_id = ANY($1) AND es.start_at < $3 AND es.end_at > $2
UNION ALL
SELECT esr.grading_teacher_id AS teacher_id, 'GRADER' AS role, esr.exam_slot_id, esr.id AS exam_slot_room_id, esr.room_id, es.subject_id, es.start_at, es.end_at
FROM exam_slot_rooms esr
JOIN exam_slots es ON es.id = esr.exam_slot_id
WHERE esr.grading_teacher_id = ANY($1) AND es.start_at < $3 AND es.end_at > $2
ORDER BY start_at`
	var duties []models.TeacherDuty
	if err := sqlx.SelectContext(ctx, r.exec(exec), &duties, query, pq.Array(teacherIDs), from, to); err != nil {
		return nil, fmt.Errorf("list teacher duties: %w", err)
	}
	return duties, nil
}

// AssignTeacher sets the proctor or grader of a slot room.
func (r *ExamSlotRoomRepository) AssignTeacher(ctx context.Context, exec sqlx.ExtContext, slotRoomID string, role models.TeacherDutyRole, teacherID string) error {
	var column string
	switch role {
	case models.TeacherDutyProctor:
		column = "proctor_teacher_id"
	case models.TeacherDutyGrader:
		column = "grading_teacher_id"
	default:
		return fmt.Errorf("unknown duty role %q", role)
	}
	query := fmt.Sprintf("UPDATE exam_slot_rooms SET %s = $2, updated_at = $3 WHERE id = $1", column)
	res, err := r.exec(exec).ExecContext(ctx, query, slotRoomID, teacherID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign %s to slot room %s: %w", role, slotRoomID, err)
	}
	changed, err := affected(res)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("assign %s: slot room %s: %w", role, slotRoomID, sql.ErrNoRows)
	}
	return nil
}

// LockKeys takes a transaction scoped advisory lock per distinct key, in sorted key order.
func LockKeys(ctx context.Context, tx sqlx.ExecerContext, keys []string) error {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			sorted = append(sorted, key)
		}
	}
	sort.Strings(sorted)
	for _, key := range sorted {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ExamSlotStatus is the lifecycle state of a persisted exam slot.
// The zero value is not a valid status.
type ExamSlotStatus uint8

const (
	ExamSlotStatusUnassigned ExamSlotStatus = iota + 1
	ExamSlotStatusUnopened
	ExamSlotStatusOpen
	ExamSlotStatusClosed
)

var examSlotStatusCodes = map[ExamSlotStatus]string{
	ExamSlotStatusUnassigned: "UNASSIGNED",
	ExamSlotStatusUnopened:   "UNOPENED",
	ExamSlotStatusOpen:       "OPEN",
	ExamSlotStatusClosed:     "CLOSED",
}

var examSlotStatusLabels = map[ExamSlotStatus]string{
	ExamSlotStatusUnassigned: "Exam not assigned",
	ExamSlotStatusUnopened:   "Not opened",
	ExamSlotStatusOpen:       "In progress",
	ExamSlotStatusClosed:     "Closed",
}

// ParseExamSlotStatus resolves a status code such as "OPEN".
func ParseExamSlotStatus(code string) (ExamSlotStatus, error) {
	for status, c := range examSlotStatusCodes {
		if c == code {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown exam slot status %q", code)
}

// Valid reports whether s is one of the four lifecycle states.
func (s ExamSlotStatus) Valid() bool {
	_, ok := examSlotStatusCodes[s]
	return ok
}

// String returns the stable status code.
func (s ExamSlotStatus) String() string {
	if code, ok := examSlotStatusCodes[s]; ok {
		return code
	}
	return fmt.Sprintf("ExamSlotStatus(%d)", uint8(s))
}

// Label returns human readable text for presentation.
func (s ExamSlotStatus) Label() string {
	return examSlotStatusLabels[s]
}

// MarshalText encodes the status code.
func (s ExamSlotStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid exam slot status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status code.
func (s *ExamSlotStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseExamSlotStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s ExamSlotStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid exam slot status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *ExamSlotStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into ExamSlotStatus", src)
	}
}

// ExamSlot is a scheduled sitting for a subject, possibly spread over several rooms.
type ExamSlot struct {
	ID           string         `db:"id" json:"id"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	Semester     string         `db:"semester" json:"semester"`
	AcademicYear string         `db:"academic_year" json:"academic_year"`
	Name         string         `db:"name" json:"name"`
	ExamDate     time.Time      `db:"exam_date" json:"exam_date"`
	StartAt      time.Time      `db:"start_at" json:"start_at"`
	EndAt        time.Time      `db:"end_at" json:"end_at"`
	ExamType     ExamType       `db:"exam_type" json:"exam_type"`
	Status       ExamSlotStatus `db:"status" json:"status"`
	ExamID       *string        `db:"exam_id" json:"exam_id,omitempty"`
	Meta         types.JSONText `db:"meta" json:"meta,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ExamSlotRoom joins a slot with a room and carries the staff assigned to it.
type ExamSlotRoom struct {
	ID               string    `db:"id" json:"id"`
	ExamSlotID       string    `db:"exam_slot_id" json:"exam_slot_id"`
	RoomID           string    `db:"room_id" json:"room_id"`
	ProctorTeacherID *string   `db:"proctor_teacher_id" json:"proctor_teacher_id,omitempty"`
	GradingTeacherID *string   `db:"grading_teacher_id" json:"grading_teacher_id,omitempty"`
	StudentCount     int       `db:"student_count" json:"student_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ExamSlotRoomStudent places one student in a slot room.
type ExamSlotRoomStudent struct {
	ExamSlotRoomID string `db:"exam_slot_room_id" json:"exam_slot_room_id"`
	StudentCode    string `db:"student_code" json:"student_code"`
	SeatNumber     int    `db:"seat_number" json:"seat_number"`
}

// ExamSlotRoomDetail enriches a slot room with room data and its roster.
type ExamSlotRoomDetail struct {
	ExamSlotRoom
	RoomName     string    `db:"room_name" json:"room_name"`
	RoomCapacity int       `db:"room_capacity" json:"room_capacity"`
	Students     []Student `db:"-" json:"students"`
}

// ExamSlotDetail is a slot with all of its rooms.
type ExamSlotDetail struct {
	ExamSlot
	Rooms []ExamSlotRoomDetail `json:"rooms"`
}

// ExamSlotFilter describes list filters for exam slots.
type ExamSlotFilter struct {
	SubjectID    string
	Semester     string
	AcademicYear string
	ExamType     ExamType
	Status       *ExamSlotStatus
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// RoomBooking is a persisted room occupancy derived from exam_slot_rooms.
type RoomBooking struct {
	RoomID         string    `db:"room_id"`
	ExamSlotID     string    `db:"exam_slot_id"`
	ExamSlotRoomID string    `db:"exam_slot_room_id"`
	StartAt        time.Time `db:"start_at"`
	EndAt          time.Time `db:"end_at"`
}

// TeacherDutyRole distinguishes proctoring from grading.
type TeacherDutyRole string

const (
	TeacherDutyProctor TeacherDutyRole = "PROCTOR"
	TeacherDutyGrader  TeacherDutyRole = "GRADER"
)

// Valid reports whether r is a known duty role.
func (r TeacherDutyRole) Valid() bool {
	return r == TeacherDutyProctor || r == TeacherDutyGrader
}

// TeacherDuty is a persisted proctor or grader assignment of a teacher.
type TeacherDuty struct {
	TeacherID      string          `db:"teacher_id" json:"teacher_id"`
	Role           TeacherDutyRole `db:"role" json:"role"`
	ExamSlotID     string          `db:"exam_slot_id" json:"exam_slot_id"`
	ExamSlotRoomID string          `db:"exam_slot_room_id" json:"exam_slot_room_id"`
	RoomID         string          `db:"room_id" json:"room_id"`
	SubjectID      string          `db:"subject_id" json:"subject_id"`
	StartAt        time.Time       `db:"start_at" json:"start_at"`
	EndAt          time.Time       `db:"end_at" json:"end_at"`
}

// ExamSlotRoomWindow is a slot room together with the slot fields assignment checks need.
type ExamSlotRoomWindow struct {
	ID               string         `db:"id"`
	ExamSlotID       string         `db:"exam_slot_id"`
	RoomID           string         `db:"room_id"`
	ProctorTeacherID *string        `db:"proctor_teacher_id"`
	GradingTeacherID *string        `db:"grading_teacher_id"`
	SubjectID        string         `db:"subject_id"`
	Status           ExamSlotStatus `db:"status"`
	StartAt          time.Time      `db:"start_at"`
	EndAt            time.Time      `db:"end_at"`
}

// SlotRoomStudent is a seated student keyed by slot room.
type SlotRoomStudent struct {
	ExamSlotRoomID string `db:"exam_slot_room_id"`
	SeatNumber     int    `db:"seat_number"`
	Student
}

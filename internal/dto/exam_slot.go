package dto

import (
	"time"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// GenerateExamSlotsRequest asks the engine to lay a roster out over rooms and windows.
type GenerateExamSlotsRequest struct {
	SubjectID    string `json:"subjectId" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
	ExamType     string `json:"examType" validate:"required,oneof=MIDTERM FINAL MAKEUP"`
	// Name prefixes generated slot names; defaults to the subject id.
	Name         string   `json:"name" validate:"omitempty,max=120"`
	StudentCodes []string `json:"studentCodes" validate:"required,min=1,dive,required"`
	RoomIDs      []string `json:"roomIds" validate:"required,min=1,dive,required"`

	StartDate         string `json:"startDate" validate:"required,datetime=2006-01-02"`
	StartTime         string `json:"startTime" validate:"required,datetime=15:04"`
	EndDate           string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	DurationMinutes   int    `json:"durationMinutes" validate:"required,min=1,max=720"`
	RelaxationMinutes int    `json:"relaxationMinutes" validate:"min=0,max=720"`
	DayStart          string `json:"dayStart" validate:"omitempty,datetime=15:04"`
	DayEnd            string `json:"dayEnd" validate:"omitempty,datetime=15:04"`

	OptimizedByRoom     bool `json:"optimizedByRoom"`
	OptimizedBySlotExam bool `json:"optimizedBySlotExam"`
}

// ProposedExamSlotRoom is one room group of a proposal.
type ProposedExamSlotRoom struct {
	RoomID       string   `json:"roomId"`
	RoomName     string   `json:"roomName"`
	Capacity     int      `json:"capacity"`
	StudentCodes []string `json:"studentCodes"`
}

// ProposedExamSlot is an unsaved slot of a proposal.
type ProposedExamSlot struct {
	Name     string                 `json:"name"`
	ExamDate string                 `json:"examDate"`
	StartAt  time.Time              `json:"startAt"`
	EndAt    time.Time              `json:"endAt"`
	Rooms    []ProposedExamSlotRoom `json:"rooms"`
}

// SkippedRoomWindow tells the operator a room was passed over because it was booked.
type SkippedRoomWindow struct {
	RoomID      string    `json:"roomId"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	BookedFrom  time.Time `json:"bookedFrom"`
	BookedUntil time.Time `json:"bookedUntil"`
}

// GenerationSummary describes how a proposal was produced.
type GenerationSummary struct {
	Students        int    `json:"students"`
	RoomsUsed       int    `json:"roomsUsed"`
	Slots           int    `json:"slots"`
	WindowsExamined int    `json:"windowsExamined"`
	Packing         string `json:"packing"`
	SlotMode        string `json:"slotMode"`
}

// GenerateExamSlotsResponse returns a reviewable proposal.
type GenerateExamSlotsResponse struct {
	ProposalID string              `json:"proposalId"`
	ExpiresAt  time.Time           `json:"expiresAt"`
	Slots      []ProposedExamSlot  `json:"slots"`
	Skipped    []SkippedRoomWindow `json:"skipped,omitempty"`
	Summary    GenerationSummary   `json:"summary"`
}

// SaveExamSlotRoom is a reviewed room group.
type SaveExamSlotRoom struct {
	RoomID       string   `json:"roomId" validate:"required"`
	StudentCodes []string `json:"studentCodes" validate:"required,min=1,dive,required"`
}

// SaveExamSlotItem is a reviewed slot.
type SaveExamSlotItem struct {
	Name    string             `json:"name" validate:"required,max=160"`
	StartAt time.Time          `json:"startAt" validate:"required"`
	EndAt   time.Time          `json:"endAt" validate:"required,gtfield=StartAt"`
	Rooms   []SaveExamSlotRoom `json:"rooms" validate:"required,min=1,dive"`
}

// SaveExamSlotsRequest commits reviewed slots. When ProposalID is set the seated students
// must match the generated roster exactly.
type SaveExamSlotsRequest struct {
	ProposalID   string             `json:"proposalId"`
	SubjectID    string             `json:"subjectId" validate:"required"`
	Semester     string             `json:"semester" validate:"required"`
	AcademicYear string             `json:"academicYear" validate:"required"`
	ExamType     string             `json:"examType" validate:"required,oneof=MIDTERM FINAL MAKEUP"`
	Slots        []SaveExamSlotItem `json:"slots" validate:"required,min=1,dive"`
}

// SaveExamSlotsResponse lists the created slot ids in request order.
type SaveExamSlotsResponse struct {
	SlotIDs []string `json:"slotIds"`
}

// AttachExamRequest links a catalog exam to a slot.
type AttachExamRequest struct {
	ExamID   string `json:"examId" validate:"required"`
	ExamType string `json:"examType" validate:"required,oneof=MIDTERM FINAL MAKEUP"`
}

// ChangeStatusRequest advances a slot to its next status.
type ChangeStatusRequest struct {
	ExamType string `json:"examType" validate:"required,oneof=MIDTERM FINAL MAKEUP"`
	// ProctorID is set from the token when a teacher makes the change.
	ProctorID string `json:"-"`
}

// ExamSlotStatusResponse reports a slot's status after a transition.
type ExamSlotStatusResponse struct {
	ID          string                `json:"id"`
	Status      models.ExamSlotStatus `json:"status"`
	StatusLabel string                `json:"statusLabel"`
}

// TeacherAssignmentItem asks for a teacher to take one role in one slot room.
type TeacherAssignmentItem struct {
	ExamSlotRoomID string `json:"examSlotRoomId" validate:"required"`
	TeacherID      string `json:"teacherId"`
	Role           string `json:"role" validate:"required,oneof=PROCTOR GRADER"`
}

// AssignTeachersRequest is an all-or-nothing assignment batch. With IsTheSame one teacher
// per role covers every room; TeacherID then fills items that name no teacher.
type AssignTeachersRequest struct {
	IsTheSame   bool                    `json:"isTheSame"`
	TeacherID   string                  `json:"teacherId"`
	Assignments []TeacherAssignmentItem `json:"assignments" validate:"required,min=1,max=200,dive"`
}

// AssignTeachersResponse confirms a committed batch.
type AssignTeachersResponse struct {
	Assigned int `json:"assigned"`
}

// ExamSlotQuery filters the exam slot list.
type ExamSlotQuery struct {
	SubjectID    string `form:"subjectId"`
	Semester     string `form:"semester"`
	AcademicYear string `form:"academicYear"`
	ExamType     string `form:"examType" validate:"omitempty,oneof=MIDTERM FINAL MAKEUP"`
	Status       string `form:"status" validate:"omitempty,oneof=UNASSIGNED UNOPENED OPEN CLOSED"`
	DateFrom     string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo       string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
}

// ExamSlotView is a slot with its display label.
type ExamSlotView struct {
	models.ExamSlot
	StatusLabel string `json:"status_label"`
}

// ExamSlotDetailView is a slot with rooms, rosters and its display label.
type ExamSlotDetailView struct {
	models.ExamSlotDetail
	StatusLabel string `json:"status_label"`
}

// TeacherDutyQuery bounds a teacher's duty listing. Dates are inclusive civil dates.
type TeacherDutyQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

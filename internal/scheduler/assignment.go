package scheduler

import (
	"fmt"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// AssignmentMode selects how teachers are named in an assignment batch.
type AssignmentMode uint8

const (
	// AssignPerRoom lets every request name its own teacher.
	AssignPerRoom AssignmentMode = iota + 1
	// AssignSameTeacher requires one teacher per role to cover every room of the batch.
	AssignSameTeacher
)

// AssignmentModeFromFlag maps the isTheSame toggle.
func AssignmentModeFromFlag(isTheSame bool) AssignmentMode {
	if isTheSame {
		return AssignSameTeacher
	}
	return AssignPerRoom
}

func (m AssignmentMode) String() string {
	switch m {
	case AssignPerRoom:
		return "PER_ROOM"
	case AssignSameTeacher:
		return "SAME_TEACHER"
	}
	return fmt.Sprintf("AssignmentMode(%d)", uint8(m))
}

// FailureReason classifies a rejected assignment request.
type FailureReason string

const (
	ReasonTeacherNotFound  FailureReason = "TEACHER_NOT_FOUND"
	ReasonTeacherInactive  FailureReason = "TEACHER_INACTIVE"
	ReasonTimeConflict     FailureReason = "TIME_CONFLICT"
	ReasonNotEligible      FailureReason = "NOT_ELIGIBLE"
	ReasonDuplicateRequest FailureReason = "DUPLICATE_REQUEST"
	ReasonTeacherMismatch  FailureReason = "TEACHER_MISMATCH"
	ReasonSlotRoomNotFound FailureReason = "SLOT_ROOM_NOT_FOUND"
	ReasonSlotClosed       FailureReason = "SLOT_CLOSED"
)

// AssignmentRequest asks for one teacher to take one role in one slot room.
type AssignmentRequest struct {
	// Index is the request's position in the caller's batch.
	Index      int
	SlotRoomID string
	SlotID     string
	SubjectID  string
	TeacherID  string
	Role       models.TeacherDutyRole
	Window     Interval
}

// TeacherProfile is the registry view of a teacher.
type TeacherProfile struct {
	ID       string
	Active   bool
	Subjects map[string]bool
}

// TeacherDirectory is a snapshot of the teacher registry keyed by id.
type TeacherDirectory map[string]TeacherProfile

// Duty is a teacher booking in one role.
type Duty struct {
	TeacherID  string
	Role       models.TeacherDutyRole
	SlotID     string
	SlotRoomID string
	Interval   Interval
}

// DutiesFromModels converts persisted duties.
func DutiesFromModels(rows []models.TeacherDuty) []Duty {
	duties := make([]Duty, 0, len(rows))
	for _, row := range rows {
		duties = append(duties, Duty{
			TeacherID:  row.TeacherID,
			Role:       row.Role,
			SlotID:     row.ExamSlotID,
			SlotRoomID: row.ExamSlotRoomID,
			Interval:   Interval{Start: row.StartAt, End: row.EndAt},
		})
	}
	return duties
}

// AssignmentFailure explains why one request of a batch was rejected.
type AssignmentFailure struct {
	Index      int                    `json:"index"`
	SlotRoomID string                 `json:"examSlotRoomId"`
	TeacherID  string                 `json:"teacherId"`
	Role       models.TeacherDutyRole `json:"role"`
	Reason     FailureReason          `json:"reason"`
	Message    string                 `json:"message"`
	Conflict   *ConflictError         `json:"conflict,omitempty"`
}

type dutyKey struct {
	slotRoomID string
	role       models.TeacherDutyRole
}

// ResolveAssignments validates a batch against the teacher directory and existing duties.
// It returns every failure; an empty result means the whole batch may be committed.
func ResolveAssignments(mode AssignmentMode, reqs []AssignmentRequest, dir TeacherDirectory, duties []Duty) []AssignmentFailure {
	replaced := make(map[dutyKey]bool, len(reqs))
	for _, req := range reqs {
		replaced[dutyKey{req.SlotRoomID, req.Role}] = true
	}
	// Duties being overwritten by this batch no longer book their teacher.
	booked := make(map[string][]Duty)
	for _, d := range duties {
		if replaced[dutyKey{d.SlotRoomID, d.Role}] {
			continue
		}
		booked[d.TeacherID] = append(booked[d.TeacherID], d)
	}

	// Accepted requests of this batch, kept apart from saved duties.
	pending := make(map[string][]Duty)

	var failures []AssignmentFailure
	seen := make(map[dutyKey]int, len(reqs))
	roleTeacher := make(map[models.TeacherDutyRole]string)
	fail := func(req AssignmentRequest, reason FailureReason, msg string, conflict *ConflictError) {
		failures = append(failures, AssignmentFailure{
			Index:      req.Index,
			SlotRoomID: req.SlotRoomID,
			TeacherID:  req.TeacherID,
			Role:       req.Role,
			Reason:     reason,
			Message:    msg,
			Conflict:   conflict,
		})
	}

	for _, req := range reqs {
		rejected := false
		key := dutyKey{req.SlotRoomID, req.Role}
		if first, dup := seen[key]; dup {
			fail(req, ReasonDuplicateRequest, fmt.Sprintf("%s of room %s already requested at index %d", req.Role, req.SlotRoomID, first), nil)
			rejected = true
		} else {
			seen[key] = req.Index
		}

		if mode == AssignSameTeacher {
			if teacher, ok := roleTeacher[req.Role]; !ok {
				roleTeacher[req.Role] = req.TeacherID
			} else if teacher != req.TeacherID {
				fail(req, ReasonTeacherMismatch, fmt.Sprintf("every %s of the batch must be teacher %s", req.Role, teacher), nil)
				rejected = true
			}
		}

		profile, ok := dir[req.TeacherID]
		if !ok {
			fail(req, ReasonTeacherNotFound, fmt.Sprintf("teacher %s not found", req.TeacherID), nil)
			continue
		}
		if !profile.Active {
			fail(req, ReasonTeacherInactive, fmt.Sprintf("teacher %s is inactive", req.TeacherID), nil)
			rejected = true
		}
		if req.Role == models.TeacherDutyGrader && !profile.Subjects[req.SubjectID] {
			err := &EligibilityError{TeacherID: req.TeacherID, SubjectID: req.SubjectID, Role: req.Role}
			fail(req, ReasonNotEligible, err.Error(), nil)
			rejected = true
		}
		existing, found := firstTeacherConflict(req, booked[req.TeacherID], false)
		if !found {
			existing, found = firstTeacherConflict(req, pending[req.TeacherID], mode == AssignSameTeacher)
		}
		if found {
			conflict := &ConflictError{
				Kind:       ResourceTeacher,
				ResourceID: req.TeacherID,
				Requested:  req.Window,
				Existing:   existing.Interval,
			}
			fail(req, ReasonTimeConflict, conflict.Error(), conflict)
			rejected = true
		}
		if !rejected {
			pending[req.TeacherID] = append(pending[req.TeacherID], Duty{
				TeacherID:  req.TeacherID,
				Role:       req.Role,
				SlotID:     req.SlotID,
				SlotRoomID: req.SlotRoomID,
				Interval:   req.Window,
			})
		}
	}
	return failures
}

// firstTeacherConflict returns the first duty overlapping req. Graders of one slot never clash.
// With shareSlot, duties of the same slot and role are skipped so one teacher can cover
// every room of the slot; it is only set for requests of the current batch.
func firstTeacherConflict(req AssignmentRequest, duties []Duty, shareSlot bool) (Duty, bool) {
	for _, d := range duties {
		if d.SlotRoomID == req.SlotRoomID {
			continue
		}
		if d.SlotID == req.SlotID {
			if d.Role == models.TeacherDutyGrader && req.Role == models.TeacherDutyGrader {
				continue
			}
			if shareSlot && d.Role == req.Role {
				continue
			}
		}
		if req.Window.Overlaps(d.Interval) {
			return d, true
		}
	}
	return Duty{}, false
}

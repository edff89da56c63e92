package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

func directory() TeacherDirectory {
	return TeacherDirectory{
		"t1": {ID: "t1", Active: true, Subjects: map[string]bool{"math": true}},
		"t2": {ID: "t2", Active: true, Subjects: map[string]bool{"physics": true}},
		"t3": {ID: "t3", Active: true},
		"t4": {ID: "t4", Active: false},
	}
}

func proctor(index int, slotRoomID, teacherID string, window Interval) AssignmentRequest {
	return AssignmentRequest{
		Index:      index,
		SlotRoomID: slotRoomID,
		SlotID:     "slot-1",
		SubjectID:  "math",
		TeacherID:  teacherID,
		Role:       models.TeacherDutyProctor,
		Window:     window,
	}
}

func TestAssignmentModeFromFlag(t *testing.T) {
	assert.Equal(t, AssignSameTeacher, AssignmentModeFromFlag(true))
	assert.Equal(t, AssignPerRoom, AssignmentModeFromFlag(false))
}

func TestResolveAssignmentsAcceptsCleanBatch(t *testing.T) {
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(2, "sr-2", "t2", span(8, 0, 10, 0)),
		proctor(3, "sr-3", "t3", span(8, 0, 10, 0)),
	}
	assert.Empty(t, ResolveAssignments(AssignPerRoom, reqs, directory(), nil))
}

func TestResolveAssignmentsNamesOnlyConflictingRequest(t *testing.T) {
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(2, "sr-2", "t2", span(8, 0, 10, 0)),
		proctor(3, "sr-3", "t3", span(8, 0, 10, 0)),
	}
	existing := []Duty{{
		TeacherID:  "t2",
		Role:       models.TeacherDutyProctor,
		SlotID:     "slot-0",
		SlotRoomID: "sr-0",
		Interval:   span(9, 0, 11, 0),
	}}

	failures := ResolveAssignments(AssignPerRoom, reqs, directory(), existing)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Index)
	assert.Equal(t, ReasonTimeConflict, failures[0].Reason)
	require.NotNil(t, failures[0].Conflict)
	assert.Equal(t, ResourceTeacher, failures[0].Conflict.Kind)
	assert.Equal(t, span(9, 0, 11, 0), failures[0].Conflict.Existing)
	assert.Equal(t, span(8, 0, 10, 0), failures[0].Conflict.Requested)
}

func TestResolveAssignmentsConflictWithinBatch(t *testing.T) {
	second := proctor(2, "sr-9", "t1", span(9, 0, 10, 0))
	second.SlotID = "slot-2"
	reqs := []AssignmentRequest{proctor(1, "sr-1", "t1", span(8, 0, 10, 0)), second}

	failures := ResolveAssignments(AssignPerRoom, reqs, directory(), nil)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Index)
	assert.Equal(t, ReasonTimeConflict, failures[0].Reason)
}

func TestResolveAssignmentsTouchingWindowsDoNotConflict(t *testing.T) {
	existing := []Duty{{TeacherID: "t1", Role: models.TeacherDutyProctor, SlotID: "slot-0", SlotRoomID: "sr-0", Interval: span(7, 0, 8, 0)}}
	failures := ResolveAssignments(AssignPerRoom, []AssignmentRequest{proctor(1, "sr-1", "t1", span(8, 0, 10, 0))}, directory(), existing)
	assert.Empty(t, failures)
}

func TestResolveAssignmentsReplacingExistingDuty(t *testing.T) {
	existing := []Duty{{TeacherID: "t1", Role: models.TeacherDutyProctor, SlotID: "slot-1", SlotRoomID: "sr-2", Interval: span(8, 0, 10, 0)}}
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(2, "sr-2", "t2", span(8, 0, 10, 0)),
	}
	assert.Empty(t, ResolveAssignments(AssignPerRoom, reqs, directory(), existing))
}

func TestResolveAssignmentsRegistryChecks(t *testing.T) {
	grader := proctor(3, "sr-3", "t2", span(8, 0, 10, 0))
	grader.Role = models.TeacherDutyGrader
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "ghost", span(8, 0, 10, 0)),
		proctor(2, "sr-2", "t4", span(8, 0, 10, 0)),
		grader,
	}

	failures := ResolveAssignments(AssignPerRoom, reqs, directory(), nil)
	require.Len(t, failures, 3)
	assert.Equal(t, ReasonTeacherNotFound, failures[0].Reason)
	assert.Equal(t, ReasonTeacherInactive, failures[1].Reason)
	assert.Equal(t, ReasonNotEligible, failures[2].Reason)
	assert.Equal(t, 3, failures[2].Index)
}

func TestResolveAssignmentsGradersOfOneSlotShareTeacher(t *testing.T) {
	var reqs []AssignmentRequest
	for i, room := range []string{"sr-1", "sr-2"} {
		req := proctor(i+1, room, "t1", span(8, 0, 10, 0))
		req.Role = models.TeacherDutyGrader
		reqs = append(reqs, req)
	}
	assert.Empty(t, ResolveAssignments(AssignPerRoom, reqs, directory(), nil))
}

func TestResolveAssignmentsSameTeacherMode(t *testing.T) {
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(2, "sr-2", "t1", span(8, 0, 10, 0)),
	}
	assert.Empty(t, ResolveAssignments(AssignSameTeacher, reqs, directory(), nil))

	reqs = append(reqs, proctor(3, "sr-3", "t3", span(8, 0, 10, 0)))
	failures := ResolveAssignments(AssignSameTeacher, reqs, directory(), nil)
	require.Len(t, failures, 1)
	assert.Equal(t, ReasonTeacherMismatch, failures[0].Reason)
	assert.Equal(t, 3, failures[0].Index)
}

func TestResolveAssignmentsSameTeacherModeRespectsSavedDuties(t *testing.T) {
	saved := []Duty{{TeacherID: "t1", Role: models.TeacherDutyProctor, SlotID: "slot-1", SlotRoomID: "sr-1", Interval: span(8, 0, 10, 0)}}
	reqs := []AssignmentRequest{proctor(0, "sr-2", "t1", span(8, 0, 10, 0))}

	for _, mode := range []AssignmentMode{AssignPerRoom, AssignSameTeacher} {
		failures := ResolveAssignments(mode, reqs, directory(), saved)
		require.Len(t, failures, 1, mode.String())
		assert.Equal(t, ReasonTimeConflict, failures[0].Reason)
		require.NotNil(t, failures[0].Conflict)
		assert.Equal(t, span(8, 0, 10, 0), failures[0].Conflict.Existing)
	}
}

func TestResolveAssignmentsPerRoomModeRejectsParallelRooms(t *testing.T) {
	reqs := []AssignmentRequest{
		proctor(0, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(1, "sr-2", "t1", span(8, 0, 10, 0)),
	}
	failures := ResolveAssignments(AssignPerRoom, reqs, directory(), nil)
	require.Len(t, failures, 1)
	assert.Equal(t, ReasonTimeConflict, failures[0].Reason)
	assert.Equal(t, 1, failures[0].Index)
}

func TestResolveAssignmentsRejectsDuplicateRoomRole(t *testing.T) {
	reqs := []AssignmentRequest{
		proctor(1, "sr-1", "t1", span(8, 0, 10, 0)),
		proctor(2, "sr-1", "t3", span(8, 0, 10, 0)),
	}
	failures := ResolveAssignments(AssignPerRoom, reqs, directory(), nil)
	require.Len(t, failures, 1)
	assert.Equal(t, ReasonDuplicateRequest, failures[0].Reason)
}

func TestDutiesFromModels(t *testing.T) {
	duties := DutiesFromModels([]models.TeacherDuty{{
		TeacherID:      "t1",
		Role:           models.TeacherDutyGrader,
		ExamSlotID:     "slot-1",
		ExamSlotRoomID: "sr-1",
		StartAt:        at(8, 0),
		EndAt:          at(9, 0),
	}})
	require.Len(t, duties, 1)
	assert.Equal(t, span(8, 0, 9, 0), duties[0].Interval)
	assert.Equal(t, "sr-1", duties[0].SlotRoomID)
}

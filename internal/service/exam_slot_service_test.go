package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

func TestExamSlotServiceAttachExam(t *testing.T) {
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 1, 9, 0), nil)

	resp, err := svc.AttachExam(context.Background(), "slot-1", dto.AttachExamRequest{ExamID: "exam-1", ExamType: "FINAL"})
	require.NoError(t, err)
	assert.Equal(t, models.ExamSlotStatusUnopened, resp.Status)
	assert.Equal(t, "Not opened", resp.StatusLabel)
	require.NotNil(t, store.items["slot-1"].ExamID)
	assert.Equal(t, "exam-1", *store.items["slot-1"].ExamID)
}

func TestExamSlotServiceAttachExamRejections(t *testing.T) {
	examID := "exam-0"
	cases := map[string]struct {
		slot *models.ExamSlot
		req  dto.AttachExamRequest
		code string
	}{
		"already attached": {
			slot: slotFixture("slot-1", models.ExamSlotStatusUnassigned, &examID),
			req:  dto.AttachExamRequest{ExamID: "exam-1", ExamType: "FINAL"},
			code: appErrors.ErrInvalidTransition.Code,
		},
		"slot type differs": {
			slot: slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil),
			req:  dto.AttachExamRequest{ExamID: "exam-midterm", ExamType: "MIDTERM"},
			code: appErrors.ErrValidation.Code,
		},
		"request type differs": {
			slot: slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil),
			req:  dto.AttachExamRequest{ExamID: "exam-1", ExamType: "MIDTERM"},
			code: appErrors.ErrValidation.Code,
		},
		"unknown exam": {
			slot: slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil),
			req:  dto.AttachExamRequest{ExamID: "missing", ExamType: "FINAL"},
			code: appErrors.ErrNotFound.Code,
		},
		"not unassigned": {
			slot: slotFixture("slot-1", models.ExamSlotStatusOpen, nil),
			req:  dto.AttachExamRequest{ExamID: "exam-1", ExamType: "FINAL"},
			code: appErrors.ErrInvalidTransition.Code,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := newExamSlotStoreStub(tc.slot)
			svc := newExamSlotServiceFixture(store, at(2024, 6, 1, 9, 0), nil)

			_, err := svc.AttachExam(context.Background(), "slot-1", tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Zero(t, store.writes)
		})
	}
}

func TestExamSlotServiceOpenOnExamDate(t *testing.T) {
	examID := "exam-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusUnopened, &examID))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 10, 7, 45), nil)

	resp, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL"})
	require.NoError(t, err)
	assert.Equal(t, models.ExamSlotStatusOpen, resp.Status)
	assert.Equal(t, models.ExamSlotStatusOpen, store.items["slot-1"].Status)
}

func TestExamSlotServiceOpenOnAnotherDay(t *testing.T) {
	examID := "exam-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusUnopened, &examID))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 9, 12, 0), nil)

	for i := 0; i < 2; i++ {
		_, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL"})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrDateMismatch.Code, appErr.Code)
		assert.Equal(t, &scheduler.DateMismatchError{Scheduled: "2024-06-10", Today: "2024-06-09"}, appErr.Details)
	}
	assert.Equal(t, models.ExamSlotStatusUnopened, store.items["slot-1"].Status)
	assert.Zero(t, store.writes)
}

func TestExamSlotServiceProctorChangesStatus(t *testing.T) {
	examID := "exam-1"
	proctor := "teacher-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusOpen, &examID))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 10, 9, 0), nil)
	svc.slotRooms.(*slotRoomReaderStub).proctor = &proctor

	resp, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL", ProctorID: "teacher-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ExamSlotStatusClosed, resp.Status)
}

func TestExamSlotServiceOtherTeacherCannotChangeStatus(t *testing.T) {
	examID := "exam-1"
	proctor := "teacher-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusOpen, &examID))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 10, 9, 0), nil)
	svc.slotRooms.(*slotRoomReaderStub).proctor = &proctor

	_, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL", ProctorID: "teacher-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.ExamSlotStatusOpen, store.items["slot-1"].Status)
	assert.Zero(t, store.writes)
}

func TestExamSlotServiceClosedIsFinal(t *testing.T) {
	examID := "exam-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusClosed, &examID))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 10, 9, 0), nil)

	_, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.ExamSlotStatusClosed, store.items["slot-1"].Status)
}

func TestExamSlotServiceLostRace(t *testing.T) {
	examID := "exam-1"
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusOpen, &examID))
	store.stale = true
	svc := newExamSlotServiceFixture(store, at(2024, 6, 10, 9, 0), nil)

	_, err := svc.ChangeStatus(context.Background(), "slot-1", dto.ChangeStatusRequest{ExamType: "FINAL"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestExamSlotServiceGetAssemblesRostersAndCaches(t *testing.T) {
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil))
	cacheRepo := newMemoryCacheRepo()
	svc := newExamSlotServiceFixture(store, at(2024, 6, 1, 9, 0), cacheRepo)
	rooms := svc.slotRooms.(*slotRoomReaderStub)

	view, err := svc.Get(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "Exam not assigned", view.StatusLabel)
	require.Len(t, view.Rooms, 2)
	assert.Equal(t, []string{"S001", "S002"}, studentCodesOf(view.Rooms[0].Students))
	assert.Empty(t, view.Rooms[1].Students)

	again, err := svc.Get(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "slot-1", again.ID)
	assert.Len(t, again.Rooms, 2)
	assert.Equal(t, 1, rooms.listCalls)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamSlotServiceListUsesCache(t *testing.T) {
	store := newExamSlotStoreStub(slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil))
	svc := newExamSlotServiceFixture(store, at(2024, 6, 1, 9, 0), newMemoryCacheRepo())
	query := dto.ExamSlotQuery{SubjectID: "MATH-101", Status: "UNASSIGNED", DateFrom: "2024-06-01", DateTo: "2024-06-30"}

	items, pagination, err := svc.List(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Exam not assigned", items[0].StatusLabel)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, *pagination)
	require.NotNil(t, store.lastFilter.Status)
	assert.Equal(t, models.ExamSlotStatusUnassigned, *store.lastFilter.Status)

	_, _, err = svc.List(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	_, _, err = svc.List(context.Background(), dto.ExamSlotQuery{DateFrom: "2024-06-30", DateTo: "2024-06-01"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExamSlotServiceDelete(t *testing.T) {
	examID := "exam-1"
	store := newExamSlotStoreStub(
		slotFixture("slot-1", models.ExamSlotStatusUnassigned, nil),
		slotFixture("slot-2", models.ExamSlotStatusUnopened, &examID),
	)
	svc := newExamSlotServiceFixture(store, at(2024, 6, 1, 9, 0), nil)

	require.NoError(t, svc.Delete(context.Background(), "slot-1"))
	assert.NotContains(t, store.items, "slot-1")

	err := svc.Delete(context.Background(), "slot-2")
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestExamSlotServiceTeacherDutiesDefaultWindow(t *testing.T) {
	store := newExamSlotStoreStub()
	svc := newExamSlotServiceFixture(store, at(2024, 6, 9, 15, 0), nil)
	rooms := svc.slotRooms.(*slotRoomReaderStub)

	duties, err := svc.TeacherDuties(context.Background(), "teacher-1", dto.TeacherDutyQuery{})
	require.NoError(t, err)
	assert.Len(t, duties, 1)
	assert.Equal(t, at(2024, 6, 9, 0, 0), rooms.dutyFrom)
	assert.Equal(t, at(2024, 9, 7, 0, 0), rooms.dutyTo)

	_, err = svc.TeacherDuties(context.Background(), "teacher-1", dto.TeacherDutyQuery{From: "2024-07-01", To: "2024-07-01"})
	require.NoError(t, err)
	assert.Equal(t, at(2024, 7, 1, 0, 0), rooms.dutyFrom)
	assert.Equal(t, at(2024, 7, 2, 0, 0), rooms.dutyTo)

	_, err = svc.TeacherDuties(context.Background(), "ghost", dto.TeacherDutyQuery{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

func newExamSlotServiceFixture(store *examSlotStoreStub, now time.Time, cacheRepo CacheRepository) *ExamSlotService {
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	}
	exams := examCatalogStub{
		"exam-1":       {ID: "exam-1", Type: models.ExamTypeFinal, SubjectID: "MATH-101"},
		"exam-midterm": {ID: "exam-midterm", Type: models.ExamTypeMidterm, SubjectID: "MATH-101"},
	}
	teachers := teacherFinderStub{"teacher-1": {ID: "teacher-1", Active: true}}
	return NewExamSlotService(store, exams, &slotRoomReaderStub{}, teachers, scheduler.FixedClock{At: now}, cache, nil, nil, nil)
}

func slotFixture(id string, status models.ExamSlotStatus, examID *string) *models.ExamSlot {
	return &models.ExamSlot{
		ID:        id,
		SubjectID: "MATH-101",
		Name:      "Calculus final",
		ExamDate:  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartAt:   at(2024, 6, 10, 8, 0),
		EndAt:     at(2024, 6, 10, 10, 0),
		ExamType:  models.ExamTypeFinal,
		Status:    status,
		ExamID:    examID,
	}
}

func studentCodesOf(students []models.Student) []string {
	codes := make([]string, 0, len(students))
	for _, s := range students {
		codes = append(codes, s.Code)
	}
	return codes
}

type examSlotStoreStub struct {
	items      map[string]*models.ExamSlot
	stale      bool
	writes     int
	listCalls  int
	lastFilter models.ExamSlotFilter
}

func newExamSlotStoreStub(slots ...*models.ExamSlot) *examSlotStoreStub {
	store := &examSlotStoreStub{items: map[string]*models.ExamSlot{}}
	for _, slot := range slots {
		store.items[slot.ID] = slot
	}
	return store
}

func (s *examSlotStoreStub) FindByID(_ context.Context, id string) (*models.ExamSlot, error) {
	slot, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *slot
	return &copied, nil
}

func (s *examSlotStoreStub) List(_ context.Context, filter models.ExamSlotFilter) ([]models.ExamSlot, int, error) {
	s.listCalls++
	s.lastFilter = filter
	var out []models.ExamSlot
	for _, slot := range s.items {
		out = append(out, *slot)
	}
	return out, len(out), nil
}

func (s *examSlotStoreStub) AttachExam(_ context.Context, _ sqlx.ExtContext, id, examID string, from, next models.ExamSlotStatus) (bool, error) {
	slot, ok := s.items[id]
	if !ok || s.stale || slot.Status != from || slot.ExamID != nil {
		return false, nil
	}
	s.writes++
	slot.ExamID = &examID
	slot.Status = next
	return true, nil
}

func (s *examSlotStoreStub) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, from, next models.ExamSlotStatus) (bool, error) {
	slot, ok := s.items[id]
	if !ok || s.stale || slot.Status != from {
		return false, nil
	}
	s.writes++
	slot.Status = next
	return true, nil
}

func (s *examSlotStoreStub) DeleteUnassigned(_ context.Context, _ sqlx.ExtContext, id string) (bool, error) {
	slot, ok := s.items[id]
	if !ok || slot.Status != models.ExamSlotStatusUnassigned {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

type examCatalogStub map[string]models.Exam

func (s examCatalogStub) FindByID(_ context.Context, id string) (*models.Exam, error) {
	exam, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &exam, nil
}

type teacherFinderStub map[string]models.Teacher

func (s teacherFinderStub) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	teacher, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

type slotRoomReaderStub struct {
	proctor   *string
	listCalls int
	dutyFrom  time.Time
	dutyTo    time.Time
}

func (s *slotRoomReaderStub) ListBySlot(_ context.Context, slotID string) ([]models.ExamSlotRoomDetail, error) {
	s.listCalls++
	return []models.ExamSlotRoomDetail{
		{ExamSlotRoom: models.ExamSlotRoom{ID: "esr-1", ExamSlotID: slotID, RoomID: "room-a", StudentCount: 2}, RoomName: "Hall A", RoomCapacity: 30},
		{ExamSlotRoom: models.ExamSlotRoom{ID: "esr-2", ExamSlotID: slotID, RoomID: "room-b", ProctorTeacherID: s.proctor}, RoomName: "Hall B", RoomCapacity: 30},
	}, nil
}

func (s *slotRoomReaderStub) ListStudents(_ context.Context, ids []string) ([]models.SlotRoomStudent, error) {
	return []models.SlotRoomStudent{
		{ExamSlotRoomID: "esr-1", SeatNumber: 1, Student: models.Student{Code: "S001"}},
		{ExamSlotRoomID: "esr-1", SeatNumber: 2, Student: models.Student{Code: "S002"}},
	}, nil
}

func (s *slotRoomReaderStub) TeacherDuties(_ context.Context, _ sqlx.ExtContext, teacherIDs []string, from, to time.Time) ([]models.TeacherDuty, error) {
	s.dutyFrom, s.dutyTo = from, to
	return []models.TeacherDuty{{TeacherID: teacherIDs[0], Role: models.TeacherDutyProctor, ExamSlotRoomID: "esr-1"}}, nil
}

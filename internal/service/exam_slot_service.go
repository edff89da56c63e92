package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

const defaultDutyHorizon = 90 * 24 * time.Hour

type examSlotStore interface {
	FindByID(ctx context.Context, id string) (*models.ExamSlot, error)
	List(ctx context.Context, filter models.ExamSlotFilter) ([]models.ExamSlot, int, error)
	AttachExam(ctx context.Context, exec sqlx.ExtContext, id, examID string, from, next models.ExamSlotStatus) (bool, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, next models.ExamSlotStatus) (bool, error)
	DeleteUnassigned(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
}

type examCatalogReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type slotRoomReader interface {
	ListBySlot(ctx context.Context, slotID string) ([]models.ExamSlotRoomDetail, error)
	ListStudents(ctx context.Context, slotRoomIDs []string) ([]models.SlotRoomStudent, error)
	TeacherDuties(ctx context.Context, exec sqlx.ExtContext, teacherIDs []string, from, to time.Time) ([]models.TeacherDuty, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// examSlotPage is the cached form of a list result.
type examSlotPage struct {
	Items      []dto.ExamSlotView `json:"items"`
	Pagination models.Pagination  `json:"pagination"`
}

// ExamSlotService governs the lifecycle of persisted exam slots and serves queries over them.
type ExamSlotService struct {
	slots     examSlotStore
	exams     examCatalogReader
	slotRooms slotRoomReader
	teachers  teacherFinder
	lifecycle *scheduler.Lifecycle
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamSlotService constructs the service. A nil clock means UTC wall time.
func NewExamSlotService(
	slots examSlotStore,
	exams examCatalogReader,
	slotRooms slotRoomReader,
	teachers teacherFinder,
	clock scheduler.Clock,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExamSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamSlotService{
		slots:     slots,
		exams:     exams,
		slotRooms: slotRooms,
		teachers:  teachers,
		lifecycle: scheduler.NewLifecycle(clock),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// AttachExam links a catalog exam to an unassigned slot and moves it to UNOPENED.
func (s *ExamSlotService) AttachExam(ctx context.Context, id string, req dto.AttachExamRequest) (*dto.ExamSlotStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attach exam payload")
	}
	slot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.FindByID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if exam.Type != models.ExamType(req.ExamType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examType does not match the exam")
	}
	if exam.SubjectID != slot.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam belongs to another subject")
	}

	next, err := s.lifecycle.AttachExam(slotState(slot), exam.Type)
	if err != nil {
		s.metrics.RecordTransition(slot.Status.String(), models.ExamSlotStatusUnopened.String(), OutcomeRejected)
		return nil, mapSchedulerError(err)
	}
	changed, err := s.slots.AttachExam(ctx, nil, slot.ID, exam.ID, slot.Status, next)
	if err != nil {
		s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach exam")
	}
	if !changed {
		s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam slot was modified concurrently")
	}

	s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeSuccess)
	s.cache.InvalidateExamSlots(ctx)
	s.logger.Info("exam attached",
		zap.String("exam_slot_id", slot.ID),
		zap.String("exam_id", exam.ID),
		zap.Stringer("status", next),
	)
	return statusResponse(slot.ID, next), nil
}

// ChangeStatus advances a slot one step: UNOPENED to OPEN on its exam date, OPEN to CLOSED.
func (s *ExamSlotService) ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest) (*dto.ExamSlotStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status change payload")
	}
	slot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ProctorID != "" {
		if err = s.requireProctor(ctx, slot.ID, req.ProctorID); err != nil {
			return nil, err
		}
	}

	next, err := s.lifecycle.Advance(slotState(slot), models.ExamType(req.ExamType))
	if err != nil {
		target, ok := scheduler.Next(slot.Status)
		if !ok {
			target = slot.Status
		}
		s.metrics.RecordTransition(slot.Status.String(), target.String(), OutcomeRejected)
		s.logger.Debug("exam slot status change refused",
			zap.String("exam_slot_id", slot.ID),
			zap.Stringer("status", slot.Status),
			zap.Error(err),
		)
		return nil, mapSchedulerError(err)
	}
	changed, err := s.slots.UpdateStatus(ctx, nil, slot.ID, slot.Status, next)
	if err != nil {
		s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam slot status")
	}
	if !changed {
		s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam slot was modified concurrently")
	}

	s.metrics.RecordTransition(slot.Status.String(), next.String(), OutcomeSuccess)
	s.cache.InvalidateExamSlots(ctx)
	s.logger.Info("exam slot status changed",
		zap.String("exam_slot_id", slot.ID),
		zap.Stringer("from", slot.Status),
		zap.Stringer("to", next),
	)
	return statusResponse(slot.ID, next), nil
}

// List returns a filtered page of slots.
func (s *ExamSlotService) List(ctx context.Context, query dto.ExamSlotQuery) ([]dto.ExamSlotView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam slot query")
	}
	filter, err := slotFilter(query)
	if err != nil {
		return nil, nil, err
	}

	key := ExamSlotListKey(query)
	var cached examSlotPage
	if s.cache.Get(ctx, key, &cached) {
		return cached.Items, &cached.Pagination, nil
	}

	slots, total, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam slots")
	}
	page := examSlotPage{
		Items:      make([]dto.ExamSlotView, 0, len(slots)),
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	for _, slot := range slots {
		page.Items = append(page.Items, dto.ExamSlotView{ExamSlot: slot, StatusLabel: slot.Status.Label()})
	}
	s.cache.Set(ctx, key, page, 0)
	return page.Items, &page.Pagination, nil
}

// Get returns a slot with its rooms and seated students.
func (s *ExamSlotService) Get(ctx context.Context, id string) (*dto.ExamSlotDetailView, error) {
	key := ExamSlotDetailKey(id)
	var cached dto.ExamSlotDetailView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	slot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	rooms, err := s.slotRooms.ListBySlot(ctx, slot.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot rooms")
	}
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	seated, err := s.slotRooms.ListStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot students")
	}
	byRoom := make(map[string][]models.Student, len(rooms))
	for _, seat := range seated {
		byRoom[seat.ExamSlotRoomID] = append(byRoom[seat.ExamSlotRoomID], seat.Student)
	}
	for i := range rooms {
		rooms[i].Students = byRoom[rooms[i].ID]
		if rooms[i].Students == nil {
			rooms[i].Students = []models.Student{}
		}
	}

	view := &dto.ExamSlotDetailView{
		ExamSlotDetail: models.ExamSlotDetail{ExamSlot: *slot, Rooms: rooms},
		StatusLabel:    slot.Status.Label(),
	}
	s.cache.Set(ctx, key, view, 0)
	return view, nil
}

// Delete removes a slot that has no exam yet, with its rooms and seats.
func (s *ExamSlotService) Delete(ctx context.Context, id string) error {
	slot, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if slot.Status != models.ExamSlotStatusUnassigned {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "only unassigned exam slots can be deleted")
	}
	deleted, err := s.slots.DeleteUnassigned(ctx, nil, slot.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam slot")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrConflict, "exam slot was modified concurrently")
	}
	s.cache.InvalidateExamSlots(ctx)
	s.logger.Info("exam slot deleted", zap.String("exam_slot_id", slot.ID))
	return nil
}

// TeacherDuties lists a teacher's proctor and grader duties. Without bounds it covers
// today and the following 90 days.
func (s *ExamSlotService) TeacherDuties(ctx context.Context, teacherID string, query dto.TeacherDutyQuery) ([]models.TeacherDuty, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duty query")
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	loc := s.lifecycle.Location()
	from, _ := time.ParseInLocation(scheduler.DateLayout, s.lifecycle.Today(), loc)
	to := from.Add(defaultDutyHorizon)
	if query.From != "" {
		from, _ = time.ParseInLocation(scheduler.DateLayout, query.From, loc)
	}
	if query.To != "" {
		day, _ := time.ParseInLocation(scheduler.DateLayout, query.To, loc)
		to = day.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	duties, err := s.slotRooms.TeacherDuties(ctx, nil, []string{teacherID}, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher duties")
	}
	if duties == nil {
		duties = []models.TeacherDuty{}
	}
	return duties, nil
}

func (s *ExamSlotService) find(ctx context.Context, id string) (*models.ExamSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot")
	}
	return slot, nil
}

// requireProctor allows a teacher to move only slots where they proctor at least one room.
func (s *ExamSlotService) requireProctor(ctx context.Context, slotID, teacherID string) error {
	rooms, err := s.slotRooms.ListBySlot(ctx, slotID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot rooms")
	}
	for _, room := range rooms {
		if room.ProctorTeacherID != nil && *room.ProctorTeacherID == teacherID {
			return nil
		}
	}
	s.logger.Debug("exam slot status change by non-proctor refused",
		zap.String("exam_slot_id", slotID),
		zap.String("teacher_id", teacherID),
	)
	return appErrors.Clone(appErrors.ErrForbidden, "only a proctor of this exam slot can change its status")
}

func slotState(slot *models.ExamSlot) scheduler.SlotState {
	return scheduler.SlotState{
		Status:   slot.Status,
		ExamType: slot.ExamType,
		ExamID:   slot.ExamID,
		ExamDate: slot.ExamDate,
	}
}

func statusResponse(id string, status models.ExamSlotStatus) *dto.ExamSlotStatusResponse {
	return &dto.ExamSlotStatusResponse{ID: id, Status: status, StatusLabel: status.Label()}
}

func slotFilter(query dto.ExamSlotQuery) (models.ExamSlotFilter, error) {
	filter := models.ExamSlotFilter{
		SubjectID:    query.SubjectID,
		Semester:     query.Semester,
		AcademicYear: query.AcademicYear,
		ExamType:     models.ExamType(query.ExamType),
		Page:         query.Page,
		PageSize:     query.PageSize,
		SortBy:       query.SortBy,
		SortOrder:    query.SortOrder,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if query.Status != "" {
		status, err := models.ParseExamSlotStatus(query.Status)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		filter.Status = &status
	}
	if query.DateFrom != "" {
		from, err := time.Parse(scheduler.DateLayout, query.DateFrom)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid dateFrom")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse(scheduler.DateLayout, query.DateTo)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid dateTo")
		}
		filter.DateTo = &to
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "dateTo must not be before dateFrom")
	}
	return filter, nil
}

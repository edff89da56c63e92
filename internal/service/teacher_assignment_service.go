package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type dutyStore interface {
	FindWindows(ctx context.Context, exec sqlx.ExtContext, slotRoomIDs []string) ([]models.ExamSlotRoomWindow, error)
	TeacherDuties(ctx context.Context, exec sqlx.ExtContext, teacherIDs []string, from, to time.Time) ([]models.TeacherDuty, error)
	AssignTeacher(ctx context.Context, exec sqlx.ExtContext, slotRoomID string, role models.TeacherDutyRole, teacherID string) error
}

type teacherRegistry interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
	ListSubjects(ctx context.Context, teacherIDs []string) ([]models.TeacherSubject, error)
}

// TeacherAssignmentService assigns proctors and graders to slot rooms in all-or-nothing batches.
type TeacherAssignmentService struct {
	slotRooms dutyStore
	teachers  teacherRegistry
	tx        txProvider
	lock      lockFunc
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherAssignmentService creates a service instance.
func NewTeacherAssignmentService(
	slotRooms dutyStore,
	teachers teacherRegistry,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		slotRooms: slotRooms,
		teachers:  teachers,
		tx:        tx,
		lock:      repository.LockKeys,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Assign validates the whole batch against the teacher registry and every existing duty,
// then writes it. Any failure voids the batch and every failure is reported.
func (s *TeacherAssignmentService) Assign(ctx context.Context, req dto.AssignTeachersRequest) (*dto.AssignTeachersResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher assignment payload")
	}
	mode := scheduler.AssignmentModeFromFlag(req.IsTheSame)
	items := make([]dto.TeacherAssignmentItem, len(req.Assignments))
	copy(items, req.Assignments)
	for i := range items {
		if items[i].TeacherID == "" && mode == scheduler.AssignSameTeacher {
			items[i].TeacherID = req.TeacherID
		}
		if items[i].TeacherID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assignments[%d].teacherId is required", i))
		}
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	var slotRoomIDs, teacherIDs, keys []string
	for _, item := range items {
		slotRoomIDs = append(slotRoomIDs, item.ExamSlotRoomID)
		teacherIDs = append(teacherIDs, item.TeacherID)
		keys = append(keys, "exam-slot-room:"+item.ExamSlotRoomID, "exam-teacher:"+item.TeacherID)
	}
	slotRoomIDs, teacherIDs = distinct(slotRoomIDs), distinct(teacherIDs)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lock(ctx, tx, keys); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock teachers")
		return nil, err
	}

	windows, loadErr := s.slotRooms.FindWindows(ctx, tx, slotRoomIDs)
	if loadErr != nil {
		err = appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot rooms")
		return nil, err
	}
	byID := make(map[string]models.ExamSlotRoomWindow, len(windows))
	for _, w := range windows {
		byID[w.ID] = w
	}

	var failures []scheduler.AssignmentFailure
	requests := make([]scheduler.AssignmentRequest, 0, len(items))
	var from, to time.Time
	for i, item := range items {
		role := models.TeacherDutyRole(item.Role)
		window, ok := byID[item.ExamSlotRoomID]
		if !ok {
			failures = append(failures, slotFailure(i, item, role, scheduler.ReasonSlotRoomNotFound, fmt.Sprintf("exam slot room %s not found", item.ExamSlotRoomID)))
			continue
		}
		// Grading continues after a slot closes; proctoring does not.
		if window.Status == models.ExamSlotStatusClosed && role != models.TeacherDutyGrader {
			failures = append(failures, slotFailure(i, item, role, scheduler.ReasonSlotClosed, fmt.Sprintf("exam slot %s is closed to proctors", window.ExamSlotID)))
			continue
		}
		requests = append(requests, scheduler.AssignmentRequest{
			Index:      i,
			SlotRoomID: window.ID,
			SlotID:     window.ExamSlotID,
			SubjectID:  window.SubjectID,
			TeacherID:  item.TeacherID,
			Role:       role,
			Window:     scheduler.Interval{Start: window.StartAt, End: window.EndAt},
		})
		if from.IsZero() || window.StartAt.Before(from) {
			from = window.StartAt
		}
		if window.EndAt.After(to) {
			to = window.EndAt
		}
	}

	if len(requests) > 0 {
		dir, dirErr := s.directory(ctx, teacherIDs)
		if dirErr != nil {
			err = dirErr
			return nil, err
		}
		rows, dutyErr := s.slotRooms.TeacherDuties(ctx, tx, teacherIDs, from, to)
		if dutyErr != nil {
			err = appErrors.Wrap(dutyErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher duties")
			return nil, err
		}
		failures = append(failures, scheduler.ResolveAssignments(mode, requests, dir, scheduler.DutiesFromModels(rows))...)
	}

	if len(failures) > 0 {
		sort.SliceStable(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
		s.metrics.RecordAssignmentBatch(OutcomeRejected, 0)
		s.logger.Info("teacher assignment batch rejected",
			zap.Int("requests", len(items)),
			zap.Int("failures", len(failures)),
			zap.Stringer("mode", mode),
		)
		err = appErrors.WithDetails(appErrors.ErrAssignmentRejected, fmt.Sprintf("teacher assignment rejected: %d failure(s)", len(failures)), failures)
		return nil, err
	}

	for _, r := range requests {
		if err = s.slotRooms.AssignTeacher(ctx, tx, r.SlotRoomID, r.Role, r.TeacherID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
			s.metrics.RecordAssignmentBatch(OutcomeError, 0)
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit teacher assignments")
		s.metrics.RecordAssignmentBatch(OutcomeError, 0)
		return nil, err
	}

	s.metrics.RecordAssignmentBatch(OutcomeSuccess, len(requests))
	s.cache.InvalidateExamSlots(ctx)
	s.logger.Info("teachers assigned",
		zap.Int("assigned", len(requests)),
		zap.Strings("teacher_ids", teacherIDs),
		zap.Stringer("mode", mode),
	)
	return &dto.AssignTeachersResponse{Assigned: len(requests)}, nil
}

func (s *TeacherAssignmentService) directory(ctx context.Context, teacherIDs []string) (scheduler.TeacherDirectory, error) {
	teachers, err := s.teachers.FindByIDs(ctx, teacherIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	subjects, err := s.teachers.ListSubjects(ctx, teacherIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	dir := make(scheduler.TeacherDirectory, len(teachers))
	for _, teacher := range teachers {
		dir[teacher.ID] = scheduler.TeacherProfile{ID: teacher.ID, Active: teacher.Active, Subjects: map[string]bool{}}
	}
	for _, link := range subjects {
		if profile, ok := dir[link.TeacherID]; ok {
			profile.Subjects[link.SubjectID] = true
		}
	}
	return dir, nil
}

func slotFailure(index int, item dto.TeacherAssignmentItem, role models.TeacherDutyRole, reason scheduler.FailureReason, msg string) scheduler.AssignmentFailure {
	return scheduler.AssignmentFailure{
		Index:      index,
		SlotRoomID: item.ExamSlotRoomID,
		TeacherID:  item.TeacherID,
		Role:       role,
		Reason:     reason,
		Message:    msg,
	}
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// lockFunc takes transaction scoped advisory locks.
type lockFunc func(ctx context.Context, tx sqlx.ExecerContext, keys []string) error

type rosterReader interface {
	FindByCodes(ctx context.Context, codes []string) ([]models.Student, error)
}

type roomReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Room, error)
}

type examSlotWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error
}

type slotRoomWriter interface {
	CreateRooms(ctx context.Context, exec sqlx.ExtContext, rooms []models.ExamSlotRoom) error
	CreateStudents(ctx context.Context, exec sqlx.ExtContext, seats []models.ExamSlotRoomStudent) error
	RoomBookings(ctx context.Context, exec sqlx.ExtContext, roomIDs []string, from, to time.Time) ([]models.RoomBooking, error)
}

// Save violation reasons.
const (
	ViolationCapacityExceeded = "CAPACITY_EXCEEDED"
	ViolationRoomConflict     = "ROOM_CONFLICT"
	ViolationRoomNotFound     = "ROOM_NOT_FOUND"
	ViolationRoomInactive     = "ROOM_INACTIVE"
	ViolationStudentNotFound  = "STUDENT_NOT_FOUND"
	ViolationDuplicateStudent = "DUPLICATE_STUDENT"
	ViolationRosterMismatch   = "ROSTER_MISMATCH"
)

// ExamSlotViolation is one reason a save was refused.
type ExamSlotViolation struct {
	SlotIndex   *int                             `json:"slotIndex,omitempty"`
	RoomID      string                           `json:"roomId,omitempty"`
	StudentCode string                           `json:"studentCode,omitempty"`
	Reason      string                           `json:"reason"`
	Message     string                           `json:"message"`
	Conflict    *scheduler.ConflictError         `json:"conflict,omitempty"`
	Capacity    *scheduler.CapacityExceededError `json:"capacity,omitempty"`
}

// ExamSlotGeneratorConfig governs generation defaults.
type ExamSlotGeneratorConfig struct {
	ProposalTTL time.Duration
	MaxWindows  int
	// DayStart and DayEnd ("HH:MM") bound windows when a request names none.
	DayStart string
	DayEnd   string
	Clock    scheduler.Clock
}

// ExamSlotGeneratorService proposes exam slot layouts and commits reviewed ones.
type ExamSlotGeneratorService struct {
	students  rosterReader
	rooms     roomReader
	slots     examSlotWriter
	slotRooms slotRoomWriter
	tx        txProvider
	lock      lockFunc
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExamSlotGeneratorConfig
	store     *proposalStore
}

// NewExamSlotGeneratorService wires generator dependencies.
func NewExamSlotGeneratorService(
	students rosterReader,
	rooms roomReader,
	slots examSlotWriter,
	slotRooms slotRoomWriter,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExamSlotGeneratorConfig,
) *ExamSlotGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.MaxWindows <= 0 {
		cfg.MaxWindows = scheduler.DefaultMaxWindows
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "07:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "17:00"
	}
	if cfg.Clock == nil {
		cfg.Clock = scheduler.NewZonedClock(time.UTC)
	}
	return &ExamSlotGeneratorService{
		students:  students,
		rooms:     rooms,
		slots:     slots,
		slotRooms: slotRooms,
		tx:        tx,
		lock:      repository.LockKeys,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newProposalStore(cfg.ProposalTTL, cfg.Clock.Now),
	}
}

// Generate partitions the roster over rooms and windows and keeps the result as a proposal.
// Nothing is persisted.
func (s *ExamSlotGeneratorService) Generate(ctx context.Context, req dto.GenerateExamSlotsRequest) (*dto.GenerateExamSlotsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam slot generation payload")
	}
	loc := s.cfg.Clock.Location()
	window, until, err := s.windowConfig(req, loc)
	if err != nil {
		return nil, err
	}

	roster, err := s.loadRoster(ctx, req.StudentCodes)
	if err != nil {
		return nil, err
	}
	rooms, err := s.loadRooms(ctx, req.RoomIDs)
	if err != nil {
		return nil, err
	}

	horizon := until
	if horizon.IsZero() {
		horizon = window.Start.AddDate(0, 0, s.cfg.MaxWindows+1)
	}
	booked, err := s.slotRooms.RoomBookings(ctx, nil, roomIDs(rooms), window.Start, horizon)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room bookings")
	}

	opts := scheduler.OptionsFromFlags(req.OptimizedByRoom, req.OptimizedBySlotExam)
	plan, err := scheduler.BuildPlan(scheduler.PlanInput{
		Roster:     roster,
		Rooms:      rooms,
		Window:     window,
		Options:    opts,
		Bookings:   roomBookingIndex(booked),
		Until:      until,
		MaxWindows: s.cfg.MaxWindows,
	})
	if err != nil {
		var capErr *scheduler.CapacityExceededError
		if errors.As(err, &capErr) {
			s.metrics.RecordGeneration(OutcomeRejected)
		} else {
			s.metrics.RecordGeneration(OutcomeError)
		}
		return nil, s.planError(err)
	}

	proposal := examSlotProposal{
		ID:           uuid.NewString(),
		SubjectID:    req.SubjectID,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		ExamType:     models.ExamType(req.ExamType),
		Roster:       make(map[string]struct{}, len(roster)),
		Packing:      opts.Packing.String(),
		SlotMode:     opts.Slots.String(),
		RequestedAt:  s.cfg.Clock.Now(),
	}
	for _, student := range roster {
		proposal.Roster[student.Code] = struct{}{}
	}
	s.store.Save(proposal)
	s.metrics.RecordGeneration(OutcomeSuccess)

	prefix := req.Name
	if prefix == "" {
		prefix = req.SubjectID
	}
	resp := &dto.GenerateExamSlotsResponse{
		ProposalID: proposal.ID,
		ExpiresAt:  s.store.ExpiresAt(proposal),
		Slots:      make([]dto.ProposedExamSlot, 0, len(plan.Slots)),
		Summary: dto.GenerationSummary{
			Students:        len(roster),
			Slots:           len(plan.Slots),
			WindowsExamined: plan.WindowsExamined,
			Packing:         proposal.Packing,
			SlotMode:        proposal.SlotMode,
		},
	}
	for i, slot := range plan.Slots {
		item := dto.ProposedExamSlot{
			Name:     fmt.Sprintf("%s #%d", prefix, i+1),
			ExamDate: scheduler.CivilDate(slot.Window.Start, loc),
			StartAt:  slot.Window.Start,
			EndAt:    slot.Window.End,
			Rooms:    make([]dto.ProposedExamSlotRoom, 0, len(slot.Rooms)),
		}
		for _, room := range slot.Rooms {
			codes := make([]string, 0, len(room.Students))
			for _, student := range room.Students {
				codes = append(codes, student.Code)
			}
			item.Rooms = append(item.Rooms, dto.ProposedExamSlotRoom{
				RoomID:       room.Room.ID,
				RoomName:     room.Room.Name,
				Capacity:     room.Room.Capacity,
				StudentCodes: codes,
			})
		}
		resp.Summary.RoomsUsed += len(slot.Rooms)
		resp.Slots = append(resp.Slots, item)
	}
	for _, skipped := range plan.Skipped {
		resp.Skipped = append(resp.Skipped, dto.SkippedRoomWindow{
			RoomID:      skipped.RoomID,
			StartAt:     skipped.Window.Start,
			EndAt:       skipped.Window.End,
			BookedFrom:  skipped.Existing.Start,
			BookedUntil: skipped.Existing.End,
		})
	}

	s.logger.Info("exam slots proposed",
		zap.String("proposal_id", proposal.ID),
		zap.String("subject_id", req.SubjectID),
		zap.Int("students", len(roster)),
		zap.Int("slots", len(plan.Slots)),
		zap.Int("windows_examined", plan.WindowsExamined),
	)
	return resp, nil
}

// Save validates reviewed slots against capacity and existing bookings and commits them
// with their rooms and seats in one transaction.
func (s *ExamSlotGeneratorService) Save(ctx context.Context, req dto.SaveExamSlotsRequest) (*dto.SaveExamSlotsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam slot save payload")
	}
	var proposal *examSlotProposal
	if req.ProposalID != "" {
		stored, ok := s.store.Get(req.ProposalID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
		}
		if stored.SubjectID != req.SubjectID || stored.ExamType != models.ExamType(req.ExamType) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject or exam type differs from the proposal")
		}
		proposal = &stored
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	violations, rooms, err := s.checkDraft(ctx, req, proposal)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := make([]string, 0, len(rooms))
	keys := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
		keys = append(keys, "exam-room:"+id)
	}
	sort.Strings(ids)
	if err = s.lock(ctx, tx, keys); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock rooms")
		return nil, err
	}

	from, to := req.Slots[0].StartAt, req.Slots[0].EndAt
	for _, item := range req.Slots[1:] {
		if item.StartAt.Before(from) {
			from = item.StartAt
		}
		if item.EndAt.After(to) {
			to = item.EndAt
		}
	}
	booked, loadErr := s.slotRooms.RoomBookings(ctx, tx, ids, from, to)
	if loadErr != nil {
		err = appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room bookings")
		return nil, err
	}
	existing := roomBookingIndex(booked)
	for i, item := range req.Slots {
		candidate := scheduler.Interval{Start: item.StartAt, End: item.EndAt}
		for _, room := range item.Rooms {
			if conflict := existing.Conflict(scheduler.ResourceRoom, room.RoomID, candidate); conflict != nil {
				violations = append(violations, slotViolation(i, ExamSlotViolation{
					RoomID:   room.RoomID,
					Reason:   ViolationRoomConflict,
					Message:  conflict.Error(),
					Conflict: conflict,
				}))
			}
		}
	}
	if len(violations) > 0 {
		err = violationError(violations)
		return nil, err
	}

	meta, marshalErr := s.meta(proposal)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode exam slot metadata")
		return nil, err
	}

	loc := s.cfg.Clock.Location()
	resp := &dto.SaveExamSlotsResponse{SlotIDs: make([]string, 0, len(req.Slots))}
	for _, item := range req.Slots {
		slot := &models.ExamSlot{
			SubjectID:    req.SubjectID,
			Semester:     req.Semester,
			AcademicYear: req.AcademicYear,
			Name:         item.Name,
			ExamDate:     examDate(item.StartAt, loc),
			StartAt:      item.StartAt,
			EndAt:        item.EndAt,
			ExamType:     models.ExamType(req.ExamType),
			Status:       models.ExamSlotStatusUnassigned,
			Meta:         meta,
		}
		if err = s.slots.Create(ctx, tx, slot); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam slot")
			return nil, err
		}

		slotRooms := make([]models.ExamSlotRoom, 0, len(item.Rooms))
		for _, room := range item.Rooms {
			slotRooms = append(slotRooms, models.ExamSlotRoom{
				ExamSlotID:   slot.ID,
				RoomID:       room.RoomID,
				StudentCount: len(room.StudentCodes),
			})
		}
		if err = s.slotRooms.CreateRooms(ctx, tx, slotRooms); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam slot rooms")
			return nil, err
		}

		var seats []models.ExamSlotRoomStudent
		for j, room := range item.Rooms {
			for k, code := range room.StudentCodes {
				seats = append(seats, models.ExamSlotRoomStudent{
					ExamSlotRoomID: slotRooms[j].ID,
					StudentCode:    code,
					SeatNumber:     k + 1,
				})
			}
		}
		if err = s.slotRooms.CreateStudents(ctx, tx, seats); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seat students")
			return nil, err
		}
		resp.SlotIDs = append(resp.SlotIDs, slot.ID)
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit exam slot transaction")
		return nil, err
	}

	if proposal != nil {
		s.store.Delete(proposal.ID)
	}
	s.cache.InvalidateExamSlots(ctx)
	s.metrics.RecordSlotsSaved(len(resp.SlotIDs))
	s.logger.Info("exam slots saved",
		zap.String("subject_id", req.SubjectID),
		zap.String("proposal_id", req.ProposalID),
		zap.Strings("slot_ids", resp.SlotIDs),
	)
	return resp, nil
}

// checkDraft runs every check that needs no lock: registry lookups, capacity, duplicates,
// proposal roster and overlaps between the submitted slots themselves.
func (s *ExamSlotGeneratorService) checkDraft(ctx context.Context, req dto.SaveExamSlotsRequest, proposal *examSlotProposal) ([]ExamSlotViolation, map[string]models.Room, error) {
	var roomIDList, codes []string
	for _, item := range req.Slots {
		for _, room := range item.Rooms {
			roomIDList = append(roomIDList, room.RoomID)
			codes = append(codes, room.StudentCodes...)
		}
	}

	found, err := s.rooms.FindByIDs(ctx, distinct(roomIDList))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	rooms := make(map[string]models.Room, len(found))
	for _, room := range found {
		rooms[room.ID] = room
	}
	students, err := s.students.FindByCodes(ctx, distinct(codes))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	known := make(map[string]bool, len(students))
	for _, student := range students {
		known[student.Code] = true
	}

	var violations []ExamSlotViolation
	seated := make(map[string]bool, len(codes))
	planned := scheduler.BookingIndex{}
	for i, item := range req.Slots {
		candidate := scheduler.Interval{Start: item.StartAt, End: item.EndAt}
		for _, entry := range item.Rooms {
			room, ok := rooms[entry.RoomID]
			switch {
			case !ok:
				violations = append(violations, slotViolation(i, ExamSlotViolation{
					RoomID:  entry.RoomID,
					Reason:  ViolationRoomNotFound,
					Message: fmt.Sprintf("room %s not found", entry.RoomID),
				}))
			case !room.Active:
				violations = append(violations, slotViolation(i, ExamSlotViolation{
					RoomID:  entry.RoomID,
					Reason:  ViolationRoomInactive,
					Message: fmt.Sprintf("room %s is inactive", entry.RoomID),
				}))
			case len(entry.StudentCodes) > room.Capacity:
				capErr := &scheduler.CapacityExceededError{Required: len(entry.StudentCodes), Available: room.Capacity}
				violations = append(violations, slotViolation(i, ExamSlotViolation{
					RoomID:   entry.RoomID,
					Reason:   ViolationCapacityExceeded,
					Message:  fmt.Sprintf("room %s: %s", entry.RoomID, capErr.Error()),
					Capacity: capErr,
				}))
			}

			if conflict := planned.Conflict(scheduler.ResourceRoom, entry.RoomID, candidate); conflict != nil {
				violations = append(violations, slotViolation(i, ExamSlotViolation{
					RoomID:   entry.RoomID,
					Reason:   ViolationRoomConflict,
					Message:  conflict.Error(),
					Conflict: conflict,
				}))
			} else {
				planned.Add(scheduler.Booking{ResourceID: entry.RoomID, Interval: candidate})
			}

			for _, code := range entry.StudentCodes {
				switch {
				case seated[code]:
					violations = append(violations, slotViolation(i, ExamSlotViolation{
						RoomID:      entry.RoomID,
						StudentCode: code,
						Reason:      ViolationDuplicateStudent,
						Message:     fmt.Sprintf("student %s is seated more than once", code),
					}))
				case !known[code]:
					violations = append(violations, slotViolation(i, ExamSlotViolation{
						RoomID:      entry.RoomID,
						StudentCode: code,
						Reason:      ViolationStudentNotFound,
						Message:     fmt.Sprintf("student %s not found", code),
					}))
				case proposal != nil && !inRoster(proposal.Roster, code):
					violations = append(violations, slotViolation(i, ExamSlotViolation{
						RoomID:      entry.RoomID,
						StudentCode: code,
						Reason:      ViolationRosterMismatch,
						Message:     fmt.Sprintf("student %s is not part of the proposal", code),
					}))
				}
				seated[code] = true
			}
		}
	}

	if proposal != nil {
		var missing []string
		for code := range proposal.Roster {
			if !seated[code] {
				missing = append(missing, code)
			}
		}
		sort.Strings(missing)
		for _, code := range missing {
			violations = append(violations, ExamSlotViolation{
				StudentCode: code,
				Reason:      ViolationRosterMismatch,
				Message:     fmt.Sprintf("student %s from the proposal is not seated", code),
			})
		}
	}
	return violations, rooms, nil
}

func (s *ExamSlotGeneratorService) windowConfig(req dto.GenerateExamSlotsRequest, loc *time.Location) (scheduler.WindowConfig, time.Time, error) {
	var until time.Time
	start, err := time.ParseInLocation("2006-01-02 15:04", req.StartDate+" "+req.StartTime, loc)
	if err != nil {
		return scheduler.WindowConfig{}, until, appErrors.Clone(appErrors.ErrValidation, "invalid startDate or startTime")
	}
	dayStartRaw, dayEndRaw := s.cfg.DayStart, s.cfg.DayEnd
	if req.DayStart != "" {
		dayStartRaw = req.DayStart
	}
	if req.DayEnd != "" {
		dayEndRaw = req.DayEnd
	}
	dayStart, err := scheduler.ParseClockTime(dayStartRaw)
	if err != nil {
		return scheduler.WindowConfig{}, until, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	dayEnd, err := scheduler.ParseClockTime(dayEndRaw)
	if err != nil {
		return scheduler.WindowConfig{}, until, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.EndDate != "" {
		endDay, parseErr := time.ParseInLocation(scheduler.DateLayout, req.EndDate, loc)
		if parseErr != nil {
			return scheduler.WindowConfig{}, until, appErrors.Clone(appErrors.ErrValidation, "invalid endDate")
		}
		until = endDay.AddDate(0, 0, 1)
		if !until.After(start) {
			return scheduler.WindowConfig{}, until, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
		}
	}

	cfg := scheduler.WindowConfig{
		Start:      start,
		Duration:   time.Duration(req.DurationMinutes) * time.Minute,
		Relaxation: time.Duration(req.RelaxationMinutes) * time.Minute,
		DayStart:   dayStart,
		DayEnd:     dayEnd,
	}
	if err := cfg.Validate(); err != nil {
		return scheduler.WindowConfig{}, until, s.planError(err)
	}
	return cfg, until, nil
}

func (s *ExamSlotGeneratorService) loadRoster(ctx context.Context, codes []string) ([]models.Student, error) {
	if dup := firstDuplicate(codes); dup != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is listed more than once", dup))
	}
	found, err := s.students.FindByCodes(ctx, codes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	byCode := make(map[string]models.Student, len(found))
	for _, student := range found {
		byCode[student.Code] = student
	}
	roster := make([]models.Student, 0, len(codes))
	var missing []string
	for _, code := range codes {
		student, ok := byCode[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		roster = append(roster, student)
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrNotFound, "students not found", missing)
	}
	return roster, nil
}

func (s *ExamSlotGeneratorService) loadRooms(ctx context.Context, ids []string) ([]models.Room, error) {
	if dup := firstDuplicate(ids); dup != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s is listed more than once", dup))
	}
	found, err := s.rooms.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	byID := make(map[string]models.Room, len(found))
	for _, room := range found {
		byID[room.ID] = room
	}
	rooms := make([]models.Room, 0, len(ids))
	var missing []string
	for _, id := range ids {
		room, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !room.Active {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("room %s is inactive", id))
		}
		rooms = append(rooms, room)
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrNotFound, "rooms not found", missing)
	}
	return rooms, nil
}

func (s *ExamSlotGeneratorService) planError(err error) error {
	mapped := mapSchedulerError(err)
	if _, ok := mapped.(*appErrors.Error); ok {
		return mapped
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
}

func (s *ExamSlotGeneratorService) meta(proposal *examSlotProposal) (types.JSONText, error) {
	payload := map[string]any{"savedAt": s.cfg.Clock.Now().UTC()}
	if proposal != nil {
		payload["proposalId"] = proposal.ID
		payload["packing"] = proposal.Packing
		payload["slotMode"] = proposal.SlotMode
		payload["generatedAt"] = proposal.RequestedAt.UTC()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}

// violationError folds a violation list into one API error.
func violationError(violations []ExamSlotViolation) error {
	base := appErrors.ErrValidation
	for _, v := range violations {
		if v.Capacity != nil {
			base = appErrors.ErrCapacityExceeded
			break
		}
		if v.Conflict != nil {
			base = appErrors.ErrConflict
		}
	}
	return appErrors.WithDetails(base, fmt.Sprintf("exam slots rejected: %d violation(s)", len(violations)), violations)
}

func slotViolation(index int, v ExamSlotViolation) ExamSlotViolation {
	v.SlotIndex = &index
	return v
}

func roomBookingIndex(rows []models.RoomBooking) scheduler.BookingIndex {
	idx := scheduler.BookingIndex{}
	for _, row := range rows {
		idx.Add(scheduler.Booking{
			ResourceID: row.RoomID,
			Interval:   scheduler.Interval{Start: row.StartAt, End: row.EndAt},
			Ref:        row.ExamSlotRoomID,
		})
	}
	return idx
}

func roomIDs(rooms []models.Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	return ids
}

// examDate is the civil date of t in loc, stored as a UTC midnight.
func examDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func inRoster(roster map[string]struct{}, code string) bool {
	_, ok := roster[code]
	return ok
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

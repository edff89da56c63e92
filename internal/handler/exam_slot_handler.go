package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	internalmiddleware "github.com/noah-isme/exam-slot-api/internal/middleware"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/service"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type examSlotGenerator interface {
	Generate(ctx context.Context, req dto.GenerateExamSlotsRequest) (*dto.GenerateExamSlotsResponse, error)
	Save(ctx context.Context, req dto.SaveExamSlotsRequest) (*dto.SaveExamSlotsResponse, error)
}

type examSlotManager interface {
	AttachExam(ctx context.Context, id string, req dto.AttachExamRequest) (*dto.ExamSlotStatusResponse, error)
	ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest) (*dto.ExamSlotStatusResponse, error)
	List(ctx context.Context, query dto.ExamSlotQuery) ([]dto.ExamSlotView, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.ExamSlotDetailView, error)
	Delete(ctx context.Context, id string) error
	TeacherDuties(ctx context.Context, teacherID string, query dto.TeacherDutyQuery) ([]models.TeacherDuty, error)
}

type examSlotPreviewResponse struct {
	Mode     string                         `json:"mode"`
	Proposal *dto.GenerateExamSlotsResponse `json:"proposal"`
}

// ExamSlotHandler exposes exam slot generation and lifecycle endpoints.
type ExamSlotHandler struct {
	generator examSlotGenerator
	slots     examSlotManager
}

// NewExamSlotHandler constructs the handler.
func NewExamSlotHandler(generator *service.ExamSlotGeneratorService, slots *service.ExamSlotService) *ExamSlotHandler {
	return &ExamSlotHandler{generator: generator, slots: slots}
}

// Generate godoc
// @Summary Generate exam slot proposal
// @Description Packs the roster into rooms and lays the groups over exam windows. Nothing is persisted.
// @Tags ExamSlots
// @Accept json
// @Produce json
// @Param payload body dto.GenerateExamSlotsRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /exam-slots/generate [post]
func (h *ExamSlotHandler) Generate(c *gin.Context) {
	var req dto.GenerateExamSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, examSlotPreviewResponse{Mode: "preview", Proposal: result})
}

// Save godoc
// @Summary Save reviewed exam slots
// @Tags ExamSlots
// @Accept json
// @Produce json
// @Param payload body dto.SaveExamSlotsRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-slots [post]
func (h *ExamSlotHandler) Save(c *gin.Context) {
	var req dto.SaveExamSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.generator.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List exam slots
// @Tags ExamSlots
// @Produce json
// @Param subjectId query string false "Subject ID"
// @Param semester query string false "Semester"
// @Param academicYear query string false "Academic year"
// @Param examType query string false "Exam type"
// @Param status query string false "Status"
// @Param dateFrom query string false "Earliest exam date (YYYY-MM-DD)"
// @Param dateTo query string false "Latest exam date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exam-slots [get]
func (h *ExamSlotHandler) List(c *gin.Context) {
	var query dto.ExamSlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.slots.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get exam slot with rooms and rosters
// @Tags ExamSlots
// @Produce json
// @Param id path string true "Exam slot ID"
// @Success 200 {object} response.Envelope
// @Router /exam-slots/{id} [get]
func (h *ExamSlotHandler) Get(c *gin.Context) {
	detail, err := h.slots.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// AttachExam godoc
// @Summary Attach a catalog exam to an exam slot
// @Tags ExamSlots
// @Accept json
// @Produce json
// @Param id path string true "Exam slot ID"
// @Param payload body dto.AttachExamRequest true "Attach payload"
// @Success 200 {object} response.Envelope
// @Router /exam-slots/{id}/exam [put]
func (h *ExamSlotHandler) AttachExam(c *gin.Context) {
	var req dto.AttachExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attach payload"))
		return
	}
	result, err := h.slots.AttachExam(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ChangeStatus godoc
// @Summary Advance exam slot status
// @Description UNOPENED opens only on the exam date; OPEN closes; CLOSED is final.
// @Tags ExamSlots
// @Accept json
// @Produce json
// @Param id path string true "Exam slot ID"
// @Param payload body dto.ChangeStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-slots/{id}/status [patch]
func (h *ExamSlotHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if claims, ok := internalmiddleware.CurrentUser(c); ok && claims.Role == models.RoleTeacher {
		req.ProctorID = claims.UserID
	}
	result, err := h.slots.ChangeStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Delete godoc
// @Summary Delete an unassigned exam slot
// @Tags ExamSlots
// @Param id path string true "Exam slot ID"
// @Success 204
// @Router /exam-slots/{id} [delete]
func (h *ExamSlotHandler) Delete(c *gin.Context) {
	if err := h.slots.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherDuties godoc
// @Summary List a teacher's exam duties
// @Tags ExamSlots
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/exam-duties [get]
func (h *ExamSlotHandler) TeacherDuties(c *gin.Context) {
	var query dto.TeacherDutyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	duties, err := h.slots.TeacherDuties(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, duties)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/service"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type teacherAssigner interface {
	Assign(ctx context.Context, req dto.AssignTeachersRequest) (*dto.AssignTeachersResponse, error)
}

// TeacherAssignmentHandler exposes proctor and grader assignment.
type TeacherAssignmentHandler struct {
	service teacherAssigner
}

// NewTeacherAssignmentHandler constructs the handler.
func NewTeacherAssignmentHandler(svc *service.TeacherAssignmentService) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{service: svc}
}

// Assign godoc
// @Summary Assign proctors and graders to exam slot rooms
// @Description The batch is all-or-nothing. A rejected batch lists every failing request by index.
// @Tags ExamSlots
// @Accept json
// @Produce json
// @Param payload body dto.AssignTeachersRequest true "Assignment batch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-slots/assignments [post]
func (h *TeacherAssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignTeachersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

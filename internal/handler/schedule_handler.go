package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
	"github.com/noah-isme/tutor-schedule-api/pkg/response"
)

type weeklySchedule interface {
	List(ctx context.Context, query dto.ScheduleWeekQuery) ([]models.ScheduleSlotDetail, error)
	Create(ctx context.Context, req dto.CreateScheduleSlotRequest) (*models.ScheduleSlot, error)
	CopyWeek(ctx context.Context, req dto.CopyWeekRequest) (*dto.CopyWeekResponse, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler manages weekly schedule endpoints.
type ScheduleHandler struct {
	service weeklySchedule
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc weeklySchedule) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List the slots of a week
// @Tags Schedules
// @Produce json
// @Param weekStart query string true "Week start (YYYY-MM-DD)"
// @Param teacherId query string false "Filter by teacher"
// @Param dayGroup query string false "mwf or tt"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleWeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	slots, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil, map[string]interface{}{"count": len(slots)})
}

// Create godoc
// @Summary Book one slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// CopyWeek godoc
// @Summary Copy a week onto an empty week
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CopyWeekRequest true "Source and target weeks"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/copy [post]
func (h *ScheduleHandler) CopyWeek(c *gin.Context) {
	var req dto.CopyWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid copy payload"))
		return
	}
	result, err := h.service.CopyWeek(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete a slot
// @Tags Schedules
// @Param id path string true "Slot ID"
// @Success 204
// @Router /schedule/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

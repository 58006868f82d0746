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

type nameAliasManager interface {
	List(ctx context.Context, kind string) ([]models.NameAlias, error)
	Upsert(ctx context.Context, req dto.UpsertNameAliasesRequest) (*dto.UpsertNameAliasesResponse, error)
}

// NameAliasHandler exposes saved name resolutions.
type NameAliasHandler struct {
	service nameAliasManager
}

// NewNameAliasHandler constructs the handler.
func NewNameAliasHandler(svc nameAliasManager) *NameAliasHandler {
	return &NameAliasHandler{service: svc}
}

// List godoc
// @Summary List name aliases
// @Tags Import
// @Produce json
// @Param type query string false "teacher, student or group"
// @Success 200 {object} response.Envelope
// @Router /name-aliases [get]
func (h *NameAliasHandler) List(c *gin.Context) {
	aliases, err := h.service.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aliases, nil)
}

// Upsert godoc
// @Summary Save name aliases
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.UpsertNameAliasesRequest true "Aliases"
// @Success 200 {object} response.Envelope
// @Router /name-aliases [post]
func (h *NameAliasHandler) Upsert(c *gin.Context) {
	var req dto.UpsertNameAliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid name alias payload"))
		return
	}
	result, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

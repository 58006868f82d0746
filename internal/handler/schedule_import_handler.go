package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
	"github.com/noah-isme/tutor-schedule-api/pkg/response"
)

type scheduleImporter interface {
	Preview(ctx context.Context, req dto.ImportPreviewRequest) (*dto.ImportPreviewResponse, error)
	PreviewUpload(ctx context.Context, filename string, r io.Reader, weekStart, dayGroup string) (*dto.ImportPreviewResponse, error)
	Commit(ctx context.Context, req dto.ImportCommitRequest) (*dto.ImportCommitResponse, error)
	Confirm(ctx context.Context, req dto.ConfirmSlotsRequest) (*dto.BookingResult, error)
	ExportPreview(ctx context.Context, proposalID, format string) ([]byte, string, error)
}

// ScheduleImportHandler exposes the spreadsheet import endpoints.
type ScheduleImportHandler struct {
	service       scheduleImporter
	maxUploadSize int64
}

// NewScheduleImportHandler constructs the handler.
func NewScheduleImportHandler(svc scheduleImporter, maxUploadSize int64) *ScheduleImportHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 5 << 20
	}
	return &ScheduleImportHandler{service: svc, maxUploadSize: maxUploadSize}
}

// Preview godoc
// @Summary Preview a schedule spreadsheet import
// @Description Fetches the sheet, classifies and resolves every cell and returns the report without booking anything.
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.ImportPreviewRequest true "Sheet link and week"
// @Success 200 {object} response.Envelope
// @Router /schedule/import/preview [post]
func (h *ScheduleImportHandler) Preview(c *gin.Context) {
	var req dto.ImportPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	result, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "preview"})
}

// PreviewUpload godoc
// @Summary Preview an uploaded schedule file
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Schedule as .csv or .xlsx"
// @Param weekStart formData string true "Week start (YYYY-MM-DD)"
// @Param dayGroup formData string false "mwf or tt, required for single-table sheets"
// @Success 200 {object} response.Envelope
// @Router /schedule/import/upload [post]
func (h *ScheduleImportHandler) PreviewUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if header.Size > h.maxUploadSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", h.maxUploadSize)))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
		return
	}
	defer file.Close()

	result, err := h.service.PreviewUpload(c.Request.Context(), header.Filename, file, c.PostForm("weekStart"), c.PostForm("dayGroup"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "preview"})
}

// Commit godoc
// @Summary Commit a schedule import
// @Description Books the valid rows of a previewed sheet, applying manual resolutions and optionally saving them as aliases.
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.ImportCommitRequest true "Commit payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/import/commit [post]
func (h *ScheduleImportHandler) Commit(c *gin.Context) {
	var req dto.ImportCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
		return
	}
	req.Actor = actorID(c)
	result, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "commit"})
}

// Confirm godoc
// @Summary Book caller-resolved slots
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmSlotsRequest true "Resolved slots"
// @Success 200 {object} response.Envelope
// @Router /schedule/import/confirm [post]
func (h *ScheduleImportHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirm payload"))
		return
	}
	req.Actor = actorID(c)
	result, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download a preview report
// @Tags Import
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /schedule/import/proposals/{id}/export [get]
func (h *ScheduleImportHandler) Export(c *gin.Context) {
	var query dto.ImportExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	id := c.Param("id")
	body, contentType, err := h.service.ExportPreview(c.Request.Context(), id, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	response.File(c, contentType, fmt.Sprintf("import-%s.%s", id, ext), body)
}

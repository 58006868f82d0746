package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/middleware"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type scheduleImporterMock struct {
	preview      dto.ImportPreviewRequest
	commit       dto.ImportCommitRequest
	confirm      dto.ConfirmSlotsRequest
	uploadName   string
	uploadBody   string
	uploadWeek   string
	exportFormat string
	err          error
}

func (m *scheduleImporterMock) Preview(ctx context.Context, req dto.ImportPreviewRequest) (*dto.ImportPreviewResponse, error) {
	m.preview = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ImportPreviewResponse{ProposalID: "proposal-1", Layout: "dual"}, nil
}

func (m *scheduleImporterMock) PreviewUpload(ctx context.Context, filename string, r io.Reader, weekStart, dayGroup string) (*dto.ImportPreviewResponse, error) {
	body, _ := io.ReadAll(r)
	m.uploadName = filename
	m.uploadBody = string(body)
	m.uploadWeek = weekStart
	return &dto.ImportPreviewResponse{ProposalID: "proposal-2"}, nil
}

func (m *scheduleImporterMock) Commit(ctx context.Context, req dto.ImportCommitRequest) (*dto.ImportCommitResponse, error) {
	m.commit = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ImportCommitResponse{BookingResult: dto.BookingResult{Created: 3, Total: 4}}, nil
}

func (m *scheduleImporterMock) Confirm(ctx context.Context, req dto.ConfirmSlotsRequest) (*dto.BookingResult, error) {
	m.confirm = req
	return &dto.BookingResult{Created: len(req.Slots), Total: len(req.Slots)}, nil
}

func (m *scheduleImporterMock) ExportPreview(ctx context.Context, proposalID, format string) ([]byte, string, error) {
	m.exportFormat = format
	if m.err != nil {
		return nil, "", m.err
	}
	if format == "pdf" {
		return []byte("%PDF"), "application/pdf", nil
	}
	return []byte("Row,Time\n"), "text/csv; charset=utf-8", nil
}

func newJSONContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestScheduleImportPreview(t *testing.T) {
	mockSvc := &scheduleImporterMock{}
	handler := NewScheduleImportHandler(mockSvc, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/preview",
		`{"sheetUrl":"https://docs.google.com/spreadsheets/d/abc/edit#gid=7","weekStart":"2025-01-06","dayGroup":"mwf"}`)

	handler.Preview(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "2025-01-06", mockSvc.preview.WeekStart)
	require.Equal(t, "mwf", mockSvc.preview.DayGroup)
	require.Contains(t, w.Body.String(), `"proposalId":"proposal-1"`)
	require.Contains(t, w.Body.String(), `"mode":"preview"`)
}

func TestScheduleImportPreviewBadPayload(t *testing.T) {
	handler := NewScheduleImportHandler(&scheduleImporterMock{}, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/preview", `{"sheetUrl":`)

	handler.Preview(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleImportPreviewLayoutError(t *testing.T) {
	handler := NewScheduleImportHandler(&scheduleImporterMock{err: appErrors.ErrImportLayout}, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/preview", `{"sheetUrl":"x","weekStart":"2025-01-06"}`)

	handler.Preview(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrImportLayout.Code)
}

func TestScheduleImportCommitPassesOverrides(t *testing.T) {
	mockSvc := &scheduleImporterMock{}
	handler := NewScheduleImportHandler(mockSvc, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/commit",
		`{"proposalId":"proposal-1","rowKeys":["r3c2"],"overrides":{"r3c2":{"teacherId":"t-1"}},"persistAliases":true}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "admin@example.com", Role: models.RoleAdmin})

	handler.Commit(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "proposal-1", mockSvc.commit.ProposalID)
	require.True(t, mockSvc.commit.PersistAliases)
	require.Equal(t, []string{"r3c2"}, mockSvc.commit.RowKeys)
	require.Contains(t, mockSvc.commit.Overrides, "r3c2")
	require.Equal(t, "admin@example.com", mockSvc.commit.Actor)
	require.Contains(t, w.Body.String(), `"count":3`)
}

func TestScheduleImportCommitValidationError(t *testing.T) {
	handler := NewScheduleImportHandler(&scheduleImporterMock{err: appErrors.Clone(appErrors.ErrValidation, "no valid rows to import")}, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/commit", `{"proposalId":"proposal-1"}`)

	handler.Commit(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "no valid rows to import")
}

func TestScheduleImportConfirm(t *testing.T) {
	mockSvc := &scheduleImporterMock{}
	handler := NewScheduleImportHandler(mockSvc, 0)
	c, w := newJSONContext(http.MethodPost, "/schedule/import/confirm",
		`{"weekStart":"2025-01-06","slots":[{"teacherId":"t-1","studentId":"s-1","startTime":"9:00","dayGroup":"tt"}]}`)

	handler.Confirm(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.confirm.Slots, 1)
	require.Equal(t, "tt", mockSvc.confirm.Slots[0].DayGroup)
}

func TestScheduleImportUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleImporterMock{}
	handler := NewScheduleImportHandler(mockSvc, 1024)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "week.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Time,Ivanov\n9:00,Petrov\n"))
	require.NoError(t, writer.WriteField("weekStart", "2025-01-06"))
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/schedule/import/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PreviewUpload(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "week.csv", mockSvc.uploadName)
	require.Equal(t, "2025-01-06", mockSvc.uploadWeek)
	require.Contains(t, mockSvc.uploadBody, "Petrov")
}

func TestScheduleImportUploadMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleImportHandler(&scheduleImporterMock{}, 1024)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("weekStart", "2025-01-06"))
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/schedule/import/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PreviewUpload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleImportExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleImporterMock{}
	handler := NewScheduleImportHandler(mockSvc, 0)
	router := gin.New()
	router.GET("/schedule/import/proposals/:id/export", handler.Export)

	req, _ := http.NewRequest(http.MethodGet, "/schedule/import/proposals/proposal-1/export?format=pdf", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pdf", mockSvc.exportFormat)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "import-proposal-1.pdf")
}

func TestScheduleImportExportExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleImportHandler(&scheduleImporterMock{err: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}, 0)
	router := gin.New()
	router.GET("/schedule/import/proposals/:id/export", handler.Export)

	req, _ := http.NewRequest(http.MethodGet, "/schedule/import/proposals/gone/export", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

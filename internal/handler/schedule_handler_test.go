package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type weeklyScheduleMock struct {
	query   dto.ScheduleWeekQuery
	created dto.CreateScheduleSlotRequest
	copied  dto.CopyWeekRequest
	deleted string
	err     error
}

func (m *weeklyScheduleMock) List(ctx context.Context, query dto.ScheduleWeekQuery) ([]models.ScheduleSlotDetail, error) {
	m.query = query
	return []models.ScheduleSlotDetail{
		{ScheduleSlot: models.ScheduleSlot{ID: "slot-1", TeacherID: "t-1", DayOfWeek: 1, StartTime: "09:00"}, TeacherName: "Ivanova Anna"},
	}, nil
}

func (m *weeklyScheduleMock) Create(ctx context.Context, req dto.CreateScheduleSlotRequest) (*models.ScheduleSlot, error) {
	m.created = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ScheduleSlot{ID: "slot-2", TeacherID: req.TeacherID}, nil
}

func (m *weeklyScheduleMock) CopyWeek(ctx context.Context, req dto.CopyWeekRequest) (*dto.CopyWeekResponse, error) {
	m.copied = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CopyWeekResponse{Count: 12}, nil
}

func (m *weeklyScheduleMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return m.err
}

func TestScheduleListBindsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &weeklyScheduleMock{}
	handler := NewScheduleHandler(mockSvc)
	req, _ := http.NewRequest(http.MethodGet, "/schedule?weekStart=2025-01-06&teacherId=t-1&dayGroup=tt", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "2025-01-06", mockSvc.query.WeekStart)
	require.Equal(t, "t-1", mockSvc.query.TeacherID)
	require.Equal(t, "tt", mockSvc.query.DayGroup)
	require.Contains(t, w.Body.String(), `"count":1`)
}

func TestScheduleCreate(t *testing.T) {
	mockSvc := &weeklyScheduleMock{}
	handler := NewScheduleHandler(mockSvc)
	c, w := newJSONContext(http.MethodPost, "/schedule",
		`{"teacherId":"t-1","studentId":"s-1","dayOfWeek":1,"startTime":"09:00","weekStartDate":"2025-01-06","lessonType":"INDIVIDUAL"}`)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "s-1", mockSvc.created.StudentID)
	require.Equal(t, 1, mockSvc.created.DayOfWeek)
}

func TestScheduleCreateConflict(t *testing.T) {
	conflict := appErrors.Wrap(&models.ScheduleConflictError{Type: "teacher_busy", Message: "teacher is busy"},
		appErrors.ErrSlotConflict.Code, appErrors.ErrSlotConflict.Status, "teacher is busy")
	handler := NewScheduleHandler(&weeklyScheduleMock{err: conflict})
	c, w := newJSONContext(http.MethodPost, "/schedule",
		`{"teacherId":"t-1","dayOfWeek":1,"startTime":"09:00","weekStartDate":"2025-01-06","lessonType":"INDIVIDUAL"}`)

	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrSlotConflict.Code)
}

func TestScheduleCopyWeekTargetNotEmpty(t *testing.T) {
	handler := NewScheduleHandler(&weeklyScheduleMock{err: appErrors.Clone(appErrors.ErrConflict, "target week already has a schedule")})
	c, w := newJSONContext(http.MethodPost, "/schedule/copy", `{"fromWeek":"2025-01-06","toWeek":"2025-01-13"}`)

	handler.CopyWeek(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleCopyWeek(t *testing.T) {
	mockSvc := &weeklyScheduleMock{}
	handler := NewScheduleHandler(mockSvc)
	c, w := newJSONContext(http.MethodPost, "/schedule/copy", `{"fromWeek":"2025-01-06","toWeek":"2025-01-13"}`)

	handler.CopyWeek(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "2025-01-13", mockSvc.copied.ToWeek)
	require.Contains(t, w.Body.String(), `"count":12`)
}

func TestScheduleDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &weeklyScheduleMock{}
	router := gin.New()
	router.DELETE("/schedule/:id", NewScheduleHandler(mockSvc).Delete)

	req, _ := http.NewRequest(http.MethodDelete, "/schedule/slot-9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "slot-9", mockSvc.deleted)
}

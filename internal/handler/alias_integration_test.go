package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/noah-isme/tutor-schedule-api/internal/middleware"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

func TestScheduleRoutesIntegration(t *testing.T) {
	router := buildScheduleRouter()

	t.Run("schedule list unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/schedule?weekStart=2025-01-06", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("schedule list success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/schedule?weekStart=2025-01-06", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"teacher_name"`)
	})

	t.Run("import preview forbidden for teachers", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/schedule/import/preview", bytes.NewBufferString(defaultPreviewPayload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTeacher))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("import preview success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/schedule/import/preview", bytes.NewBufferString(defaultPreviewPayload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleSuperAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"mode":"preview"`)
	})

	t.Run("name aliases get success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/name-aliases", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("name aliases post forbidden", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/name-aliases", bytes.NewBufferString(`{"aliases":[]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTeacher))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func buildScheduleRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	scheduleHandler := NewScheduleHandler(&weeklyScheduleMock{})
	importHandler := NewScheduleImportHandler(&scheduleImporterMock{}, 0)
	aliasHandler := NewNameAliasHandler(&nameAliasManagerMock{})

	secured := router.Group("")
	secured.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	secured.GET("/schedule", scheduleHandler.List)
	secured.POST("/schedule/import/preview", importHandler.Preview)
	secured.GET("/name-aliases", aliasHandler.List)
	secured.POST("/name-aliases", aliasHandler.Upsert)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const defaultPreviewPayload = `{"sheetUrl":"https://docs.google.com/spreadsheets/d/abc/edit","weekStart":"2025-01-06","dayGroup":"mwf"}`

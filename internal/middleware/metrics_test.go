package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-schedule-api/internal/service"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metricsSvc := service.NewMetricsService()

	r := gin.New()
	r.Use(Metrics(metricsSvc))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/v1/schedule/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, target := range []string{"/api/v1/schedule/slot-1", "/api/v1/schedule/slot-2", "/health", "/wp-login.php"} {
		method := http.MethodDelete
		if target == "/health" || target == "/wp-login.php" {
			method = http.MethodGet
		}
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
	}

	w := httptest.NewRecorder()
	metricsSvc.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `http_requests_total{method="DELETE",path="/api/v1/schedule/:id",status="204"} 2`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.NotContains(t, body, `path="/health"`)
	assert.NotContains(t, body, "slot-1")
}

func TestMetricsWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/api/v1/schedule", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

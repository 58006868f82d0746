package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/v1/schedule/import/proposals/:id/export", func(c *gin.Context) {
		c.Header("Content-Disposition", "attachment; filename=import-p1.csv")
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "listed origin", origins: []string{"https://admin.example.com/"}, method: http.MethodGet, origin: "https://Admin.example.com", wantStatus: http.StatusOK, wantAllowed: "https://Admin.example.com"},
		{name: "unlisted origin", origins: []string{"https://admin.example.com"}, method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "empty list admits any", method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllowed: "http://localhost:5173"},
		{name: "wildcard entry", origins: []string{"https://admin.example.com", "*"}, method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllowed: "http://localhost:5173"},
		{name: "preflight", origins: []string{"https://admin.example.com"}, method: http.MethodOptions, origin: "https://admin.example.com", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "https://admin.example.com"},
		{name: "preflight from unlisted origin", origins: []string{"https://admin.example.com"}, method: http.MethodOptions, origin: "https://evil.example.com", preflight: true, wantStatus: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(tc.origins)
			req := httptest.NewRequest(tc.method, "/api/v1/schedule/import/proposals/p1/export", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
			if tc.wantAllowed != "" {
				assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
			}
			if tc.preflight && tc.wantStatus == http.StatusNoContent {
				assert.Equal(t, allowMethods, w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

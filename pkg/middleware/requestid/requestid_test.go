package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{name: "absent", inbound: ""},
		{name: "well formed", inbound: "import-run_42.a", keep: true},
		{name: "newline injection", inbound: "abc\nlevel=error"},
		{name: "too long", inbound: strings.Repeat("a", 65)},
		{name: "spaces", inbound: "two words"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(Middleware())
			r.GET("/api/v1/schedule", func(c *gin.Context) {
				seen = Value(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil)
			if tc.inbound != "" {
				req.Header[http.CanonicalHeaderKey(HeaderKey)] = []string{tc.inbound}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(HeaderKey))
			if tc.keep {
				assert.Equal(t, tc.inbound, seen)
				return
			}
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
		})
	}
}

func TestValueWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, Value(c))
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type tokenValidatorStub struct {
	tokens map[string]models.UserRole
}

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := s.tokens[token]
	if !ok {
		return nil, appErrors.Wrap(errors.New("signature is invalid"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return &models.JWTClaims{UserID: "user-" + token, Role: role}, nil
}

func newSecuredRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	validator := tokenValidatorStub{tokens: map[string]models.UserRole{
		"admin":   models.RoleAdmin,
		"root":    models.RoleSuperAdmin,
		"teacher": models.RoleTeacher,
	}}
	r.GET("/schedule", JWT(validator), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestJWTAndRoles(t *testing.T) {
	router := newSecuredRouter()

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized, body: "invalid authorization header"},
		{name: "empty bearer", header: "Bearer  ", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer forged", status: http.StatusUnauthorized, body: "invalid token"},
		{name: "teacher role", header: "Bearer teacher", status: http.StatusForbidden},
		{name: "admin", header: "Bearer admin", status: http.StatusOK, body: "user-admin"},
		{name: "superadmin lowercase scheme", header: "bearer root", status: http.StatusOK, body: "user-root"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Contains(t, rec.Body.String(), tc.body)
			}
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

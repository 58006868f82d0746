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

type nameAliasManagerMock struct {
	kind     string
	upserted dto.UpsertNameAliasesRequest
}

func (m *nameAliasManagerMock) List(ctx context.Context, kind string) ([]models.NameAlias, error) {
	m.kind = kind
	if kind == "room" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown alias type")
	}
	return []models.NameAlias{{ID: "a-1", Alias: "ержан", Kind: models.AliasKindStudent, EntityID: "s-1"}}, nil
}

func (m *nameAliasManagerMock) Upsert(ctx context.Context, req dto.UpsertNameAliasesRequest) (*dto.UpsertNameAliasesResponse, error) {
	m.upserted = req
	return &dto.UpsertNameAliasesResponse{Saved: len(req.Aliases)}, nil
}

func TestNameAliasList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &nameAliasManagerMock{}
	req, _ := http.NewRequest(http.MethodGet, "/name-aliases?type=student", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	NewNameAliasHandler(mockSvc).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "student", mockSvc.kind)
	require.Contains(t, w.Body.String(), `"entity_id":"s-1"`)
}

func TestNameAliasListUnknownKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req, _ := http.NewRequest(http.MethodGet, "/name-aliases?type=room", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	NewNameAliasHandler(&nameAliasManagerMock{}).List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNameAliasUpsert(t *testing.T) {
	mockSvc := &nameAliasManagerMock{}
	c, w := newJSONContext(http.MethodPost, "/name-aliases",
		`{"aliases":[{"alias":"Ержан","type":"student","entityId":"s-1"},{"alias":"Иванова","type":"teacher","entityId":"t-1"}]}`)

	NewNameAliasHandler(mockSvc).Upsert(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.upserted.Aliases, 2)
	require.Equal(t, "teacher", mockSvc.upserted.Aliases[1].Kind)
	require.Contains(t, w.Body.String(), `"saved":2`)
}

func TestNameAliasUpsertBadPayload(t *testing.T) {
	c, w := newJSONContext(http.MethodPost, "/name-aliases", `{"aliases":`)

	NewNameAliasHandler(&nameAliasManagerMock{}).Upsert(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

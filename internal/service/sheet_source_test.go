package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

func TestParseSheetURL(t *testing.T) {
	ref, err := ParseSheetURL("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=123456")
	require.NoError(t, err)
	assert.Equal(t, SheetRef{SpreadsheetID: "1AbC-d_9", GID: "123456"}, ref)
	assert.Equal(t, "import:grid:1AbC-d_9:123456", ref.CacheKey())

	ref, err = ParseSheetURL("https://docs.google.com/spreadsheets/d/1AbC/edit")
	require.NoError(t, err)
	assert.Empty(t, ref.GID)
	assert.Equal(t, "import:grid:1AbC:0", ref.CacheKey())

	_, err = ParseSheetURL("https://example.com/not-a-sheet")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrImportSource.Code, appErrors.FromError(err).Code)
}

func TestCSVExportSourceFetchGrid(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Время,Айгуль\n\n9.00,Алина\n"))
	}))
	defer server.Close()

	metrics := NewMetricsService()
	source := NewCSVExportSource(server.Client(), SourceConfig{}, metrics, nil)
	source.baseURL = server.URL

	grid, err := source.FetchGrid(context.Background(), SheetRef{SpreadsheetID: "abc", GID: "7"})

	require.NoError(t, err)
	assert.Equal(t, "/spreadsheets/d/abc/export", gotPath)
	assert.Equal(t, "format=csv&gid=7", gotQuery)
	require.Len(t, grid, 3, "blank rows are kept")
	assert.Equal(t, "Алина", grid.Cell(2, 1))
	assert.True(t, grid.IsBlankRow(1))
}

func TestCSVExportSourceErrors(t *testing.T) {
	cases := map[string]struct {
		status  int
		body    string
		message string
	}{
		"missing sheet": {status: http.StatusNotFound, message: "sheet not found"},
		"server error":  {status: http.StatusBadGateway, message: "status 502"},
		"empty sheet":   {status: http.StatusOK, body: ",,\n\n", message: "sheet is empty"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			source := NewCSVExportSource(server.Client(), SourceConfig{RPS: 5, Burst: 1}, nil, nil)
			source.baseURL = server.URL

			_, err := source.FetchGrid(context.Background(), SheetRef{SpreadsheetID: "abc"})

			require.Error(t, err)
			assert.Equal(t, appErrors.ErrImportSource.Status, appErrors.FromError(err).Status)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestSheetsAPISourceFetchGrid(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/abc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":0,"title":"Main"}},{"properties":{"sheetId":42,"title":"Week 2"}}]}`))
	})
	mux.HandleFunc("/v4/spreadsheets/abc/values/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/abc/values/Week 2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"'Week 2'!A1:B3","majorDimension":"ROWS","values":[["Время","Айгуль"],[],["9.00","Алина"]]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source, err := NewSheetsAPISource(context.Background(), "test-key", SourceConfig{}, nil, option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	grid, err := source.FetchGrid(context.Background(), SheetRef{SpreadsheetID: "abc", GID: "42"})
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, "Айгуль", grid.Cell(0, 1))
	assert.Equal(t, "Алина", grid.Cell(2, 1))

	_, err = source.FetchGrid(context.Background(), SheetRef{SpreadsheetID: "abc", GID: "99"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet not found")
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Время"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Айгуль"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "9.00"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", "Алина"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	grid, err := ParseWorkbook(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, "Алина", grid.Cell(2, 1))
	assert.True(t, grid.IsBlankRow(1))

	_, err = ParseWorkbook(bytes.NewReader(buf.Bytes()), "Missing")
	require.Error(t, err)

	_, err = ParseWorkbook(bytes.NewReader([]byte("not a zip")), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrImportSource.Code, appErrors.FromError(err).Code)
}

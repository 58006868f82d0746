package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

// SheetRef identifies one tab of a published spreadsheet.
type SheetRef struct {
	SpreadsheetID string `json:"spreadsheetId"`
	GID           string `json:"gid,omitempty"`
}

// CacheKey is the grid cache key of the tab.
func (r SheetRef) CacheKey() string {
	gid := r.GID
	if gid == "" {
		gid = "0"
	}
	return "import:grid:" + r.SpreadsheetID + ":" + gid
}

var (
	sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gidPattern     = regexp.MustCompile(`[#&?]gid=(\d+)`)
)

// ParseSheetURL extracts the spreadsheet id and the optional gid of a tab.
func ParseSheetURL(raw string) (SheetRef, error) {
	m := sheetIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return SheetRef{}, appErrors.Clone(appErrors.ErrImportSource, "invalid spreadsheet link")
	}
	ref := SheetRef{SpreadsheetID: m[1]}
	if g := gidPattern.FindStringSubmatch(raw); g != nil {
		ref.GID = g[1]
	}
	return ref, nil
}

// GridSource produces the keep-empty grid of a spreadsheet tab.
type GridSource interface {
	Name() string
	FetchGrid(ctx context.Context, ref SheetRef) (importer.RawGrid, error)
}

// SourceConfig bounds outbound spreadsheet requests.
type SourceConfig struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
}

func (c SourceConfig) limiter() *rate.Limiter {
	if c.RPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RPS), burst)
}

func (c SourceConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return c.Timeout
}

// CSVExportSource downloads the CSV export of a published sheet.
type CSVExportSource struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	baseURL string
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCSVExportSource builds the default source. client may be nil.
func NewCSVExportSource(client *http.Client, cfg SourceConfig, metrics *MetricsService, logger *zap.Logger) *CSVExportSource {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVExportSource{
		client:  client,
		limiter: cfg.limiter(),
		timeout: cfg.timeout(),
		baseURL: "https://docs.google.com",
		metrics: metrics,
		logger:  logger,
	}
}

// Name implements GridSource.
func (s *CSVExportSource) Name() string { return "csv_export" }

// ExportURL builds the CSV export address of the tab.
func (s *CSVExportSource) ExportURL(ref SheetRef) string {
	q := url.Values{}
	q.Set("format", "csv")
	if ref.GID != "" {
		q.Set("gid", ref.GID)
	}
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", strings.TrimRight(s.baseURL, "/"), url.PathEscape(ref.SpreadsheetID), q.Encode())
}

// FetchGrid implements GridSource.
func (s *CSVExportSource) FetchGrid(ctx context.Context, ref SheetRef) (grid importer.RawGrid, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSheetFetch(s.Name(), err, time.Since(start)) }()

	if err = s.limiter.Wait(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet unavailable")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ExportURL(ref), nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "invalid spreadsheet link")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("sheet fetch failed", zap.String("spreadsheet", ref.SpreadsheetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet unavailable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		err = appErrors.Clone(appErrors.ErrImportSource, "sheet not found")
		return nil, err
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		err = appErrors.Clone(appErrors.ErrImportSource, fmt.Sprintf("sheet unavailable: status %d", resp.StatusCode))
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet unavailable")
	}
	grid, err = ParseCSVGrid(string(body))
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// ParseCSVGrid parses CSV text into a keep-empty grid.
func ParseCSVGrid(text string) (importer.RawGrid, error) {
	grid, err := importer.ParseDelimited(text, importer.ParseOptions{KeepEmptyRows: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "unreadable sheet")
	}
	if len(grid.DropEmptyRows()) == 0 {
		return nil, appErrors.Clone(appErrors.ErrImportSource, "sheet is empty")
	}
	return grid, nil
}

// SheetsAPISource reads cell values through the Sheets API. It is used when
// an API key is configured, which also covers sheets that are shared but not
// published.
type SheetsAPISource struct {
	svc     *sheets.Service
	limiter *rate.Limiter
	timeout time.Duration
	metrics *MetricsService
}

// NewSheetsAPISource creates a Sheets API client authenticated by key.
func NewSheetsAPISource(ctx context.Context, apiKey string, cfg SourceConfig, metrics *MetricsService, opts ...option.ClientOption) (*SheetsAPISource, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsAPISource{svc: svc, limiter: cfg.limiter(), timeout: cfg.timeout(), metrics: metrics}, nil
}

// Name implements GridSource.
func (s *SheetsAPISource) Name() string { return "sheets_api" }

// FetchGrid implements GridSource.
func (s *SheetsAPISource) FetchGrid(ctx context.Context, ref SheetRef) (grid importer.RawGrid, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSheetFetch(s.Name(), err, time.Since(start)) }()

	if err = s.limiter.Wait(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet unavailable")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	meta, err := s.svc.Spreadsheets.Get(ref.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, mapSheetsError(err)
	}
	title, ok := sheetTitle(meta, ref.GID)
	if !ok {
		err = appErrors.Clone(appErrors.ErrImportSource, "sheet not found")
		return nil, err
	}

	values, err := s.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, title).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapSheetsError(err)
	}

	rows := make([][]string, len(values.Values))
	for i, row := range values.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		rows[i] = cells
	}
	grid = importer.NewRawGrid(rows)
	if len(grid.DropEmptyRows()) == 0 {
		err = appErrors.Clone(appErrors.ErrImportSource, "sheet is empty")
		return nil, err
	}
	return grid, nil
}

func sheetTitle(meta *sheets.Spreadsheet, gid string) (string, bool) {
	if meta == nil || len(meta.Sheets) == 0 {
		return "", false
	}
	if gid == "" {
		return meta.Sheets[0].Properties.Title, true
	}
	id, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return "", false
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == id {
			return sh.Properties.Title, true
		}
	}
	return "", false
}

func mapSheetsError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusNotFound {
		return appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet not found")
	}
	return appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "sheet unavailable")
}

// ParseWorkbook reads one sheet of an .xlsx workbook into a keep-empty grid.
// An empty sheet name selects the first sheet.
func ParseWorkbook(r io.Reader, sheet string) (importer.RawGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "unreadable workbook")
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, appErrors.Clone(appErrors.ErrImportSource, "workbook has no sheets")
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, fmt.Sprintf("sheet %q not found", sheet))
	}
	grid := importer.NewRawGrid(rows)
	if len(grid.DropEmptyRows()) == 0 {
		return nil, appErrors.Clone(appErrors.ErrImportSource, "sheet is empty")
	}
	return grid, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
	"github.com/noah-isme/tutor-schedule-api/pkg/export"
)

type resolverLoader interface {
	Resolver(ctx context.Context) (*importer.Resolver, error)
}

type candidateBooker interface {
	Book(ctx context.Context, candidates []importer.SlotCandidate) (*dto.BookingResult, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type aliasWriter interface {
	UpsertMany(ctx context.Context, aliases []models.NameAlias) error
}

// ScheduleImportConfig tunes the import pipeline. A zero GridCacheTTL turns
// grid caching off.
type ScheduleImportConfig struct {
	ProposalTTL  time.Duration
	GridCacheTTL time.Duration
	TimeSlots    []string
}

// ScheduleImportService runs the spreadsheet import pipeline: fetch, extract,
// classify, resolve, materialize and book.
type ScheduleImportService struct {
	source    GridSource
	directory resolverLoader
	booker    candidateBooker
	aliases   aliasWriter
	cache     *CacheService
	metrics   *MetricsService
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	store     *importProposalStore
	slots     importer.TimeSlots
	gridTTL   time.Duration
}

// NewScheduleImportService wires the pipeline.
func NewScheduleImportService(
	source GridSource,
	directory resolverLoader,
	booker candidateBooker,
	aliases aliasWriter,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleImportConfig,
	csv csvRenderer,
	pdf pdfRenderer,
) *ScheduleImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.GridCacheTTL < 0 {
		cfg.GridCacheTTL = 0
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.WithBOM())
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(export.WithLandscape())
	}
	return &ScheduleImportService{
		source:    source,
		directory: directory,
		booker:    booker,
		aliases:   aliases,
		cache:     cache,
		metrics:   metrics,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		store:     newImportProposalStore(cfg.ProposalTTL),
		slots:     importer.NewTimeSlots(cfg.TimeSlots),
		gridTTL:   cfg.GridCacheTTL,
	}
}

// importRun is one pass of the pure pipeline over a grid.
type importRun struct {
	layout     importer.Layout
	blocks     int
	results    []importer.MatchResult
	skipped    int
	candidates []importer.SlotCandidate
}

// Preview fetches a sheet and reports every row without booking anything.
func (s *ScheduleImportService) Preview(ctx context.Context, req dto.ImportPreviewRequest) (*dto.ImportPreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import preview payload")
	}
	week, dayGroup, err := parseWeekAndDayGroup(req.WeekStart, req.DayGroup)
	if err != nil {
		return nil, err
	}
	grid, err := s.fetchSheet(ctx, req.SheetURL, true)
	if err != nil {
		return nil, err
	}
	return s.previewGrid(ctx, grid, week, dayGroup, req.SheetURL)
}

// PreviewUpload previews an uploaded .csv or .xlsx file.
func (s *ScheduleImportService) PreviewUpload(ctx context.Context, filename string, r io.Reader, weekStart, dayGroup string) (*dto.ImportPreviewResponse, error) {
	week, dg, err := parseWeekAndDayGroup(weekStart, dayGroup)
	if err != nil {
		return nil, err
	}
	grid, err := ReadUpload(filename, r)
	if err != nil {
		return nil, err
	}
	return s.previewGrid(ctx, grid, week, dg, "")
}

// ReadUpload parses an uploaded schedule by file extension.
func ReadUpload(filename string, r io.Reader) (importer.RawGrid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseWorkbook(r, "")
	case ".csv", ".txt":
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "unreadable upload")
		}
		return ParseCSVGrid(string(body))
	default:
		return nil, appErrors.Clone(appErrors.ErrImportSource, "unsupported file type, expected .csv or .xlsx")
	}
}

func (s *ScheduleImportService) previewGrid(ctx context.Context, grid importer.RawGrid, week time.Time, dayGroup importer.DayGroup, sheetURL string) (*dto.ImportPreviewResponse, error) {
	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	run, err := s.run(grid, week, dayGroup, resolver)
	if err != nil {
		return nil, err
	}

	rows := buildImportRows(run)
	summary := dto.ImportSummary{Total: len(rows), Skipped: run.skipped}
	for _, row := range rows {
		if row.Status == dto.ImportRowValid {
			summary.Valid++
		} else {
			summary.Error++
		}
	}

	now := time.Now().UTC()
	resp := dto.ImportPreviewResponse{
		ProposalID: uuid.NewString(),
		ExpiresAt:  now.Add(s.store.ttl),
		Layout:     string(run.layout),
		Blocks:     run.blocks,
		WeekStart:  week.Format("2006-01-02"),
		Summary:    summary,
		Candidates: len(run.candidates),
		Rows:       rows,
	}
	s.store.Save(importProposal{
		ID:          resp.ProposalID,
		SheetURL:    sheetURL,
		WeekStart:   week,
		DayGroup:    dayGroup,
		Grid:        grid,
		Preview:     resp,
		RequestedAt: now,
	})

	s.metrics.RecordImportRun("preview", string(run.layout), summary.Valid, summary.Error, summary.Skipped)
	s.logger.Info("schedule import previewed",
		zap.String("proposal_id", resp.ProposalID),
		zap.String("layout", resp.Layout),
		zap.Int("valid", summary.Valid),
		zap.Int("error", summary.Error),
		zap.Int("skipped", summary.Skipped),
	)
	return &resp, nil
}

// Commit books the valid rows of a sheet. Manual overrides are re-validated
// against a fresh directory snapshot before anything is written.
func (s *ScheduleImportService) Commit(ctx context.Context, req dto.ImportCommitRequest) (*dto.ImportCommitResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import commit payload")
	}

	var (
		grid     importer.RawGrid
		week     time.Time
		dayGroup importer.DayGroup
		err      error
	)
	if req.ProposalID != "" {
		proposal, ok := s.store.Get(req.ProposalID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import proposal not found or expired")
		}
		grid, week, dayGroup = proposal.Grid, proposal.WeekStart, proposal.DayGroup
	} else {
		week, dayGroup, err = parseWeekAndDayGroup(req.WeekStart, req.DayGroup)
		if err != nil {
			return nil, err
		}
		if grid, err = s.fetchSheet(ctx, req.SheetURL, false); err != nil {
			return nil, err
		}
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	run, err := s.run(grid, week, dayGroup, resolver)
	if err != nil {
		return nil, err
	}

	selected, err := selectRows(run.results, req.RowKeys)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]int, len(selected))
	for i := range selected {
		byKey[selected[i].Cell.Key()] = i
	}
	overrideKeys := make([]string, 0, len(req.Overrides))
	for key := range req.Overrides {
		overrideKeys = append(overrideKeys, key)
	}
	sort.Strings(overrideKeys)
	for _, key := range overrideKeys {
		idx, ok := byKey[key]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("override for unknown row %q", key))
		}
		if err := importer.ApplyOverride(&selected[idx], req.Overrides[key], resolver); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}

	var (
		valid   []importer.MatchResult
		skipped []string
	)
	for _, m := range selected {
		if m.Valid() {
			valid = append(valid, m)
		} else {
			skipped = append(skipped, m.Cell.Key())
		}
	}
	if len(valid) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no valid rows to import")
	}

	result, err := s.booker.Book(ctx, importer.MaterializeAll(valid, week))
	if err != nil {
		return nil, err
	}
	resp := &dto.ImportCommitResponse{BookingResult: *result, SkippedRows: skipped}

	if req.PersistAliases && len(req.Overrides) > 0 {
		var learned []models.NameAlias
		for _, key := range overrideKeys {
			m := selected[byKey[key]]
			if !m.Valid() {
				continue
			}
			learned = append(learned, importer.OverrideAliases(m, req.Overrides[key])...)
		}
		if len(learned) > 0 {
			if err := s.aliases.UpsertMany(ctx, learned); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save name aliases")
			}
			resp.AliasesSaved = len(learned)
		}
	}

	s.invalidateWeek(ctx, week)
	s.metrics.RecordImportRun("commit", string(run.layout), len(valid), len(skipped), run.skipped)
	s.logger.Info("schedule import committed",
		zap.String("actor", req.Actor),
		zap.String("week_start", week.Format("2006-01-02")),
		zap.Int("created", resp.Created),
		zap.Int("total", resp.Total),
		zap.Int("aliases_saved", resp.AliasesSaved),
	)
	return resp, nil
}

// Confirm books caller-resolved slots with the same checks as Commit.
func (s *ScheduleImportService) Confirm(ctx context.Context, req dto.ConfirmSlotsRequest) (*dto.BookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}
	week, err := importer.ParseWeekStart(req.WeekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []importer.SlotCandidate
	for i, slot := range req.Slots {
		built, err := s.confirmCandidates(i, slot, week, resolver)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, built...)
	}

	result, err := s.booker.Book(ctx, candidates)
	if err != nil {
		return nil, err
	}
	s.invalidateWeek(ctx, week)
	s.logger.Info("schedule slots confirmed",
		zap.String("actor", req.Actor),
		zap.String("week_start", week.Format("2006-01-02")),
		zap.Int("created", result.Created),
		zap.Int("total", result.Total),
	)
	return result, nil
}

func (s *ScheduleImportService) confirmCandidates(i int, slot dto.ConfirmSlot, week time.Time, r *importer.Resolver) ([]importer.SlotCandidate, error) {
	label := "slot " + strconv.Itoa(i+1)
	invalid := func(msg string) error {
		return appErrors.Clone(appErrors.ErrValidation, label+": "+msg)
	}

	teacher, ok := r.Teacher(slot.TeacherID)
	if !ok {
		return nil, invalid(fmt.Sprintf("unknown teacher id %q", slot.TeacherID))
	}
	start, ok := s.slots.Parse(slot.StartTime)
	if !ok {
		return nil, invalid(fmt.Sprintf("unsupported start time %q", slot.StartTime))
	}
	days := slot.Weekdays
	if len(days) == 0 {
		dg, ok := importer.ParseDayGroup(slot.DayGroup)
		if !ok {
			return nil, invalid(fmt.Sprintf("unknown day group %q", slot.DayGroup))
		}
		days = dg.Days()
	}

	rowKey := slot.RowKey
	if rowKey == "" {
		rowKey = fmt.Sprintf("slot%d", i+1)
	}
	base := importer.SlotCandidate{
		RowKey:       rowKey,
		TeacherID:    teacher.ID,
		TeacherLabel: teacher.Label,
		StartTime:    start,
		EndTime:      importer.EndTime(start),
		WeekStart:    week,
		LessonType:   models.LessonTypeIndividual,
		Category:     slot.LessonCategory,
		Room:         slot.Room,
	}
	switch {
	case slot.GroupID != "":
		group, ok := r.Group(slot.GroupID)
		if !ok {
			return nil, invalid(fmt.Sprintf("unknown group id %q", slot.GroupID))
		}
		base.GroupID, base.SubjectLabel = group.ID, group.Label
		base.LessonType = models.LessonTypeGroup
	case slot.StudentID != "":
		student, ok := r.Student(slot.StudentID)
		if !ok {
			return nil, invalid(fmt.Sprintf("unknown student id %q", slot.StudentID))
		}
		base.StudentID, base.SubjectLabel = student.ID, student.Label
	}
	if slot.LessonType != "" {
		base.LessonType = models.LessonType(slot.LessonType)
	}

	out := make([]importer.SlotCandidate, 0, len(days))
	for _, day := range days {
		c := base
		c.DayOfWeek = day
		out = append(out, c)
	}
	return out, nil
}

// ExportPreview renders a remembered preview as CSV or PDF.
func (s *ScheduleImportService) ExportPreview(ctx context.Context, proposalID, format string) ([]byte, string, error) {
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "import proposal not found or expired")
	}
	data := previewDataset(proposal.Preview)
	switch strings.ToLower(format) {
	case "", "csv":
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render preview")
		}
		return body, "text/csv; charset=utf-8", nil
	case "pdf":
		title := fmt.Sprintf("Schedule import %s", proposal.Preview.WeekStart)
		body, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render preview")
		}
		return body, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ScheduleImportService) run(grid importer.RawGrid, week time.Time, dayGroup importer.DayGroup, resolver *importer.Resolver) (*importRun, error) {
	extraction, err := importer.Extract(grid, importer.ExtractOptions{DayGroup: dayGroup, TimeSlots: s.slots})
	switch {
	case errors.Is(err, importer.ErrDayGroupRequired):
		return nil, appErrors.Wrap(err, appErrors.ErrImportSource.Code, appErrors.ErrImportSource.Status, "dayGroup (mwf or tt) is required for single-table sheets")
	case errors.Is(err, importer.ErrNoBlocks):
		return nil, appErrors.Wrap(err, appErrors.ErrImportLayout.Code, appErrors.ErrImportLayout.Status, "no schedule blocks found in sheet")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrImportLayout.Code, appErrors.ErrImportLayout.Status, appErrors.ErrImportLayout.Message)
	}
	results, skipped := importer.Match(extraction.Cells, resolver)
	return &importRun{
		layout:     extraction.Layout,
		blocks:     extraction.Blocks,
		results:    results,
		skipped:    skipped,
		candidates: importer.MaterializeAll(results, week),
	}, nil
}

// fetchSheet loads a grid. A fresh fetch always asks the source and refreshes
// the cached copy, so a re-preview after the sheet was edited sees the edit
// while a URL commit right after still reads the grid that was previewed.
func (s *ScheduleImportService) fetchSheet(ctx context.Context, sheetURL string, fresh bool) (importer.RawGrid, error) {
	ref, err := ParseSheetURL(sheetURL)
	if err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrImportSource, "no spreadsheet source configured")
	}
	load := func(ctx context.Context) (importer.RawGrid, error) {
		return s.source.FetchGrid(ctx, ref)
	}

	switch {
	case s.gridTTL == 0:
		return load(ctx)
	case fresh:
		grid, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, ref.CacheKey(), grid, s.gridTTL)
		return grid, nil
	}
	return Remember(ctx, s.cache, ref.CacheKey(), s.gridTTL, load)
}

func (s *ScheduleImportService) invalidateWeek(ctx context.Context, week time.Time) {
	_ = s.cache.Invalidate(ctx, weekCachePattern(week))
}

func parseWeekAndDayGroup(weekStart, dayGroup string) (time.Time, importer.DayGroup, error) {
	week, err := importer.ParseWeekStart(weekStart)
	if err != nil {
		return time.Time{}, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if dayGroup == "" {
		return week, "", nil
	}
	dg, ok := importer.ParseDayGroup(dayGroup)
	if !ok {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day group %q", dayGroup))
	}
	return week, dg, nil
}

// selectRows keeps the curated rows in sheet order. Unknown keys are a
// validation error so a stale client cannot silently drop rows.
func selectRows(results []importer.MatchResult, keys []string) ([]importer.MatchResult, error) {
	if len(keys) == 0 {
		return append([]importer.MatchResult(nil), results...), nil
	}
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = false
	}
	var out []importer.MatchResult
	for _, m := range results {
		if _, ok := wanted[m.Cell.Key()]; ok {
			wanted[m.Cell.Key()] = true
			out = append(out, m)
		}
	}
	var unknown []string
	for k, found := range wanted {
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown row keys: "+strings.Join(unknown, ", "))
	}
	return out, nil
}

func buildImportRows(run *importRun) []dto.ImportRow {
	warnings := make(map[string][]string)
	for _, c := range importer.FindSiblingConflicts(run.candidates) {
		warnings[c.RowKey] = append(warnings[c.RowKey], c.Message)
	}

	rows := make([]dto.ImportRow, 0, len(run.results))
	for _, m := range run.results {
		row := dto.ImportRow{
			RowKey:   m.Cell.Key(),
			Row:      m.Cell.Row,
			Col:      m.Cell.Col,
			Raw:      m.Cell.Raw,
			Time:     m.Cell.Time,
			DayGroup: string(m.Cell.DayGroup),
			Weekdays: m.Weekdays,
			Header: dto.ImportTeacherHeader{
				Raw:            m.Cell.Teacher.Raw,
				Name:           m.Cell.Teacher.Name,
				Specialization: m.Cell.Teacher.Specialization,
				Room:           m.Cell.Teacher.Room,
			},
			Intent:     string(m.Intent.Kind()),
			LessonType: string(m.LessonType),
			Category:   m.Category,
			Room:       m.Cell.Room,
			Teacher:    m.Teacher,
			Status:     dto.ImportRowValid,
			Errors:     m.Errors,
			Failures:   m.Failures,
			Warnings:   warnings[m.Cell.Key()],
		}
		switch subject := m.Subject.(type) {
		case importer.StudentSubject:
			row.Students = subject.Students
		case importer.GroupSubject:
			group := subject.Group
			row.Group = &group
		}
		if !m.Valid() {
			row.Status = dto.ImportRowError
		}
		rows = append(rows, row)
	}
	return rows
}

func previewDataset(preview dto.ImportPreviewResponse) export.Dataset {
	headers := []string{"Row", "Time", "Days", "Teacher", "Cell", "Match", "Status", "Notes"}
	data := export.Dataset{Headers: headers, Widths: []float64{1, 1, 1.4, 2.4, 2.6, 2.6, 1, 4}}
	for _, row := range preview.Rows {
		days := make([]string, len(row.Weekdays))
		for i, d := range row.Weekdays {
			days[i] = importer.WeekdayName(d)
		}
		teacher := row.Header.Raw
		if row.Teacher != nil {
			teacher = row.Teacher.Label
		}
		var match []string
		for _, st := range row.Students {
			match = append(match, st.Label)
		}
		if row.Group != nil {
			match = append(match, row.Group.Label)
		}
		notes := append(append([]string{}, row.Errors...), row.Warnings...)
		data.Rows = append(data.Rows, map[string]string{
			"Row":     row.RowKey,
			"Time":    row.Time,
			"Days":    strings.Join(days, " "),
			"Teacher": teacher,
			"Cell":    row.Raw,
			"Match":   strings.Join(match, ", "),
			"Status":  string(row.Status),
			"Notes":   strings.Join(notes, "; "),
		})
	}
	return data
}

type importProposal struct {
	ID          string
	SheetURL    string
	WeekStart   time.Time
	DayGroup    importer.DayGroup
	Grid        importer.RawGrid
	Preview     dto.ImportPreviewResponse
	RequestedAt time.Time
}

type importProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]importProposal
}

func newImportProposalStore(ttl time.Duration) *importProposalStore {
	return &importProposalStore{ttl: ttl, items: make(map[string]importProposal)}
}

func (s *importProposalStore) Save(proposal importProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.items[proposal.ID] = proposal
}

func (s *importProposalStore) Get(id string) (importProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return importProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return importProposal{}, false
	}
	return proposal, true
}

func (s *importProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// evictExpired drops stale proposals; callers hold the write lock.
func (s *importProposalStore) evictExpired() {
	for id, p := range s.items {
		if time.Since(p.RequestedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/repository"
	"github.com/noah-isme/tutor-schedule-api/internal/service"
	"github.com/noah-isme/tutor-schedule-api/pkg/config"
	"github.com/noah-isme/tutor-schedule-api/pkg/database"
	"github.com/noah-isme/tutor-schedule-api/pkg/logger"
)

type importOptions struct {
	sheetURL       string
	file           string
	weekStart      string
	dayGroup       string
	apply          bool
	persistAliases bool
	asJSON         bool
	report         string
	overrides      []string
}

type importRunner interface {
	Preview(ctx context.Context, req dto.ImportPreviewRequest) (*dto.ImportPreviewResponse, error)
	PreviewUpload(ctx context.Context, filename string, r io.Reader, weekStart, dayGroup string) (*dto.ImportPreviewResponse, error)
	Commit(ctx context.Context, req dto.ImportCommitRequest) (*dto.ImportCommitResponse, error)
	ExportPreview(ctx context.Context, proposalID, format string) ([]byte, string, error)
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Preview a schedule sheet and optionally book it",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if (opts.sheetURL == "") == (opts.file == "") {
				return withCode(exitUsage, fmt.Errorf("exactly one of --sheet or --file is required"))
			}
			if !opts.apply && (opts.persistAliases || len(opts.overrides) > 0) {
				return withCode(exitUsage, fmt.Errorf("--override and --persist-aliases only apply with --apply"))
			}
			if opts.persistAliases && len(opts.overrides) == 0 {
				return withCode(exitUsage, fmt.Errorf("--persist-aliases needs at least one --override"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := buildImportService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return runImport(cmd.Context(), svc, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.sheetURL, "sheet", "", "Google Sheets link to import")
	cmd.Flags().StringVar(&opts.file, "file", "", "Local .csv or .xlsx export of the sheet")
	cmd.Flags().StringVar(&opts.weekStart, "week", "", "Week start date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.dayGroup, "day-group", "", "mwf or tt, required for single-table sheets")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Book the valid rows (default is dry-run)")
	cmd.Flags().StringArrayVar(&opts.overrides, "override", nil,
		"Manual resolution ROW=teacher:ID|student:ID[,ID]|group:ID, repeatable; a row may be given twice to set teacher and subject")
	cmd.Flags().BoolVar(&opts.persistAliases, "persist-aliases", false, "Save the --override resolutions as name aliases")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().StringVar(&opts.report, "report", "", "Write the preview report to a .csv or .pdf file")

	_ = cmd.MarkFlagRequired("week")

	return cmd
}

func runImport(ctx context.Context, svc importRunner, opts importOptions, out io.Writer) error {
	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return withCode(exitUsage, err)
	}

	preview, err := previewSource(ctx, svc, opts)
	if err != nil {
		return err
	}

	if opts.report != "" {
		if err := writeReport(ctx, svc, preview.ProposalID, opts.report); err != nil {
			return err
		}
	}

	var committed *dto.ImportCommitResponse
	if opts.apply {
		committed, err = svc.Commit(ctx, dto.ImportCommitRequest{
			ProposalID:     preview.ProposalID,
			Overrides:      overrides,
			PersistAliases: opts.persistAliases,
		})
		if err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Preview *dto.ImportPreviewResponse `json:"preview"`
			Commit  *dto.ImportCommitResponse  `json:"commit,omitempty"`
		}{preview, committed})
	}

	printPreview(out, preview)
	if committed != nil {
		printCommit(out, committed)
	} else {
		fmt.Fprintln(out, "dry-run: nothing booked, rerun with --apply to commit")
	}
	return nil
}

// parseOverrides turns repeated ROW=kind:ID values into per-row overrides.
// Student ids are comma separated for shared cells.
func parseOverrides(values []string) (map[string]importer.Override, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]importer.Override, len(values))
	for _, value := range values {
		row, target, ok := strings.Cut(value, "=")
		kind, ids, ok2 := strings.Cut(target, ":")
		row, ids = strings.TrimSpace(row), strings.TrimSpace(ids)
		if !ok || !ok2 || row == "" || ids == "" {
			return nil, fmt.Errorf("--override %q: want ROW=teacher:ID, ROW=student:ID[,ID] or ROW=group:ID", value)
		}
		o := out[row]
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "teacher":
			o.TeacherID = ids
		case "group":
			o.GroupID = ids
		case "student":
			for _, id := range strings.Split(ids, ",") {
				if id = strings.TrimSpace(id); id != "" {
					o.StudentIDs = append(o.StudentIDs, id)
				}
			}
		default:
			return nil, fmt.Errorf("--override %q: unknown kind %q", value, kind)
		}
		if len(o.StudentIDs) > 0 && o.GroupID != "" {
			return nil, fmt.Errorf("--override row %s: student and group are mutually exclusive", row)
		}
		out[row] = o
	}
	return out, nil
}

func previewSource(ctx context.Context, svc importRunner, opts importOptions) (*dto.ImportPreviewResponse, error) {
	if opts.file == "" {
		return svc.Preview(ctx, dto.ImportPreviewRequest{ImportSourceRequest: dto.ImportSourceRequest{
			SheetURL:  opts.sheetURL,
			WeekStart: opts.weekStart,
			DayGroup:  opts.dayGroup,
		}})
	}
	f, err := os.Open(opts.file)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("open --file: %w", err))
	}
	defer f.Close()
	return svc.PreviewUpload(ctx, filepath.Base(opts.file), f, opts.weekStart, opts.dayGroup)
}

func writeReport(ctx context.Context, svc importRunner, proposalID, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "csv" && format != "pdf" {
		return withCode(exitUsage, fmt.Errorf("--report must end in .csv or .pdf"))
	}
	body, _, err := svc.ExportPreview(ctx, proposalID, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printPreview(out io.Writer, p *dto.ImportPreviewResponse) {
	fmt.Fprintf(out, "layout %s, %d block(s), week %s\n", p.Layout, p.Blocks, p.WeekStart)
	fmt.Fprintf(out, "rows: %d total, %d valid, %d error, %d skipped; %d slot(s) to book\n",
		p.Summary.Total, p.Summary.Valid, p.Summary.Error, p.Summary.Skipped, p.Candidates)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tTIME\tTEACHER\tCELL\tPROBLEM")
	for _, row := range p.Rows {
		if row.Status == dto.ImportRowValid {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.RowKey, row.Time, row.Header.Name, row.Raw, strings.Join(row.Errors, "; "))
	}
	_ = tw.Flush()
}

func printCommit(out io.Writer, c *dto.ImportCommitResponse) {
	fmt.Fprintf(out, "booked %d of %d slot(s), %d alias(es) saved\n", c.Created, c.Total, c.AliasesSaved)
	for _, msg := range c.Errors {
		fmt.Fprintln(out, "  ", msg)
	}
}

func buildImportService(ctx context.Context) (*service.ScheduleImportService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	metricsSvc := service.NewMetricsService()
	sourceCfg := service.SourceConfig{Timeout: cfg.Import.FetchTimeout, RPS: cfg.Import.FetchRPS, Burst: cfg.Import.FetchBurst}
	var source service.GridSource
	if cfg.Import.SheetsAPIKey != "" {
		source, err = service.NewSheetsAPISource(ctx, cfg.Import.SheetsAPIKey, sourceCfg, metricsSvc)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init sheets client: %w", err)
		}
	} else {
		source = service.NewCSVExportSource(&http.Client{Timeout: cfg.Import.FetchTimeout}, sourceCfg, metricsSvc, logr)
	}

	aliasRepo := repository.NewNameAliasRepository(db)
	slotRepo := repository.NewScheduleSlotRepository(db)
	directory := service.NewDirectoryLoader(
		repository.NewTeacherRepository(db),
		repository.NewStudentRepository(db),
		repository.NewGroupRepository(db),
		aliasRepo,
	)
	booker := service.NewSlotBooker(slotRepo, metricsSvc, logr)
	cache := service.NewCacheService(nil, metricsSvc, 0, logr, false)

	svc := service.NewScheduleImportService(source, directory, booker, aliasRepo, cache, metricsSvc, validator.New(), logr,
		service.ScheduleImportConfig{ProposalTTL: cfg.Import.ProposalTTL, TimeSlots: cfg.Import.TimeSlots}, nil, nil)

	cleanup := func() {
		_ = db.Close()
		_ = logr.Sync()
	}
	logr.Debug("schedule import ready", zap.String("source", source.Name()))
	return svc, cleanup, nil
}

package dto

import (
	"time"

	"github.com/noah-isme/tutor-schedule-api/internal/importer"
)

// ImportSourceRequest names the spreadsheet and the week it describes.
type ImportSourceRequest struct {
	SheetURL  string `json:"sheetUrl" validate:"required,url"`
	WeekStart string `json:"weekStart" validate:"required,datetime=2006-01-02"`
	DayGroup  string `json:"dayGroup" validate:"omitempty,oneof=mwf tt"`
}

// ImportPreviewRequest asks for a dry run of a sheet.
type ImportPreviewRequest struct {
	ImportSourceRequest
}

// ImportRowStatus marks whether a preview row can be booked as is.
type ImportRowStatus string

const (
	ImportRowValid ImportRowStatus = "valid"
	ImportRowError ImportRowStatus = "error"
)

// ImportTeacherHeader echoes the parsed column header of a row.
type ImportTeacherHeader struct {
	Raw            string `json:"raw"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
	Room           string `json:"room,omitempty"`
}

// ImportRow is one classified and resolved lesson cell.
type ImportRow struct {
	RowKey     string               `json:"rowKey"`
	Row        int                  `json:"row"`
	Col        int                  `json:"col"`
	Raw        string               `json:"raw"`
	Time       string               `json:"time"`
	DayGroup   string               `json:"dayGroup"`
	Weekdays   []int                `json:"weekdays"`
	Header     ImportTeacherHeader  `json:"header"`
	Intent     string               `json:"intent"`
	LessonType string               `json:"lessonType"`
	Category   string               `json:"category,omitempty"`
	Room       string               `json:"room,omitempty"`
	Teacher    *importer.EntityRef  `json:"teacher,omitempty"`
	Students   []importer.EntityRef `json:"students,omitempty"`
	Group      *importer.EntityRef  `json:"group,omitempty"`
	Status     ImportRowStatus      `json:"status"`
	Errors     []string             `json:"errors,omitempty"`
	Failures   []importer.Failure   `json:"failures,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
}

// ImportSummary counts preview rows by outcome.
type ImportSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Error   int `json:"error"`
	Skipped int `json:"skipped"`
}

// ImportPreviewResponse is the full dry-run report.
type ImportPreviewResponse struct {
	ProposalID string        `json:"proposalId"`
	ExpiresAt  time.Time     `json:"expiresAt"`
	Layout     string        `json:"layout"`
	Blocks     int           `json:"blocks"`
	WeekStart  string        `json:"weekStart"`
	Summary    ImportSummary `json:"summary"`
	Candidates int           `json:"candidates"`
	Rows       []ImportRow   `json:"rows"`
}

// ImportCommitRequest books a previewed sheet. Either ProposalID or the
// source fields must be set. RowKeys limits the commit to curated rows.
type ImportCommitRequest struct {
	ProposalID     string                       `json:"proposalId"`
	SheetURL       string                       `json:"sheetUrl" validate:"required_without=ProposalID,omitempty,url"`
	WeekStart      string                       `json:"weekStart" validate:"required_without=ProposalID,omitempty,datetime=2006-01-02"`
	DayGroup       string                       `json:"dayGroup" validate:"omitempty,oneof=mwf tt"`
	RowKeys        []string                     `json:"rowKeys" validate:"omitempty,dive,required"`
	Overrides      map[string]importer.Override `json:"overrides"`
	PersistAliases bool                         `json:"persistAliases"`
	Actor          string                       `json:"-"`
}

// BookingRejection explains why one candidate was not booked.
type BookingRejection struct {
	RowKey    string `json:"rowKey,omitempty"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
}

// BookingResult is the outcome of booking a batch of candidates.
type BookingResult struct {
	Created    int                `json:"count"`
	Total      int                `json:"total"`
	Errors     []string           `json:"errors"`
	Rejections []BookingRejection `json:"rejections"`
	CreatedIDs []string           `json:"createdIds,omitempty"`
}

// ImportCommitResponse reports the commit and the aliases it learned.
type ImportCommitResponse struct {
	BookingResult
	SkippedRows  []string `json:"skippedRows,omitempty"`
	AliasesSaved int      `json:"aliasesSaved"`
}

// ConfirmSlot is a caller-resolved slot. Weekdays wins over DayGroup. Slots
// sharing a RowKey may share their teacher, as students of one shared cell do.
type ConfirmSlot struct {
	RowKey         string `json:"rowKey"`
	TeacherID      string `json:"teacherId" validate:"required"`
	StudentID      string `json:"studentId" validate:"omitempty,excluded_with=GroupID"`
	GroupID        string `json:"groupId"`
	StartTime      string `json:"startTime" validate:"required"`
	DayGroup       string `json:"dayGroup" validate:"required_without=Weekdays,omitempty,oneof=mwf tt"`
	Weekdays       []int  `json:"weekdays" validate:"omitempty,dive,min=1,max=7"`
	LessonType     string `json:"lessonType" validate:"omitempty,oneof=INDIVIDUAL GROUP"`
	LessonCategory string `json:"lessonCategory"`
	Room           string `json:"room"`
}

// ConfirmSlotsRequest books caller-resolved slots for a week.
type ConfirmSlotsRequest struct {
	WeekStart string        `json:"weekStart" validate:"required,datetime=2006-01-02"`
	Slots     []ConfirmSlot `json:"slots" validate:"required,min=1,dive"`
	Actor     string        `json:"-"`
}

// ImportExportQuery selects the preview report format.
type ImportExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

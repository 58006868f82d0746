package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

// Rejection reasons reported per candidate.
const (
	RejectTeacherBusy = "teacher_busy"
	RejectStudentBusy = "student_busy"
	RejectMemberBusy  = "member_busy"
	RejectTaken       = "taken"
)

type slotStore interface {
	ListTeacherSlots(ctx context.Context, week time.Time, day int, start, teacherID string) ([]models.ScheduleSlot, error)
	FindStudentSlot(ctx context.Context, week time.Time, day int, start, studentID string) (*models.ScheduleSlot, error)
	FindGroupMemberConflict(ctx context.Context, week time.Time, day int, start, groupID string) (*models.GroupMemberConflict, error)
	CreateIfFree(ctx context.Context, slot *models.ScheduleSlot) (bool, error)
}

// SlotBooker checks candidates against the live schedule and books the free
// ones. Each candidate is decided on its own; store failures abort the batch.
type SlotBooker struct {
	store   slotStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSlotBooker wires the booker.
func NewSlotBooker(store slotStore, metrics *MetricsService, logger *zap.Logger) *SlotBooker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotBooker{store: store, metrics: metrics, logger: logger}
}

// Book processes candidates in order. A teacher slot booked earlier in the
// same batch from the same row does not block the row's other students, so
// shared cells land as one slot per student.
func (b *SlotBooker) Book(ctx context.Context, candidates []importer.SlotCandidate) (*dto.BookingResult, error) {
	result := &dto.BookingResult{Total: len(candidates), Errors: []string{}, Rejections: []dto.BookingRejection{}}
	bookedBy := make(map[string]string)
	reasons := make(map[string]int)

	for _, c := range candidates {
		reason, msg, err := b.check(ctx, c, bookedBy)
		if err != nil {
			return nil, err
		}
		if reason == "" {
			slot := c.Slot()
			created, err := b.store.CreateIfFree(ctx, &slot)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book schedule slot")
			}
			if created {
				bookedBy[slot.ID] = c.RowKey
				result.Created++
				result.CreatedIDs = append(result.CreatedIDs, slot.ID)
				continue
			}
			reason, msg = RejectTaken, fmt.Sprintf("slot for %s on %s at %s is already taken", c.TeacherLabel, importer.WeekdayName(c.DayOfWeek), c.StartTime)
		}

		reasons[reason]++
		if c.RowKey != "" {
			msg = "row " + c.RowKey + ": " + msg
		}
		result.Errors = append(result.Errors, msg)
		result.Rejections = append(result.Rejections, dto.BookingRejection{
			RowKey:    c.RowKey,
			Reason:    reason,
			Message:   msg,
			DayOfWeek: c.DayOfWeek,
			StartTime: c.StartTime,
		})
	}

	b.metrics.RecordBooking(result.Created, reasons)
	b.logger.Info("slots booked",
		zap.Int("created", result.Created),
		zap.Int("total", result.Total),
		zap.Int("rejected", len(result.Rejections)),
	)
	return result, nil
}

// check returns an empty reason when the candidate may be booked.
func (b *SlotBooker) check(ctx context.Context, c importer.SlotCandidate, bookedBy map[string]string) (string, string, error) {
	day := importer.WeekdayName(c.DayOfWeek)

	existing, err := b.store.ListTeacherSlots(ctx, c.WeekStart, c.DayOfWeek, c.StartTime, c.TeacherID)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher availability")
	}
	for _, slot := range existing {
		if row, ok := bookedBy[slot.ID]; ok && c.RowKey != "" && row == c.RowKey {
			continue
		}
		return RejectTeacherBusy, fmt.Sprintf("teacher %s is already busy on %s at %s", c.TeacherLabel, day, c.StartTime), nil
	}

	switch {
	case c.StudentID != "":
		slot, err := b.store.FindStudentSlot(ctx, c.WeekStart, c.DayOfWeek, c.StartTime, c.StudentID)
		if err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student availability")
		}
		if slot != nil {
			return RejectStudentBusy, fmt.Sprintf("student %s is already booked on %s at %s", c.SubjectLabel, day, c.StartTime), nil
		}
	case c.GroupID != "":
		conflict, err := b.store.FindGroupMemberConflict(ctx, c.WeekStart, c.DayOfWeek, c.StartTime, c.GroupID)
		if err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group availability")
		}
		if conflict != nil {
			return RejectMemberBusy, fmt.Sprintf("group %s member %s is already booked on %s at %s", c.SubjectLabel, conflict.StudentName, day, c.StartTime), nil
		}
	}
	return "", "", nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-schedule-api/internal/dto"
	"github.com/noah-isme/tutor-schedule-api/internal/importer"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

type scheduleSlotRepository interface {
	ListByWeek(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, error)
	CountByWeek(ctx context.Context, week time.Time) (int, error)
	CopyWeek(ctx context.Context, from, to time.Time) (int, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleService manages the weekly schedule outside of imports.
type ScheduleService struct {
	repo      scheduleSlotRepository
	booker    candidateBooker
	directory resolverLoader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	slots     importer.TimeSlots
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleSlotRepository, booker candidateBooker, directory resolverLoader, cache *CacheService, validate *validator.Validate, logger *zap.Logger, timeSlots []string) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		booker:    booker,
		directory: directory,
		cache:     cache,
		validator: validate,
		logger:    logger,
		slots:     importer.NewTimeSlots(timeSlots),
	}
}

func weekCachePattern(week time.Time) string {
	return "schedule:week:" + week.Format("2006-01-02") + ":*"
}

// List returns the slots of a week, optionally for one teacher or day group.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleWeekQuery) ([]models.ScheduleSlotDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	week, dayGroup, err := parseWeekAndDayGroup(query.WeekStart, query.DayGroup)
	if err != nil {
		return nil, err
	}
	filter := models.ScheduleSlotFilter{WeekStart: week, TeacherID: query.TeacherID}
	if dayGroup != "" {
		filter.Days = dayGroup.Days()
	}

	cacheKey := fmt.Sprintf("schedule:week:%s:%s:%s", week.Format("2006-01-02"), query.TeacherID, dayGroup)
	return Remember(ctx, s.cache, cacheKey, 0, func(ctx context.Context) ([]models.ScheduleSlotDetail, error) {
		slots, err := s.repo.ListByWeek(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
		}
		if slots == nil {
			slots = []models.ScheduleSlotDetail{}
		}
		return slots, nil
	})
}

// Create books one slot with the same checks as an import.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	week, err := importer.ParseWeekStart(req.WeekStartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	start, ok := s.slots.Parse(req.StartTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported start time %q", req.StartTime))
	}
	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	teacher, ok := resolver.Teacher(req.TeacherID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown teacher id %q", req.TeacherID))
	}
	candidate := importer.SlotCandidate{
		TeacherID:    teacher.ID,
		TeacherLabel: teacher.Label,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    start,
		EndTime:      importer.EndTime(start),
		WeekStart:    week,
		LessonType:   models.LessonType(req.LessonType),
		Category:     req.LessonCategory,
		Room:         req.Room,
	}
	switch {
	case req.StudentID != "":
		student, ok := resolver.Student(req.StudentID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown student id %q", req.StudentID))
		}
		candidate.StudentID, candidate.SubjectLabel = student.ID, student.Label
	case req.GroupID != "":
		group, ok := resolver.Group(req.GroupID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown group id %q", req.GroupID))
		}
		candidate.GroupID, candidate.SubjectLabel = group.ID, group.Label
	}

	result, err := s.booker.Book(ctx, []importer.SlotCandidate{candidate})
	if err != nil {
		return nil, err
	}
	if len(result.Rejections) > 0 {
		return nil, s.wrapConflict(candidate, result.Rejections[0])
	}

	slot := candidate.Slot()
	if len(result.CreatedIDs) > 0 {
		slot.ID = result.CreatedIDs[0]
	}
	s.invalidate(ctx, week)
	return &slot, nil
}

// CopyWeek duplicates a week onto an empty target week.
func (s *ScheduleService) CopyWeek(ctx context.Context, req dto.CopyWeekRequest) (*dto.CopyWeekResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy payload")
	}
	from, err := importer.ParseWeekStart(req.FromWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	to, err := importer.ParseWeekStart(req.ToWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if from.Equal(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target weeks must differ")
	}

	existing, err := s.repo.CountByWeek(ctx, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect target week")
	}
	if existing > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "target week already has a schedule")
	}
	source, err := s.repo.CountByWeek(ctx, from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect source week")
	}
	if source == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "source week has no schedule")
	}

	copied, err := s.repo.CopyWeek(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy schedule")
	}
	s.invalidate(ctx, to)
	s.logger.Info("schedule week copied",
		zap.String("from", from.Format("2006-01-02")),
		zap.String("to", to.Format("2006-01-02")),
		zap.Int("count", copied),
	)
	return &dto.CopyWeekResponse{Count: copied}, nil
}

// Delete removes a slot.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slot")
	}
	_ = s.cache.Invalidate(ctx, "schedule:week:*")
	return nil
}

func (s *ScheduleService) invalidate(ctx context.Context, week time.Time) {
	_ = s.cache.Invalidate(ctx, weekCachePattern(week))
}

func (s *ScheduleService) wrapConflict(c importer.SlotCandidate, rejection dto.BookingRejection) error {
	conflict := models.ScheduleConflict{
		TeacherID: c.TeacherID,
		StudentID: c.StudentID,
		GroupID:   c.GroupID,
		DayOfWeek: c.DayOfWeek,
		StartTime: c.StartTime,
		Dimension: rejection.Reason,
	}
	domainErr := &models.ScheduleConflictError{Type: rejection.Reason, Message: rejection.Message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrSlotConflict.Code, appErrors.ErrSlotConflict.Status, fmt.Sprintf("schedule conflict: %s", rejection.Message))
}

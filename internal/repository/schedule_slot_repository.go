package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
	"github.com/noah-isme/tutor-schedule-api/pkg/database"
)

const slotColumns = "id, teacher_id, student_id, group_id, day_of_week, start_time, end_time, week_start_date, lesson_type, lesson_category, room, created_at"

const uniqueViolation = "23505"

// ScheduleSlotRepository persists weekly lesson slots. The unique indexes on
// schedule_slots are the final arbiter of double bookings.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository creates a repository instance.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

// ListTeacherSlots returns the slots a teacher already holds at a week/day/time.
func (r *ScheduleSlotRepository) ListTeacherSlots(ctx context.Context, week time.Time, day int, start, teacherID string) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE week_start_date = $1 AND day_of_week = $2 AND start_time = $3 AND teacher_id = $4"
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, week, day, start, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher slots: %w", err)
	}
	return slots, nil
}

// FindStudentSlot returns any slot booked for the student at a week/day/time,
// or nil when the student is free.
func (r *ScheduleSlotRepository) FindStudentSlot(ctx context.Context, week time.Time, day int, start, studentID string) (*models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE week_start_date = $1 AND day_of_week = $2 AND start_time = $3 AND student_id = $4 LIMIT 1"
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, week, day, start, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student slot: %w", err)
	}
	return &slot, nil
}

// FindGroupMemberConflict returns the first member of the group who already
// has an individual lesson or a lesson with another group at that time.
func (r *ScheduleSlotRepository) FindGroupMemberConflict(ctx context.Context, week time.Time, day int, start, groupID string) (*models.GroupMemberConflict, error) {
	const query = `SELECT st.id AS student_id, st.last_name || ' ' || st.first_name AS student_name
FROM group_members gm
JOIN students st ON st.id = gm.student_id
WHERE gm.group_id = $1 AND EXISTS (
	SELECT 1 FROM schedule_slots s
	LEFT JOIN group_members og ON og.group_id = s.group_id AND og.student_id = gm.student_id
	WHERE s.week_start_date = $2 AND s.day_of_week = $3 AND s.start_time = $4
	AND (s.student_id = gm.student_id OR (s.group_id IS NOT NULL AND s.group_id <> $1 AND og.student_id IS NOT NULL))
)
ORDER BY st.last_name ASC, st.first_name ASC
LIMIT 1`
	var conflict models.GroupMemberConflict
	if err := r.db.GetContext(ctx, &conflict, query, groupID, week, day, start); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find group member conflict: %w", err)
	}
	return &conflict, nil
}

// CreateIfFree inserts the slot unless a unique index rejects it. It reports
// false without an error when the slot is already taken.
func (r *ScheduleSlotRepository) CreateIfFree(ctx context.Context, slot *models.ScheduleSlot) (bool, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedule_slots (id, teacher_id, student_id, group_id, day_of_week, start_time, end_time, week_start_date, lesson_type, lesson_category, room, created_at)
VALUES (:id, :teacher_id, :student_id, :group_id, :day_of_week, :start_time, :end_time, :week_start_date, :lesson_type, :lesson_category, :room, :created_at)
ON CONFLICT DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, slot)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create schedule slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create schedule slot rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByWeek returns the slots of a week with display names.
func (r *ScheduleSlotRepository) ListByWeek(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, error) {
	conditions := []string{"s.week_start_date = $1"}
	args := []interface{}{filter.WeekStart}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("s.teacher_id = $%d", len(args)))
	}
	if len(filter.Days) > 0 {
		args = append(args, pq.Array(filter.Days))
		conditions = append(conditions, fmt.Sprintf("s.day_of_week = ANY($%d)", len(args)))
	}

	query := `SELECT s.id, s.teacher_id, s.student_id, s.group_id, s.day_of_week, s.start_time, s.end_time, s.week_start_date, s.lesson_type, s.lesson_category, s.room, s.created_at,
t.last_name || ' ' || t.first_name AS teacher_name,
CASE WHEN st.id IS NULL THEN NULL ELSE st.last_name || ' ' || st.first_name END AS student_name,
g.name AS group_name
FROM schedule_slots s
JOIN teachers t ON t.id = s.teacher_id
LEFT JOIN students st ON st.id = s.student_id
LEFT JOIN student_groups g ON g.id = s.group_id
WHERE ` + strings.Join(conditions, " AND ") + `
ORDER BY s.day_of_week ASC, s.start_time ASC, teacher_name ASC`

	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// CountByWeek returns how many slots a week holds.
func (r *ScheduleSlotRepository) CountByWeek(ctx context.Context, week time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_slots WHERE week_start_date = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, week); err != nil {
		return 0, fmt.Errorf("count schedule slots: %w", err)
	}
	return total, nil
}

// CopyWeek duplicates every slot of one week onto another in a transaction.
func (r *ScheduleSlotRepository) CopyWeek(ctx context.Context, from, to time.Time) (int, error) {
	copied := 0
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var source []models.ScheduleSlot
		query := "SELECT " + slotColumns + " FROM schedule_slots WHERE week_start_date = $1 ORDER BY day_of_week ASC, start_time ASC"
		if err := tx.SelectContext(ctx, &source, query, from); err != nil {
			return fmt.Errorf("load source week: %w", err)
		}

		const insert = `INSERT INTO schedule_slots (id, teacher_id, student_id, group_id, day_of_week, start_time, end_time, week_start_date, lesson_type, lesson_category, room, created_at)
VALUES (:id, :teacher_id, :student_id, :group_id, :day_of_week, :start_time, :end_time, :week_start_date, :lesson_type, :lesson_category, :room, :created_at)`
		now := time.Now().UTC()
		for i := range source {
			payload := source[i]
			payload.ID = uuid.NewString()
			payload.WeekStartDate = to
			payload.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx, insert, payload); err != nil {
				return fmt.Errorf("copy schedule slot: %w", err)
			}
		}
		copied = len(source)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("copy week: %w", err)
	}
	return copied, nil
}

// Delete removes a slot by id.
func (r *ScheduleSlotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule slot rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

package models

import "time"

// LessonType distinguishes one-to-one lessons from group lessons.
type LessonType string

const (
	LessonTypeIndividual LessonType = "INDIVIDUAL"
	LessonTypeGroup      LessonType = "GROUP"
)

// ScheduleSlot is one booked lesson hour in a given week.
type ScheduleSlot struct {
	ID             string     `db:"id" json:"id"`
	TeacherID      string     `db:"teacher_id" json:"teacher_id"`
	StudentID      *string    `db:"student_id" json:"student_id,omitempty"`
	GroupID        *string    `db:"group_id" json:"group_id,omitempty"`
	DayOfWeek      int        `db:"day_of_week" json:"day_of_week"`
	StartTime      string     `db:"start_time" json:"start_time"`
	EndTime        string     `db:"end_time" json:"end_time"`
	WeekStartDate  time.Time  `db:"week_start_date" json:"week_start_date"`
	LessonType     LessonType `db:"lesson_type" json:"lesson_type"`
	LessonCategory *string    `db:"lesson_category" json:"lesson_category,omitempty"`
	Room           *string    `db:"room" json:"room,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ScheduleSlotDetail enriches a slot with display names for listings.
type ScheduleSlotDetail struct {
	ScheduleSlot
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	GroupName   *string `db:"group_name" json:"group_name,omitempty"`
}

// ScheduleSlotFilter describes the listing query for one week.
type ScheduleSlotFilter struct {
	WeekStart time.Time
	TeacherID string
	Days      []int
}

// ScheduleConflict describes the existing slot a candidate collided with.
type ScheduleConflict struct {
	SlotID    string `json:"slot_id,omitempty"`
	TeacherID string `json:"teacher_id"`
	StudentID string `json:"student_id,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	Dimension string `json:"dimension"`
}

// ScheduleConflictError is returned when a slot collides with an existing one.
type ScheduleConflictError struct {
	Type     string           `json:"type"`
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

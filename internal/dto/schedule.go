package dto

// ScheduleWeekQuery filters the weekly schedule.
type ScheduleWeekQuery struct {
	WeekStart string `form:"weekStart" json:"weekStart" validate:"required,datetime=2006-01-02"`
	TeacherID string `form:"teacherId" json:"teacherId"`
	DayGroup  string `form:"dayGroup" json:"dayGroup" validate:"omitempty,oneof=mwf tt"`
}

// CreateScheduleSlotRequest books one slot by hand.
type CreateScheduleSlotRequest struct {
	TeacherID      string `json:"teacherId" validate:"required"`
	StudentID      string `json:"studentId" validate:"omitempty,excluded_with=GroupID"`
	GroupID        string `json:"groupId"`
	DayOfWeek      int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartTime      string `json:"startTime" validate:"required"`
	WeekStartDate  string `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	LessonType     string `json:"lessonType" validate:"required,oneof=INDIVIDUAL GROUP"`
	LessonCategory string `json:"lessonCategory"`
	Room           string `json:"room"`
}

// CopyWeekRequest duplicates one week onto an empty one.
type CopyWeekRequest struct {
	FromWeek string `json:"fromWeek" validate:"required,datetime=2006-01-02"`
	ToWeek   string `json:"toWeek" validate:"required,datetime=2006-01-02,nefield=FromWeek"`
}

// CopyWeekResponse reports how many slots were copied.
type CopyWeekResponse struct {
	Count int `json:"count"`
}

// NameAliasInput is one alias to save.
type NameAliasInput struct {
	Alias    string `json:"alias" validate:"required"`
	Kind     string `json:"type" validate:"required,oneof=teacher student group"`
	EntityID string `json:"entityId" validate:"required"`
}

// UpsertNameAliasesRequest saves aliases in bulk.
type UpsertNameAliasesRequest struct {
	Aliases []NameAliasInput `json:"aliases" validate:"required,min=1,dive"`
}

// UpsertNameAliasesResponse reports how many aliases were stored.
type UpsertNameAliasesResponse struct {
	Saved int `json:"saved"`
}

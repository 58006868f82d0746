package importer

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

// SlotCandidate is a resolved, day-expanded lesson ready to be booked.
// Candidates are values; corrections produce new candidates.
type SlotCandidate struct {
	RowKey       string            `json:"rowKey"`
	TeacherID    string            `json:"teacherId"`
	TeacherLabel string            `json:"teacherLabel"`
	StudentID    string            `json:"studentId,omitempty"`
	GroupID      string            `json:"groupId,omitempty"`
	SubjectLabel string            `json:"subjectLabel,omitempty"`
	DayOfWeek    int               `json:"dayOfWeek"`
	StartTime    string            `json:"startTime"`
	EndTime      string            `json:"endTime"`
	WeekStart    time.Time         `json:"weekStart"`
	LessonType   models.LessonType `json:"lessonType"`
	Category     string            `json:"category,omitempty"`
	Room         string            `json:"room,omitempty"`
}

// Slot converts the candidate into a persistable slot without an id.
func (c SlotCandidate) Slot() models.ScheduleSlot {
	slot := models.ScheduleSlot{
		TeacherID:     c.TeacherID,
		DayOfWeek:     c.DayOfWeek,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		WeekStartDate: c.WeekStart,
		LessonType:    c.LessonType,
	}
	if c.StudentID != "" {
		id := c.StudentID
		slot.StudentID = &id
	}
	if c.GroupID != "" {
		id := c.GroupID
		slot.GroupID = &id
	}
	if c.Category != "" {
		category := c.Category
		slot.LessonCategory = &category
	}
	if c.Room != "" {
		room := c.Room
		slot.Room = &room
	}
	return slot
}

// Materialize expands a valid result into one candidate per weekday and, for
// shared cells, per student. Invalid results yield nothing.
func Materialize(m MatchResult, weekStart time.Time) []SlotCandidate {
	if !m.Valid() {
		return nil
	}
	weekStart = WeekStart(weekStart)
	base := SlotCandidate{
		RowKey:       m.Cell.Key(),
		TeacherID:    m.Teacher.ID,
		TeacherLabel: m.Teacher.Label,
		StartTime:    m.Cell.Time,
		EndTime:      EndTime(m.Cell.Time),
		WeekStart:    weekStart,
		LessonType:   m.LessonType,
		Category:     m.Category,
		Room:         m.Cell.Room,
	}

	var subjects []SlotCandidate
	switch s := m.Subject.(type) {
	case StudentSubject:
		for _, student := range s.Students {
			c := base
			c.StudentID = student.ID
			c.SubjectLabel = student.Label
			subjects = append(subjects, c)
		}
	case GroupSubject:
		c := base
		c.GroupID = s.Group.ID
		c.SubjectLabel = s.Group.Label
		subjects = append(subjects, c)
	case MethodSubject:
		subjects = append(subjects, base)
	}

	out := make([]SlotCandidate, 0, len(subjects)*len(m.Weekdays))
	for _, day := range m.Weekdays {
		for _, c := range subjects {
			c.DayOfWeek = day
			out = append(out, c)
		}
	}
	return out
}

// MaterializeAll expands every valid result in order.
func MaterializeAll(results []MatchResult, weekStart time.Time) []SlotCandidate {
	var out []SlotCandidate
	for _, m := range results {
		out = append(out, Materialize(m, weekStart)...)
	}
	return out
}

// SiblingConflict is a collision between two candidates of the same sheet.
type SiblingConflict struct {
	RowKey  string `json:"rowKey"`
	Other   string `json:"otherRowKey"`
	Message string `json:"message"`
}

// FindSiblingConflicts reports teachers booked from two different cells and
// students booked twice at the same weekday and time. Candidates from the
// same cell may share a teacher.
func FindSiblingConflicts(candidates []SlotCandidate) []SiblingConflict {
	type slotKey struct {
		id   string
		day  int
		time string
	}
	teachers := make(map[slotKey]SlotCandidate)
	students := make(map[slotKey]SlotCandidate)
	seen := make(map[string]struct{})

	var out []SiblingConflict
	report := func(c, prev SlotCandidate, msg string) {
		key := c.RowKey + "|" + prev.RowKey + "|" + msg
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, SiblingConflict{RowKey: c.RowKey, Other: prev.RowKey, Message: msg})
	}

	for _, c := range candidates {
		tk := slotKey{id: c.TeacherID, day: c.DayOfWeek, time: c.StartTime}
		if prev, ok := teachers[tk]; ok && prev.RowKey != c.RowKey {
			report(c, prev, fmt.Sprintf("teacher %s is booked twice on %s at %s", c.TeacherLabel, WeekdayName(c.DayOfWeek), c.StartTime))
		} else if !ok {
			teachers[tk] = c
		}
		if c.StudentID == "" {
			continue
		}
		sk := slotKey{id: c.StudentID, day: c.DayOfWeek, time: c.StartTime}
		if prev, ok := students[sk]; ok {
			report(c, prev, fmt.Sprintf("student %s is booked twice on %s at %s", c.SubjectLabel, WeekdayName(c.DayOfWeek), c.StartTime))
		} else {
			students[sk] = c
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RowKey < out[j].RowKey })
	return out
}

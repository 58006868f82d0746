package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DayGroup is a named set of weekdays sharing one column in the schedule grid.
type DayGroup string

const (
	// DayGroupMWF covers Monday, Wednesday and Friday.
	DayGroupMWF DayGroup = "mwf"
	// DayGroupTT covers Tuesday and Thursday.
	DayGroupTT DayGroup = "tt"
)

// Days returns the ISO weekday numbers (Monday = 1) of the group.
func (g DayGroup) Days() []int {
	switch g {
	case DayGroupMWF:
		return []int{1, 3, 5}
	case DayGroupTT:
		return []int{2, 4}
	default:
		return nil
	}
}

// Valid reports whether the group is one of the known groups.
func (g DayGroup) Valid() bool {
	return g == DayGroupMWF || g == DayGroupTT
}

// ParseDayGroup accepts the canonical ids used by API callers.
func ParseDayGroup(raw string) (DayGroup, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(DayGroupMWF):
		return DayGroupMWF, true
	case string(DayGroupTT):
		return DayGroupTT, true
	}
	if g, ok := ParseDayGroupMarker(raw); ok {
		return g, true
	}
	return "", false
}

var markerSeparators = strings.NewReplacer(",", "/", "-", "/", ".", "/", "\\", "/", "|", "/", ";", "/")

var dayGroupMarkers = map[string]DayGroup{
	"пн/ср/пт":    DayGroupMWF,
	"вт/чт":       DayGroupTT,
	"mon/wed/fri": DayGroupMWF,
	"tue/thu":     DayGroupTT,
}

// ParseDayGroupMarker recognises the marker-row tokens of multi-block grids,
// case-insensitively and tolerant of the separator used between day names.
func ParseDayGroupMarker(cell string) (DayGroup, bool) {
	token := strings.ToLower(strings.TrimSpace(cell))
	if token == "" {
		return "", false
	}
	token = markerSeparators.Replace(token)
	token = strings.Join(strings.Fields(token), "/")
	for strings.Contains(token, "//") {
		token = strings.ReplaceAll(token, "//", "/")
	}
	g, ok := dayGroupMarkers[token]
	return g, ok
}

// DefaultTimeSlots is the recognised set of lesson start times.
var DefaultTimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00",
}

// LessonDuration is the fixed length of one lesson.
const LessonDuration = time.Hour

var timeLabelPattern = regexp.MustCompile(`^(\d{1,2})[.:](\d{2})(?:\s*[-–—]\s*\d{1,2}[.:]\d{2})?$`)

// TimeSlots is the set of start times a grid row may carry.
type TimeSlots map[string]struct{}

// NewTimeSlots builds a slot set, falling back to DefaultTimeSlots when empty.
func NewTimeSlots(labels []string) TimeSlots {
	if len(labels) == 0 {
		labels = DefaultTimeSlots
	}
	set := make(TimeSlots, len(labels))
	for _, label := range labels {
		if canonical, ok := canonicalTime(label); ok {
			set[canonical] = struct{}{}
		}
	}
	return set
}

// Parse converts labels such as "9.00", "09:00" or "9.00-10.00" into the
// canonical HH:MM form. Labels outside the slot set are rejected.
func (s TimeSlots) Parse(label string) (string, bool) {
	canonical, ok := canonicalTime(label)
	if !ok {
		return "", false
	}
	if _, known := s[canonical]; !known {
		return "", false
	}
	return canonical, true
}

func canonicalTime(label string) (string, bool) {
	m := timeLabelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// EndTime returns start plus one lesson, both in HH:MM form.
func EndTime(start string) string {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return start
	}
	return t.Add(LessonDuration).Format("15:04")
}

// WeekStart returns the Monday of the week containing t, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// ParseWeekStart parses a YYYY-MM-DD date and normalises it to its Monday.
func ParseWeekStart(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start %q: expected YYYY-MM-DD", raw)
	}
	return WeekStart(t), nil
}

var weekdayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayName returns the short English name for an ISO weekday number.
func WeekdayName(day int) string {
	if day < 1 || day > 7 {
		return strconv.Itoa(day)
	}
	return weekdayNames[day]
}

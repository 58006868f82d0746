package importer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IntentKind names the variant of a classified cell.
type IntentKind string

// Intent kinds, one per Intent implementation.
const (
	IntentIndividual     IntentKind = "individual"      // one student
	IntentDualStudent    IntentKind = "dual_student"    // two or more students joined by '+'
	IntentGroup          IntentKind = "group"           // a lesson group or program group
	IntentSupportedGroup IntentKind = "supported_group" // group with an accompanying tutor
	IntentMethod         IntentKind = "methodological"  // teacher-only methodological hour
	IntentSkip           IntentKind = "skip"            // nothing to book
)

// Intent is the typed meaning of one raw cell. The set of implementations is
// closed: IndividualIntent, DualIntent, GroupIntent, SupportedGroupIntent,
// MethodIntent and SkipIntent.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

// IndividualIntent is a one-to-one lesson with a named student.
type IndividualIntent struct {
	Name     string
	Category string
	Weekdays []int
}

// DualIntent is two or more students sharing one slot, joined with "+".
type DualIntent struct {
	Names    []string
	Category string
	Weekdays []int
}

// GroupIntent is a group lesson referenced by a group-name fragment.
type GroupIntent struct {
	GroupName string
	Category  string
}

// SupportedGroupIntent is an accompanied group session.
type SupportedGroupIntent struct {
	GroupName string
	Category  string
}

// MethodIntent is a methodological hour with no student attached.
type MethodIntent struct {
	Category string
}

// SkipIntent marks filler, trainee or cancelled cells.
type SkipIntent struct {
	Reason string
}

func (IndividualIntent) Kind() IntentKind     { return IntentIndividual }
func (DualIntent) Kind() IntentKind           { return IntentDualStudent }
func (GroupIntent) Kind() IntentKind          { return IntentGroup }
func (SupportedGroupIntent) Kind() IntentKind { return IntentSupportedGroup }
func (MethodIntent) Kind() IntentKind         { return IntentMethod }
func (SkipIntent) Kind() IntentKind           { return IntentSkip }

func (IndividualIntent) isIntent()     {}
func (DualIntent) isIntent()           {}
func (GroupIntent) isIntent()          {}
func (SupportedGroupIntent) isIntent() {}
func (MethodIntent) isIntent()         {}
func (SkipIntent) isIntent()           {}

// Lesson categories.
const (
	CategoryAcademic   = "А"
	CategoryIntensive  = "И"
	CategoryTech       = "Тех"
	CategorySupport    = "СОПР"
	CategoryMethod     = "Метод"
	CategoryHomework   = "ДЗ"
	CategorySpeech     = "РЛ"
	CategoryKazakh     = "каз"
	CategoryPreschool  = "МНО"
	CategoryAdaptivePE = "АФК"
)

// categoryTokens maps lower-cased suffix tokens to canonical categories.
var categoryTokens = map[string]string{
	"а":              CategoryAcademic,
	"акад":           CategoryAcademic,
	"академические":  CategoryAcademic,
	"и":              CategoryIntensive,
	"инт":            CategoryIntensive,
	"интенсив":       CategoryIntensive,
	"тех":            CategoryTech,
	"технология":     CategoryTech,
	"сопр":           CategorySupport,
	"сопровождение":  CategorySupport,
	"метод":          CategoryMethod,
	"методический":   CategoryMethod,
	"дз":             CategoryHomework,
	"рл":             CategorySpeech,
	"каз":            CategoryKazakh,
	"мно":            CategoryPreschool,
	"афк":            CategoryAdaptivePE,
}

// programPrefixes are upper-case codes of group programmes; a cell starting
// with one is a group lesson named by the whole cell.
var programPrefixes = []string{CategoryPreschool, CategoryAdaptivePE}

var (
	fillerPattern       = regexp.MustCompile(`^[-–—\s]+$`)
	traineePattern      = regexp.MustCompile(`(?i)^стаж(?:[её]р(?:ка)?|ировка)?\.?$`)
	methodPattern       = regexp.MustCompile(`(?i)^метод(?:ический|ическ\.?|\.)?\s*\d*\s*([-–—]*)\s*$`)
	supportedPattern    = regexp.MustCompile(`(?i)^сопр(?:овождение)?\.?\s*(?:гр\.|гр\s|группа\s*)\s*(.+)$`)
	groupPattern        = regexp.MustCompile(`(?i)^(?:группа\s*|гр\.\s*|гр\s+)(.+)$`)
	trailingDashPattern = regexp.MustCompile(`[-–—]\s*$`)
	spacedRangePattern  = regexp.MustCompile(`(?i)(пн|вт|ср|чт|пт|сб|вс)\s*[-–—]\s*(пн|вт|ср|чт|пт|сб|вс)`)
)

var weekdayTokens = map[string]int{
	"пн": 1, "вт": 2, "ср": 3, "чт": 4, "пт": 5, "сб": 6, "вс": 7,
}

// Classify maps a raw cell string to its intent. Rules are applied in a fixed
// priority order and the first match wins.
func Classify(raw string) Intent {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return SkipIntent{Reason: "empty"}
	}

	if fillerPattern.MatchString(text) {
		return SkipIntent{Reason: "filler"}
	}
	if traineePattern.MatchString(text) {
		return SkipIntent{Reason: "trainee"}
	}

	if m := methodPattern.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return SkipIntent{Reason: "cancelled"}
		}
		return MethodIntent{Category: CategoryMethod}
	}

	if m := supportedPattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return SupportedGroupIntent{GroupName: name, Category: CategorySupport}
		}
	}

	if m := groupPattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return GroupIntent{GroupName: name}
		}
	}

	for _, prefix := range programPrefixes {
		if hasWordPrefix(text, prefix) {
			return GroupIntent{GroupName: text, Category: prefix}
		}
	}

	if strings.Contains(text, "+") {
		if trailingDashPattern.MatchString(text) {
			return SkipIntent{Reason: "cancelled"}
		}
		rest, weekdays := stripWeekdays(text)
		rest, category := stripCategory(rest)
		if trailingDashPattern.MatchString(rest) {
			return SkipIntent{Reason: "cancelled"}
		}
		var names []string
		for _, part := range strings.Split(rest, "+") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		switch len(names) {
		case 0:
			return SkipIntent{Reason: "empty"}
		case 1:
			return IndividualIntent{Name: names[0], Category: category, Weekdays: weekdays}
		}
		return DualIntent{Names: names, Category: category, Weekdays: weekdays}
	}

	rest, weekdays := stripWeekdays(text)
	rest, category := stripCategory(rest)
	if trailingDashPattern.MatchString(rest) {
		return SkipIntent{Reason: "cancelled"}
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return SkipIntent{Reason: "empty"}
	}
	return IndividualIntent{Name: rest, Category: category, Weekdays: weekdays}
}

// hasWordPrefix reports whether text starts with prefix (case-sensitive)
// followed by a non-letter or the end of the string.
func hasWordPrefix(text, prefix string) bool {
	if !strings.HasPrefix(text, prefix) {
		return false
	}
	rest := text[len(prefix):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r)
}

// stripWeekdays removes a trailing weekday override such as "пн ср" or
// "пн-чт" and returns the explicit weekday list. At least one leading token
// is always kept as the name.
func stripWeekdays(text string) (string, []int) {
	normalized := spacedRangePattern.ReplaceAllString(text, "$1-$2")
	tokens := strings.Fields(normalized)
	cut := len(tokens)
	days := map[int]struct{}{}
	for cut > 1 {
		parsed, ok := parseWeekdayToken(tokens[cut-1])
		if !ok {
			break
		}
		for _, d := range parsed {
			days[d] = struct{}{}
		}
		cut--
	}
	if cut == len(tokens) {
		return text, nil
	}
	out := make([]int, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Ints(out)
	return strings.Join(tokens[:cut], " "), out
}

// parseWeekdayToken accepts "пн", "пн,ср", "пн/ср" and inclusive ranges "пн-чт".
func parseWeekdayToken(token string) ([]int, bool) {
	token = strings.ToLower(strings.Trim(token, ".,;"))
	if token == "" {
		return nil, false
	}
	var days []int
	for _, part := range strings.FieldsFunc(token, func(r rune) bool { return r == ',' || r == '/' }) {
		bounds := strings.FieldsFunc(part, func(r rune) bool { return r == '-' || r == '–' || r == '—' })
		switch len(bounds) {
		case 1:
			d, ok := weekdayTokens[strings.Trim(bounds[0], ".")]
			if !ok {
				return nil, false
			}
			days = append(days, d)
		case 2:
			from, ok1 := weekdayTokens[strings.Trim(bounds[0], ".")]
			to, ok2 := weekdayTokens[strings.Trim(bounds[1], ".")]
			if !ok1 || !ok2 || from > to {
				return nil, false
			}
			for d := from; d <= to; d++ {
				days = append(days, d)
			}
		default:
			return nil, false
		}
	}
	return days, len(days) > 0
}

// stripCategory removes a trailing category token. The token is only taken
// when something remains in front of it.
func stripCategory(text string) (string, string) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return text, ""
	}
	last := strings.ToLower(strings.Trim(tokens[len(tokens)-1], "().,"))
	category, ok := categoryTokens[last]
	if !ok {
		return text, ""
	}
	return strings.Join(tokens[:len(tokens)-1], " "), category
}

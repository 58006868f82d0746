package importer

import (
	"fmt"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

// Subject is who a lesson is for. Implementations: StudentSubject,
// GroupSubject and MethodSubject.
type Subject interface {
	isSubject()
}

// StudentSubject holds one student for an individual lesson, or several for
// a shared slot.
type StudentSubject struct {
	Students []EntityRef
}

// GroupSubject is a whole group.
type GroupSubject struct {
	Group EntityRef
}

// MethodSubject is a methodological hour with nobody attached.
type MethodSubject struct{}

func (StudentSubject) isSubject() {}
func (GroupSubject) isSubject()   {}
func (MethodSubject) isSubject()  {}

// MatchResult is the resolution outcome of one lesson cell.
type MatchResult struct {
	Cell       GridCell
	Intent     Intent
	Teacher    *EntityRef
	Subject    Subject
	LessonType models.LessonType
	Category   string
	Weekdays   []int
	Errors     []string
	Failures   []Failure
}

// Valid reports whether the result can be materialized without manual input.
func (m MatchResult) Valid() bool {
	return len(m.Errors) == 0 && m.Teacher != nil && m.Subject != nil
}

// Match classifies and resolves every cell. Skip intents are counted and
// dropped; every other cell yields a result, resolved or not.
func Match(cells []GridCell, r *Resolver) ([]MatchResult, int) {
	results := make([]MatchResult, 0, len(cells))
	skipped := 0
	for _, cell := range cells {
		intent := Classify(cell.Raw)
		if intent.Kind() == IntentSkip {
			skipped++
			continue
		}
		results = append(results, matchCell(cell, intent, r))
	}
	return results, skipped
}

func matchCell(cell GridCell, intent Intent, r *Resolver) MatchResult {
	m := MatchResult{
		Cell:       cell,
		Intent:     intent,
		LessonType: models.LessonTypeIndividual,
		Weekdays:   cell.DayGroup.Days(),
	}
	if ref, fail := r.ResolveTeacher(cell.Teacher); fail != nil {
		m.Failures = append(m.Failures, *fail)
	} else {
		m.Teacher = &ref
	}

	switch in := intent.(type) {
	case IndividualIntent:
		m.Category = in.Category
		m.overrideDays(in.Weekdays)
		if ref, fail := r.ResolveStudent(cell.Raw, in.Name); fail != nil {
			m.Failures = append(m.Failures, *fail)
		} else {
			m.Subject = StudentSubject{Students: []EntityRef{ref}}
		}
	case DualIntent:
		m.Category = in.Category
		m.overrideDays(in.Weekdays)
		refs := make([]EntityRef, 0, len(in.Names))
		for _, name := range in.Names {
			ref, fail := r.ResolveStudent(name, name)
			if fail != nil {
				m.Failures = append(m.Failures, *fail)
				continue
			}
			refs = append(refs, ref)
		}
		if len(refs) == len(in.Names) {
			m.Subject = StudentSubject{Students: refs}
		}
	case GroupIntent:
		m.resolveGroup(r, in.GroupName, in.Category)
	case SupportedGroupIntent:
		m.resolveGroup(r, in.GroupName, in.Category)
	case MethodIntent:
		m.Category = in.Category
		m.Subject = MethodSubject{}
	}
	m.refreshErrors()
	return m
}

func (m *MatchResult) resolveGroup(r *Resolver, name, category string) {
	m.LessonType = models.LessonTypeGroup
	m.Category = category
	if ref, fail := r.ResolveGroup(m.Cell.Raw, name); fail != nil {
		m.Failures = append(m.Failures, *fail)
	} else {
		m.Subject = GroupSubject{Group: ref}
	}
}

func (m *MatchResult) overrideDays(days []int) {
	if len(days) > 0 {
		m.Weekdays = days
	}
}

func (m *MatchResult) refreshErrors() {
	m.Errors = m.Errors[:0]
	for _, f := range m.Failures {
		m.Errors = append(m.Errors, f.Error())
	}
	if len(m.Errors) == 0 {
		m.Errors = nil
	}
}

func (m *MatchResult) dropFailures(kinds ...models.AliasKind) {
	kept := m.Failures[:0]
	for _, f := range m.Failures {
		drop := false
		for _, k := range kinds {
			if f.Kind == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, f)
		}
	}
	m.Failures = kept
}

// Override is a manual resolution for one row, keyed by GridCell.Key.
type Override struct {
	TeacherID  string   `json:"teacherId,omitempty"`
	StudentIDs []string `json:"studentIds,omitempty"`
	GroupID    string   `json:"groupId,omitempty"`
}

// Empty reports whether the override sets nothing.
func (o Override) Empty() bool {
	return o.TeacherID == "" && len(o.StudentIDs) == 0 && o.GroupID == ""
}

// ApplyOverride re-validates every id against the snapshot and replaces the
// matching parts of m. Failures of the overridden kinds are cleared.
func ApplyOverride(m *MatchResult, o Override, r *Resolver) error {
	if len(o.StudentIDs) > 0 && o.GroupID != "" {
		return fmt.Errorf("row %s: student and group overrides are mutually exclusive", m.Cell.Key())
	}
	if o.TeacherID != "" {
		ref, ok := r.Teacher(o.TeacherID)
		if !ok {
			return fmt.Errorf("row %s: unknown teacher id %q", m.Cell.Key(), o.TeacherID)
		}
		m.Teacher = &ref
		m.dropFailures(models.AliasKindTeacher)
	}
	if len(o.StudentIDs) > 0 {
		refs := make([]EntityRef, 0, len(o.StudentIDs))
		for _, id := range o.StudentIDs {
			ref, ok := r.Student(id)
			if !ok {
				return fmt.Errorf("row %s: unknown student id %q", m.Cell.Key(), id)
			}
			refs = append(refs, ref)
		}
		m.Subject = StudentSubject{Students: refs}
		m.LessonType = models.LessonTypeIndividual
		m.dropFailures(models.AliasKindStudent, models.AliasKindGroup)
	}
	if o.GroupID != "" {
		ref, ok := r.Group(o.GroupID)
		if !ok {
			return fmt.Errorf("row %s: unknown group id %q", m.Cell.Key(), o.GroupID)
		}
		m.Subject = GroupSubject{Group: ref}
		m.LessonType = models.LessonTypeGroup
		m.dropFailures(models.AliasKindStudent, models.AliasKindGroup)
	}
	m.refreshErrors()
	return nil
}

// OverrideAliases returns the aliases a persisted override teaches: the
// header text for the teacher and the cell text for the student or group.
// Shared cells map each name token to its student when the counts line up.
func OverrideAliases(m MatchResult, o Override) []models.NameAlias {
	var out []models.NameAlias
	if o.TeacherID != "" && m.Cell.Teacher.Raw != "" {
		out = append(out, models.NameAlias{Alias: AliasKey(m.Cell.Teacher.Raw), Kind: models.AliasKindTeacher, EntityID: o.TeacherID})
	}
	switch {
	case o.GroupID != "":
		out = append(out, models.NameAlias{Alias: AliasKey(m.Cell.Raw), Kind: models.AliasKindGroup, EntityID: o.GroupID})
	case len(o.StudentIDs) == 1:
		out = append(out, models.NameAlias{Alias: AliasKey(m.Cell.Raw), Kind: models.AliasKindStudent, EntityID: o.StudentIDs[0]})
	case len(o.StudentIDs) > 1:
		dual, ok := m.Intent.(DualIntent)
		if !ok || len(dual.Names) != len(o.StudentIDs) {
			break
		}
		for i, name := range dual.Names {
			out = append(out, models.NameAlias{Alias: AliasKey(name), Kind: models.AliasKindStudent, EntityID: o.StudentIDs[i]})
		}
	}
	return out
}

package importer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

// EntityRef identifies a resolved directory entity.
type EntityRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FailureReason tells a missing match apart from an ambiguous one.
type FailureReason string

const (
	ReasonNotFound  FailureReason = "not_found"
	ReasonAmbiguous FailureReason = "ambiguous"
)

// Failure is one unresolved name, kept next to the human readable error.
type Failure struct {
	Kind   models.AliasKind `json:"kind"`
	Reason FailureReason    `json:"reason"`
	Raw    string           `json:"raw"`
}

func (f Failure) Error() string {
	if f.Reason == ReasonAmbiguous {
		return fmt.Sprintf("ambiguous %s: %q", f.Kind, f.Raw)
	}
	return fmt.Sprintf("%s not found: %q", f.Kind, f.Raw)
}

// Directory is the read-only snapshot a Resolver works against.
type Directory struct {
	Teachers []models.Teacher
	Students []models.Student
	Groups   []models.Group
	Aliases  []models.NameAlias
}

type teacherEntry struct {
	ref             EntityRef
	last, first     string
	lastFirst       string
	firstPatronymic string
}

type studentEntry struct {
	ref                  EntityRef
	last, first          string
	lastFirst, firstLast string
}

type groupEntry struct {
	ref     EntityRef
	compact string
}

// Resolver matches free-text names against a directory snapshot. It holds no
// references to the store and is safe for concurrent reads once built.
type Resolver struct {
	teachers []teacherEntry
	students []studentEntry
	groups   []groupEntry

	teacherByID map[string]EntityRef
	studentByID map[string]EntityRef
	groupByID   map[string]EntityRef

	aliases map[models.AliasKind]map[string]string
}

// NewResolver indexes the snapshot once so every lookup works on folded keys.
func NewResolver(dir Directory) *Resolver {
	r := &Resolver{
		teacherByID: make(map[string]EntityRef, len(dir.Teachers)),
		studentByID: make(map[string]EntityRef, len(dir.Students)),
		groupByID:   make(map[string]EntityRef, len(dir.Groups)),
		aliases:     make(map[models.AliasKind]map[string]string),
	}
	for _, t := range dir.Teachers {
		ref := EntityRef{ID: t.ID, Label: t.DisplayName()}
		last, first := NormalizeName(t.LastName), NormalizeName(t.FirstName)
		r.teachers = append(r.teachers, teacherEntry{
			ref:             ref,
			last:            last,
			first:           first,
			lastFirst:       joinName(last, first),
			firstPatronymic: joinName(first, NormalizeName(t.PatronymicValue())),
		})
		r.teacherByID[t.ID] = ref
	}
	for _, s := range dir.Students {
		ref := EntityRef{ID: s.ID, Label: s.DisplayName()}
		last, first := NormalizeName(s.LastName), NormalizeName(s.FirstName)
		r.students = append(r.students, studentEntry{
			ref:       ref,
			last:      last,
			first:     first,
			lastFirst: joinName(last, first),
			firstLast: joinName(first, last),
		})
		r.studentByID[s.ID] = ref
	}
	for _, g := range dir.Groups {
		ref := EntityRef{ID: g.ID, Label: g.Name}
		r.groups = append(r.groups, groupEntry{ref: ref, compact: compactName(g.Name)})
		r.groupByID[g.ID] = ref
	}
	for _, a := range dir.Aliases {
		key := AliasKey(a.Alias)
		if key == "" || !a.Kind.Valid() {
			continue
		}
		if r.aliases[a.Kind] == nil {
			r.aliases[a.Kind] = make(map[string]string)
		}
		r.aliases[a.Kind][key] = a.EntityID
	}
	return r
}

// NormalizeName folds case, composes Unicode, maps ё to е, drops dots and
// collapses whitespace.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	s = strings.NewReplacer("ё", "е", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// AliasKey is the literal form aliases are stored and looked up under.
func AliasKey(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func compactName(s string) string {
	return strings.Join(strings.Fields(NormalizeName(s)), "")
}

func joinName(a, b string) string {
	return strings.TrimSpace(a + " " + b)
}

// Teacher returns the snapshot entry for id.
func (r *Resolver) Teacher(id string) (EntityRef, bool) {
	ref, ok := r.teacherByID[id]
	return ref, ok
}

// Student returns the snapshot entry for id.
func (r *Resolver) Student(id string) (EntityRef, bool) {
	ref, ok := r.studentByID[id]
	return ref, ok
}

// Group returns the snapshot entry for id.
func (r *Resolver) Group(id string) (EntityRef, bool) {
	ref, ok := r.groupByID[id]
	return ref, ok
}

// alias looks the candidates up in order and ignores aliases whose entity
// is no longer part of the snapshot.
func (r *Resolver) alias(kind models.AliasKind, candidates ...string) (EntityRef, bool) {
	table := r.aliases[kind]
	if len(table) == 0 {
		return EntityRef{}, false
	}
	for _, candidate := range candidates {
		id, ok := table[AliasKey(candidate)]
		if !ok {
			continue
		}
		var ref EntityRef
		switch kind {
		case models.AliasKindTeacher:
			ref, ok = r.teacherByID[id]
		case models.AliasKindStudent:
			ref, ok = r.studentByID[id]
		case models.AliasKindGroup:
			ref, ok = r.groupByID[id]
		}
		if ok {
			return ref, true
		}
	}
	return EntityRef{}, false
}

// ResolveTeacher resolves a header column. An alias on the raw header text or
// the parsed name wins over fuzzy matching.
func (r *Resolver) ResolveTeacher(col TeacherColumn) (EntityRef, *Failure) {
	if ref, ok := r.alias(models.AliasKindTeacher, col.Raw, col.Name); ok {
		return ref, nil
	}
	name := col.Name
	if name == "" {
		name = col.Raw
	}
	q := NormalizeName(name)
	fail := &Failure{Kind: models.AliasKindTeacher, Reason: ReasonNotFound, Raw: col.Raw}
	if q == "" {
		return EntityRef{}, fail
	}

	tiers := [][]func(teacherEntry) bool{
		{func(t teacherEntry) bool { return t.last == q }},
		{
			func(t teacherEntry) bool { return t.lastFirst == q },
			func(t teacherEntry) bool { return strings.HasPrefix(t.lastFirst, q) },
		},
		{
			func(t teacherEntry) bool { return t.firstPatronymic == q },
			func(t teacherEntry) bool { return strings.HasPrefix(t.firstPatronymic, q) },
		},
		{func(t teacherEntry) bool { return t.first == q }},
		{func(t teacherEntry) bool { return strings.HasPrefix(t.last, q) }},
	}
	idx, reason := pickUnique(r.teachers, tiers)
	if idx < 0 {
		fail.Reason = reason
		return EntityRef{}, fail
	}
	return r.teachers[idx].ref, nil
}

// ResolveStudent resolves one student name token. raw is the literal cell
// text used for alias lookup before the token itself.
func (r *Resolver) ResolveStudent(raw, name string) (EntityRef, *Failure) {
	if ref, ok := r.alias(models.AliasKindStudent, raw, name); ok {
		return ref, nil
	}
	q := NormalizeName(name)
	fail := &Failure{Kind: models.AliasKindStudent, Reason: ReasonNotFound, Raw: name}
	if q == "" {
		return EntityRef{}, fail
	}

	splits := abbreviationSplits(q)
	tiers := [][]func(studentEntry) bool{
		{func(s studentEntry) bool { return s.lastFirst == q || s.firstLast == q }},
		{func(s studentEntry) bool { return s.last == q }},
		{func(s studentEntry) bool { return s.first == q }},
		{func(s studentEntry) bool { return strings.HasPrefix(s.lastFirst, q) }},
		{func(s studentEntry) bool {
			for _, sp := range splits {
				if strings.HasPrefix(s.first, sp[0]) && strings.HasPrefix(s.last, sp[1]) {
					return true
				}
			}
			return false
		}},
		{func(s studentEntry) bool { return strings.HasPrefix(s.last, q) }},
		{func(s studentEntry) bool { return strings.HasPrefix(s.first, q) }},
	}
	idx, reason := pickUnique(r.students, tiers)
	if idx < 0 {
		fail.Reason = reason
		return EntityRef{}, fail
	}
	return r.students[idx].ref, nil
}

// ResolveGroup matches a group fragment by folded, whitespace-free equality
// first and then by unique containment in either direction.
func (r *Resolver) ResolveGroup(raw, name string) (EntityRef, *Failure) {
	if ref, ok := r.alias(models.AliasKindGroup, raw, name); ok {
		return ref, nil
	}
	q := compactName(name)
	fail := &Failure{Kind: models.AliasKindGroup, Reason: ReasonNotFound, Raw: name}
	if q == "" {
		return EntityRef{}, fail
	}
	tiers := [][]func(groupEntry) bool{
		{func(g groupEntry) bool { return g.compact == q }},
		{func(g groupEntry) bool {
			return g.compact != "" && (strings.Contains(g.compact, q) || strings.Contains(q, g.compact))
		}},
	}
	idx, reason := pickUnique(r.groups, tiers)
	if idx < 0 {
		fail.Reason = reason
		return EntityRef{}, fail
	}
	return r.groups[idx].ref, nil
}

// pickUnique walks tiers in order. Each tier is a list of steps; the first
// step with exactly one hit wins. The reason is ambiguous when any step saw
// more than one hit.
func pickUnique[T any](items []T, tiers [][]func(T) bool) (int, FailureReason) {
	reason := ReasonNotFound
	for _, steps := range tiers {
		for _, match := range steps {
			hit, count := -1, 0
			for i, item := range items {
				if match(item) {
					hit = i
					count++
				}
			}
			if count == 1 {
				return hit, ""
			}
			if count > 1 {
				reason = ReasonAmbiguous
			}
		}
	}
	return -1, reason
}

// abbreviationSplits lists the (first-name prefix, last-name prefix) pairs
// for every split point at least two runes into the token.
func abbreviationSplits(q string) [][2]string {
	if utf8.RuneCountInString(q) < 3 {
		return nil
	}
	runes := []rune(q)
	var out [][2]string
	for i := 2; i < len(runes); i++ {
		left := strings.TrimSpace(string(runes[:i]))
		right := strings.TrimSpace(string(runes[i:]))
		if left == "" || right == "" {
			continue
		}
		out = append(out, [2]string{left, right})
	}
	return out
}

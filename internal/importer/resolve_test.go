package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

func strPtr(s string) *string { return &s }

func fixtureDirectory() Directory {
	return Directory{
		Teachers: []models.Teacher{
			{ID: "t-aigul", LastName: "Сейтова", FirstName: "Айгуль", Patronymic: strPtr("Маратовна")},
			{ID: "t-bolat", LastName: "Ахметов", FirstName: "Болат"},
			{ID: "t-ivanova-a", LastName: "Иванова", FirstName: "Анна"},
			{ID: "t-ivanova-m", LastName: "Иванова", FirstName: "Мария"},
			{ID: "t-bauyrzhan", LastName: "Касымов", FirstName: "Бауыржан"},
		},
		Students: []models.Student{
			{ID: "s-asanali", LastName: "Ибраев", FirstName: "Асанали"},
			{ID: "s-mark", LastName: "Волков", FirstName: "Марк"},
			{ID: "s-marina", LastName: "Васильева", FirstName: "Марина"},
			{ID: "s-ivan", LastName: "Марков", FirstName: "Иван"},
			{ID: "s-alina", LastName: "Петрова", FirstName: "Алина"},
			{ID: "s-miron", LastName: "Ким", FirstName: "Мирон"},
			{ID: "s-danil", LastName: "Ли", FirstName: "Данил"},
			{ID: "s-fedor", LastName: "Семёнов", FirstName: "Фёдор"},
		},
		Groups: []models.Group{
			{ID: "g-sun", Name: "Солнышко"},
			{ID: "g-rainbow-1", Name: "Радуга 1"},
			{ID: "g-rainbow-2", Name: "Радуга 2"},
			{ID: "g-mno", Name: "МНО 3-4 года"},
		},
	}
}

func TestResolveTeacherTiers(t *testing.T) {
	r := NewResolver(fixtureDirectory())

	cases := map[string]string{
		"Сейтова":          "t-aigul",
		"сейтова айгуль":   "t-aigul",
		"Иванова Ан":       "t-ivanova-a",
		"Айгуль Маратовна": "t-aigul",
		"Айгуль М.":        "t-aigul",
		"Болат":            "t-bolat",
		"Ахм":              "t-bolat",
		"Иванова Мария":    "t-ivanova-m",
	}
	for name, want := range cases {
		ref, fail := r.ResolveTeacher(TeacherColumn{Raw: name, Name: name})
		require.Nil(t, fail, name)
		assert.Equal(t, want, ref.ID, name)
	}
}

func TestResolveTeacherAmbiguousFailsClosed(t *testing.T) {
	r := NewResolver(fixtureDirectory())

	_, fail := r.ResolveTeacher(TeacherColumn{Raw: "Иванова каб.2", Name: "Иванова"})
	require.NotNil(t, fail)
	assert.Equal(t, ReasonAmbiguous, fail.Reason)
	assert.Equal(t, models.AliasKindTeacher, fail.Kind)
	assert.Equal(t, `ambiguous teacher: "Иванова каб.2"`, fail.Error())

	_, fail = r.ResolveTeacher(TeacherColumn{Raw: "Ержан", Name: "Ержан"})
	require.NotNil(t, fail)
	assert.Equal(t, ReasonNotFound, fail.Reason)
	assert.Equal(t, `teacher not found: "Ержан"`, fail.Error())
}

func TestResolveTeacherAlias(t *testing.T) {
	dir := fixtureDirectory()
	dir.Aliases = []models.NameAlias{{Alias: "Ержан", Kind: models.AliasKindTeacher, EntityID: "t-bauyrzhan"}}
	r := NewResolver(dir)

	ref, fail := r.ResolveTeacher(ParseTeacherHeader("Ержан"))
	require.Nil(t, fail)
	assert.Equal(t, "t-bauyrzhan", ref.ID)
	assert.Equal(t, "Касымов Бауыржан", ref.Label)
}

func TestResolveAliasBeatsFuzzyAndIgnoresStaleIDs(t *testing.T) {
	dir := fixtureDirectory()
	dir.Aliases = []models.NameAlias{
		{Alias: "Иванова", Kind: models.AliasKindTeacher, EntityID: "t-ivanova-m"},
		{Alias: "Болат", Kind: models.AliasKindTeacher, EntityID: "t-deleted"},
	}
	r := NewResolver(dir)

	ref, fail := r.ResolveTeacher(TeacherColumn{Raw: "Иванова", Name: "Иванова"})
	require.Nil(t, fail)
	assert.Equal(t, "t-ivanova-m", ref.ID)

	ref, fail = r.ResolveTeacher(TeacherColumn{Raw: "Болат", Name: "Болат"})
	require.Nil(t, fail)
	assert.Equal(t, "t-bolat", ref.ID)
}

func TestResolveStudentTiers(t *testing.T) {
	r := NewResolver(fixtureDirectory())

	cases := map[string]string{
		"Петрова Алина": "s-alina",
		"Алина Петрова": "s-alina",
		"Ибраев":        "s-asanali",
		"Асанали":       "s-asanali",
		"Петрова Ал":    "s-alina",
		"МаркВ":         "s-mark",
		"Асанали И":     "s-asanali",
		"Федор":         "s-fedor",
		"Мир":           "s-miron",
	}
	for name, want := range cases {
		ref, fail := r.ResolveStudent(name, name)
		require.Nil(t, fail, name)
		assert.Equal(t, want, ref.ID, name)
	}
}

func TestResolveStudentAmbiguousAbbreviation(t *testing.T) {
	r := NewResolver(fixtureDirectory())

	_, fail := r.ResolveStudent("МарВ", "МарВ")
	require.NotNil(t, fail)
	assert.Equal(t, ReasonAmbiguous, fail.Reason)

	_, fail = r.ResolveStudent("Зарина", "Зарина")
	require.NotNil(t, fail)
	assert.Equal(t, ReasonNotFound, fail.Reason)
	assert.Equal(t, `student not found: "Зарина"`, fail.Error())
}

func TestResolveStudentAliasByRawCell(t *testing.T) {
	dir := fixtureDirectory()
	dir.Aliases = []models.NameAlias{{Alias: "Зарина  дз", Kind: models.AliasKindStudent, EntityID: "s-alina"}}
	r := NewResolver(dir)

	ref, fail := r.ResolveStudent("Зарина дз", "Зарина")
	require.Nil(t, fail)
	assert.Equal(t, "s-alina", ref.ID)
}

func TestResolveGroup(t *testing.T) {
	r := NewResolver(fixtureDirectory())

	ref, fail := r.ResolveGroup("гр. солнышко", "солнышко")
	require.Nil(t, fail)
	assert.Equal(t, "g-sun", ref.ID)

	ref, fail = r.ResolveGroup("группа Радуга2", "Радуга2")
	require.Nil(t, fail)
	assert.Equal(t, "g-rainbow-2", ref.ID)

	ref, fail = r.ResolveGroup("МНО 3-4 года (утро)", "МНО 3-4 года (утро)")
	require.Nil(t, fail)
	assert.Equal(t, "g-mno", ref.ID)

	_, fail = r.ResolveGroup("гр. Радуга", "Радуга")
	require.NotNil(t, fail)
	assert.Equal(t, ReasonAmbiguous, fail.Reason)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "семенов федор", NormalizeName("  СЕМЁНОВ   Фёдор "))
	assert.Equal(t, "айгуль м", NormalizeName("Айгуль М."))
}

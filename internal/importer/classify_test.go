package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFixtures(t *testing.T) {
	cases := []struct {
		raw  string
		want Intent
	}{
		{raw: "---", want: SkipIntent{Reason: "filler"}},
		{raw: " – ", want: SkipIntent{Reason: "filler"}},
		{raw: "стажер", want: SkipIntent{Reason: "trainee"}},
		{raw: "Стажёр", want: SkipIntent{Reason: "trainee"}},
		{raw: "метод", want: MethodIntent{Category: CategoryMethod}},
		{raw: "Методический 2", want: MethodIntent{Category: CategoryMethod}},
		{raw: "метод 2--", want: SkipIntent{Reason: "cancelled"}},
		{raw: "сопр гр. Солнышко", want: SupportedGroupIntent{GroupName: "Солнышко", Category: CategorySupport}},
		{raw: "Сопровождение группа Радуга", want: SupportedGroupIntent{GroupName: "Радуга", Category: CategorySupport}},
		{raw: "гр. Солнышко", want: GroupIntent{GroupName: "Солнышко"}},
		{raw: "группа Радуга 2", want: GroupIntent{GroupName: "Радуга 2"}},
		{raw: "МНО 3-4 года", want: GroupIntent{GroupName: "МНО 3-4 года", Category: CategoryPreschool}},
		{raw: "АФК", want: GroupIntent{GroupName: "АФК", Category: CategoryAdaptivePE}},
		{raw: "Мирон+Данил", want: DualIntent{Names: []string{"Мирон", "Данил"}}},
		{raw: "Мирон+Данил-", want: SkipIntent{Reason: "cancelled"}},
		{raw: "Мирон+Данил- пн", want: SkipIntent{Reason: "cancelled"}},
		{raw: "Мирон+Данил- И", want: SkipIntent{Reason: "cancelled"}},
		{raw: "Мирон+Данил – И пн", want: SkipIntent{Reason: "cancelled"}},
		{raw: "Мирон + Данил А пн ср", want: DualIntent{Names: []string{"Мирон", "Данил"}, Category: CategoryAcademic, Weekdays: []int{1, 3}}},
		{raw: "Асанали И", want: IndividualIntent{Name: "Асанали", Category: CategoryIntensive}},
		{raw: "Алина пн-чт", want: IndividualIntent{Name: "Алина", Weekdays: []int{1, 2, 3, 4}}},
		{raw: "Алина пн - ср", want: IndividualIntent{Name: "Алина", Weekdays: []int{1, 2, 3}}},
		{raw: "Алина Тех пт", want: IndividualIntent{Name: "Алина", Category: CategoryTech, Weekdays: []int{5}}},
		{raw: "Алина Петрова дз", want: IndividualIntent{Name: "Алина Петрова", Category: CategoryHomework}},
		{raw: "Алина-", want: SkipIntent{Reason: "cancelled"}},
		{raw: "Алина А-", want: SkipIntent{Reason: "cancelled"}},
		{raw: "МаркВ", want: IndividualIntent{Name: "МаркВ"}},
		{raw: "Мнойя", want: IndividualIntent{Name: "Мнойя"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.raw), tc.raw)
	}
}

func TestClassifyKinds(t *testing.T) {
	assert.Equal(t, IntentDualStudent, Classify("Мирон+Данил").Kind())
	assert.Equal(t, IntentSkip, Classify("").Kind())
	assert.Equal(t, IntentGroup, Classify("гр Солнышко").Kind())
}

func TestParseWeekdayToken(t *testing.T) {
	days, ok := parseWeekdayToken("пн,ср")
	assert.True(t, ok)
	assert.Equal(t, []int{1, 3}, days)

	days, ok = parseWeekdayToken("вт/чт.")
	assert.True(t, ok)
	assert.Equal(t, []int{2, 4}, days)

	_, ok = parseWeekdayToken("пт-пн")
	assert.False(t, ok)
	_, ok = parseWeekdayToken("Алина")
	assert.False(t, ok)
}

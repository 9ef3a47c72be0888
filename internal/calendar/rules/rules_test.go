package rules

import (
	"testing"
	"time"

	"TradeCal/internal/domain/models"
)

func date(y int, m time.Month, d int) models.Date {
	return models.Date{Year: y, Month: m, Day: d}
}

func TestThirdFridayOfJune2020(t *testing.T) {
	rule := NthWeekdayOfMonth{Weekday: time.Friday, N: 3, Month: time.June, Name: "expiry"}
	occs := rule.Generate(date(2020, time.January, 1), date(2020, time.December, 31))
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Date.String() != "2020-06-19" {
		t.Fatalf("expected 2020-06-19, got %s", occs[0].Date)
	}
}

func TestNthWeekdayFromMonthEnd(t *testing.T) {
	// Last Monday of May 2021 is the 31st.
	rule := NthWeekdayOfMonth{Weekday: time.Monday, N: -1, Month: time.May, Name: "memorial"}
	occs := rule.Generate(date(2021, time.January, 1), date(2021, time.December, 31))
	if len(occs) != 1 || occs[0].Date.String() != "2021-05-31" {
		t.Fatalf("unexpected occurrences %v", occs)
	}
}

func TestNthWeekdayEveryMonth(t *testing.T) {
	rule := NthWeekdayOfMonth{Weekday: time.Friday, N: 3, Name: "expiry"}
	occs := rule.Generate(date(2020, time.January, 1), date(2020, time.December, 31))
	if len(occs) != 12 {
		t.Fatalf("expected 12 occurrences, got %d", len(occs))
	}
	for i := 1; i < len(occs); i++ {
		if !occs[i-1].Date.Before(occs[i].Date) {
			t.Fatalf("occurrences out of order at %d", i)
		}
	}
}

func TestFixedDateWindowing(t *testing.T) {
	rule := FixedDate{Date: date(2020, time.July, 4), Name: "fourth"}
	if occs := rule.Generate(date(2020, time.January, 1), date(2020, time.June, 30)); len(occs) != 0 {
		t.Fatalf("date outside range should not generate")
	}
	if occs := rule.Generate(date(2020, time.July, 4), date(2020, time.July, 4)); len(occs) != 1 {
		t.Fatalf("inclusive bounds broken")
	}
}

func TestWeekdayPeriodic(t *testing.T) {
	rule := WeekdayPeriodic{Weekday: time.Wednesday, Name: "settlement"}
	occs := rule.Generate(date(2024, time.January, 1), date(2024, time.January, 31))
	if len(occs) != 5 {
		t.Fatalf("January 2024 has 5 Wednesdays, got %d", len(occs))
	}
	for _, occ := range occs {
		if occ.Date.Weekday() != time.Wednesday {
			t.Fatalf("%s is not a Wednesday", occ.Date)
		}
	}

	bounded := WeekdayPeriodic{
		Weekday: time.Wednesday,
		Name:    "settlement",
		Start:   date(2024, time.January, 10),
		End:     date(2024, time.January, 20),
	}
	occs = bounded.Generate(date(2024, time.January, 1), date(2024, time.January, 31))
	if len(occs) != 2 {
		t.Fatalf("bounds not applied: %v", occs)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	rule := LastDayOfMonth{Name: "eom"}
	occs := rule.Generate(date(2020, time.January, 15), date(2020, time.March, 15))
	// Jan 31 and Feb 29 fall inside; Mar 31 is past the range end.
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
	if occs[1].Date.String() != "2020-02-29" {
		t.Fatalf("leap year end of February wrong: %s", occs[1].Date)
	}
}

func TestEasterOffset(t *testing.T) {
	// Easter Sunday 2020 was April 12; Good Friday April 10.
	rule := EasterOffset{Days: -2, Name: "Good Friday"}
	occs := rule.Generate(date(2020, time.January, 1), date(2020, time.December, 31))
	if len(occs) != 1 || occs[0].Date.String() != "2020-04-10" {
		t.Fatalf("unexpected Good Friday %v", occs)
	}
}

func TestObservance(t *testing.T) {
	toMonday := func(d models.Date) models.Date {
		if d.Weekday() == time.Saturday {
			return d.AddDays(2)
		}
		if d.Weekday() == time.Sunday {
			return d.AddDays(1)
		}
		return d
	}
	// Last day of May 2020 is Sunday the 31st; observed Monday June 1.
	rule := LastDayOfMonth{Month: time.May, Observance: toMonday, Name: "eom"}
	occs := rule.Generate(date(2020, time.May, 1), date(2020, time.June, 30))
	if len(occs) != 1 || occs[0].Date.String() != "2020-06-01" {
		t.Fatalf("observance not applied: %v", occs)
	}
}

func TestGenerationIsPure(t *testing.T) {
	rule := NthWeekdayOfMonth{Weekday: time.Friday, N: 3, Name: "expiry"}
	start, end := date(2020, time.January, 1), date(2020, time.December, 31)
	first := rule.Generate(start, end)
	second := rule.Generate(start, end)
	if len(first) != len(second) {
		t.Fatalf("rule is not restartable")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rule output changed between runs at %d", i)
		}
	}
}

func TestAnnualDate(t *testing.T) {
	rule := AnnualDate{Month: time.July, Day: 4, Name: "fourth"}
	occs := rule.Generate(date(2020, time.January, 1), date(2022, time.December, 31))
	if len(occs) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occs))
	}
	for i, want := range []string{"2020-07-04", "2021-07-04", "2022-07-04"} {
		if occs[i].Date.String() != want {
			t.Fatalf("occurrence %d: expected %s, got %s", i, want, occs[i].Date)
		}
	}
}

func TestAnnualDateNearestWeekday(t *testing.T) {
	// July 4 fell on Saturday in 2020 and Sunday in 2021.
	rule := AnnualDate{Month: time.July, Day: 4, Name: "fourth", Observance: NearestWeekday}
	occs := rule.Generate(date(2020, time.January, 1), date(2022, time.December, 31))
	if len(occs) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occs))
	}
	for i, want := range []string{"2020-07-03", "2021-07-05", "2022-07-04"} {
		if occs[i].Date.String() != want {
			t.Fatalf("occurrence %d: expected %s, got %s", i, want, occs[i].Date)
		}
	}
}

func TestAnnualDateObservedOutsideRange(t *testing.T) {
	// January 1 2022 is a Saturday, observed December 31 2021. A range
	// starting on the nominal date no longer contains the observed one.
	rule := AnnualDate{Month: time.January, Day: 1, Name: "new year", Observance: NearestWeekday}
	if occs := rule.Generate(date(2022, time.January, 1), date(2022, time.June, 30)); len(occs) != 0 {
		t.Fatalf("observed date outside range should not generate, got %v", occs)
	}
	occs := rule.Generate(date(2021, time.December, 1), date(2022, time.June, 30))
	if len(occs) != 1 || occs[0].Date.String() != "2021-12-31" {
		t.Fatalf("expected observed 2021-12-31, got %v", occs)
	}
}

func TestSundayToMonday(t *testing.T) {
	// January 1 2023 is a Sunday.
	if got := SundayToMonday(date(2023, time.January, 1)); got.String() != "2023-01-02" {
		t.Fatalf("expected 2023-01-02, got %s", got)
	}
	// Saturdays stay put.
	if got := SundayToMonday(date(2022, time.January, 1)); got.String() != "2022-01-01" {
		t.Fatalf("expected 2022-01-01, got %s", got)
	}
}

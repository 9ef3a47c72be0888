package derived

import (
	"testing"
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
)

func date(y int, m time.Month, d int) models.Date {
	return models.Date{Year: y, Month: m, Day: d}
}

func tod(t *testing.T, s string) models.TimeOfDay {
	t.Helper()
	v, err := models.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return v
}

func testDefinition(t *testing.T) Definition {
	t.Helper()
	return Definition{
		Key:  "TEST",
		Name: "Test Exchange",
		Holidays: rules.Set{
			rules.FixedDate{Date: date(2020, time.January, 1), Name: "New Year's Day"},
			rules.EasterOffset{Days: -2, Name: "Good Friday"},
			rules.FixedDate{Date: date(2020, time.December, 25), Name: "Christmas Day"},
		},
		SpecialOpens: []SessionGroup{{
			Time:  tod(t, "11:00"),
			Rules: rules.Set{rules.FixedDate{Date: date(2020, time.January, 2), Name: "Late Open"}},
		}},
		SpecialCloses: []SessionGroup{{
			Time:  tod(t, "12:30"),
			Rules: rules.Set{rules.FixedDate{Date: date(2020, time.December, 24), Name: "Christmas Eve"}},
		}},
		Weekmask: weekmask.MonFri,
	}
}

func mustBuild(t *testing.T, def Definition, cs *changeset.ChangeSet) *Calendar {
	t.Helper()
	cal, err := Build(def, cs, date(2020, time.January, 1), date(2020, time.December, 31))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return cal
}

func addSpec(t *testing.T, cs *changeset.ChangeSet, d models.Date, dt models.DayType, name string, tm *models.TimeOfDay) {
	t.Helper()
	spec, err := models.NewDaySpec(d, dt, name, tm)
	if err != nil {
		t.Fatalf("new day spec: %v", err)
	}
	if err := cs.Add(spec, false); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestBuildBaseCalendar(t *testing.T) {
	cal := mustBuild(t, testDefinition(t), nil)

	for _, h := range []struct {
		date models.Date
		name string
	}{
		{date(2020, time.January, 1), "New Year's Day"},
		{date(2020, time.April, 10), "Good Friday"},
		{date(2020, time.December, 25), "Christmas Day"},
	} {
		if got := cal.HolidaysAll[h.date]; got != h.name {
			t.Fatalf("holiday %s: got %q, want %q", h.date, got, h.name)
		}
	}
	if len(cal.HolidaysAll) != 3 {
		t.Fatalf("expected 3 holidays, got %d", len(cal.HolidaysAll))
	}

	open, ok := cal.SpecialOpensAll[date(2020, time.January, 2)]
	if !ok || open.Name != "Late Open" || open.Time != tod(t, "11:00") {
		t.Fatalf("special open: %+v %v", open, ok)
	}
	cls, ok := cal.SpecialClosesAll[date(2020, time.December, 24)]
	if !ok || cls.Name != "Christmas Eve" || cls.Time != tod(t, "12:30") {
		t.Fatalf("special close: %+v %v", cls, ok)
	}

	// Third Fridays of the quarter months, none of which collide in 2020.
	wantQuarterly := []models.Date{
		date(2020, time.March, 20),
		date(2020, time.June, 19),
		date(2020, time.September, 18),
		date(2020, time.December, 18),
	}
	if len(cal.QuarterlyExpiries) != len(wantQuarterly) {
		t.Fatalf("quarterly expiries: %v", cal.QuarterlyExpiries)
	}
	for _, d := range wantQuarterly {
		if _, ok := cal.QuarterlyExpiries[d]; !ok {
			t.Fatalf("missing quarterly expiry %s", d)
		}
	}
	if len(cal.MonthlyExpiries) != 8 {
		t.Fatalf("expected 8 monthly expiries, got %v", cal.MonthlyExpiries)
	}
	if _, ok := cal.MonthlyExpiries[date(2020, time.January, 17)]; !ok {
		t.Fatalf("missing january monthly expiry")
	}

	if got := cal.WeekendDays; len(got) != 2 || got[0] != time.Saturday || got[1] != time.Sunday {
		t.Fatalf("weekend days: %v", got)
	}
}

func TestBuildAppliesOverrides(t *testing.T) {
	cs := changeset.New()
	addSpec(t, cs, date(2020, time.July, 3), models.DayTypeHoliday, "Independence Day observed", nil)
	if err := cs.Remove(date(2020, time.December, 25), false); err != nil {
		t.Fatalf("remove: %v", err)
	}

	cal := mustBuild(t, testDefinition(t), cs)

	if name := cal.HolidaysAll[date(2020, time.July, 3)]; name != "Independence Day observed" {
		t.Fatalf("added holiday missing: %v", cal.HolidaysAll)
	}
	if _, ok := cal.HolidaysAll[date(2020, time.December, 25)]; ok {
		t.Fatalf("removed holiday still present")
	}
}

// Adding a date under one day type strips it from every other calendar,
// so a holiday added on the special-close date replaces the session.
func TestBuildAddRelocatesAcrossCalendars(t *testing.T) {
	cs := changeset.New()
	addSpec(t, cs, date(2020, time.December, 24), models.DayTypeHoliday, "Extended Christmas", nil)

	cal := mustBuild(t, testDefinition(t), cs)

	if _, ok := cal.SpecialClosesAll[date(2020, time.December, 24)]; ok {
		t.Fatalf("special close should be displaced by the added holiday")
	}
	if name := cal.HolidaysAll[date(2020, time.December, 24)]; name != "Extended Christmas" {
		t.Fatalf("holiday not applied: %v", cal.HolidaysAll)
	}
}

// A base holiday landing on a quarterly expiry date pushes the expiry to
// the previous trading day.
func TestBuildExpiryDodgesHoliday(t *testing.T) {
	def := testDefinition(t)
	def.Holidays = append(def.Holidays,
		rules.FixedDate{Date: date(2020, time.June, 19), Name: "Juneteenth"})

	cal := mustBuild(t, def, nil)

	if _, ok := cal.QuarterlyExpiries[date(2020, time.June, 19)]; ok {
		t.Fatalf("quarterly expiry must not sit on a holiday")
	}
	if _, ok := cal.QuarterlyExpiries[date(2020, time.June, 18)]; !ok {
		t.Fatalf("quarterly expiry should roll to the 18th: %v", cal.QuarterlyExpiries)
	}
}

// A changeset-added holiday on the expiry date instead displaces the base
// occurrence outright: the added day is stripped from every other
// calendar during normalization.
func TestBuildAddedHolidayDisplacesExpiry(t *testing.T) {
	cs := changeset.New()
	addSpec(t, cs, date(2020, time.June, 19), models.DayTypeHoliday, "Juneteenth", nil)

	cal := mustBuild(t, testDefinition(t), cs)

	if _, ok := cal.QuarterlyExpiries[date(2020, time.June, 19)]; ok {
		t.Fatalf("quarterly expiry must be displaced by the added holiday")
	}
	if name := cal.HolidaysAll[date(2020, time.June, 19)]; name != "Juneteenth" {
		t.Fatalf("added holiday missing: %v", cal.HolidaysAll)
	}
	if len(cal.QuarterlyExpiries) != 3 {
		t.Fatalf("expected 3 remaining quarterly expiries, got %v", cal.QuarterlyExpiries)
	}
}

// An expiry added as monthly on a quarterly date takes that date over:
// normalization removes the base quarterly occurrence outright.
func TestBuildAddedMonthlyDisplacesQuarterly(t *testing.T) {
	cs := changeset.New()
	addSpec(t, cs, date(2020, time.June, 19), models.DayTypeMonthlyExpiry, "june monthly", nil)

	cal := mustBuild(t, testDefinition(t), cs)

	if _, ok := cal.QuarterlyExpiries[date(2020, time.June, 19)]; ok {
		t.Fatalf("base quarterly expiry should be removed")
	}
	if name := cal.MonthlyExpiries[date(2020, time.June, 19)]; name != "june monthly" {
		t.Fatalf("added monthly expiry missing: %v", cal.MonthlyExpiries)
	}
	if len(cal.QuarterlyExpiries) != 3 {
		t.Fatalf("expected 3 remaining quarterly expiries, got %v", cal.QuarterlyExpiries)
	}
}

func TestBuildLastTradingDays(t *testing.T) {
	cal := mustBuild(t, testDefinition(t), nil)

	// 2020-05-31 is a Sunday: both derived days land on Friday the 29th.
	if _, ok := cal.LastTradingDaysOfMonths[date(2020, time.May, 29)]; !ok {
		t.Fatalf("may last trading day: %v", cal.LastTradingDaysOfMonths)
	}
	// 2020-12-31 is a Thursday with no holiday on it.
	if _, ok := cal.LastTradingDaysOfMonths[date(2020, time.December, 31)]; !ok {
		t.Fatalf("december last trading day: %v", cal.LastTradingDaysOfMonths)
	}
	if len(cal.LastTradingDaysOfMonths) != 12 {
		t.Fatalf("expected 12 last trading days, got %d", len(cal.LastTradingDaysOfMonths))
	}
}

// Last trading days only dodge holidays; last regular trading days dodge
// special sessions as well.
func TestBuildLastRegularTradingDays(t *testing.T) {
	tm := tod(t, "12:30")
	cs := changeset.New()
	addSpec(t, cs, date(2020, time.May, 29), models.DayTypeSpecialClose, "early close", &tm)

	cal := mustBuild(t, testDefinition(t), cs)

	if _, ok := cal.LastTradingDaysOfMonths[date(2020, time.May, 29)]; !ok {
		t.Fatalf("last trading day should ignore the special close")
	}
	if _, ok := cal.LastRegularTradingDaysOfMonths[date(2020, time.May, 29)]; ok {
		t.Fatalf("last regular trading day must dodge the special close")
	}
	if _, ok := cal.LastRegularTradingDaysOfMonths[date(2020, time.May, 28)]; !ok {
		t.Fatalf("last regular trading day should roll to the 28th: %v", cal.LastRegularTradingDaysOfMonths)
	}
}

func TestCalendarIsTradingDay(t *testing.T) {
	cal := mustBuild(t, testDefinition(t), nil)

	cases := []struct {
		date models.Date
		want bool
	}{
		{date(2020, time.January, 1), false}, // holiday
		{date(2020, time.January, 3), true},  // plain Friday
		{date(2020, time.January, 4), false}, // Saturday
	}
	for _, c := range cases {
		got, err := cal.IsTradingDay(c.date)
		if err != nil {
			t.Fatalf("is trading day %s: %v", c.date, err)
		}
		if got != c.want {
			t.Fatalf("is trading day %s: got %v, want %v", c.date, got, c.want)
		}
	}
}

func TestCalendarAccessors(t *testing.T) {
	cal := mustBuild(t, testDefinition(t), nil)

	hols := cal.Holidays(date(2020, time.January, 1), date(2020, time.June, 30))
	if len(hols) != 2 {
		t.Fatalf("expected 2 holidays in range, got %v", hols)
	}
	if hols[0].Date != date(2020, time.January, 1) || hols[1].Date != date(2020, time.April, 10) {
		t.Fatalf("holidays not sorted: %v", hols)
	}
	if hols[0].Type != models.DayTypeHoliday {
		t.Fatalf("wrong day type: %v", hols[0].Type)
	}

	exps := cal.Expiries(date(2020, time.January, 1), date(2020, time.March, 31))
	if len(exps) != 3 {
		t.Fatalf("expected 3 expiries in q1, got %v", exps)
	}
	for i := 1; i < len(exps); i++ {
		if exps[i].Date.Before(exps[i-1].Date) {
			t.Fatalf("expiries not sorted: %v", exps)
		}
	}
	if exps[2].Date != date(2020, time.March, 20) || exps[2].Type != models.DayTypeQuarterlyExpiry {
		t.Fatalf("march expiry: %+v", exps[2])
	}
}

func TestBuildMidMonthWindow(t *testing.T) {
	// The June 2020 quarterly expiry (Friday the 19th) is a holiday, and
	// so is Thursday the 18th, which sits just outside the query window.
	// The expiry must roll past both even though the 18th is only visible
	// in the month-wide working window, and the materialized mappings must
	// still be cut back to the query range.
	def := Definition{
		Key:  "TEST",
		Name: "Test Exchange",
		Holidays: rules.Set{
			rules.FixedDate{Date: date(2020, time.June, 18), Name: "Bridge Day"},
			rules.FixedDate{Date: date(2020, time.June, 19), Name: "Juneteenth"},
		},
		Weekmask: weekmask.MonFri,
	}

	cal, err := Build(def, nil, date(2020, time.June, 19), date(2020, time.June, 30))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := cal.HolidaysAll[date(2020, time.June, 18)]; ok {
		t.Fatalf("holiday outside the window leaked into the result: %v", cal.HolidaysAll)
	}
	if _, ok := cal.HolidaysAll[date(2020, time.June, 19)]; !ok {
		t.Fatalf("in-window holiday missing: %v", cal.HolidaysAll)
	}
	for d := range cal.QuarterlyExpiries {
		if _, holiday := def.Holidays.Holidays(date(2020, time.June, 1), date(2020, time.June, 30))[d]; holiday {
			t.Fatalf("expiry landed on a holiday: %s", d)
		}
		if d.Before(date(2020, time.June, 19)) || d.After(date(2020, time.June, 30)) {
			t.Fatalf("expiry outside the window: %s", d)
		}
	}
}

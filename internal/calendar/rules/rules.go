// Package rules models date-generating holiday rules: fixed dates,
// periodic weekdays, "Nth weekday of month", "last day of month" and
// Easter-anchored days. Rules are pure functions over a date range, so the
// conflict resolver can re-evaluate them as often as it needs to.
package rules

import (
	"time"

	"TradeCal/internal/domain/models"
)

// Occurrence is one concrete (date, name) pair produced by a rule.
type Occurrence struct {
	Date models.Date
	Name string
}

// Observance shifts a generated date, e.g. "nearest weekday". Applied
// before conflict resolution ever sees the date.
type Observance func(models.Date) models.Date

// NearestWeekday moves Saturday dates back to Friday and Sunday dates
// forward to Monday.
func NearestWeekday(d models.Date) models.Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(1)
	}
	return d
}

// SundayToMonday moves Sunday dates forward to Monday.
func SundayToMonday(d models.Date) models.Date {
	if d.Weekday() == time.Sunday {
		return d.AddDays(1)
	}
	return d
}

// Rule generates the finite set of occurrences inside [start, end],
// ordered by date. Implementations hold no hidden state.
type Rule interface {
	RuleName() string
	Generate(start, end models.Date) []Occurrence
}

// FixedDate fires on exactly one calendar date.
type FixedDate struct {
	Date models.Date
	Name string
}

func (r FixedDate) RuleName() string { return r.Name }

func (r FixedDate) Generate(start, end models.Date) []Occurrence {
	if r.Date.Before(start) || r.Date.After(end) {
		return nil
	}
	return []Occurrence{{Date: r.Date, Name: r.Name}}
}

// AnnualDate fires on the same month and day every year.
type AnnualDate struct {
	Month      time.Month
	Day        int
	Name       string
	Observance Observance
}

func (r AnnualDate) RuleName() string { return r.Name }

func (r AnnualDate) Generate(start, end models.Date) []Occurrence {
	if end.Before(start) {
		return nil
	}
	var out []Occurrence
	for year := start.Year; year <= end.Year; year++ {
		date := models.Date{Year: year, Month: r.Month, Day: r.Day}
		if r.Observance != nil {
			date = r.Observance(date)
		}
		if !date.Before(start) && !date.After(end) {
			out = append(out, Occurrence{Date: date, Name: r.Name})
		}
	}
	return out
}

// WeekdayPeriodic fires on every occurrence of a weekday, optionally
// bounded by [Start, End] (zero Date means unbounded on that side).
type WeekdayPeriodic struct {
	Weekday time.Weekday
	Name    string
	Start   models.Date
	End     models.Date
}

func (r WeekdayPeriodic) RuleName() string { return r.Name }

func (r WeekdayPeriodic) Generate(start, end models.Date) []Occurrence {
	if !r.Start.IsZero() && start.Before(r.Start) {
		start = r.Start
	}
	if !r.End.IsZero() && end.After(r.End) {
		end = r.End
	}
	if end.Before(start) {
		return nil
	}
	// Advance to the first matching weekday.
	offset := (int(r.Weekday) - int(start.Weekday()) + 7) % 7
	var out []Occurrence
	for d := start.AddDays(offset); !d.After(end); d = d.AddDays(7) {
		out = append(out, Occurrence{Date: d, Name: r.Name})
	}
	return out
}

// NthWeekdayOfMonth fires on the Nth occurrence of a weekday per month.
// Negative N counts from the end of the month (-1 = last). Month zero
// means every month.
type NthWeekdayOfMonth struct {
	Weekday    time.Weekday
	N          int
	Month      time.Month
	Name       string
	Observance Observance
}

func (r NthWeekdayOfMonth) RuleName() string { return r.Name }

func (r NthWeekdayOfMonth) Generate(start, end models.Date) []Occurrence {
	if r.N == 0 {
		return nil
	}
	var out []Occurrence
	forEachMonth(start, end, r.Month, func(year int, month time.Month) {
		date, ok := nthWeekday(year, month, r.Weekday, r.N)
		if !ok {
			return
		}
		if r.Observance != nil {
			date = r.Observance(date)
		}
		if !date.Before(start) && !date.After(end) {
			out = append(out, Occurrence{Date: date, Name: r.Name})
		}
	})
	return out
}

// LastDayOfMonth fires on the final calendar day of each month. Month
// zero means every month.
type LastDayOfMonth struct {
	Month      time.Month
	Name       string
	Observance Observance
}

func (r LastDayOfMonth) RuleName() string { return r.Name }

func (r LastDayOfMonth) Generate(start, end models.Date) []Occurrence {
	var out []Occurrence
	forEachMonth(start, end, r.Month, func(year int, month time.Month) {
		date := models.Date{Year: year, Month: month, Day: 1}.MonthEnd()
		if r.Observance != nil {
			date = r.Observance(date)
		}
		if !date.Before(start) && !date.After(end) {
			out = append(out, Occurrence{Date: date, Name: r.Name})
		}
	})
	return out
}

// EasterOffset fires a fixed number of days away from Easter Sunday
// (Good Friday is -2, Easter Monday +1, Whit Monday +50).
type EasterOffset struct {
	Days int
	Name string
}

func (r EasterOffset) RuleName() string { return r.Name }

func (r EasterOffset) Generate(start, end models.Date) []Occurrence {
	var out []Occurrence
	for year := start.Year; year <= end.Year; year++ {
		date := easterSunday(year).AddDays(r.Days)
		if !date.Before(start) && !date.After(end) {
			out = append(out, Occurrence{Date: date, Name: r.Name})
		}
	}
	return out
}

// forEachMonth visits every (year, month) whose calendar days can
// intersect [start, end]. Observance shifts stay inside the month's
// neighborhood, so visiting the range's own months suffices.
func forEachMonth(start, end models.Date, only time.Month, visit func(year int, month time.Month)) {
	if end.Before(start) {
		return
	}
	y, m := start.Year, start.Month
	for {
		if only == 0 || m == only {
			visit(y, m)
		}
		if y == end.Year && m == end.Month {
			return
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
}

// nthWeekday computes the date of the nth weekday in the given month, or
// false if the month has no such occurrence.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) (models.Date, bool) {
	first := models.Date{Year: year, Month: month, Day: 1}
	last := first.MonthEnd()
	if n > 0 {
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + 7*(n-1)
		if day > last.Day {
			return models.Date{}, false
		}
		return models.Date{Year: year, Month: month, Day: day}, true
	}
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	day := last.Day - offset - 7*(-n-1)
	if day < 1 {
		return models.Date{}, false
	}
	return models.Date{Year: year, Month: month, Day: day}, true
}

// easterSunday implements the Meeus/Jones/Butcher Gregorian algorithm.
func easterSunday(year int) models.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return models.Date{Year: year, Month: time.Month(month), Day: day}
}

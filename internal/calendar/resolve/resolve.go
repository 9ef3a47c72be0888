// Package resolve places derived holiday occurrences onto free days,
// rolling conflicting dates forward or backward until they no longer
// collide with another calendar, a non-trading weekday or an occurrence
// already placed from the same pool.
package resolve

import (
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
)

// RollFn proposes a replacement for a conflicting date. The second result
// is false when the occurrence should be dropped instead of moved.
type RollFn func(models.Date) (models.Date, bool)

// RollBackward shifts one day back, dropping the occurrence rather than
// letting it leave its month. Callers rely on the month boundary: it
// bounds iteration and decides when a holiday disappears instead of
// migrating into an adjacent month.
func RollBackward(d models.Date) (models.Date, bool) {
	if d.Day == 1 {
		return models.Date{}, false
	}
	return d.AddDays(-1), true
}

// RollForward shifts one day ahead, dropping at the month boundary.
func RollForward(d models.Date) (models.Date, bool) {
	if d == d.MonthEnd() {
		return models.Date{}, false
	}
	return d.AddDays(1), true
}

// DateSet is a membership test over already-resolved dates to avoid.
type DateSet map[models.Date]struct{}

// NewDateSet collects dates into a set.
func NewDateSet(dates ...models.Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts dates into the set.
func (s DateSet) Add(dates ...models.Date) {
	for _, d := range dates {
		s[d] = struct{}{}
	}
}

// Contains reports membership.
func (s DateSet) Contains(d models.Date) bool {
	_, ok := s[d]
	return ok
}

// Union returns a new set holding both sides.
func (s DateSet) Union(other DateSet) DateSet {
	out := make(DateSet, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

// Resolve places every occurrence of ruleSet over [start, end] and
// returns the final date → name mapping.
//
// Rule position encodes precedence, and resolution is order-dependent:
// occurrences are placed starting from the LAST-declared rule, so an
// earlier-declared occurrence only ever collides with the FINAL positions
// of later-declared ones, never their original dates. Two rules declared
// on the same date therefore resolve with the later rule keeping the date
// and the earlier one rolling off it. Each roll iteration re-reads the
// weekmask period covering the current candidate, so rolls cross period
// boundaries without special-casing. Resolution runs over a working
// window widened to whole months (a roll never leaves its month) and only
// the returned mapping is cut back to [start, end], so a holiday that
// rolls in from outside the query range is still resolved correctly.
func Resolve(ruleSet rules.Set, other DateSet, periods weekmask.Periods, roll RollFn, start, end models.Date) (map[models.Date]string, error) {
	if end.Before(start) {
		return map[models.Date]string{}, nil
	}
	workStart := start.MonthStart()
	workEnd := end.MonthEnd()

	placed := make(DateSet)
	names := make(map[models.Date]string)

	occs := ruleSet.Occurrences(workStart, workEnd)
	for i := len(occs) - 1; i >= 0; i-- {
		occ := occs[i]
		date := occ.Date
		if date.Before(workStart) || date.After(workEnd) {
			return nil, models.Faultf("rule %q produced %s outside [%s, %s]", occ.Name, date, workStart, workEnd)
		}

		dropped := false
		for {
			conflict, err := conflicts(date, other, placed, periods)
			if err != nil {
				return nil, err
			}
			if !conflict {
				break
			}
			next, ok := roll(date)
			if !ok {
				dropped = true
				break
			}
			date = next
		}
		if dropped {
			continue
		}
		placed.Add(date)
		names[date] = occ.Name
	}

	out := make(map[models.Date]string, len(names))
	for date, name := range names {
		if !date.Before(start) && !date.After(end) {
			out[date] = name
		}
	}
	return out, nil
}

func conflicts(date models.Date, other DateSet, placed DateSet, periods weekmask.Periods) (bool, error) {
	if other.Contains(date) || placed.Contains(date) {
		return true, nil
	}
	trading, err := periods.IsTradingDay(date)
	if err != nil {
		return false, err
	}
	return !trading, nil
}

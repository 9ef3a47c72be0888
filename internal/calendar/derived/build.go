package derived

import (
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/calendar/resolve"
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
)

var quarterlyMonths = []time.Month{time.March, time.June, time.September, time.December}

// Build produces the resolved Calendar for def over [start, end], with the
// changeset's pending overrides merged in first. A nil changeset applies
// no overrides.
//
// Pipeline: normalize the changeset → strip removed dates from the base
// rule sets and splice the added ones in (override rules listed first, so
// they win duplicated dates) → derive the expiry and last-trading-day rule
// sets → resolve each derived set against the union of holidays, special
// sessions and non-trading weekdays, rolling backward.
func Build(def Definition, cs *changeset.ChangeSet, start, end models.Date) (*Calendar, error) {
	if cs == nil {
		cs = changeset.New()
	}
	cs = cs.Normalize(false)
	removed := cs.Removals()
	byType := cs.ByType()

	periods, err := weekmask.Resolve(def.Weekmask, def.SpecialWeekmasks)
	if err != nil {
		return nil, err
	}

	// Resolution rolls inside a window widened to whole months, so the
	// conflict sets are materialized over that wider window too. A roll
	// near the range edge must still see occupied dates the narrow view
	// would miss. Only the clipped mappings are returned to the caller.
	workStart, workEnd := start.MonthStart(), end.MonthEnd()

	// Holidays: overrides ahead of the stripped base set.
	holidayRules := rules.Merge(
		fixedRules(byType[models.DayTypeHoliday]),
		rules.Exclude(def.Holidays, removed),
	)
	holidaysWide := holidayRules.Holidays(workStart, workEnd)

	specialOpensWide := buildSessions(def.SpecialOpens, byType[models.DayTypeSpecialOpen], removed, workStart, workEnd)
	specialClosesWide := buildSessions(def.SpecialCloses, byType[models.DayTypeSpecialClose], removed, workStart, workEnd)

	// Union of everything a derived date must avoid; weekends come from
	// the weekmask periods inside the resolver.
	avoid := dateKeys(holidaysWide).Union(dateKeys(specialOpensWide)).Union(dateKeys(specialClosesWide))

	quarterlySet := rules.Merge(
		fixedRules(byType[models.DayTypeQuarterlyExpiry]),
		rules.Exclude(quarterlyExpiryRules(), removed),
	)
	quarterly, err := resolve.Resolve(quarterlySet, avoid, periods, resolve.RollBackward, start, end)
	if err != nil {
		return nil, err
	}

	// Monthly expiries dodge the quarterly finals too: derived rules can
	// conflict with each other, not just with the fixed calendars.
	monthlyAvoid := avoid.Union(dateKeys(quarterly))
	monthlySet := rules.Merge(
		fixedRules(byType[models.DayTypeMonthlyExpiry]),
		rules.Exclude(monthlyExpiryRules(), removed),
	)
	monthly, err := resolve.Resolve(monthlySet, monthlyAvoid, periods, resolve.RollBackward, start, end)
	if err != nil {
		return nil, err
	}

	lastDays, err := resolve.Resolve(
		rules.Set{rules.LastDayOfMonth{Name: "last trading day of month"}},
		dateKeys(holidaysWide), periods, resolve.RollBackward, start, end)
	if err != nil {
		return nil, err
	}

	lastRegularDays, err := resolve.Resolve(
		rules.Set{rules.LastDayOfMonth{Name: "last regular trading day of month"}},
		avoid, periods, resolve.RollBackward, start, end)
	if err != nil {
		return nil, err
	}

	return &Calendar{
		Key:                            def.Key,
		Name:                           def.Name,
		Start:                          start,
		End:                            end,
		HolidaysAll:                    clip(holidaysWide, start, end),
		SpecialOpensAll:                clip(specialOpensWide, start, end),
		SpecialClosesAll:               clip(specialClosesWide, start, end),
		MonthlyExpiries:                monthly,
		QuarterlyExpiries:              quarterly,
		LastTradingDaysOfMonths:        lastDays,
		LastRegularTradingDaysOfMonths: lastRegularDays,
		WeekendDays:                    def.Weekmask.WeekendDays(),
		Periods:                        periods,
	}, nil
}

func isQuarterlyMonth(m time.Month) bool {
	for _, q := range quarterlyMonths {
		if m == q {
			return true
		}
	}
	return false
}

// quarterlyExpiryRules derives quarterly expiry days: the third Friday of
// March, June, September and December.
func quarterlyExpiryRules() rules.Set {
	out := make(rules.Set, 0, len(quarterlyMonths))
	for _, m := range quarterlyMonths {
		out = append(out, rules.NthWeekdayOfMonth{
			Weekday: time.Friday,
			N:       3,
			Month:   m,
			Name:    "quarterly expiry",
		})
	}
	return out
}

// monthlyExpiryRules derives monthly expiry days: the third Friday of
// every non-quarterly month.
func monthlyExpiryRules() rules.Set {
	var out rules.Set
	for m := time.January; m <= time.December; m++ {
		if isQuarterlyMonth(m) {
			continue
		}
		out = append(out, rules.NthWeekdayOfMonth{
			Weekday: time.Friday,
			N:       3,
			Month:   m,
			Name:    "monthly expiry",
		})
	}
	return out
}

// fixedRules turns changeset additions into fixed-date rules.
func fixedRules(specs []models.DaySpec) rules.Set {
	out := make(rules.Set, 0, len(specs))
	for _, spec := range specs {
		out = append(out, rules.FixedDate{Date: spec.Date, Name: spec.Name})
	}
	return out
}

// buildSessions materializes one side's special sessions: base groups
// minus removed dates, then override additions on top (an added date
// replaces whatever the base generated for it).
func buildSessions(groups []SessionGroup, added []models.DaySpec, removed []models.Date, start, end models.Date) map[models.Date]Session {
	out := make(map[models.Date]Session)
	for _, g := range groups {
		for date, name := range rules.Exclude(g.Rules, removed).Holidays(start, end) {
			if _, taken := out[date]; taken {
				continue
			}
			out[date] = Session{Name: name, Time: g.Time}
		}
	}
	for _, spec := range added {
		if spec.Date.Before(start) || spec.Date.After(end) || spec.Time == nil {
			continue
		}
		out[spec.Date] = Session{Name: spec.Name, Time: *spec.Time}
	}
	return out
}

// clip cuts a date-keyed mapping back to [start, end].
func clip[V any](m map[models.Date]V, start, end models.Date) map[models.Date]V {
	out := make(map[models.Date]V, len(m))
	for date, v := range m {
		if date.Before(start) || date.After(end) {
			continue
		}
		out[date] = v
	}
	return out
}

// dateKeys projects a date-keyed mapping onto a DateSet.
func dateKeys[V any](m map[models.Date]V) resolve.DateSet {
	s := make(resolve.DateSet, len(m))
	for date := range m {
		s.Add(date)
	}
	return s
}

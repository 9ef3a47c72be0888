// Package derived assembles extended calendars: a base exchange calendar
// merged with its pending overrides, plus the derived expiry and
// last-trading-day calendars resolved so they never collide with
// holidays, special sessions or non-trading weekdays.
package derived

import (
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
)

// SessionGroup is one special-session calendar of the base definition:
// every date its rules generate opens (or closes) at Time.
type SessionGroup struct {
	Time  models.TimeOfDay
	Rules rules.Set
}

// Definition is the raw calendar data for one exchange, as handed over by
// the registry: holiday rules, special sessions, and the possibly
// time-varying weekmask.
type Definition struct {
	Key              string
	Name             string
	Holidays         rules.Set
	SpecialOpens     []SessionGroup
	SpecialCloses    []SessionGroup
	Weekmask         weekmask.Weekmask
	SpecialWeekmasks []weekmask.Period
}

// Session is one resolved special session: its name and time of day.
type Session struct {
	Name string           `json:"name"`
	Time models.TimeOfDay `json:"time"`
}

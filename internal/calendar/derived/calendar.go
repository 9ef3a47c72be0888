package derived

import (
	"sort"
	"time"

	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
)

// Calendar is the resolved, immutable calendar for one exchange over a
// build window: the base data with overrides applied, plus every derived
// date set. It composes the base calendar's raw data with the derived
// fields instead of extending a foreign calendar type.
type Calendar struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`

	HolidaysAll      map[models.Date]string  `json:"holidays_all"`
	SpecialOpensAll  map[models.Date]Session `json:"special_opens_all"`
	SpecialClosesAll map[models.Date]Session `json:"special_closes_all"`

	MonthlyExpiries   map[models.Date]string `json:"monthly_expiries"`
	QuarterlyExpiries map[models.Date]string `json:"quarterly_expiries"`

	LastTradingDaysOfMonths        map[models.Date]string `json:"last_trading_days_of_months"`
	LastRegularTradingDaysOfMonths map[models.Date]string `json:"last_regular_trading_days_of_months"`

	WeekendDays []time.Weekday   `json:"weekend_days"`
	Periods     weekmask.Periods `json:"-"`
}

// Holidays filters the holiday mapping to [start, end], sorted by date.
func (c *Calendar) Holidays(start, end models.Date) []models.DaySpec {
	return namedDays(c.HolidaysAll, models.DayTypeHoliday, start, end)
}

// Expiries filters monthly and quarterly expiries to [start, end].
func (c *Calendar) Expiries(start, end models.Date) []models.DaySpec {
	out := namedDays(c.QuarterlyExpiries, models.DayTypeQuarterlyExpiry, start, end)
	out = append(out, namedDays(c.MonthlyExpiries, models.DayTypeMonthlyExpiry, start, end)...)
	return sortSpecs(out)
}

// IsTradingDay reports whether date trades: a trading weekday that is not
// a holiday.
func (c *Calendar) IsTradingDay(date models.Date) (bool, error) {
	if _, holiday := c.HolidaysAll[date]; holiday {
		return false, nil
	}
	return c.Periods.IsTradingDay(date)
}

func namedDays(m map[models.Date]string, t models.DayType, start, end models.Date) []models.DaySpec {
	var out []models.DaySpec
	for date, name := range m {
		if date.Before(start) || date.After(end) {
			continue
		}
		out = append(out, models.DaySpec{Date: date, Type: t, Name: name})
	}
	return sortSpecs(out)
}

func sortSpecs(specs []models.DaySpec) []models.DaySpec {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Date.Before(specs[j].Date) })
	return specs
}

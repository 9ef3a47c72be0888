// Package weekmask partitions the timeline into contiguous periods that
// each carry a single fixed pattern of trading weekdays.
package weekmask

import (
	"sort"
	"time"

	"TradeCal/internal/domain/models"
)

// Weekmask is a 7-bit trading/non-trading pattern, Monday first.
type Weekmask [7]bool

// MonFri is the default trading week.
var MonFri = Weekmask{true, true, true, true, true, false, false}

// AllDays marks every weekday as trading.
var AllDays = Weekmask{true, true, true, true, true, true, true}

// Parse reads a mask like "1111100" (Mon..Sun).
func Parse(s string) (Weekmask, error) {
	var m Weekmask
	if len(s) != 7 {
		return m, models.Structuralf("weekmask %q must have 7 digits", s)
	}
	for i, c := range s {
		switch c {
		case '1':
			m[i] = true
		case '0':
			m[i] = false
		default:
			return Weekmask{}, models.Structuralf("weekmask %q must be 0s and 1s", s)
		}
	}
	return m, nil
}

func (m Weekmask) String() string {
	b := make([]byte, 7)
	for i, trading := range m {
		if trading {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// IsTradingDay reports whether weekday trades under this mask.
func (m Weekmask) IsTradingDay(weekday time.Weekday) bool {
	// time.Weekday counts from Sunday, the mask from Monday.
	return m[(int(weekday)+6)%7]
}

// WeekendDays returns the non-trading weekdays of the mask.
func (m Weekmask) WeekendDays() []time.Weekday {
	var out []time.Weekday
	for i, trading := range m {
		if !trading {
			out = append(out, time.Weekday((i+1)%7))
		}
	}
	return out
}

// Period binds a weekmask to a time span. A zero Start or End means the
// period is open on that side.
type Period struct {
	Mask  Weekmask
	Start models.Date
	End   models.Date
}

// Covers reports whether date falls inside the period.
func (p Period) Covers(date models.Date) bool {
	if !p.Start.IsZero() && date.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && date.After(p.End) {
		return false
	}
	return true
}

// Periods is an ordered, gapless partition of the timeline.
type Periods []Period

// Resolve builds the full partition from a calendar's default weekmask and
// its special periods. Specials must be sorted and non-overlapping, each
// with both bounds set; the gap before the first, the gaps between
// specials and the tail after the last are filled with default-mask
// periods open at the absolute ends.
func Resolve(def Weekmask, specials []Period) (Periods, error) {
	for i, sp := range specials {
		if sp.Start.IsZero() || sp.End.IsZero() {
			return nil, models.Structuralf("special weekmask period %d must be bounded", i)
		}
		if sp.End.Before(sp.Start) {
			return nil, models.Structuralf("special weekmask period %d ends before it starts", i)
		}
		if i > 0 && !specials[i-1].End.Before(sp.Start) {
			return nil, models.Structuralf("special weekmask periods %d and %d overlap or are unsorted", i-1, i)
		}
	}

	if len(specials) == 0 {
		return Periods{{Mask: def}}, nil
	}

	out := make(Periods, 0, 2*len(specials)+1)
	out = append(out, Period{Mask: def, End: specials[0].Start.AddDays(-1)})
	for i, sp := range specials {
		out = append(out, sp)
		if i+1 < len(specials) {
			gapStart := sp.End.AddDays(1)
			gapEnd := specials[i+1].Start.AddDays(-1)
			if !gapEnd.Before(gapStart) {
				out = append(out, Period{Mask: def, Start: gapStart, End: gapEnd})
			}
		}
	}
	out = append(out, Period{Mask: def, Start: specials[len(specials)-1].End.AddDays(1)})
	return out, nil
}

// For returns the period covering date. Periods tile the whole timeline,
// so a miss is a programming defect and surfaces as an InternalFault.
func (ps Periods) For(date models.Date) (Period, error) {
	idx := sort.Search(len(ps), func(i int) bool {
		return ps[i].End.IsZero() || !ps[i].End.Before(date)
	})
	if idx < len(ps) && ps[idx].Covers(date) {
		return ps[idx], nil
	}
	return Period{}, models.Faultf("no weekmask period covers %s", date)
}

// IsTradingDay reports whether date is a trading weekday under the period
// covering it.
func (ps Periods) IsTradingDay(date models.Date) (bool, error) {
	p, err := ps.For(date)
	if err != nil {
		return false, err
	}
	return p.Mask.IsTradingDay(date.Weekday()), nil
}

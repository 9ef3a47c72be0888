package weekmask

import (
	"errors"
	"testing"
	"time"

	"TradeCal/internal/domain/models"
)

func date(y int, m time.Month, d int) models.Date {
	return models.Date{Year: y, Month: m, Day: d}
}

func TestParse(t *testing.T) {
	m, err := Parse("1111100")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m != MonFri {
		t.Fatalf("unexpected mask %v", m)
	}
	if m.String() != "1111100" {
		t.Fatalf("round trip broken: %q", m.String())
	}
	for _, bad := range []string{"111110", "11111000", "11111x0"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestIsTradingDay(t *testing.T) {
	if !MonFri.IsTradingDay(time.Monday) || !MonFri.IsTradingDay(time.Friday) {
		t.Fatalf("weekdays should trade")
	}
	if MonFri.IsTradingDay(time.Saturday) || MonFri.IsTradingDay(time.Sunday) {
		t.Fatalf("weekend should not trade")
	}
	monSat, _ := Parse("1111110")
	if !monSat.IsTradingDay(time.Saturday) {
		t.Fatalf("Saturday should trade under 1111110")
	}
}

func TestWeekendDays(t *testing.T) {
	got := MonFri.WeekendDays()
	if len(got) != 2 || got[0] != time.Saturday || got[1] != time.Sunday {
		t.Fatalf("unexpected weekend days %v", got)
	}
}

func TestResolveFillsGaps(t *testing.T) {
	monSat, _ := Parse("1111110")
	specials := []Period{
		{Mask: monSat, Start: date(2020, time.March, 1), End: date(2020, time.June, 30)},
		{Mask: monSat, Start: date(2021, time.March, 1), End: date(2021, time.June, 30)},
	}
	ps, err := Resolve(MonFri, specials)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(ps) != 5 {
		t.Fatalf("expected 5 periods (head, special, gap, special, tail), got %d", len(ps))
	}
	if !ps[0].Start.IsZero() || !ps[len(ps)-1].End.IsZero() {
		t.Fatalf("outer periods must be open-ended")
	}

	// No gaps, no overlaps: consecutive periods meet exactly.
	for i := 1; i < len(ps); i++ {
		if ps[i].Start != ps[i-1].End.AddDays(1) {
			t.Fatalf("periods %d and %d do not tile: %v then %v", i-1, i, ps[i-1], ps[i])
		}
	}
}

func TestResolveNoSpecials(t *testing.T) {
	ps, err := Resolve(MonFri, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(ps) != 1 || !ps[0].Start.IsZero() || !ps[0].End.IsZero() {
		t.Fatalf("expected a single open period, got %v", ps)
	}
}

func TestResolveRejectsBadSpecials(t *testing.T) {
	monSat, _ := Parse("1111110")
	cases := [][]Period{
		{{Mask: monSat, Start: date(2020, time.March, 1)}}, // unbounded
		{{Mask: monSat, Start: date(2020, time.June, 1), End: date(2020, time.March, 1)}},
		{
			{Mask: monSat, Start: date(2020, time.March, 1), End: date(2020, time.June, 30)},
			{Mask: monSat, Start: date(2020, time.June, 30), End: date(2020, time.September, 1)},
		},
	}
	for i, specials := range cases {
		if _, err := Resolve(MonFri, specials); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestForAcrossBoundaries(t *testing.T) {
	monSat, _ := Parse("1111110")
	ps, _ := Resolve(MonFri, []Period{
		{Mask: monSat, Start: date(2020, time.March, 1), End: date(2020, time.June, 30)},
	})

	inside, err := ps.For(date(2020, time.April, 15))
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	if inside.Mask != monSat {
		t.Fatalf("expected special mask inside period")
	}
	before, _ := ps.For(date(2020, time.February, 29))
	after, _ := ps.For(date(2020, time.July, 1))
	if before.Mask != MonFri || after.Mask != MonFri {
		t.Fatalf("default mask should cover outside the special period")
	}
}

func TestForMissingCoverageIsInternalFault(t *testing.T) {
	// Hand-assembled periods with a hole; the resolver never produces this.
	ps := Periods{
		{Mask: MonFri, Start: date(2020, time.January, 1), End: date(2020, time.January, 31)},
	}
	_, err := ps.For(date(2020, time.March, 1))
	var fault *models.InternalFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected InternalFault, got %v", err)
	}
}

package rules

import (
	"testing"
	"time"
)

func TestMergePrecedence(t *testing.T) {
	d := date(2024, time.December, 25)
	base := Set{FixedDate{Date: d, Name: "Christmas"}}
	override := Set{FixedDate{Date: d, Name: "Closed (override)"}}

	merged := Merge(override, base)
	holidays := merged.Holidays(date(2024, time.January, 1), date(2024, time.December, 31))
	if name := holidays[d]; name != "Closed (override)" {
		t.Fatalf("earlier-listed set should own the date, got %q", name)
	}
	if len(holidays) != 1 {
		t.Fatalf("duplicate date should be deduplicated, got %d entries", len(holidays))
	}
}

func TestOccurrencesKeepRuleOrder(t *testing.T) {
	s := Set{
		FixedDate{Date: date(2024, time.June, 20), Name: "later date, earlier rule"},
		FixedDate{Date: date(2024, time.June, 1), Name: "earlier date, later rule"},
	}
	occs := s.Occurrences(date(2024, time.January, 1), date(2024, time.December, 31))
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
	// Rule position, not date order: the June 20 rule comes first.
	if occs[0].Date.Day != 20 || occs[1].Date.Day != 1 {
		t.Fatalf("occurrences reordered by date: %v", occs)
	}
}

func TestExcludeDropsDates(t *testing.T) {
	s := Set{NthWeekdayOfMonth{Weekday: time.Friday, N: 3, Name: "expiry"}}
	start, end := date(2020, time.January, 1), date(2020, time.December, 31)

	all := s.Dates(start, end)
	if len(all) != 12 {
		t.Fatalf("expected 12 dates, got %d", len(all))
	}
	filtered := Exclude(s, all[:2]).Dates(start, end)
	if len(filtered) != 10 {
		t.Fatalf("expected 10 dates after exclusion, got %d", len(filtered))
	}
	for _, d := range filtered {
		if d == all[0] || d == all[1] {
			t.Fatalf("excluded date %s still generated", d)
		}
	}
}

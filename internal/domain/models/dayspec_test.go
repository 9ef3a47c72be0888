package models

import (
	"testing"
	"time"
)

func TestParseDayTypeCaseInsensitive(t *testing.T) {
	for _, s := range []string{"holiday", "Holiday", "HOLIDAY"} {
		got, err := ParseDayType(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != DayTypeHoliday {
			t.Fatalf("parse %q: got %v", s, got)
		}
	}
	if _, err := ParseDayType("bank_holiday"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.Hour != 9 || tod.Minute != 30 || tod.Second != 0 {
		t.Fatalf("unexpected time %v", tod)
	}
	tod, err = ParseTimeOfDay("16:00:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.String() != "16:00:30" {
		t.Fatalf("unexpected format %q", tod.String())
	}
	for _, bad := range []string{"9", "25:00", "12:61", "noon", "09:30junk", "9:3", "09:30:5"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewDaySpecTimeRules(t *testing.T) {
	date := Date{Year: 2024, Month: time.July, Day: 4}
	tod := TimeOfDay{Hour: 13}

	if _, err := NewDaySpec(date, DayTypeSpecialClose, "early close", nil); err == nil {
		t.Fatalf("special close without time should fail")
	}
	if _, err := NewDaySpec(date, DayTypeHoliday, "Independence Day", &tod); err == nil {
		t.Fatalf("holiday with time should fail")
	}
	spec, err := NewDaySpec(date, DayTypeSpecialClose, "early close", &tod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The spec holds its own copy of the time.
	tod.Hour = 20
	if spec.Time.Hour != 13 {
		t.Fatalf("spec time aliased to caller value")
	}
}

func TestDaySpecEqualAndCopy(t *testing.T) {
	date := Date{Year: 2024, Month: time.July, Day: 3}
	tod := TimeOfDay{Hour: 13}
	a, _ := NewDaySpec(date, DayTypeSpecialOpen, "late open", &tod)
	b := a.Copy()
	if !a.Equal(b) {
		t.Fatalf("copy should be equal")
	}
	b.Time.Hour = 14
	if a.Equal(b) {
		t.Fatalf("mutated copy should differ")
	}
	if a.Time.Hour != 13 {
		t.Fatalf("copy aliased the original time")
	}
}

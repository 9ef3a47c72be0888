package models

import (
	"fmt"
	"strings"
	"time"
)

// DayType tags one calendar-date override.
type DayType int

const (
	DayTypeHoliday DayType = iota
	DayTypeSpecialOpen
	DayTypeSpecialClose
	DayTypeMonthlyExpiry
	DayTypeQuarterlyExpiry
)

// DayTypes lists every tag in declaration order.
var DayTypes = []DayType{
	DayTypeHoliday,
	DayTypeSpecialOpen,
	DayTypeSpecialClose,
	DayTypeMonthlyExpiry,
	DayTypeQuarterlyExpiry,
}

var dayTypeNames = map[DayType]string{
	DayTypeHoliday:         "holiday",
	DayTypeSpecialOpen:     "special_open",
	DayTypeSpecialClose:    "special_close",
	DayTypeMonthlyExpiry:   "monthly_expiry",
	DayTypeQuarterlyExpiry: "quarterly_expiry",
}

func (t DayType) String() string {
	if s, ok := dayTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("daytype(%d)", int(t))
}

// NeedsTime reports whether specs of this type carry a time of day.
func (t DayType) NeedsTime() bool {
	return t == DayTypeSpecialOpen || t == DayTypeSpecialClose
}

// ParseDayType parses a day-type tag, case-insensitively.
func ParseDayType(s string) (DayType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for t, name := range dayTypeNames {
		if needle == name {
			return t, nil
		}
	}
	return 0, Structuralf("unknown day type %q", s)
}

func (t DayType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DayType) UnmarshalText(b []byte) error {
	parsed, err := ParseDayType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Minutes and seconds must
// be two digits and trailing text is rejected.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, NewStructuralError(fmt.Sprintf("invalid time %q", s), err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DaySpec describes one calendar-date override. The Time field is present
// if and only if the type is a special session. Immutable once built.
type DaySpec struct {
	Date Date
	Type DayType
	Name string
	Time *TimeOfDay
}

// NewDaySpec validates and constructs a DaySpec.
func NewDaySpec(date Date, dayType DayType, name string, tod *TimeOfDay) (DaySpec, error) {
	if date.IsZero() {
		return DaySpec{}, Structuralf("day spec requires a date")
	}
	if _, ok := dayTypeNames[dayType]; !ok {
		return DaySpec{}, Structuralf("unknown day type %d", int(dayType))
	}
	if dayType.NeedsTime() && tod == nil {
		return DaySpec{}, Structuralf("%s on %s requires a time", dayType, date)
	}
	if !dayType.NeedsTime() && tod != nil {
		return DaySpec{}, Structuralf("%s on %s must not carry a time", dayType, date)
	}
	spec := DaySpec{Date: date, Type: dayType, Name: name, Time: nil}
	if tod != nil {
		t := *tod
		spec.Time = &t
	}
	return spec, nil
}

// Equal compares specs structurally.
func (s DaySpec) Equal(other DaySpec) bool {
	if s.Date != other.Date || s.Type != other.Type || s.Name != other.Name {
		return false
	}
	if (s.Time == nil) != (other.Time == nil) {
		return false
	}
	return s.Time == nil || *s.Time == *other.Time
}

// Copy returns an independent copy of s.
func (s DaySpec) Copy() DaySpec {
	out := s
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	return out
}

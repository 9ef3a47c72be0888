package models

// AddDayRequest is the wire form of a day-level addition.
type AddDayRequest struct {
	Date   string `json:"date" validate:"required"`
	Type   string `json:"type" validate:"required"`
	Name   string `json:"name"`
	Time   string `json:"time,omitempty"`
	Strict bool   `json:"strict"`
}

// ToSpec parses the request into a validated DaySpec.
func (r *AddDayRequest) ToSpec() (DaySpec, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return DaySpec{}, err
	}
	dayType, err := ParseDayType(r.Type)
	if err != nil {
		return DaySpec{}, err
	}

	var tod *TimeOfDay
	if r.Time != "" {
		t, err := ParseTimeOfDay(r.Time)
		if err != nil {
			return DaySpec{}, err
		}
		tod = &t
	}
	return NewDaySpec(date, dayType, r.Name, tod)
}

// RemoveDayRequest is the wire form of a day-level removal.
type RemoveDayRequest struct {
	Date   string `json:"date" validate:"required"`
	Strict bool   `json:"strict"`
}

// ResetDayRequest clears pending changes for one date, optionally only
// for one day type.
type ResetDayRequest struct {
	Date string `json:"date" validate:"required"`
	Type string `json:"type,omitempty"`
}

// RangeQuery bounds a calendar query to [Start, End]. Empty bounds fall
// back to the service's build window.
type RangeQuery struct {
	Start string `query:"start"`
	End   string `query:"end"`
}

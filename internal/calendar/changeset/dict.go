package changeset

import (
	"bytes"
	"encoding/json"
	"sort"

	"TradeCal/internal/domain/models"
)

// DaySpecDict is the wire form of one pending addition.
type DaySpecDict struct {
	Date string `json:"date" validate:"required"`
	Type string `json:"type" validate:"required"`
	Name string `json:"name"`
	Time string `json:"time,omitempty"`
}

// Dict is the structured wire form of a ChangeSet:
// {add: [{date,type,name,time?}...], remove: [date...]}.
type Dict struct {
	Add    []DaySpecDict `json:"add"`
	Remove []string      `json:"remove"`
}

// ToDict serializes cs. Entries are sorted by date so the output is
// deterministic.
func (cs *ChangeSet) ToDict() Dict {
	d := Dict{
		Add:    make([]DaySpecDict, 0, len(cs.add)),
		Remove: make([]string, 0, len(cs.remove)),
	}
	dates := make([]models.Date, 0, len(cs.add))
	for date := range cs.add {
		dates = append(dates, date)
	}
	for _, date := range models.SortDates(dates) {
		spec := cs.add[date]
		entry := DaySpecDict{
			Date: spec.Date.String(),
			Type: spec.Type.String(),
			Name: spec.Name,
		}
		if spec.Time != nil {
			entry.Time = spec.Time.String()
		}
		d.Add = append(d.Add, entry)
	}
	for _, date := range cs.Removals() {
		d.Remove = append(d.Remove, date.String())
	}
	return d
}

// FromDict validates d structurally (dates, times and type tags parse,
// times present exactly when the type needs one) and semantically (no date
// listed twice under add) and builds the ChangeSet. Structural failures
// surface as StructuralError, duplicate dates as ConsistencyError.
func FromDict(d Dict) (*ChangeSet, error) {
	cs := New()
	for _, entry := range d.Add {
		spec, err := specFromDict(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := cs.add[spec.Date]; dup {
			return nil, models.Consistencyf("date %s listed twice under add", spec.Date)
		}
		cs.add[spec.Date] = spec
	}
	for _, raw := range d.Remove {
		date, err := models.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		cs.remove[date] = struct{}{}
	}
	return cs, nil
}

func specFromDict(entry DaySpecDict) (models.DaySpec, error) {
	date, err := models.ParseDate(entry.Date)
	if err != nil {
		return models.DaySpec{}, err
	}
	dayType, err := models.ParseDayType(entry.Type)
	if err != nil {
		return models.DaySpec{}, err
	}
	var tod *models.TimeOfDay
	if entry.Time != "" {
		parsed, err := models.ParseTimeOfDay(entry.Time)
		if err != nil {
			return models.DaySpec{}, err
		}
		tod = &parsed
	}
	return models.NewDaySpec(date, dayType, entry.Name, tod)
}

// MarshalJSON serializes cs through its Dict form.
func (cs *ChangeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.ToDict())
}

// FromJSON decodes the wire format strictly: unknown fields are a
// StructuralError, not silently dropped.
func FromJSON(b []byte) (*ChangeSet, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var d Dict
	if err := dec.Decode(&d); err != nil {
		return nil, models.NewStructuralError("invalid changeset payload", err)
	}
	return FromDict(d)
}

// ByType groups pending additions per day type, each group sorted by
// date. Calendar assembly consumes this when merging overrides into the
// base rule sets.
func (cs *ChangeSet) ByType() map[models.DayType][]models.DaySpec {
	out := make(map[models.DayType][]models.DaySpec)
	for _, spec := range cs.add {
		out[spec.Type] = append(out[spec.Type], spec.Copy())
	}
	for _, specs := range out {
		sort.Slice(specs, func(i, j int) bool { return specs[i].Date.Before(specs[j].Date) })
	}
	return out
}

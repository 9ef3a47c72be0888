// Package changeset maintains per-exchange sets of pending calendar-date
// overrides and guarantees they stay self-consistent before they are ever
// applied to a calendar.
package changeset

import (
	"TradeCal/internal/domain/models"
)

// ChangeSet holds pending additions and removals of calendar-date
// overrides for one exchange. A date appears at most once in add, across
// all day types. Add and Remove keep a date out of both sides at once;
// only Normalize introduces overlap, which then means "strip the date from
// every other calendar before re-adding it".
type ChangeSet struct {
	add    map[models.Date]models.DaySpec
	remove map[models.Date]struct{}
}

// New returns an empty ChangeSet.
func New() *ChangeSet {
	return &ChangeSet{
		add:    make(map[models.Date]models.DaySpec),
		remove: make(map[models.Date]struct{}),
	}
}

// Add records spec as a pending addition. Adding a date that is already
// present upserts the previous entry, whatever its type. In strict mode
// the call fails if the date is pending removal; otherwise the removal is
// cleared first so mutual exclusion holds after the call.
func (cs *ChangeSet) Add(spec models.DaySpec, strict bool) error {
	if _, removed := cs.remove[spec.Date]; removed {
		if strict {
			return models.Consistencyf("date %s is pending removal", spec.Date)
		}
		delete(cs.remove, spec.Date)
	}
	cs.add[spec.Date] = spec.Copy()
	return nil
}

// Remove records date as a pending removal. In strict mode the call fails
// if the date is pending addition; otherwise the addition is cleared first.
func (cs *ChangeSet) Remove(date models.Date, strict bool) error {
	if _, added := cs.add[date]; added {
		if strict {
			return models.Consistencyf("date %s is pending addition", date)
		}
		delete(cs.add, date)
	}
	cs.remove[date] = struct{}{}
	return nil
}

// ClearDay drops every pending operation for date. When dayType is given,
// only an addition of that exact type is dropped (the removal entry is
// kept, since removals are not typed).
func (cs *ChangeSet) ClearDay(date models.Date, dayType ...models.DayType) {
	if len(dayType) > 0 {
		if spec, ok := cs.add[date]; ok && spec.Type == dayType[0] {
			delete(cs.add, date)
		}
		return
	}
	delete(cs.add, date)
	delete(cs.remove, date)
}

// Clear drops every pending operation.
func (cs *ChangeSet) Clear() {
	cs.add = make(map[models.Date]models.DaySpec)
	cs.remove = make(map[models.Date]struct{})
}

// Merge applies every operation of other on top of cs, right-biased:
// other's entry wins for a date both sides touch.
func (cs *ChangeSet) Merge(other *ChangeSet) {
	if other == nil {
		return
	}
	for date, spec := range other.add {
		delete(cs.remove, date)
		cs.add[date] = spec.Copy()
	}
	for date := range other.remove {
		delete(cs.add, date)
		cs.remove[date] = struct{}{}
	}
}

// IsEmpty reports whether no operations are pending.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.add) == 0 && len(cs.remove) == 0
}

// IsConsistent reports whether every pending addition is a valid DaySpec
// keyed under its own date. Date uniqueness across types holds by
// construction of the add map; this re-checks specs a caller may have
// assembled by hand.
func (cs *ChangeSet) IsConsistent() bool {
	for date, spec := range cs.add {
		if spec.Date != date {
			return false
		}
		if _, err := models.NewDaySpec(spec.Date, spec.Type, spec.Name, spec.Time); err != nil {
			return false
		}
	}
	return true
}

// Added returns the pending addition for date, if any.
func (cs *ChangeSet) Added(date models.Date) (models.DaySpec, bool) {
	spec, ok := cs.add[date]
	if !ok {
		return models.DaySpec{}, false
	}
	return spec.Copy(), true
}

// Removed reports whether date is pending removal.
func (cs *ChangeSet) Removed(date models.Date) bool {
	_, ok := cs.remove[date]
	return ok
}

// Additions returns a copy of the pending additions keyed by date.
func (cs *ChangeSet) Additions() map[models.Date]models.DaySpec {
	out := make(map[models.Date]models.DaySpec, len(cs.add))
	for date, spec := range cs.add {
		out[date] = spec.Copy()
	}
	return out
}

// Removals returns the pending removals, sorted.
func (cs *ChangeSet) Removals() []models.Date {
	out := make([]models.Date, 0, len(cs.remove))
	for date := range cs.remove {
		out = append(out, date)
	}
	return models.SortDates(out)
}

// AllDays returns the sorted union of every date the ChangeSet touches.
// Callers use it to decide which cached calendars to invalidate.
func (cs *ChangeSet) AllDays() []models.Date {
	seen := make(map[models.Date]struct{}, len(cs.add)+len(cs.remove))
	for date := range cs.add {
		seen[date] = struct{}{}
	}
	for date := range cs.remove {
		seen[date] = struct{}{}
	}
	out := make([]models.Date, 0, len(seen))
	for date := range seen {
		out = append(out, date)
	}
	return models.SortDates(out)
}

// Normalize makes every added date an explicit removal as well, so that
// applying the ChangeSet can never leave a date simultaneously added under
// one type and kept as a pre-existing day of another type: the removal
// strips the date from every calendar, the addition puts it back under
// exactly one. Normalizing is idempotent. With inPlace false the receiver
// is left untouched and the normalized copy is returned.
func (cs *ChangeSet) Normalize(inPlace bool) *ChangeSet {
	target := cs
	if !inPlace {
		target = cs.Copy()
	}
	for date := range target.add {
		target.remove[date] = struct{}{}
	}
	return target
}

// Equal compares two ChangeSets structurally, independent of the order
// operations were recorded in.
func (cs *ChangeSet) Equal(other *ChangeSet) bool {
	if other == nil {
		return cs == nil
	}
	if len(cs.add) != len(other.add) || len(cs.remove) != len(other.remove) {
		return false
	}
	for date, spec := range cs.add {
		o, ok := other.add[date]
		if !ok || !spec.Equal(o) {
			return false
		}
	}
	for date := range cs.remove {
		if _, ok := other.remove[date]; !ok {
			return false
		}
	}
	return true
}

// Copy returns a deep, independent copy of cs.
func (cs *ChangeSet) Copy() *ChangeSet {
	out := New()
	for date, spec := range cs.add {
		out.add[date] = spec.Copy()
	}
	for date := range cs.remove {
		out.remove[date] = struct{}{}
	}
	return out
}

package rules

import (
	"TradeCal/internal/domain/models"
)

// Set is an ordered list of rules. Order is precedence: when two rules
// produce the same date, the earlier rule owns it.
type Set []Rule

// Merge concatenates rule sets preserving precedence: rules from
// earlier-listed sets stay ahead of rules from later ones, so they win
// duplicated dates both for naming and for conflict resolution.
func Merge(sets ...Set) Set {
	var out Set
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// Occurrences materializes every rule over [start, end] in rule order,
// not date order. The resolver depends on this: position in the slice
// encodes precedence.
func (s Set) Occurrences(start, end models.Date) []Occurrence {
	var out []Occurrence
	for _, rule := range s {
		out = append(out, rule.Generate(start, end)...)
	}
	return out
}

// Holidays enumerates the concrete holiday list for [start, end] as a
// date → name mapping. Duplicated dates keep the first occurrence; later
// duplicates are dropped.
func (s Set) Holidays(start, end models.Date) map[models.Date]string {
	out := make(map[models.Date]string)
	for _, occ := range s.Occurrences(start, end) {
		if _, seen := out[occ.Date]; seen {
			continue
		}
		out[occ.Date] = occ.Name
	}
	return out
}

// Dates returns the deduplicated holiday dates for [start, end], sorted.
func (s Set) Dates(start, end models.Date) []models.Date {
	byDate := s.Holidays(start, end)
	out := make([]models.Date, 0, len(byDate))
	for date := range byDate {
		out = append(out, date)
	}
	return models.SortDates(out)
}

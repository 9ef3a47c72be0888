package rules

import (
	"TradeCal/internal/domain/models"
)

type excludedRule struct {
	inner Rule
	drop  map[models.Date]struct{}
}

func (r excludedRule) RuleName() string { return r.inner.RuleName() }

func (r excludedRule) Generate(start, end models.Date) []Occurrence {
	occs := r.inner.Generate(start, end)
	out := occs[:0:0]
	for _, occ := range occs {
		if _, dropped := r.drop[occ.Date]; dropped {
			continue
		}
		out = append(out, occ)
	}
	return out
}

// Exclude wraps every rule of s so the given dates are never generated.
// Changeset removals apply this to the base rule sets before anything is
// derived from them.
func Exclude(s Set, dates []models.Date) Set {
	if len(dates) == 0 || len(s) == 0 {
		return s
	}
	drop := make(map[models.Date]struct{}, len(dates))
	for _, d := range dates {
		drop[d] = struct{}{}
	}
	out := make(Set, len(s))
	for i, rule := range s {
		out[i] = excludedRule{inner: rule, drop: drop}
	}
	return out
}

package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TradeCal/internal/calendar/derived"
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
)

// YAMLCalendarSource loads calendar definitions from a directory of YAML
// files, one calendar per file.
type YAMLCalendarSource struct {
	dir string
}

// NewYAMLCalendarSource creates a calendar source reading from dir.
func NewYAMLCalendarSource(dir string) drepo.CalendarSource {
	return &YAMLCalendarSource{dir: dir}
}

type calendarFile struct {
	Key              string        `yaml:"key" json:"key"`
	Name             string        `yaml:"name" json:"name"`
	Weekmask         string        `yaml:"weekmask" json:"weekmask"`
	SpecialWeekmasks []maskPeriod  `yaml:"special_weekmasks" json:"special_weekmasks"`
	Holidays         []dayRule     `yaml:"holidays" json:"holidays"`
	SpecialOpens     []sessionSpec `yaml:"special_opens" json:"special_opens"`
	SpecialCloses    []sessionSpec `yaml:"special_closes" json:"special_closes"`
}

type maskPeriod struct {
	Mask  string `yaml:"mask" json:"mask"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type dayRule struct {
	Name       string `yaml:"name" json:"name"`
	Rule       string `yaml:"rule" json:"rule"` // fixed, annual, nth_weekday, last_day, easter_offset, weekday_periodic
	Date       string `yaml:"date" json:"date"`
	Weekday    string `yaml:"weekday" json:"weekday"`
	N          int    `yaml:"n" json:"n"`
	Month      int    `yaml:"month" json:"month"`
	Day        int    `yaml:"day" json:"day"`
	Offset     int    `yaml:"offset" json:"offset"`
	Start      string `yaml:"start" json:"start"`
	End        string `yaml:"end" json:"end"`
	Observance string `yaml:"observance" json:"observance"` // nearest_weekday, sunday_to_monday
}

type sessionSpec struct {
	Time string    `yaml:"time" json:"time"`
	Days []dayRule `yaml:"days" json:"days"`
}

func (s *YAMLCalendarSource) Load(ctx context.Context) ([]derived.Definition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read calendars dir: %w", err)
	}

	var defs []derived.Definition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, err := s.loadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", e.Name(), err)
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs, nil
}

func (s *YAMLCalendarSource) loadFile(path string) (derived.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return derived.Definition{}, err
	}

	var cf calendarFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return derived.Definition{}, fmt.Errorf("parse: %w", err)
	}
	return cf.toDefinition()
}

func (cf *calendarFile) toDefinition() (derived.Definition, error) {
	if cf.Key == "" {
		return derived.Definition{}, fmt.Errorf("key is required")
	}

	mask := weekmask.MonFri
	if cf.Weekmask != "" {
		var err error
		mask, err = weekmask.Parse(cf.Weekmask)
		if err != nil {
			return derived.Definition{}, err
		}
	}

	specials := make([]weekmask.Period, 0, len(cf.SpecialWeekmasks))
	for i, mp := range cf.SpecialWeekmasks {
		m, err := weekmask.Parse(mp.Mask)
		if err != nil {
			return derived.Definition{}, fmt.Errorf("special weekmask %d: %w", i, err)
		}
		start, err := models.ParseDate(mp.Start)
		if err != nil {
			return derived.Definition{}, fmt.Errorf("special weekmask %d: %w", i, err)
		}
		end, err := models.ParseDate(mp.End)
		if err != nil {
			return derived.Definition{}, fmt.Errorf("special weekmask %d: %w", i, err)
		}
		specials = append(specials, weekmask.Period{Mask: m, Start: start, End: end})
	}

	holidays, err := toRuleSet(cf.Holidays)
	if err != nil {
		return derived.Definition{}, fmt.Errorf("holidays: %w", err)
	}

	opens, err := toSessionGroups(cf.SpecialOpens)
	if err != nil {
		return derived.Definition{}, fmt.Errorf("special opens: %w", err)
	}
	closes, err := toSessionGroups(cf.SpecialCloses)
	if err != nil {
		return derived.Definition{}, fmt.Errorf("special closes: %w", err)
	}

	return derived.Definition{
		Key:              cf.Key,
		Name:             cf.Name,
		Holidays:         holidays,
		SpecialOpens:     opens,
		SpecialCloses:    closes,
		Weekmask:         mask,
		SpecialWeekmasks: specials,
	}, nil
}

func toSessionGroups(specs []sessionSpec) ([]derived.SessionGroup, error) {
	groups := make([]derived.SessionGroup, 0, len(specs))
	for i, sp := range specs {
		tod, err := models.ParseTimeOfDay(sp.Time)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		set, err := toRuleSet(sp.Days)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		groups = append(groups, derived.SessionGroup{Time: tod, Rules: set})
	}
	return groups, nil
}

func toRuleSet(specs []dayRule) (rules.Set, error) {
	set := make(rules.Set, 0, len(specs))
	for i, dr := range specs {
		r, err := dr.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, dr.Name, err)
		}
		set = append(set, r)
	}
	return set, nil
}

func (dr *dayRule) toRule() (rules.Rule, error) {
	obs, err := parseObservance(dr.Observance)
	if err != nil {
		return nil, err
	}

	switch dr.Rule {
	case "fixed", "":
		date, err := models.ParseDate(dr.Date)
		if err != nil {
			return nil, err
		}
		return rules.FixedDate{Date: date, Name: dr.Name}, nil

	case "annual":
		if dr.Month < 1 || dr.Month > 12 {
			return nil, fmt.Errorf("month %d out of range", dr.Month)
		}
		if dr.Day < 1 || dr.Day > 31 {
			return nil, fmt.Errorf("day %d out of range", dr.Day)
		}
		return rules.AnnualDate{
			Month:      time.Month(dr.Month),
			Day:        dr.Day,
			Name:       dr.Name,
			Observance: obs,
		}, nil

	case "nth_weekday":
		wd, err := parseWeekday(dr.Weekday)
		if err != nil {
			return nil, err
		}
		if dr.N == 0 {
			return nil, fmt.Errorf("n is required")
		}
		if dr.Month < 0 || dr.Month > 12 {
			return nil, fmt.Errorf("month %d out of range", dr.Month)
		}
		return rules.NthWeekdayOfMonth{
			Weekday:    wd,
			N:          dr.N,
			Month:      time.Month(dr.Month),
			Name:       dr.Name,
			Observance: obs,
		}, nil

	case "last_day":
		if dr.Month < 0 || dr.Month > 12 {
			return nil, fmt.Errorf("month %d out of range", dr.Month)
		}
		return rules.LastDayOfMonth{Month: time.Month(dr.Month), Name: dr.Name, Observance: obs}, nil

	case "easter_offset":
		return rules.EasterOffset{Days: dr.Offset, Name: dr.Name}, nil

	case "weekday_periodic":
		wd, err := parseWeekday(dr.Weekday)
		if err != nil {
			return nil, err
		}
		r := rules.WeekdayPeriodic{Weekday: wd, Name: dr.Name}
		if dr.Start != "" {
			start, err := models.ParseDate(dr.Start)
			if err != nil {
				return nil, err
			}
			r.Start = start
		}
		if dr.End != "" {
			end, err := models.ParseDate(dr.End)
			if err != nil {
				return nil, err
			}
			r.End = end
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown rule kind %q", dr.Rule)
	}
}

func parseObservance(s string) (rules.Observance, error) {
	switch s {
	case "":
		return nil, nil
	case "nearest_weekday":
		return rules.NearestWeekday, nil
	case "sunday_to_monday":
		return rules.SundayToMonday, nil
	}
	return nil, fmt.Errorf("unknown observance %q", s)
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	case "sunday":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/calendar/derived"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	"TradeCal/pkg/cache"
	xlogger "TradeCal/pkg/logger"
)

// CalendarService serves resolved calendars: base definitions plus the
// pending overrides, built on demand and cached until the next override
// invalidates them.
type CalendarService struct {
	defs    map[string]derived.Definition
	store   *changeset.Store
	cache   cache.Service
	metrics drepo.Metrics
	logger  *xlogger.Logger

	start models.Date
	end   models.Date
	ttl   time.Duration
}

// NewCalendarService creates a CalendarService over the loaded definitions.
func NewCalendarService(
	source drepo.CalendarSource,
	store *changeset.Store,
	cache cache.Service,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
	start, end models.Date,
	ttl time.Duration,
) (*CalendarService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defs, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load calendar definitions: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no calendar definitions found")
	}

	byKey := make(map[string]derived.Definition, len(defs))
	for _, def := range defs {
		if _, dup := byKey[def.Key]; dup {
			return nil, fmt.Errorf("duplicate calendar key %q", def.Key)
		}
		byKey[def.Key] = def
	}

	return &CalendarService{
		defs:    byKey,
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		start:   start,
		end:     end,
		ttl:     ttl,
	}, nil
}

// Keys lists the known calendar keys, sorted.
func (s *CalendarService) Keys() []string {
	keys := make([]string, 0, len(s.defs))
	for k := range s.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Definition returns the base definition for key.
func (s *CalendarService) Definition(key string) (derived.Definition, error) {
	def, ok := s.defs[key]
	if !ok {
		return derived.Definition{}, models.NotFoundf("unknown calendar %q", key)
	}
	return def, nil
}

// GetCalendar returns the resolved calendar for key, building it if no
// cached copy exists.
func (s *CalendarService) GetCalendar(ctx context.Context, key string) (*derived.Calendar, error) {
	def, err := s.Definition(key)
	if err != nil {
		return nil, err
	}

	if cal, ok := s.cached(ctx, def); ok {
		s.metrics.RecordBuild(key, "hit")
		return cal, nil
	}

	start := time.Now()
	cs, _ := s.store.Get(key)
	cal, err := derived.Build(def, cs, s.start, s.end)
	if err != nil {
		s.metrics.RecordError("build")
		return nil, fmt.Errorf("build calendar %s: %w", key, err)
	}
	s.metrics.RecordBuild(key, "miss")
	s.metrics.RecordLatency("build", time.Since(start).Seconds())

	if b, err := json.Marshal(cal); err == nil {
		if err := s.cache.Set(ctx, cacheKey(key), string(b), s.ttl); err != nil {
			s.logger.Warn("cache set failed", xlogger.String("calendar", key), xlogger.Error(err))
		}
	}
	return cal, nil
}

// Invalidate drops the cached calendar for key.
func (s *CalendarService) Invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, cacheKey(key)); err != nil {
		s.logger.Warn("cache invalidate failed", xlogger.String("calendar", key), xlogger.Error(err))
	}
}

// InvalidateAll drops every cached calendar.
func (s *CalendarService) InvalidateAll(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, cache.BuildPattern(cacheKeyPrefix)); err != nil {
		s.logger.Warn("cache invalidate all failed", xlogger.Error(err))
	}
}

// Window returns the build window the service resolves calendars over.
func (s *CalendarService) Window() (models.Date, models.Date) {
	return s.start, s.end
}

// cached loads a serialized calendar and restores the fields JSON drops.
func (s *CalendarService) cached(ctx context.Context, def derived.Definition) (*derived.Calendar, bool) {
	var raw string
	if err := s.cache.Get(ctx, cacheKey(def.Key), &raw); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get failed", xlogger.String("calendar", def.Key), xlogger.Error(err))
		}
		return nil, false
	}

	var cal derived.Calendar
	if err := json.Unmarshal([]byte(raw), &cal); err != nil {
		s.logger.Warn("cache entry corrupt", xlogger.String("calendar", def.Key), xlogger.Error(err))
		return nil, false
	}

	// Weekmask periods are not serialized; rebuild them from the base
	// definition.
	periods, err := weekmask.Resolve(def.Weekmask, def.SpecialWeekmasks)
	if err != nil {
		return nil, false
	}
	cal.Periods = periods
	return &cal, true
}

// cacheKeyPrefix namespaces calendar entries in the shared cache.
const cacheKeyPrefix = "calendar"

func cacheKey(key string) string {
	return cache.GenerateKey(cacheKeyPrefix, key)
}

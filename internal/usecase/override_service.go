package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	xlogger "TradeCal/pkg/logger"
)

// Notifier pushes calendar events to connected listeners.
type Notifier interface {
	Broadcast(ev *models.CalendarEvent)
}

// OverrideService applies day-level overrides to calendars: every write
// goes through the changeset store, is audited, invalidates the cached
// calendar and is announced to subscribers.
type OverrideService struct {
	calendars *CalendarService
	store     *changeset.Store
	audit     drepo.AuditLog
	publisher drepo.Publisher
	notifier  Notifier
	metrics   drepo.Metrics
	logger    *xlogger.Logger
}

// NewOverrideService creates a new OverrideService instance.
func NewOverrideService(
	calendars *CalendarService,
	store *changeset.Store,
	audit drepo.AuditLog,
	publisher drepo.Publisher,
	notifier Notifier,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
) *OverrideService {
	return &OverrideService{
		calendars: calendars,
		store:     store,
		audit:     audit,
		publisher: publisher,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// AddDay records an added day for the calendar. Under strict mode a date
// already pending is rejected instead of replaced.
func (s *OverrideService) AddDay(ctx context.Context, key string, spec models.DaySpec, strict bool) error {
	if _, err := s.calendars.Definition(key); err != nil {
		return err
	}

	err := s.store.Update(key, func(cs *changeset.ChangeSet) error {
		return cs.Add(spec, strict)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, key, models.OpAddDay, &spec.Date, &spec.Type, spec)
	return nil
}

// RemoveDay records a removed day for the calendar.
func (s *OverrideService) RemoveDay(ctx context.Context, key string, date models.Date, strict bool) error {
	if _, err := s.calendars.Definition(key); err != nil {
		return err
	}

	err := s.store.Update(key, func(cs *changeset.ChangeSet) error {
		return cs.Remove(date, strict)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, key, models.OpRemoveDay, &date, nil, date)
	return nil
}

// ResetDay clears pending changes for one date. With day types given,
// only additions of those types are cleared.
func (s *OverrideService) ResetDay(ctx context.Context, key string, date models.Date, dayTypes ...models.DayType) error {
	if _, err := s.calendars.Definition(key); err != nil {
		return err
	}

	err := s.store.Update(key, func(cs *changeset.ChangeSet) error {
		cs.ClearDay(date, dayTypes...)
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, key, models.OpResetDay, &date, nil, date)
	return nil
}

// Reset discards every pending change for the calendar.
func (s *OverrideService) Reset(ctx context.Context, key string) error {
	if _, err := s.calendars.Definition(key); err != nil {
		return err
	}

	s.store.Delete(key)
	s.afterWrite(ctx, key, models.OpReset, nil, nil, nil)
	return nil
}

// SetChangeSet replaces the calendar's pending changes wholesale.
func (s *OverrideService) SetChangeSet(ctx context.Context, key string, cs *changeset.ChangeSet) error {
	if _, err := s.calendars.Definition(key); err != nil {
		return err
	}
	if !cs.IsConsistent() {
		return models.Consistencyf("changeset for %s is not consistent", key)
	}

	s.store.Set(key, cs)
	s.afterWrite(ctx, key, models.OpSetChangeSet, nil, nil, cs.ToDict())
	return nil
}

// GetChangeSet returns a copy of the calendar's pending changes.
func (s *OverrideService) GetChangeSet(key string) (*changeset.ChangeSet, error) {
	if _, err := s.calendars.Definition(key); err != nil {
		return nil, err
	}
	cs, ok := s.store.Get(key)
	if !ok {
		return changeset.New(), nil
	}
	return cs, nil
}

// afterWrite runs the shared post-mutation pipeline: metrics, cache
// invalidation, audit, event publication and listener broadcast.
func (s *OverrideService) afterWrite(ctx context.Context, key, op string, date *models.Date, dayType *models.DayType, payload interface{}) {
	s.metrics.RecordOverride(key, op)
	if cs, ok := s.store.Get(key); ok {
		s.metrics.RecordPendingChanges(key, len(cs.AllDays()))
	} else {
		s.metrics.RecordPendingChanges(key, 0)
	}

	s.calendars.Invalidate(ctx, key)

	rec := &models.AuditRecord{
		At:        time.Now().UTC(),
		Calendar:  key,
		Operation: op,
		Payload:   marshalPayload(payload),
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.metrics.RecordError("audit")
		s.logger.Error("audit record failed", xlogger.String("calendar", key), xlogger.Error(err))
	}

	ev := &models.CalendarEvent{
		Calendar:  key,
		Operation: op,
		Date:      date,
		DayType:   dayType,
		At:        rec.At,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.RecordError("publish")
		s.logger.Error("event publish failed", xlogger.String("calendar", key), xlogger.Error(err))
	}
	if s.notifier != nil {
		s.notifier.Broadcast(ev)
	}
}

func marshalPayload(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

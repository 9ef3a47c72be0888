package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/calendar/derived"
	"TradeCal/internal/calendar/rules"
	"TradeCal/internal/calendar/weekmask"
	"TradeCal/internal/domain/models"
	"TradeCal/pkg/cache"
	applogger "TradeCal/pkg/logger"
)

func date(y int, m time.Month, d int) models.Date {
	return models.Date{Year: y, Month: m, Day: d}
}

type fakeSource struct {
	defs []derived.Definition
}

func (s fakeSource) Load(_ context.Context) ([]derived.Definition, error) {
	return s.defs, nil
}

type fakeMetrics struct {
	builds    map[string]int
	overrides map[string]int
	errors    map[string]int
	pending   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		builds:    make(map[string]int),
		overrides: make(map[string]int),
		errors:    make(map[string]int),
		pending:   make(map[string]int),
	}
}

func (m *fakeMetrics) RecordBuild(_, outcome string) { m.builds[outcome]++ }

func (m *fakeMetrics) RecordOverride(_, operation string) { m.overrides[operation]++ }

func (m *fakeMetrics) RecordError(kind string) { m.errors[kind]++ }

func (m *fakeMetrics) RecordPendingChanges(key string, n int) { m.pending[key] = n }

func (m *fakeMetrics) RecordLatency(_ string, _ float64) {}

type fakeAudit struct {
	recs []*models.AuditRecord
}

func (a *fakeAudit) Init(_ context.Context) error { return nil }

func (a *fakeAudit) Record(_ context.Context, rec *models.AuditRecord) error {
	a.recs = append(a.recs, rec)
	return nil
}

func (a *fakeAudit) Query(_ context.Context, calendar string, since, until time.Time, limit int) ([]*models.AuditRecord, error) {
	var out []*models.AuditRecord
	for _, rec := range a.recs {
		if rec.Calendar != calendar || len(out) >= limit {
			continue
		}
		if !since.IsZero() && rec.At.Before(since) {
			continue
		}
		if !until.IsZero() && rec.At.After(until) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *fakeAudit) Health(_ context.Context) error { return nil }
func (a *fakeAudit) Close() error                   { return nil }

type fakePublisher struct {
	events []*models.CalendarEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev *models.CalendarEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeNotifier struct {
	events []*models.CalendarEvent
}

func (n *fakeNotifier) Broadcast(ev *models.CalendarEvent) {
	n.events = append(n.events, ev)
}

type testEnv struct {
	calendars *CalendarService
	overrides *OverrideService
	metrics   *fakeMetrics
	audit     *fakeAudit
	publisher *fakePublisher
	notifier  *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	def := derived.Definition{
		Key:  "TEST",
		Name: "Test Exchange",
		Holidays: rules.Set{
			rules.FixedDate{Date: date(2020, time.December, 25), Name: "Christmas"},
		},
		Weekmask: weekmask.MonFri,
	}

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	metrics := newFakeMetrics()
	store := changeset.NewStore()
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memCache.Close() })

	calendars, err := NewCalendarService(
		fakeSource{defs: []derived.Definition{def}},
		store, memCache, metrics, logger,
		date(2020, time.January, 1), date(2020, time.December, 31),
		time.Hour,
	)
	if err != nil {
		t.Fatalf("calendar service: %v", err)
	}

	audit := &fakeAudit{}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}
	overrides := NewOverrideService(calendars, store, audit, publisher, notifier, metrics, logger)

	return &testEnv{
		calendars: calendars,
		overrides: overrides,
		metrics:   metrics,
		audit:     audit,
		publisher: publisher,
		notifier:  notifier,
	}
}

func holidayNames(cal *derived.Calendar) map[string]string {
	out := make(map[string]string)
	for d, name := range cal.HolidaysAll {
		out[d.String()] = name
	}
	return out
}

func TestGetCalendarBuildsAndCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cal, err := env.calendars.GetCalendar(ctx, "TEST")
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}
	if holidayNames(cal)["2020-12-25"] != "Christmas" {
		t.Fatalf("base holiday missing: %v", holidayNames(cal))
	}
	if env.metrics.builds["miss"] != 1 {
		t.Fatalf("expected one cache miss, got %v", env.metrics.builds)
	}

	cached, err := env.calendars.GetCalendar(ctx, "TEST")
	if err != nil {
		t.Fatalf("get cached calendar: %v", err)
	}
	if env.metrics.builds["hit"] != 1 {
		t.Fatalf("expected one cache hit, got %v", env.metrics.builds)
	}
	if holidayNames(cached)["2020-12-25"] != "Christmas" {
		t.Fatalf("cached holiday missing: %v", holidayNames(cached))
	}

	// Weekmask periods survive the round trip through the cache.
	if trading, err := cached.IsTradingDay(date(2020, time.July, 6)); err != nil || !trading {
		t.Fatalf("Monday July 6 should trade: %v %v", trading, err)
	}
	if trading, _ := cached.IsTradingDay(date(2020, time.July, 4)); trading {
		t.Fatalf("Saturday should not trade")
	}
}

func TestGetCalendarUnknownKey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.calendars.GetCalendar(context.Background(), "NOPE")
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestKeys(t *testing.T) {
	env := newTestEnv(t)
	keys := env.calendars.Keys()
	if len(keys) != 1 || keys[0] != "TEST" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestAddDayRebuildsCalendar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.calendars.GetCalendar(ctx, "TEST"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	spec, err := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeHoliday, "Ad hoc", nil)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if err := env.overrides.AddDay(ctx, "TEST", spec, false); err != nil {
		t.Fatalf("add day: %v", err)
	}

	cal, err := env.calendars.GetCalendar(ctx, "TEST")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if holidayNames(cal)["2020-07-06"] != "Ad hoc" {
		t.Fatalf("override not applied: %v", holidayNames(cal))
	}
	if env.metrics.builds["miss"] != 2 {
		t.Fatalf("write should invalidate the cache, builds %v", env.metrics.builds)
	}

	if env.metrics.overrides[models.OpAddDay] != 1 {
		t.Fatalf("override metric missing: %v", env.metrics.overrides)
	}
	if len(env.audit.recs) != 1 || env.audit.recs[0].Operation != models.OpAddDay {
		t.Fatalf("audit record missing: %v", env.audit.recs)
	}
	if len(env.publisher.events) != 1 || env.publisher.events[0].Calendar != "TEST" {
		t.Fatalf("event not published: %v", env.publisher.events)
	}
	if len(env.notifier.events) != 1 {
		t.Fatalf("event not broadcast: %v", env.notifier.events)
	}
	if env.metrics.pending["TEST"] != 1 {
		t.Fatalf("pending gauge: %v", env.metrics.pending)
	}
}

func TestAddDayUnknownCalendar(t *testing.T) {
	env := newTestEnv(t)

	spec, _ := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeHoliday, "x", nil)
	err := env.overrides.AddDay(context.Background(), "NOPE", spec, false)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(env.audit.recs) != 0 || len(env.publisher.events) != 0 {
		t.Fatalf("failed write must not reach the pipeline")
	}
}

func TestStrictConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := date(2020, time.July, 6)

	if err := env.overrides.RemoveDay(ctx, "TEST", d, true); err != nil {
		t.Fatalf("remove day: %v", err)
	}

	spec, _ := models.NewDaySpec(d, models.DayTypeHoliday, "x", nil)
	err := env.overrides.AddDay(ctx, "TEST", spec, true)
	var ce *models.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}

	// Non-strict add clears the removal instead.
	if err := env.overrides.AddDay(ctx, "TEST", spec, false); err != nil {
		t.Fatalf("lax add: %v", err)
	}
	cs, err := env.overrides.GetChangeSet("TEST")
	if err != nil {
		t.Fatalf("get changeset: %v", err)
	}
	if cs.Removed(d) {
		t.Fatalf("lax add should clear the pending removal")
	}
	if _, ok := cs.Added(d); !ok {
		t.Fatalf("addition missing after lax add")
	}
}

func TestResetDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	spec1, _ := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeHoliday, "a", nil)
	spec2, _ := models.NewDaySpec(date(2020, time.July, 7), models.DayTypeHoliday, "b", nil)
	if err := env.overrides.AddDay(ctx, "TEST", spec1, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.overrides.AddDay(ctx, "TEST", spec2, false); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := env.overrides.ResetDay(ctx, "TEST", spec1.Date); err != nil {
		t.Fatalf("reset day: %v", err)
	}

	cs, _ := env.overrides.GetChangeSet("TEST")
	if _, ok := cs.Added(spec1.Date); ok {
		t.Fatalf("reset date still pending")
	}
	if _, ok := cs.Added(spec2.Date); !ok {
		t.Fatalf("other date must survive the reset")
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	spec, _ := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeHoliday, "a", nil)
	if err := env.overrides.AddDay(ctx, "TEST", spec, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.overrides.Reset(ctx, "TEST"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	cs, _ := env.overrides.GetChangeSet("TEST")
	if !cs.IsEmpty() {
		t.Fatalf("changeset should be empty after reset")
	}
	if env.metrics.pending["TEST"] != 0 {
		t.Fatalf("pending gauge should drop to zero, got %v", env.metrics.pending)
	}
}

func TestSetChangeSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cs := changeset.New()
	spec, _ := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeSpecialClose, "early", &models.TimeOfDay{Hour: 13})
	if err := cs.Add(spec, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.overrides.SetChangeSet(ctx, "TEST", cs); err != nil {
		t.Fatalf("set changeset: %v", err)
	}

	got, _ := env.overrides.GetChangeSet("TEST")
	if _, ok := got.Added(spec.Date); !ok {
		t.Fatalf("replacement changeset not stored")
	}
	if env.metrics.overrides[models.OpSetChangeSet] != 1 {
		t.Fatalf("override metric missing: %v", env.metrics.overrides)
	}
}

func TestGetChangeSetReturnsCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	spec, _ := models.NewDaySpec(date(2020, time.July, 6), models.DayTypeHoliday, "a", nil)
	if err := env.overrides.AddDay(ctx, "TEST", spec, false); err != nil {
		t.Fatalf("add: %v", err)
	}

	cs, _ := env.overrides.GetChangeSet("TEST")
	if err := cs.Remove(date(2020, time.July, 7), false); err != nil {
		t.Fatalf("remove on copy: %v", err)
	}

	again, _ := env.overrides.GetChangeSet("TEST")
	if again.Removed(date(2020, time.July, 7)) {
		t.Fatalf("mutating the returned changeset must not affect the store")
	}
}

func TestInvalidationHandler(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.calendars.GetCalendar(ctx, "TEST"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	handler := NewInvalidationHandler("calendar-events", env.calendars, env.metrics)
	if handler.Topic() != "calendar-events" {
		t.Fatalf("unexpected topic %q", handler.Topic())
	}

	payload := []byte(`{"calendar": "TEST", "operation": "add_day", "at": "2020-07-06T10:00:00Z"}`)
	if err := handler.Handle(ctx, payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, err := env.calendars.GetCalendar(ctx, "TEST"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if env.metrics.builds["miss"] != 2 {
		t.Fatalf("event should invalidate the cache, builds %v", env.metrics.builds)
	}

	if err := handler.Handle(ctx, []byte("not json")); err == nil {
		t.Fatalf("expected error on malformed payload")
	}
	if env.metrics.errors["consumer_unmarshal"] != 1 {
		t.Fatalf("unmarshal error not counted: %v", env.metrics.errors)
	}
}

func TestInvalidationHandlerDropsAllWithoutKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.calendars.GetCalendar(ctx, "TEST"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	handler := NewInvalidationHandler("calendar-events", env.calendars, env.metrics)
	if err := handler.Handle(ctx, []byte(`{"operation": "reload"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, err := env.calendars.GetCalendar(ctx, "TEST"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if env.metrics.builds["miss"] != 2 {
		t.Fatalf("keyless event should drop every entry, builds %v", env.metrics.builds)
	}
}

package repository

import (
	"context"
	"time"

	"TradeCal/internal/calendar/derived"
	"TradeCal/internal/domain/models"
)

// CalendarSource loads the base calendar definitions the service serves.
type CalendarSource interface {
	Load(ctx context.Context) ([]derived.Definition, error)
}

// AuditLog persists every changeset operation.
type AuditLog interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Record(ctx context.Context, rec *models.AuditRecord) error
	Query(ctx context.Context, calendar string, since, until time.Time, limit int) ([]*models.AuditRecord, error) // zero bounds are open
	Health(ctx context.Context) error
	Close() error
}

// Publisher announces calendar invalidation events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev *models.CalendarEvent) error
	Close() error
}

type Metrics interface {
	RecordBuild(calendar, outcome string)
	RecordOverride(calendar, operation string)
	RecordError(kind string)
	RecordPendingChanges(calendar string, count int)
	RecordLatency(op string, seconds float64)
}

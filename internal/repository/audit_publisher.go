package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	pkgkafka "TradeCal/pkg/kafka"
)

// ClickHouseAuditLog implements AuditLog for ClickHouse.
type ClickHouseAuditLog struct {
	db    *sql.DB
	table string
}

// NewClickHouseAuditLog creates ClickHouse audit log storage.
func NewClickHouseAuditLog(db *sql.DB, table string) drepo.AuditLog {
	return &ClickHouseAuditLog{db: db, table: table}
}

func (a *ClickHouseAuditLog) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		at DateTime64(3),
		calendar String,
		operation String,
		payload String
	) ENGINE = MergeTree() ORDER BY (calendar, at)`, a.table)
	_, err := a.db.ExecContext(ctx, q)
	return err
}

func (a *ClickHouseAuditLog) Record(ctx context.Context, rec *models.AuditRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (at, calendar, operation, payload) VALUES (?, ?, ?, ?)", a.table)
	_, err := a.db.ExecContext(ctx, q, rec.At, rec.Calendar, rec.Operation, rec.Payload)
	return err
}

func (a *ClickHouseAuditLog) Query(ctx context.Context, calendar string, since, until time.Time, limit int) ([]*models.AuditRecord, error) {
	q := fmt.Sprintf("SELECT at, calendar, operation, payload FROM %s WHERE calendar = ?", a.table)
	args := []interface{}{calendar}
	if !since.IsZero() {
		q += " AND at >= ?"
		args = append(args, since)
	}
	if !until.IsZero() {
		q += " AND at <= ?"
		args = append(args, until)
	}
	q += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.AuditRecord
	for rows.Next() {
		var rec models.AuditRecord
		if err := rows.Scan(&rec.At, &rec.Calendar, &rec.Operation, &rec.Payload); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (a *ClickHouseAuditLog) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseAuditLog) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka. Events are keyed by
// calendar so consumers see per-calendar ordering.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka invalidation publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.CalendarEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Calendar), ev)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopAuditLog discards audit records when persistence is disabled.
type NoopAuditLog struct{}

func (NoopAuditLog) Init(ctx context.Context) error { return nil }
func (NoopAuditLog) Record(ctx context.Context, rec *models.AuditRecord) error {
	return nil
}
func (NoopAuditLog) Query(ctx context.Context, calendar string, since, until time.Time, limit int) ([]*models.AuditRecord, error) {
	return nil, nil
}
func (NoopAuditLog) Health(ctx context.Context) error { return nil }

func (NoopAuditLog) Close() error { return nil }

// NoopPublisher drops events when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, ev *models.CalendarEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	pkgkafka "TradeCal/pkg/kafka"
)

// InvalidationHandler consumes calendar events published by other
// instances and drops the matching local cache entries, so every replica
// rebuilds after any of them applies an override.
type InvalidationHandler struct {
	topic     string
	calendars *CalendarService
	metrics   drepo.Metrics
}

func NewInvalidationHandler(topic string, calendars *CalendarService, metrics drepo.Metrics) *InvalidationHandler {
	return &InvalidationHandler{topic: topic, calendars: calendars, metrics: metrics}
}

func (h *InvalidationHandler) Topic() string { return h.topic }

func (h *InvalidationHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.CalendarEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if ev.Calendar == "" {
		// An event without a calendar key drops every cached calendar.
		h.calendars.InvalidateAll(ctx)
		return nil
	}
	h.calendars.Invalidate(ctx, ev.Calendar)
	if !ev.At.IsZero() {
		h.metrics.RecordLatency("invalidate_e2e_seconds", time.Since(ev.At).Seconds())
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*InvalidationHandler)(nil)

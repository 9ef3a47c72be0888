package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	"TradeCal/internal/handler/api"
	internalrepo "TradeCal/internal/repository"
	"TradeCal/internal/service/notify"
	"TradeCal/internal/service/ratelimit"
	"TradeCal/internal/usecase"
	"TradeCal/pkg/cache"
	pkgch "TradeCal/pkg/clickhouse"
	"TradeCal/pkg/config"
	xhttp "TradeCal/pkg/http"
	pkgkafka "TradeCal/pkg/kafka"
	applogger "TradeCal/pkg/logger"
	"TradeCal/pkg/metrics"
	"TradeCal/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideChangeSetStore creates the in-memory changeset store.
func ProvideChangeSetStore() *changeset.Store {
	return changeset.NewStore()
}

// ProvideCalendarSource creates the calendar source, remote when a URL
// is configured, local YAML files otherwise.
func ProvideCalendarSource(cfg *config.Config) drepo.CalendarSource {
	if cfg.Calendars.URL != "" {
		return internalrepo.NewHTTPCalendarSource(cfg.Calendars.URL)
	}
	return internalrepo.NewYAMLCalendarSource(cfg.Calendars.Dir)
}

// ProvideCache selects a layered memory+Redis cache when Redis is
// configured, an in-process memory cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Cache.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideClickHouseClient creates a ClickHouse client when auditing is
// enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Audit.Host),
		pkgch.WithPort(cfg.Audit.Port),
		pkgch.WithDatabase(cfg.Audit.Database),
		pkgch.WithCredentials(cfg.Audit.User, cfg.Audit.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.Audit.UseHTTP),
		pkgch.WithAsyncInsert(cfg.Audit.AsyncInsert, cfg.Audit.WaitForAsync),
		pkgch.WithTimeouts(cfg.Audit.DialTimeout, cfg.Audit.ReadTimeout, cfg.Audit.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.Audit.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAuditLog creates the ClickHouse audit log, or a no-op one when
// auditing is disabled.
func ProvideAuditLog(chClient *pkgch.Client, cfg *config.Config) (drepo.AuditLog, error) {
	if chClient == nil {
		return internalrepo.NoopAuditLog{}, nil
	}

	audit := internalrepo.NewClickHouseAuditLog(chClient.DB(), cfg.Audit.Database+".calendar_audit")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := audit.Init(ctx); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return audit, nil
}

// ProvideKafkaProducer creates a Kafka producer when publishing is
// enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the invalidation event publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.Publisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the invalidation consumer when Kafka is
// enabled and a consumer group is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.Consumer.GroupID == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCalendarService creates the calendar use case.
func ProvideCalendarService(
	source drepo.CalendarSource,
	store *changeset.Store,
	c cache.Service,
	m drepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) (*usecase.CalendarService, error) {
	start := models.Date{Year: cfg.Calendars.StartYear, Month: 1, Day: 1}
	end := models.Date{Year: cfg.Calendars.EndYear, Month: 12, Day: 31}

	ttl := cfg.Cache.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return usecase.NewCalendarService(source, store, c, m, logger, start, end, ttl)
}

// ProvideHub creates the WebSocket notification hub.
func ProvideHub(logger *applogger.Logger) *notify.Hub {
	return notify.NewHub(logger)
}

// ProvideOverrideService creates the override use case.
func ProvideOverrideService(
	calendars *usecase.CalendarService,
	store *changeset.Store,
	audit drepo.AuditLog,
	publisher drepo.Publisher,
	hub *notify.Hub,
	m drepo.Metrics,
	logger *applogger.Logger,
) *usecase.OverrideService {
	return usecase.NewOverrideService(calendars, store, audit, publisher, hub, m, logger)
}

// ProvideInvalidationHandler registers the handler for the events topic.
func ProvideInvalidationHandler(calendars *usecase.CalendarService, m drepo.Metrics, cfg *config.Config) *usecase.InvalidationHandler {
	return usecase.NewInvalidationHandler(cfg.Kafka.Topic, calendars, m)
}

// ProvideHandler creates the HTTP handler with the write rate limiter.
func ProvideHandler(
	logger *applogger.Logger,
	calendars *usecase.CalendarService,
	overrides *usecase.OverrideService,
	audit drepo.AuditLog,
	hub *notify.Hub,
	cfg *config.Config,
) xhttp.Handler {
	var limiter *ratelimit.Limiter
	rate, burst := 10.0, 20.0
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New()
		if cfg.RateLimit.Rate > 0 {
			rate = float64(cfg.RateLimit.Rate)
		}
		if cfg.RateLimit.Burst > 0 {
			burst = float64(cfg.RateLimit.Burst)
		}
	}
	return api.NewCalendarHandler(logger, calendars, overrides, audit, hub, limiter, rate, burst)
}

// logPublisher adapts the Kafka producer to the log collector sink.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	hub *notify.Hub,
	consumer *pkgkafka.Consumer,
	kh *usecase.InvalidationHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	publisher drepo.Publisher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      logPublisher{producer: producer},
		})
	}
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	return server.New(cfg, logger, handler, hub, consumer, mh, chClient, publisher)
}

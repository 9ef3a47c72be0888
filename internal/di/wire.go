//go:build wireinject
// +build wireinject

package di

import (
	"TradeCal/pkg/config"
	"TradeCal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideChangeSetStore,

		// Repositories (with business logic)
		ProvideCalendarSource,
		ProvideAuditLog,
		ProvidePublisher,

		// Use cases
		ProvideCalendarService,
		ProvideOverrideService,
		ProvideInvalidationHandler,

		// Delivery
		ProvideHub,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

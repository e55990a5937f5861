//go:build wireinject
// +build wireinject

package di

import (
	"SignalForge/pkg/config"
	"SignalForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideSignalStorage,
		ProvideSignalPublisher,
		ProvideDatabentoStream,

		// Use cases
		ProvideBytesCache,
		ProvideRecentSignals,
		ProvideSignalHistory,
		ProvideSignalProcessor,
		ProvideEngineRunner,
		ProvideBarCollector,
		ProvidePositionEventsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

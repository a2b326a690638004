//go:build wireinject
// +build wireinject

package di

import (
	"PriceRadar/pkg/config"
	"PriceRadar/pkg/server"

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
		ProvideSnapshotCache,
		ProvideKafkaConsumer,

		// Catalog and matching
		ProvideKeyGenerator,
		ProvideCatalogSources,

		// Use cases
		ProvideAggregator,
		ProvideRadar,
		ProvideBus,
		ProvideOpportunityIngest,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

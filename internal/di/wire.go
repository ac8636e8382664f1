//go:build wireinject
// +build wireinject

package di

import (
	"PumpScope/pkg/config"
	"PumpScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Exchange clients
		ProvideSymbolCatalog,
		ProvideMarketStream,

		// State and repositories
		ProvideSymbolStore,
		ProvideEpisodeWriters,
		ProvideEpisodeRing,

		// Detection and export
		ProvideRecorder,
		ProvideDetector,

		// Use cases
		ProvideDispatcher,
		ProvideEventCollector,
		ProvideStatusReporter,

		// HTTP
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

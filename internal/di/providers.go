package di

import (
	"context"
	"fmt"
	"time"

	"PumpScope/internal/detection"
	"PumpScope/internal/domain/repository"
	"PumpScope/internal/export"
	"PumpScope/internal/handler/api"
	"PumpScope/internal/marketstore"
	internalrepo "PumpScope/internal/repository"
	"PumpScope/internal/service/mexc"
	"PumpScope/internal/usecase"
	"PumpScope/pkg/config"
	xhttp "PumpScope/pkg/http"
	"PumpScope/pkg/logger"
	"PumpScope/pkg/metrics"
	"PumpScope/pkg/server"
)

const strategyCount = 5

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSymbolCatalog creates the MEXC REST catalog client.
func ProvideSymbolCatalog(cfg *config.Config) repository.SymbolCatalog {
	client := xhttp.NewClient(xhttp.WithTimeout(15 * time.Second))
	return mexc.NewContractClient(cfg.API.BaseRestURL, client)
}

// ProvideSymbolStore builds the store from configured symbols, falling back
// to the full exchange catalog when the list is empty. A catalog failure at
// startup is fatal: there is nothing to monitor without it.
func ProvideSymbolStore(cfg *config.Config, catalog repository.SymbolCatalog, log *logger.Logger) (*marketstore.SymbolStore, error) {
	symbols := cfg.General.Symbols
	if len(symbols) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fetched, err := catalog.ActiveSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch symbol catalog: %w", err)
		}
		symbols = fetched
		cfg.General.Symbols = fetched
		log.Info("symbol catalog fetched", logger.Int("symbols", len(fetched)))
	}
	return marketstore.NewSymbolStore(symbols), nil
}

// ProvideEpisodeWriters opens one append-only episode log per strategy.
func ProvideEpisodeWriters(cfg *config.Config) (map[string]repository.EpisodeWriter, error) {
	writers := make(map[string]repository.EpisodeWriter, strategyCount)
	for i := 1; i <= strategyCount; i++ {
		name := fmt.Sprintf("strategy%d", i)
		w, err := internalrepo.NewEpisodeLog(cfg.General.LogDir, name)
		if err != nil {
			return nil, fmt.Errorf("episode log %s: %w", name, err)
		}
		writers[name] = w
	}
	return writers, nil
}

// ProvideEpisodeRing keeps recent closed episodes for the status API.
func ProvideEpisodeRing() *internalrepo.EpisodeRing {
	return internalrepo.NewEpisodeRing(500)
}

// ProvideRecorder creates the chart recorder, or nil when export is disabled.
func ProvideRecorder(cfg *config.Config, store *marketstore.SymbolStore, log *logger.Logger, m repository.Metrics) (*export.Recorder, error) {
	if !cfg.ChartExport.Enabled {
		return nil, nil
	}
	tail := time.Duration(cfg.ChartExport.PostAnomalySecs) * time.Second
	return export.NewRecorder(cfg.ChartExport.ChartsDir, tail, store, log, m)
}

// ProvideDetector builds the strategy rulesets and their side effects.
func ProvideDetector(
	cfg *config.Config,
	writers map[string]repository.EpisodeWriter,
	recorder *export.Recorder,
	ring *internalrepo.EpisodeRing,
	log *logger.Logger,
	m repository.Metrics,
) *detection.Detector {
	var chartRecorder repository.ChartRecorder
	if recorder != nil {
		chartRecorder = recorder
	}
	return detection.NewDetector(cfg, writers, chartRecorder, ring, log, m)
}

// ProvideDispatcher wires the per-event dispatch cycle.
func ProvideDispatcher(store *marketstore.SymbolStore, detector *detection.Detector, recorder *export.Recorder, m repository.Metrics) *usecase.Dispatcher {
	return usecase.NewDispatcher(store, detector, recorder, m)
}

// ProvideMarketStream creates the MEXC WebSocket stream.
func ProvideMarketStream(cfg *config.Config, store *marketstore.SymbolStore, log *logger.Logger) repository.MarketStream {
	return mexc.New(
		cfg.API.BaseWSURL,
		store.Symbols(),
		cfg.Orderbook.MaxLevels,
		time.Second,
		cfg.API.PingInterval,
		log,
	)
}

// ProvideEventCollector creates the stream consume loop.
func ProvideEventCollector(stream repository.MarketStream, dispatcher *usecase.Dispatcher, m repository.Metrics, log *logger.Logger) *usecase.EventCollector {
	return usecase.NewEventCollector(stream, dispatcher, m, log)
}

// ProvideStatusReporter creates the periodic status logger.
func ProvideStatusReporter(store *marketstore.SymbolStore, collector *usecase.EventCollector, dispatcher *usecase.Dispatcher, recorder *export.Recorder, log *logger.Logger) *usecase.StatusReporter {
	return usecase.NewStatusReporter(store, collector, dispatcher, recorder, log)
}

// ProvideStatusHandler creates the status API handler.
func ProvideStatusHandler(
	log *logger.Logger,
	store *marketstore.SymbolStore,
	collector *usecase.EventCollector,
	dispatcher *usecase.Dispatcher,
	recorder *export.Recorder,
	ring *internalrepo.EpisodeRing,
) xhttp.Handler {
	return api.NewStatusEchoHandler(log, store, collector, dispatcher, recorder, ring)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.EventCollector,
	status *usecase.StatusReporter,
	recorder *export.Recorder,
	writers map[string]repository.EpisodeWriter,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, collector, status, recorder, writers, handler)
}

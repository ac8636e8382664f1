package repository

import (
	"context"
	"time"

	"PumpScope/internal/domain/models"
)

// MarketStream delivers normalized market events from the exchange.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.MarketEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SymbolCatalog lists tradable symbols from the exchange REST API.
type SymbolCatalog interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// EpisodeWriter appends closed episodes to a strategy's durable audit trail.
type EpisodeWriter interface {
	Append(ep *models.Episode, endTime time.Time) error
	Close() error
}

// ChartRecorder captures candle charts around anomaly episodes.
type ChartRecorder interface {
	Start(symbol, strategy string, lastPre, markPre []models.Candle)
	MarkEnded(symbol, strategy string)
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordEvent(kind string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordEpisodeStarted(strategy string)
	RecordEpisodeEnded(strategy string)
	RecordActiveRecordings(n int)
	RecordLatency(op string, seconds float64)
}

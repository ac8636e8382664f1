package usecase

import (
	"context"
	"math/rand"
	"time"

	"PumpScope/internal/export"
	"PumpScope/internal/marketstore"
	"PumpScope/pkg/logger"
)

const (
	summaryInterval = 60 * time.Second
	traceInterval   = 10 * time.Second
)

// StatusReporter logs a periodic pipeline summary plus a random-symbol trace
// so a quiet deployment still shows signs of life in the logs.
type StatusReporter struct {
	store     *marketstore.SymbolStore
	collector *EventCollector
	dispatch  *Dispatcher
	recorder  *export.Recorder
	log       *logger.Logger
	startedAt time.Time
}

func NewStatusReporter(store *marketstore.SymbolStore, collector *EventCollector, dispatch *Dispatcher, recorder *export.Recorder, log *logger.Logger) *StatusReporter {
	return &StatusReporter{
		store:     store,
		collector: collector,
		dispatch:  dispatch,
		recorder:  recorder,
		log:       log,
		startedAt: time.Now().UTC(),
	}
}

// Start launches the summary and trace loops; both stop with ctx.
func (r *StatusReporter) Start(ctx context.Context) {
	go r.summaryLoop(ctx)
	go r.traceLoop(ctx)
}

func (r *StatusReporter) summaryLoop(ctx context.Context) {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recordings := 0
			if r.recorder != nil {
				recordings = r.recorder.ActiveCount()
			}
			r.log.Info("pipeline status",
				logger.Bool("connected", r.collector.IsConnected()),
				logger.Int("symbols", r.store.Len()),
				logger.Int("symbols_with_data", r.store.CountWithPrices()),
				logger.Int("active_episodes", r.dispatch.ActiveEpisodes()),
				logger.Int("active_recordings", recordings),
				logger.Duration("uptime", time.Since(r.startedAt)),
			)
		}
	}
}

func (r *StatusReporter) traceLoop(ctx context.Context) {
	ticker := time.NewTicker(traceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.traceRandomSymbol()
		}
	}
}

// traceRandomSymbol logs the live state of one randomly chosen symbol.
// Symbols with no data yet trace as pending rather than being skipped, which
// makes dead subscriptions visible.
func (r *StatusReporter) traceRandomSymbol() {
	symbols := r.store.Symbols()
	if len(symbols) == 0 {
		return
	}
	sym := symbols[rand.Intn(len(symbols))]

	r.store.WithState(sym, func(st *marketstore.SymbolState) {
		last, okLast := st.LastPrice()
		mark, okMark := st.MarkPrice()
		if !okLast || !okMark {
			r.log.Debug("symbol trace: awaiting data", logger.String("symbol", sym))
			return
		}
		lastCount, markCount := st.Candles().CompletedCount()
		r.log.Debug("symbol trace",
			logger.String("symbol", sym),
			logger.Float64("last_price", last),
			logger.Float64("mark_price", mark),
			logger.Float64("ratio", last/mark),
			logger.Int("history_len", st.HistoryLen()),
			logger.Int("candles_last", lastCount),
			logger.Int("candles_mark", markCount),
			logger.Bool("has_book", st.Orderbook() != nil),
		)
	})
}

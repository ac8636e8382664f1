package usecase

import (
	"time"

	"PumpScope/internal/detection"
	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/internal/export"
	"PumpScope/internal/marketstore"
)

// Dispatcher routes one market event at a time: update the symbol's state,
// run the strategies that care about the event kind, then capture candles for
// any live recording. It runs on the single consume goroutine, so state
// mutation and strategy evaluation never race per symbol.
type Dispatcher struct {
	store    *marketstore.SymbolStore
	detector *detection.Detector
	recorder *export.Recorder
	metrics  drepo.Metrics
}

// NewDispatcher wires the dispatch cycle. recorder may be nil when chart
// export is disabled.
func NewDispatcher(store *marketstore.SymbolStore, detector *detection.Detector, recorder *export.Recorder, metrics drepo.Metrics) *Dispatcher {
	return &Dispatcher{store: store, detector: detector, recorder: recorder, metrics: metrics}
}

// Dispatch applies one event. Events for symbols outside the monitored set
// are ignored.
func (d *Dispatcher) Dispatch(ev models.MarketEvent) {
	start := time.Now()

	known := d.store.WithState(ev.Symbol, func(st *marketstore.SymbolState) {
		switch ev.Kind {
		case models.EventTicker:
			st.UpdateLastPrice(ev.LastPrice, ev.Timestamp)
			d.metrics.RecordLastPrice(ev.Symbol, ev.LastPrice)
			if ev.MarkPrice != nil {
				st.UpdateMarkPrice(*ev.MarkPrice, ev.Timestamp)
			}
			d.detector.CheckAll(st)

		case models.EventMarkPrice:
			if ev.MarkPrice != nil {
				st.UpdateMarkPrice(*ev.MarkPrice, ev.Timestamp)
			}
			d.detector.CheckAll(st)

		case models.EventOrderbook:
			if ev.Orderbook != nil {
				st.UpdateOrderbook(ev.Orderbook)
			}
			// Depth alone cannot move last or mark price, so only the
			// book-dependent strategies re-evaluate.
			d.detector.CheckBook(st)
		}

		if d.recorder != nil {
			d.recorder.Capture(st)
		}
	})
	if !known {
		return
	}

	d.metrics.RecordEvent(ev.Kind.String())
	d.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
}

// ActiveEpisodes reports open episodes across strategies for the status API.
func (d *Dispatcher) ActiveEpisodes() int {
	return d.detector.ActiveEpisodes()
}

package marketstore

import (
	"time"

	"PumpScope/internal/domain/models"
)

// historyRetention bounds the rolling price history window.
const historyRetention = 120 * time.Second

// SymbolState is the per-symbol aggregate: latest prices, rolling price
// history, latest order book, and the owned candle buffer. It is mutated only
// under its store entry lock.
type SymbolState struct {
	symbol     string
	lastPrice  float64
	markPrice  float64
	hasLast    bool
	hasMark    bool
	orderbook  *models.Orderbook
	lastUpdate time.Time
	history    []models.PriceSnapshot
	candles    *CandleBuffer
}

func NewSymbolState(symbol string) *SymbolState {
	return &SymbolState{
		symbol:  symbol,
		candles: NewCandleBuffer(),
	}
}

func (s *SymbolState) Symbol() string { return s.symbol }

// LastPrice returns the latest last price, false until the first update.
func (s *SymbolState) LastPrice() (float64, bool) { return s.lastPrice, s.hasLast }

// MarkPrice returns the latest mark price, false until the first update.
func (s *SymbolState) MarkPrice() (float64, bool) { return s.markPrice, s.hasMark }

func (s *SymbolState) Orderbook() *models.Orderbook { return s.orderbook }

func (s *SymbolState) LastUpdate() time.Time { return s.lastUpdate }

func (s *SymbolState) Candles() *CandleBuffer { return s.candles }

func (s *SymbolState) HistoryLen() int { return len(s.history) }

// UpdateLastPrice applies a last-price sample at the given event time.
func (s *SymbolState) UpdateLastPrice(price float64, ts time.Time) {
	changed := !s.hasLast || s.lastPrice != price
	s.lastPrice = price
	s.hasLast = true
	s.lastUpdate = ts
	s.candles.ObserveLast(price, ts)
	if changed {
		s.appendHistory(ts)
	}
}

// UpdateMarkPrice applies a mark-price sample at the given event time.
func (s *SymbolState) UpdateMarkPrice(price float64, ts time.Time) {
	changed := !s.hasMark || s.markPrice != price
	s.markPrice = price
	s.hasMark = true
	s.lastUpdate = ts
	s.candles.ObserveMark(price, ts)
	if changed {
		s.appendHistory(ts)
	}
}

// UpdateOrderbook replaces the latest processed depth snapshot.
func (s *SymbolState) UpdateOrderbook(ob *models.Orderbook) {
	s.orderbook = ob
	if ob.Timestamp.After(s.lastUpdate) {
		s.lastUpdate = ob.Timestamp
	}
}

func (s *SymbolState) appendHistory(ts time.Time) {
	if !s.hasLast || !s.hasMark {
		return
	}
	s.history = append(s.history, models.PriceSnapshot{
		LastPrice: s.lastPrice,
		MarkPrice: s.markPrice,
		Timestamp: ts,
	})

	cutoff := ts.Add(-historyRetention)
	i := 0
	for i < len(s.history) && s.history[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.history = s.history[i:]
	}
}

// PriceAt returns the last price of the most recent history entry at or before
// the given horizon, relative to the latest event time. False when history does
// not reach back that far.
func (s *SymbolState) PriceAt(secondsAgo int) (float64, bool) {
	target := s.lastUpdate.Add(-time.Duration(secondsAgo) * time.Second)
	for i := len(s.history) - 1; i >= 0; i-- {
		if !s.history[i].Timestamp.After(target) {
			return s.history[i].LastPrice, true
		}
	}
	return 0, false
}

// BaselinePrices returns the mean last and mark price over the trailing window,
// relative to the latest event time. False when the window holds no entries.
func (s *SymbolState) BaselinePrices(windowSecs int) (float64, float64, bool) {
	cutoff := s.lastUpdate.Add(-time.Duration(windowSecs) * time.Second)
	var sumLast, sumMark float64
	var n int
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Timestamp.Before(cutoff) {
			break
		}
		sumLast += s.history[i].LastPrice
		sumMark += s.history[i].MarkPrice
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sumLast / float64(n), sumMark / float64(n), true
}

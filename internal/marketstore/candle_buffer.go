package marketstore

import (
	"time"

	"PumpScope/internal/domain/models"
	"PumpScope/pkg/util"
)

const (
	// CandleWindowMS is the fixed downsampling window width.
	CandleWindowMS int64 = 500
	// MaxCompletedCandles bounds the completed-candle ring per series (20s).
	MaxCompletedCandles = 40
)

// candleSeries tracks one price series: the candle for the currently open
// window, a bounded ring of completed candles, and the last observed price
// used to forward-fill windows with no updates.
type candleSeries struct {
	current   *models.Candle
	completed []models.Candle
	lastPrice float64
	seen      bool
}

func (s *candleSeries) apply(windowStartMS int64, price float64) {
	s.seen = true
	s.lastPrice = price
	if s.current == nil {
		c := models.NewCandle(windowStartMS, price)
		s.current = &c
		return
	}
	s.current.Update(price)
}

func (s *candleSeries) archive(c models.Candle) {
	s.completed = append(s.completed, c)
	if len(s.completed) > MaxCompletedCandles {
		s.completed = s.completed[1:]
	}
}

// roll closes the window at fromMS and forward-fills every whole window up to
// (but excluding) toMS. A series that has never observed a price stays empty,
// so its completed run still starts at its first observed window.
func (s *candleSeries) roll(fromMS, toMS int64) {
	if s.current != nil {
		s.archive(*s.current)
		s.current = nil
	} else if s.seen {
		s.archive(models.NewCandle(fromMS, s.lastPrice))
	}
	if !s.seen {
		return
	}
	for w := fromMS + CandleWindowMS; w < toMS; w += CandleWindowMS {
		s.archive(models.NewCandle(w, s.lastPrice))
	}
}

func (s *candleSeries) tail(n int) []models.Candle {
	if n > len(s.completed) {
		n = len(s.completed)
	}
	out := make([]models.Candle, n)
	copy(out, s.completed[len(s.completed)-n:])
	return out
}

func (s *candleSeries) all() []models.Candle {
	out := make([]models.Candle, len(s.completed))
	copy(out, s.completed)
	return out
}

func (s *candleSeries) since(windowStartMS int64) []models.Candle {
	var out []models.Candle
	for _, c := range s.completed {
		if c.TimestampMS > windowStartMS {
			out = append(out, c)
		}
	}
	return out
}

// CandleBuffer downsamples an irregular stream of price updates for one symbol
// into two parallel fixed-width candle series (last price and mark price).
// Completed windows are contiguous per series: windows with no observed update
// are synthesized from the last known price.
type CandleBuffer struct {
	curWindowMS int64
	started     bool
	last        candleSeries
	mark        candleSeries
}

func NewCandleBuffer() *CandleBuffer {
	return &CandleBuffer{}
}

// ObserveLast folds a last-price sample into the buffer.
func (b *CandleBuffer) ObserveLast(price float64, ts time.Time) {
	w := b.advance(ts)
	b.last.apply(w, price)
}

// ObserveMark folds a mark-price sample into the buffer.
func (b *CandleBuffer) ObserveMark(price float64, ts time.Time) {
	w := b.advance(ts)
	b.mark.apply(w, price)
}

func (b *CandleBuffer) advance(ts time.Time) int64 {
	w := util.WindowStartMS(ts, CandleWindowMS)
	if !b.started {
		b.curWindowMS = w
		b.started = true
		return w
	}
	if w <= b.curWindowMS {
		// Same window, or a slightly late sample folded into the open window.
		return b.curWindowMS
	}
	b.last.roll(b.curWindowMS, w)
	b.mark.roll(b.curWindowMS, w)
	b.curWindowMS = w
	return w
}

// Recent returns the completed candles covering the trailing span, per series,
// oldest to newest.
func (b *CandleBuffer) Recent(span time.Duration) ([]models.Candle, []models.Candle) {
	n := util.WindowsIn(span, CandleWindowMS)
	return b.last.tail(n), b.mark.tail(n)
}

// PreBuffer slices the full retained ring the same way Recent does; it exists
// so recording sessions can be seeded from everything the ring still holds.
func (b *CandleBuffer) PreBuffer(span time.Duration) ([]models.Candle, []models.Candle) {
	n := util.WindowsIn(span, CandleWindowMS)
	return b.last.tail(n), b.mark.tail(n)
}

// AllCompleted returns the full retained ring per series.
func (b *CandleBuffer) AllCompleted() ([]models.Candle, []models.Candle) {
	return b.last.all(), b.mark.all()
}

// CompletedSince returns completed candles with a window start strictly after
// the given cursors, per series. Recording sessions use this to accumulate
// without double-counting.
func (b *CandleBuffer) CompletedSince(lastCursorMS, markCursorMS int64) ([]models.Candle, []models.Candle) {
	return b.last.since(lastCursorMS), b.mark.since(markCursorMS)
}

// CompletedCount reports ring sizes for diagnostics.
func (b *CandleBuffer) CompletedCount() (int, int) {
	return len(b.last.completed), len(b.mark.completed)
}

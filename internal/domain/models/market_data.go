package models

import "time"

// EventKind discriminates market event variants coming off the stream.
type EventKind int

const (
	EventTicker EventKind = iota
	EventMarkPrice
	EventOrderbook
)

func (k EventKind) String() string {
	switch k {
	case EventTicker:
		return "ticker"
	case EventMarkPrice:
		return "mark_price"
	case EventOrderbook:
		return "orderbook"
	}
	return "unknown"
}

// MarketEvent is a normalized exchange event. Exactly one variant is populated
// according to Kind; TickerUpdate may or may not carry a mark price.
type MarketEvent struct {
	Kind      EventKind
	Symbol    string
	LastPrice float64
	MarkPrice *float64
	Orderbook *Orderbook
	Timestamp time.Time
}

// OrderbookLevel is a single price level.
type OrderbookLevel struct {
	Price    float64
	Quantity float64
}

// Orderbook is a processed depth snapshot: bids descending, asks ascending,
// both truncated to the configured maximum depth by the transport layer.
type Orderbook struct {
	Bids      []OrderbookLevel
	Asks      []OrderbookLevel
	Timestamp time.Time
}

// MidPrice returns (best_bid+best_ask)/2, false when either side is empty.
func (o *Orderbook) MidPrice() (float64, bool) {
	if len(o.Bids) == 0 || len(o.Asks) == 0 {
		return 0, false
	}
	return (o.Bids[0].Price + o.Asks[0].Price) / 2, true
}

// SpreadPct returns (best_ask-best_bid)/mid, false when either side is empty.
func (o *Orderbook) SpreadPct() (float64, bool) {
	if len(o.Bids) == 0 || len(o.Asks) == 0 {
		return 0, false
	}
	mid := (o.Bids[0].Price + o.Asks[0].Price) / 2
	return (o.Asks[0].Price - o.Bids[0].Price) / mid, true
}

// DepthInBand sums bid notional for bids priced >= mid*(1-band) and ask
// notional for asks priced <= mid*(1+band).
func (o *Orderbook) DepthInBand(mid, bandPct float64) float64 {
	lower := mid * (1 - bandPct)
	upper := mid * (1 + bandPct)

	var depth float64
	for _, l := range o.Bids {
		if l.Price >= lower {
			depth += l.Price * l.Quantity
		}
	}
	for _, l := range o.Asks {
		if l.Price <= upper {
			depth += l.Price * l.Quantity
		}
	}
	return depth
}

// PriceSnapshot is one entry of a symbol's rolling price history.
type PriceSnapshot struct {
	LastPrice float64
	MarkPrice float64
	Timestamp time.Time
}

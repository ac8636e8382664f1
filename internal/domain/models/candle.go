package models

// Candle is one OHLCV bar for a fixed time window of a single price series.
// Volume is always zero: the ticker feed carries no per-window volume.
type Candle struct {
	TimestampMS int64
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// NewCandle opens a candle from a single price sample.
func NewCandle(windowStartMS int64, price float64) Candle {
	return Candle{
		TimestampMS: windowStartMS,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
	}
}

// Update folds another sample observed within the same window into the candle.
func (c *Candle) Update(price float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}

package models

import "time"

// Episode is one active anomaly instance for a (strategy, symbol) pair.
type Episode struct {
	Symbol        string
	StartTime     time.Time
	PeakRatio     float64
	PeakLastPrice float64
	PeakMarkPrice float64
}

// NewEpisode opens an episode with the peak seeded from the triggering values.
func NewEpisode(symbol string, startTime time.Time, ratio, lastPrice, markPrice float64) *Episode {
	return &Episode{
		Symbol:        symbol,
		StartTime:     startTime,
		PeakRatio:     ratio,
		PeakLastPrice: lastPrice,
		PeakMarkPrice: markPrice,
	}
}

// UpdatePeak replaces the stored peak only on strict ratio improvement.
func (e *Episode) UpdatePeak(ratio, lastPrice, markPrice float64) {
	if ratio > e.PeakRatio {
		e.PeakRatio = ratio
		e.PeakLastPrice = lastPrice
		e.PeakMarkPrice = markPrice
	}
}

// ClosedEpisode is an episode after its condition stopped holding, as kept in
// the in-memory ring for the status API.
type ClosedEpisode struct {
	Strategy     string    `json:"strategy"`
	Symbol       string    `json:"symbol"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DurationSecs int64     `json:"duration_secs"`
	PeakRatio    float64   `json:"peak_ratio"`
	PeakLast     float64   `json:"peak_last_price"`
	PeakMark     float64   `json:"peak_mark_price"`
}

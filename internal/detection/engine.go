package detection

import (
	"PumpScope/internal/marketstore"
)

// Verdict is the tri-state outcome of a predicate.
type Verdict int

const (
	// VerdictMet: the predicate's condition holds.
	VerdictMet Verdict = iota
	// VerdictNotMet: the condition fails; the tracker must be told so an
	// active episode closes.
	VerdictNotMet
	// VerdictDefer: supporting data (history depth, order book) is missing;
	// evaluation is skipped entirely without touching the tracker.
	VerdictDefer
)

// Predicate evaluates one anomaly signal against a symbol state snapshot.
// ratio and absDiff are precomputed from the current last/mark prices.
type Predicate func(st *marketstore.SymbolState, ratio, absDiff float64) Verdict

// Ruleset is one strategy: an ordered list of predicates that must all hold,
// plus its own gating and episode tracker. The five shipped strategies differ
// only in which predicates they carry and with which thresholds.
type Ruleset struct {
	Name     string
	Enabled  bool
	MinPrice float64
	UsesBook bool

	predicates []Predicate
	tracker    *EpisodeTracker
}

// SpreadPredicate requires ratio >= ratioMin and (last-mark) >= minAbsDiff.
func SpreadPredicate(ratioMin, minAbsDiff float64) Predicate {
	return func(_ *marketstore.SymbolState, ratio, absDiff float64) Verdict {
		if ratio >= ratioMin && absDiff >= minAbsDiff {
			return VerdictMet
		}
		return VerdictNotMet
	}
}

// SpikePredicate requires last_price to exceed the price observed lookbackSecs
// ago by spikeRatioMin. Defers while history does not reach back that far.
func SpikePredicate(lookbackSecs int, spikeRatioMin float64) Predicate {
	return func(st *marketstore.SymbolState, _, _ float64) Verdict {
		historical, ok := st.PriceAt(lookbackSecs)
		if !ok {
			return VerdictDefer
		}
		last, _ := st.LastPrice()
		if last/historical >= spikeRatioMin {
			return VerdictMet
		}
		return VerdictNotMet
	}
}

// BaselinePredicate requires last_price to exceed the trailing-window mean by
// pumpMin while the mark price stays within markStabilityMax of its own mean.
// Defers while the window holds no history.
func BaselinePredicate(windowSecs int, pumpMin, markStabilityMax float64) Predicate {
	return func(st *marketstore.SymbolState, _, _ float64) Verdict {
		baseLast, baseMark, ok := st.BaselinePrices(windowSecs)
		if !ok {
			return VerdictDefer
		}
		last, _ := st.LastPrice()
		mark, _ := st.MarkPrice()
		if last/baseLast < pumpMin {
			return VerdictNotMet
		}
		deviation := mark/baseMark - 1
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation <= markStabilityMax {
			return VerdictMet
		}
		return VerdictNotMet
	}
}

// DepthPredicate requires a tight book with thick notional depth around mid.
// Defers while no depth snapshot with both sides exists.
func DepthPredicate(depthBandPct, minDepthNotional, maxSpreadPct float64) Predicate {
	return func(st *marketstore.SymbolState, _, _ float64) Verdict {
		ob := st.Orderbook()
		if ob == nil {
			return VerdictDefer
		}
		mid, ok := ob.MidPrice()
		if !ok {
			return VerdictDefer
		}
		spread, ok := ob.SpreadPct()
		if !ok {
			return VerdictDefer
		}
		if spread > maxSpreadPct {
			return VerdictNotMet
		}
		if ob.DepthInBand(mid, depthBandPct) >= minDepthNotional {
			return VerdictMet
		}
		return VerdictNotMet
	}
}

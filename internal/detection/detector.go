package detection

import (
	"time"

	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/internal/marketstore"
	"PumpScope/pkg/config"
	"PumpScope/pkg/logger"
)

// EpisodeArchive keeps recently closed episodes in memory for the status API.
type EpisodeArchive interface {
	Add(ep models.ClosedEpisode)
}

// Detector runs the five strategy rulesets against symbol state snapshots and
// drives the episode side effects: audit logging, chart recording, metrics.
// It is owned by the dispatch goroutine.
type Detector struct {
	rules    []*Ruleset
	writers  map[string]drepo.EpisodeWriter
	recorder drepo.ChartRecorder
	archive  EpisodeArchive
	preBuf   time.Duration
	log      *logger.Logger
	metrics  drepo.Metrics
}

// NewDetector builds the shipped rulesets from configuration. writers maps
// strategy name to its episode log; recorder may be nil when chart export is
// disabled; archive may be nil.
func NewDetector(
	cfg *config.Config,
	writers map[string]drepo.EpisodeWriter,
	recorder drepo.ChartRecorder,
	archive EpisodeArchive,
	log *logger.Logger,
	metrics drepo.Metrics,
) *Detector {
	cooldown := time.Duration(cfg.Cooldowns.PerSymbolSeconds) * time.Second

	s1 := cfg.Strategy1
	s2 := cfg.Strategy2
	s3 := cfg.Strategy3
	s4 := cfg.Strategy4
	ob := cfg.Orderbook

	rules := []*Ruleset{
		{
			Name:     "strategy1",
			Enabled:  s1.Enabled,
			MinPrice: s1.MinPrice,
			predicates: []Predicate{
				SpreadPredicate(s1.SpreadRatioMin, s1.MinAbsDiff),
			},
		},
		{
			Name:     "strategy2",
			Enabled:  s2.Enabled,
			MinPrice: s2.MinPrice,
			predicates: []Predicate{
				SpreadPredicate(s2.SpreadRatioMin, 0),
				SpikePredicate(s2.SpikeLookbackSecs, s2.SpikeRatioMin),
			},
		},
		{
			Name:     "strategy3",
			Enabled:  s3.Enabled,
			MinPrice: s3.MinPrice,
			predicates: []Predicate{
				SpreadPredicate(s3.SpreadRatioMin, 0),
				BaselinePredicate(s3.BaselineWindowSecs, s3.PumpVsBaselineMin, s3.MarkStabilityMax),
			},
		},
		{
			Name:     "strategy4",
			Enabled:  s4.Enabled,
			MinPrice: s4.MinPrice,
			UsesBook: true,
			predicates: []Predicate{
				SpreadPredicate(s4.SpreadRatioMin, s4.MinAbsDiff),
				DepthPredicate(ob.DepthBandPct, ob.MinThickDepthUSDT, ob.MaxSpreadPct),
			},
		},
		{
			// All four signal families simultaneously, each with its own
			// strategy's thresholds.
			Name:     "strategy5",
			Enabled:  cfg.Strategy5.Enabled,
			MinPrice: cfg.Strategy5.MinPrice,
			UsesBook: true,
			predicates: []Predicate{
				SpreadPredicate(s1.SpreadRatioMin, s1.MinAbsDiff),
				SpreadPredicate(s2.SpreadRatioMin, 0),
				SpikePredicate(s2.SpikeLookbackSecs, s2.SpikeRatioMin),
				SpreadPredicate(s3.SpreadRatioMin, 0),
				BaselinePredicate(s3.BaselineWindowSecs, s3.PumpVsBaselineMin, s3.MarkStabilityMax),
				SpreadPredicate(s4.SpreadRatioMin, s4.MinAbsDiff),
				DepthPredicate(ob.DepthBandPct, ob.MinThickDepthUSDT, ob.MaxSpreadPct),
			},
		},
	}
	for _, r := range rules {
		r.tracker = NewEpisodeTracker(cooldown)
	}

	return &Detector{
		rules:    rules,
		writers:  writers,
		recorder: recorder,
		archive:  archive,
		preBuf:   time.Duration(cfg.ChartExport.PreAnomalyBufferSecs) * time.Second,
		log:      log,
		metrics:  metrics,
	}
}

// CheckAll evaluates every enabled strategy against the state snapshot.
func (d *Detector) CheckAll(st *marketstore.SymbolState) {
	for _, r := range d.rules {
		d.check(r, st)
	}
}

// CheckBook evaluates only the order-book dependent strategies; used for
// depth-only events, matching the dispatch behavior for ticker events.
func (d *Detector) CheckBook(st *marketstore.SymbolState) {
	for _, r := range d.rules {
		if r.UsesBook {
			d.check(r, st)
		}
	}
}

// ActiveEpisodes returns the number of open episodes across all strategies.
func (d *Detector) ActiveEpisodes() int {
	n := 0
	for _, r := range d.rules {
		n += r.tracker.ActiveCount()
	}
	return n
}

func (d *Detector) check(r *Ruleset, st *marketstore.SymbolState) {
	if !r.Enabled {
		return
	}
	last, okLast := st.LastPrice()
	mark, okMark := st.MarkPrice()
	if !okLast || !okMark {
		return
	}

	ratio := last / mark
	absDiff := last - mark
	now := st.LastUpdate()

	// A price below the dust floor is a not-met observation, not a skip, so a
	// dropping price still closes its active episode.
	conditionMet := last >= r.MinPrice
	if conditionMet {
		for _, p := range r.predicates {
			switch p(st, ratio, absDiff) {
			case VerdictDefer:
				// Missing prerequisites: skip without closing an active episode.
				return
			case VerdictNotMet:
				conditionMet = false
			}
			if !conditionMet {
				break
			}
		}
	}

	closed, started := r.tracker.Evaluate(st.Symbol(), conditionMet, ratio, last, mark, now)

	if started {
		d.log.Info("anomaly detected",
			logger.String("strategy", r.Name),
			logger.String("symbol", st.Symbol()),
			logger.Float64("ratio", ratio),
			logger.Float64("last_price", last),
			logger.Float64("mark_price", mark),
		)
		d.metrics.RecordEpisodeStarted(r.Name)

		if d.recorder != nil {
			lastPre, markPre := st.Candles().PreBuffer(d.preBuf)
			d.recorder.Start(st.Symbol(), r.Name, lastPre, markPre)
		}
	}

	if closed != nil {
		d.closeEpisode(r.Name, closed, now)
	}
}

func (d *Detector) closeEpisode(strategy string, ep *models.Episode, endTime time.Time) {
	d.metrics.RecordEpisodeEnded(strategy)

	if w, ok := d.writers[strategy]; ok {
		if err := w.Append(ep, endTime); err != nil {
			d.log.Error("episode log append failed",
				logger.String("strategy", strategy),
				logger.String("symbol", ep.Symbol),
				logger.Error(err),
			)
			d.metrics.RecordError("episode_log")
		}
	}

	duration := endTime.Sub(ep.StartTime)
	d.log.Info("episode ended",
		logger.String("strategy", strategy),
		logger.String("symbol", ep.Symbol),
		logger.Float64("peak_ratio", ep.PeakRatio),
		logger.Duration("duration", duration),
	)

	if d.archive != nil {
		d.archive.Add(models.ClosedEpisode{
			Strategy:     strategy,
			Symbol:       ep.Symbol,
			StartTime:    ep.StartTime,
			EndTime:      endTime,
			DurationSecs: int64(duration.Seconds()),
			PeakRatio:    ep.PeakRatio,
			PeakLast:     ep.PeakLastPrice,
			PeakMark:     ep.PeakMarkPrice,
		})
	}

	if d.recorder != nil {
		d.recorder.MarkEnded(ep.Symbol, strategy)
	}
}

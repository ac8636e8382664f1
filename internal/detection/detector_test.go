package detection

import (
	"testing"
	"time"

	"github.com/creasty/defaults"

	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/internal/marketstore"
	"PumpScope/pkg/config"
	"PumpScope/pkg/logger"
)

type fakeMetrics struct{}

func (fakeMetrics) RecordEvent(string)             {}
func (fakeMetrics) RecordError(string)             {}
func (fakeMetrics) RecordLastPrice(string, float64) {}
func (fakeMetrics) RecordEpisodeStarted(string)    {}
func (fakeMetrics) RecordEpisodeEnded(string)      {}
func (fakeMetrics) RecordActiveRecordings(int)     {}
func (fakeMetrics) RecordLatency(string, float64)  {}

type fakeWriter struct {
	appended []*models.Episode
}

func (w *fakeWriter) Append(ep *models.Episode, _ time.Time) error {
	w.appended = append(w.appended, ep)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeRecorder struct {
	started []string
	ended   []string
}

func (r *fakeRecorder) Start(symbol, strategy string, _, _ []models.Candle) {
	r.started = append(r.started, symbol+"/"+strategy)
}

func (r *fakeRecorder) MarkEnded(symbol, strategy string) {
	r.ended = append(r.ended, symbol+"/"+strategy)
}

type fakeArchive struct {
	closed []models.ClosedEpisode
}

func (a *fakeArchive) Add(ep models.ClosedEpisode) { a.closed = append(a.closed, ep) }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	if err := defaults.Set(&cfg); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return &cfg
}

func newTestDetector(t *testing.T) (*Detector, *fakeWriter, *fakeRecorder, *fakeArchive) {
	t.Helper()
	w := &fakeWriter{}
	rec := &fakeRecorder{}
	arc := &fakeArchive{}
	writers := map[string]drepo.EpisodeWriter{
		"strategy1": w,
	}
	d := NewDetector(testConfig(t), writers, rec, arc, testLogger(t), fakeMetrics{})
	return d, w, rec, arc
}

func TestDetectorSpreadEpisodeLifecycle(t *testing.T) {
	d, w, rec, arc := newTestDetector(t)

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateMarkPrice(10.0, t0)
	st.UpdateLastPrice(10.30, t0)
	d.CheckAll(st)

	if d.ActiveEpisodes() != 1 {
		t.Fatalf("expected exactly the spread strategy to open, got %d", d.ActiveEpisodes())
	}
	if len(rec.started) != 1 || rec.started[0] != "BTC_USDT/strategy1" {
		t.Fatalf("recorder start mismatch: %v", rec.started)
	}

	// Condition stops holding: the episode closes with its side effects.
	st.UpdateLastPrice(10.0, t0.Add(3*time.Second))
	d.CheckAll(st)

	if d.ActiveEpisodes() != 0 {
		t.Fatalf("episode should have closed")
	}
	if len(w.appended) != 1 {
		t.Fatalf("expected 1 audit append, got %d", len(w.appended))
	}
	ep := w.appended[0]
	if ep.Symbol != "BTC_USDT" || ep.PeakRatio != 1.03 {
		t.Fatalf("unexpected closed episode %+v", ep)
	}
	if len(arc.closed) != 1 || arc.closed[0].Strategy != "strategy1" {
		t.Fatalf("archive mismatch: %+v", arc.closed)
	}
	if arc.closed[0].DurationSecs != 3 {
		t.Fatalf("duration should use event time, got %d", arc.closed[0].DurationSecs)
	}
	if len(rec.ended) != 1 || rec.ended[0] != "BTC_USDT/strategy1" {
		t.Fatalf("recorder end mismatch: %v", rec.ended)
	}
}

func TestDetectorBelowSpreadThreshold(t *testing.T) {
	d, _, rec, _ := newTestDetector(t)

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateMarkPrice(10.0, t0)
	st.UpdateLastPrice(10.19, t0)
	d.CheckAll(st)

	if d.ActiveEpisodes() != 0 {
		t.Fatalf("ratio 1.019 must not trigger, got %d active", d.ActiveEpisodes())
	}
	if len(rec.started) != 0 {
		t.Fatalf("no recording should start: %v", rec.started)
	}
}

func TestDetectorMinPriceGate(t *testing.T) {
	d, _, _, _ := newTestDetector(t)

	// Huge ratio but price below the dust floor.
	st := marketstore.NewSymbolState("DUST_USDT")
	st.UpdateMarkPrice(0.00001, t0)
	st.UpdateLastPrice(0.00002, t0)
	d.CheckAll(st)

	if d.ActiveEpisodes() != 0 {
		t.Fatalf("dust price must be gated out")
	}
}

func TestDetectorSkipsWithoutBothPrices(t *testing.T) {
	d, _, _, _ := newTestDetector(t)

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateLastPrice(10.30, t0)
	d.CheckAll(st)

	if d.ActiveEpisodes() != 0 {
		t.Fatalf("missing mark price must skip evaluation")
	}
}

func TestDetectorDeferKeepsEpisodeOpen(t *testing.T) {
	verdicts := []Verdict{VerdictMet, VerdictDefer}
	i := 0
	r := &Ruleset{
		Name:    "flip",
		Enabled: true,
		predicates: []Predicate{
			func(*marketstore.SymbolState, float64, float64) Verdict {
				v := verdicts[i]
				if i < len(verdicts)-1 {
					i++
				}
				return v
			},
		},
		tracker: NewEpisodeTracker(time.Minute),
	}
	d := &Detector{
		rules:   []*Ruleset{r},
		writers: map[string]drepo.EpisodeWriter{},
		log:     testLogger(t),
		metrics: fakeMetrics{},
	}

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateMarkPrice(10.0, t0)
	st.UpdateLastPrice(10.30, t0)

	d.CheckAll(st)
	if d.ActiveEpisodes() != 1 {
		t.Fatalf("met verdict should open an episode")
	}

	// Defer must leave the active episode untouched instead of closing it.
	st.UpdateLastPrice(10.31, t0.Add(time.Second))
	d.CheckAll(st)
	if d.ActiveEpisodes() != 1 {
		t.Fatalf("defer closed the episode")
	}
}

func TestDetectorPriceFloorClosesEpisode(t *testing.T) {
	r := &Ruleset{
		Name:     "floor",
		Enabled:  true,
		MinPrice: 1.0,
		predicates: []Predicate{
			func(*marketstore.SymbolState, float64, float64) Verdict { return VerdictMet },
		},
		tracker: NewEpisodeTracker(time.Minute),
	}
	d := &Detector{
		rules:   []*Ruleset{r},
		writers: map[string]drepo.EpisodeWriter{},
		log:     testLogger(t),
		metrics: fakeMetrics{},
	}

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateMarkPrice(10.0, t0)
	st.UpdateLastPrice(10.30, t0)
	d.CheckAll(st)
	if d.ActiveEpisodes() != 1 {
		t.Fatalf("episode should open above the floor")
	}

	// Falling under the floor counts as not-met and closes the episode.
	st.UpdateLastPrice(0.5, t0.Add(time.Second))
	st.UpdateMarkPrice(0.49, t0.Add(time.Second))
	d.CheckAll(st)
	if d.ActiveEpisodes() != 0 {
		t.Fatalf("sub-floor price left the episode open")
	}
}

func TestDetectorCheckBookOnlyBookStrategies(t *testing.T) {
	d, _, _, _ := newTestDetector(t)

	st := marketstore.NewSymbolState("BTC_USDT")
	st.UpdateMarkPrice(10.0, t0)
	st.UpdateLastPrice(10.30, t0)

	// Spread condition holds, but a depth-only event must not run strategy1.
	d.CheckBook(st)
	if d.ActiveEpisodes() != 0 {
		t.Fatalf("CheckBook ran a price-only strategy")
	}
}

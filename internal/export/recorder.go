package export

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/internal/marketstore"
	"PumpScope/pkg/logger"
)

// session is one in-progress chart capture for a (symbol, strategy) pair. The
// per-series cursors hold the newest window start already accumulated, so live
// capture and the finalize reload can never double-count a candle.
type session struct {
	symbol       string
	strategy     string
	startTime    time.Time
	anomalyEnded time.Time

	lastCandles []models.Candle
	markCandles []models.Candle
	lastCursor  int64
	markCursor  int64
}

func newSession(symbol, strategy string, lastPre, markPre []models.Candle) *session {
	s := &session{
		symbol:      symbol,
		strategy:    strategy,
		startTime:   time.Now().UTC(),
		lastCandles: lastPre,
		markCandles: markPre,
		lastCursor:  -1,
		markCursor:  -1,
	}
	if n := len(lastPre); n > 0 {
		s.lastCursor = lastPre[n-1].TimestampMS
	}
	if n := len(markPre); n > 0 {
		s.markCursor = markPre[n-1].TimestampMS
	}
	return s
}

func (s *session) append(last, mark []models.Candle) {
	for _, c := range last {
		if c.TimestampMS > s.lastCursor {
			s.lastCandles = append(s.lastCandles, c)
			s.lastCursor = c.TimestampMS
		}
	}
	for _, c := range mark {
		if c.TimestampMS > s.markCursor {
			s.markCandles = append(s.markCandles, c)
			s.markCursor = c.TimestampMS
		}
	}
}

// Recorder owns the active recording sessions and writes the two chart files
// once the post-anomaly tail has elapsed. Finalization runs on background
// goroutines and never blocks the dispatch path.
type Recorder struct {
	chartsDir string
	tail      time.Duration
	store     *marketstore.SymbolStore
	log       *logger.Logger
	metrics   drepo.Metrics

	mu       sync.Mutex
	sessions map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRecorder creates the charts directory; failure there is a startup error.
func NewRecorder(
	chartsDir string,
	postAnomalyTail time.Duration,
	store *marketstore.SymbolStore,
	log *logger.Logger,
	metrics drepo.Metrics,
) (*Recorder, error) {
	if err := os.MkdirAll(chartsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Recorder{
		chartsDir: chartsDir,
		tail:      postAnomalyTail,
		store:     store,
		log:       log,
		metrics:   metrics,
		sessions:  make(map[string]*session),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func sessionKey(symbol, strategy string) string {
	return symbol + "_" + strategy
}

// Start opens a session seeded with the pre-anomaly buffer. Idempotent: a
// second start for the same key while a session exists is a no-op, so
// overlapping triggers produce exactly one capture.
func (r *Recorder) Start(symbol, strategy string, lastPre, markPre []models.Candle) {
	key := sessionKey(symbol, strategy)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; ok {
		r.log.Debug("recording already active",
			logger.String("symbol", symbol),
			logger.String("strategy", strategy),
		)
		return
	}
	r.sessions[key] = newSession(symbol, strategy, lastPre, markPre)
	r.metrics.RecordActiveRecordings(len(r.sessions))
	r.log.Info("recording started",
		logger.String("symbol", symbol),
		logger.String("strategy", strategy),
		logger.Int("pre_buffer_last", len(lastPre)),
		logger.Int("pre_buffer_mark", len(markPre)),
	)
}

// Capture appends candles completed since the last capture to every live
// session of the symbol. Called from the dispatch cycle while the caller
// already holds the symbol's entry lock, so it reads the state directly.
func (r *Recorder) Capture(st *marketstore.SymbolState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.symbol != st.Symbol() || !s.anomalyEnded.IsZero() {
			continue
		}
		last, mark := st.Candles().CompletedSince(s.lastCursor, s.markCursor)
		s.append(last, mark)
	}
}

// MarkEnded stamps the anomaly end on the session and schedules finalization
// after the post-anomaly tail. A missing session is logged and ignored.
func (r *Recorder) MarkEnded(symbol, strategy string) {
	key := sessionKey(symbol, strategy)

	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		s.anomalyEnded = time.Now().UTC()
	}
	r.mu.Unlock()

	if !ok {
		r.log.Warn("no active recording to end",
			logger.String("symbol", symbol),
			logger.String("strategy", strategy),
		)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-time.After(r.tail):
			r.finalize(symbol, strategy)
		case <-r.ctx.Done():
			// Shutdown before the tail elapsed; the session is abandoned.
		}
	}()
}

// finalize reloads the completed-candle ring, appends what the session has not
// seen yet, removes the session, and writes the two chart files. Safe to call
// twice: the second call finds no session.
func (r *Recorder) finalize(symbol, strategy string) {
	var lastFinal, markFinal []models.Candle
	found := r.store.WithState(symbol, func(st *marketstore.SymbolState) {
		lastFinal, markFinal = st.Candles().AllCompleted()
	})
	if !found {
		r.log.Warn("finalize: symbol not monitored", logger.String("symbol", symbol))
	}

	key := sessionKey(symbol, strategy)
	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		s.append(lastFinal, markFinal)
		delete(r.sessions, key)
		r.metrics.RecordActiveRecordings(len(r.sessions))
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.writeChartFiles(s); err != nil {
		r.log.Error("chart write failed",
			logger.String("symbol", symbol),
			logger.String("strategy", strategy),
			logger.Error(err),
		)
		r.metrics.RecordError("chart_write")
		return
	}
	r.log.Info("recording finalized",
		logger.String("symbol", symbol),
		logger.String("strategy", strategy),
		logger.Int("last_candles", len(s.lastCandles)),
		logger.Int("mark_candles", len(s.markCandles)),
	)
}

// ActiveCount reports the number of live sessions for the status API.
func (r *Recorder) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close cancels pending tail timers and waits for in-flight finalizations.
func (r *Recorder) Close() {
	r.cancel()
	r.wg.Wait()
}

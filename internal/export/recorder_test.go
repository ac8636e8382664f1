package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PumpScope/internal/domain/models"
	"PumpScope/internal/marketstore"
	"PumpScope/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)              {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordEpisodeStarted(string)     {}
func (nopMetrics) RecordEpisodeEnded(string)       {}
func (nopMetrics) RecordActiveRecordings(int)      {}
func (nopMetrics) RecordLatency(string, float64)   {}

var rt0 = time.UnixMilli(1700000000000)

func testRecorder(t *testing.T, store *marketstore.SymbolStore, tail time.Duration) *Recorder {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r, err := NewRecorder(t.TempDir(), tail, store, l, nopMetrics{})
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	return r
}

func feed(store *marketstore.SymbolStore, symbol string, n int) {
	store.WithState(symbol, func(st *marketstore.SymbolState) {
		for i := 0; i < n; i++ {
			ts := rt0.Add(time.Duration(i) * 500 * time.Millisecond)
			st.UpdateLastPrice(10.0+float64(i), ts)
			st.UpdateMarkPrice(10.0, ts)
		}
	})
}

func TestRecorderStartIdempotent(t *testing.T) {
	store := marketstore.NewSymbolStore([]string{"BTC_USDT"})
	r := testRecorder(t, store, time.Second)
	defer r.Close()

	pre := []models.Candle{models.NewCandle(rt0.UnixMilli(), 10.0)}
	r.Start("BTC_USDT", "strategy1", pre, nil)
	r.Start("BTC_USDT", "strategy1", pre, nil)
	if r.ActiveCount() != 1 {
		t.Fatalf("duplicate start must not open a second session, got %d", r.ActiveCount())
	}

	// Same symbol under another strategy is a distinct session.
	r.Start("BTC_USDT", "strategy2", pre, nil)
	if r.ActiveCount() != 2 {
		t.Fatalf("expected 2 sessions, got %d", r.ActiveCount())
	}
}

func TestRecorderCaptureNoDoubleCount(t *testing.T) {
	store := marketstore.NewSymbolStore([]string{"BTC_USDT"})
	r := testRecorder(t, store, time.Second)
	defer r.Close()

	feed(store, "BTC_USDT", 10)

	var preLast, preMark []models.Candle
	store.WithState("BTC_USDT", func(st *marketstore.SymbolState) {
		preLast, preMark = st.Candles().PreBuffer(10 * time.Second)
	})
	r.Start("BTC_USDT", "strategy1", preLast, preMark)

	// Capturing repeatedly without new candles must not grow the session.
	store.WithState("BTC_USDT", func(st *marketstore.SymbolState) {
		r.Capture(st)
		r.Capture(st)
	})

	r.mu.Lock()
	s := r.sessions["BTC_USDT_strategy1"]
	got := len(s.lastCandles)
	r.mu.Unlock()
	if got != len(preLast) {
		t.Fatalf("capture duplicated candles: %d -> %d", len(preLast), got)
	}

	// New completed candles extend the session exactly once.
	store.WithState("BTC_USDT", func(st *marketstore.SymbolState) {
		st.UpdateLastPrice(99, rt0.Add(6*time.Second))
		st.UpdateLastPrice(99, rt0.Add(7*time.Second))
		r.Capture(st)
		r.Capture(st)
	})

	r.mu.Lock()
	grown := len(r.sessions["BTC_USDT_strategy1"].lastCandles)
	r.mu.Unlock()
	if grown <= got {
		t.Fatalf("capture missed new candles")
	}
}

func TestRecorderFinalizeWritesFiles(t *testing.T) {
	store := marketstore.NewSymbolStore([]string{"BTC_USDT"})
	r := testRecorder(t, store, 10*time.Millisecond)

	feed(store, "BTC_USDT", 6)

	var preLast, preMark []models.Candle
	store.WithState("BTC_USDT", func(st *marketstore.SymbolState) {
		preLast, preMark = st.Candles().PreBuffer(10 * time.Second)
	})
	r.Start("BTC_USDT", "strategy3", preLast, preMark)
	r.MarkEnded("BTC_USDT", "strategy3")

	deadline := time.Now().Add(2 * time.Second)
	for r.ActiveCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("finalize did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	r.Close()

	entries, err := os.ReadDir(r.chartsDir)
	if err != nil {
		t.Fatalf("read charts dir: %v", err)
	}
	var lastFile, markFile string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "BTC_USDT_strategy3_") {
			t.Fatalf("unexpected file name %q", name)
		}
		switch {
		case strings.HasSuffix(name, "_lastprice.csv"):
			lastFile = name
		case strings.HasSuffix(name, "_fairprice.csv"):
			markFile = name
		default:
			t.Fatalf("unexpected suffix on %q", name)
		}
	}
	if lastFile == "" || markFile == "" {
		t.Fatalf("expected both chart files, got %v", entries)
	}

	f, err := os.Open(filepath.Join(r.chartsDir, lastFile))
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse chart: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("chart should have header plus rows, got %d", len(rows))
	}
	header := strings.Join(rows[0], ",")
	if header != "timestamp_ms,open,high,low,close,volume" {
		t.Fatalf("unexpected header %q", header)
	}
	// No leftover temp files.
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file leaked: %s", e.Name())
		}
	}
}

func TestRecorderMarkEndedUnknownSession(t *testing.T) {
	store := marketstore.NewSymbolStore([]string{"BTC_USDT"})
	r := testRecorder(t, store, time.Second)
	defer r.Close()

	// Must not panic or open anything.
	r.MarkEnded("BTC_USDT", "strategy1")
	if r.ActiveCount() != 0 {
		t.Fatalf("unexpected session")
	}
}

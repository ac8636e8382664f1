package detection

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewEpisodeTracker(5 * time.Minute)

	closed, started := tr.Evaluate("BTC_USDT", true, 1.03, 103, 100, t0)
	if closed != nil || !started {
		t.Fatalf("first met observation should open an episode")
	}
	if tr.ActiveCount() != 1 {
		t.Fatalf("expected 1 active episode")
	}

	// Higher ratio updates the peak.
	closed, started = tr.Evaluate("BTC_USDT", true, 1.05, 105, 100, t0.Add(time.Second))
	if closed != nil || started {
		t.Fatalf("met while active is a peak update, not a transition")
	}

	closed, started = tr.Evaluate("BTC_USDT", false, 1.0, 100, 100, t0.Add(2*time.Second))
	if closed == nil || started {
		t.Fatalf("not-met while active should close the episode")
	}
	if closed.PeakRatio != 1.05 || closed.PeakLastPrice != 105 {
		t.Fatalf("peak must reflect the best ratio seen, got %+v", closed)
	}
	if closed.StartTime != t0 {
		t.Fatalf("start time must be the opening observation time")
	}
	if tr.ActiveCount() != 0 {
		t.Fatalf("expected no active episodes after close")
	}
}

func TestTrackerPeakStrictImprovement(t *testing.T) {
	tr := NewEpisodeTracker(5 * time.Minute)
	tr.Evaluate("BTC_USDT", true, 1.05, 105, 100, t0)
	// Equal ratio must not overwrite the stored peak prices.
	tr.Evaluate("BTC_USDT", true, 1.05, 210, 200, t0.Add(time.Second))
	closed, _ := tr.Evaluate("BTC_USDT", false, 1.0, 100, 100, t0.Add(2*time.Second))
	if closed.PeakLastPrice != 105 {
		t.Fatalf("equal ratio overwrote peak: %+v", closed)
	}
}

func TestTrackerCooldownSuppression(t *testing.T) {
	tr := NewEpisodeTracker(5 * time.Minute)
	tr.Evaluate("BTC_USDT", true, 1.03, 103, 100, t0)
	tr.Evaluate("BTC_USDT", false, 1.0, 100, 100, t0.Add(time.Second))

	// Met again inside the cooldown window: suppressed.
	closed, started := tr.Evaluate("BTC_USDT", true, 1.04, 104, 100, t0.Add(time.Minute))
	if closed != nil || started {
		t.Fatalf("cooldown must suppress a new episode")
	}

	// After the cooldown expires a new episode opens.
	closed, started = tr.Evaluate("BTC_USDT", true, 1.04, 104, 100, t0.Add(time.Second+5*time.Minute))
	if closed != nil || !started {
		t.Fatalf("expired cooldown should allow a new episode")
	}
}

func TestTrackerNotMetWhileIdle(t *testing.T) {
	tr := NewEpisodeTracker(5 * time.Minute)
	closed, started := tr.Evaluate("BTC_USDT", false, 1.0, 100, 100, t0)
	if closed != nil || started {
		t.Fatalf("not-met while idle is a no-op")
	}
}

func TestTrackerSymbolsIndependent(t *testing.T) {
	tr := NewEpisodeTracker(5 * time.Minute)
	tr.Evaluate("BTC_USDT", true, 1.03, 103, 100, t0)
	tr.Evaluate("ETH_USDT", true, 1.04, 104, 100, t0)
	if tr.ActiveCount() != 2 {
		t.Fatalf("expected independent episodes per symbol")
	}
	closed, _ := tr.Evaluate("BTC_USDT", false, 1.0, 100, 100, t0.Add(time.Second))
	if closed == nil || closed.Symbol != "BTC_USDT" {
		t.Fatalf("closing one symbol must not touch the other")
	}
	if tr.ActiveCount() != 1 {
		t.Fatalf("ETH episode should remain active")
	}
}

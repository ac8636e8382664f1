package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PumpScope/internal/domain/models"
)

func TestEpisodeLogLineFormat(t *testing.T) {
	dir := t.TempDir()
	l, err := NewEpisodeLog(dir, "strategy1")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)
	ep := models.NewEpisode("BTC_USDT", start, 1.0345, 0.12345678, 0.11930000)

	if err := l.Append(ep, end); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "strategy1_episodes.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	got := strings.TrimRight(string(b), "\n")
	want := "2024-06-01T12:00:42Z | BTC_USDT | START=12:00:00 | END=12:00:42 | DURATION=42s | PEAK_RATIO=1.0345 | PEAK_LAST=0.12345678 | PEAK_MARK=0.11930000"
	if got != want {
		t.Fatalf("line mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestEpisodeLogAppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		l, err := NewEpisodeLog(dir, "strategy2")
		if err != nil {
			t.Fatalf("open log: %v", err)
		}
		ep := models.NewEpisode("ETH_USDT", start, 1.02, 3000, 2940)
		if err := l.Append(ep, start.Add(time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	b, err := os.ReadFile(filepath.Join(dir, "strategy2_episodes.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("reopening must append, got %d lines", len(lines))
	}
}

package util

import (
	"testing"
	"time"
)

func TestWindowStartMS(t *testing.T) {
	ts := time.UnixMilli(1700000000749)
	if got := WindowStartMS(ts, 500); got != 1700000000500 {
		t.Fatalf("unexpected window start %d", got)
	}
	exact := time.UnixMilli(1700000000500)
	if got := WindowStartMS(exact, 500); got != 1700000000500 {
		t.Fatalf("boundary should map to itself, got %d", got)
	}
}

func TestWindowsIn(t *testing.T) {
	if got := WindowsIn(10*time.Second, 500); got != 20 {
		t.Fatalf("expected 20 windows, got %d", got)
	}
	if got := WindowsIn(10100*time.Millisecond, 500); got != 21 {
		t.Fatalf("expected round up to 21, got %d", got)
	}
	if got := WindowsIn(0, 500); got != 0 {
		t.Fatalf("expected 0 windows, got %d", got)
	}
}

package repository

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PumpScope/internal/domain/models"
)

// EpisodeLog appends one line per closed episode to a per-strategy text file.
// The file stays open for the process lifetime; lines flush on every append so
// a crash loses at most the episode being written.
type EpisodeLog struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewEpisodeLog opens (or creates) the strategy's log file under dir.
func NewEpisodeLog(dir, strategy string) (*EpisodeLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, strategy+"_episodes.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open episode log: %w", err)
	}
	return &EpisodeLog{file: f, w: bufio.NewWriter(f)}, nil
}

// Append writes the episode summary line. Times render in UTC.
func (l *EpisodeLog) Append(ep *models.Episode, endTime time.Time) error {
	start := ep.StartTime.UTC()
	end := endTime.UTC()
	durationSecs := int64(end.Sub(start).Seconds())

	line := fmt.Sprintf("%s | %s | START=%s | END=%s | DURATION=%ds | PEAK_RATIO=%.4f | PEAK_LAST=%.8f | PEAK_MARK=%.8f\n",
		end.Format(time.RFC3339),
		ep.Symbol,
		start.Format("15:04:05"),
		end.Format("15:04:05"),
		durationSecs,
		ep.PeakRatio,
		ep.PeakLastPrice,
		ep.PeakMarkPrice,
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.WriteString(line); err != nil {
		return fmt.Errorf("append episode: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flush episode log: %w", err)
	}
	return nil
}

// Close flushes any buffered line and closes the underlying file.
func (l *EpisodeLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		l.file.Close()
		return fmt.Errorf("flush episode log: %w", err)
	}
	return l.file.Close()
}

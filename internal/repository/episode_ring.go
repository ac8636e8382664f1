package repository

import (
	"sync"

	"PumpScope/internal/domain/models"
)

// EpisodeRing holds the most recent closed episodes in memory so the status
// API can serve them without touching the log files. Oldest entries are
// evicted once capacity is reached.
type EpisodeRing struct {
	mu       sync.RWMutex
	episodes []models.ClosedEpisode
	next     int
	full     bool
}

func NewEpisodeRing(capacity int) *EpisodeRing {
	if capacity <= 0 {
		capacity = 256
	}
	return &EpisodeRing{episodes: make([]models.ClosedEpisode, capacity)}
}

func (r *EpisodeRing) Add(ep models.ClosedEpisode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.episodes[r.next] = ep
	r.next++
	if r.next == len(r.episodes) {
		r.next = 0
		r.full = true
	}
}

// Recent returns up to n episodes, newest first, optionally filtered by
// strategy. An empty strategy matches everything.
func (r *EpisodeRing) Recent(strategy string, n int) []models.ClosedEpisode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.episodes)
	}

	out := make([]models.ClosedEpisode, 0, n)
	for i := 0; i < size && len(out) < n; i++ {
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.episodes)
		}
		ep := r.episodes[idx]
		if strategy != "" && ep.Strategy != strategy {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// Len reports how many episodes are currently retained.
func (r *EpisodeRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.episodes)
	}
	return r.next
}

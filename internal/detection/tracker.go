package detection

import (
	"time"

	"PumpScope/internal/domain/models"
)

// EpisodeTracker converts a per-symbol boolean condition signal into episode
// lifecycle transitions with peak tracking and cooldown suppression. One
// tracker belongs to one strategy; it is owned by the dispatch goroutine and
// needs no locking.
type EpisodeTracker struct {
	cooldown      time.Duration
	active        map[string]*models.Episode
	cooldownUntil map[string]time.Time
}

func NewEpisodeTracker(cooldown time.Duration) *EpisodeTracker {
	return &EpisodeTracker{
		cooldown:      cooldown,
		active:        make(map[string]*models.Episode),
		cooldownUntil: make(map[string]time.Time),
	}
}

// Evaluate applies one condition observation for a symbol.
//   - condition met, no active episode, cooldown expired: open an episode,
//     started=true.
//   - condition met, no active episode, still cooling down: suppressed no-op.
//   - condition met, active episode: update the peak in place.
//   - condition not met, active episode: close it, start the cooldown, and
//     return the closed episode.
func (t *EpisodeTracker) Evaluate(symbol string, conditionMet bool, ratio, lastPrice, markPrice float64, now time.Time) (*models.Episode, bool) {
	if conditionMet {
		if ep, ok := t.active[symbol]; ok {
			ep.UpdatePeak(ratio, lastPrice, markPrice)
			return nil, false
		}
		if until, ok := t.cooldownUntil[symbol]; ok && now.Before(until) {
			return nil, false
		}
		t.active[symbol] = models.NewEpisode(symbol, now, ratio, lastPrice, markPrice)
		return nil, true
	}

	ep, ok := t.active[symbol]
	if !ok {
		return nil, false
	}
	delete(t.active, symbol)
	t.cooldownUntil[symbol] = now.Add(t.cooldown)
	return ep, false
}

// ActiveCount returns the number of symbols with an open episode.
func (t *EpisodeTracker) ActiveCount() int { return len(t.active) }

package marketstore

import "sync"

// SymbolStore holds one SymbolState per monitored symbol behind fine-grained
// per-key locking: a dispatch cycle takes only its own symbol's entry lock, so
// cycles for different symbols never contend.
type SymbolStore struct {
	globalMu sync.RWMutex
	entries  map[string]*symbolEntry
}

type symbolEntry struct {
	mu    sync.Mutex
	state *SymbolState
}

// NewSymbolStore creates entries for every monitored symbol up front; states
// live for the process lifetime.
func NewSymbolStore(symbols []string) *SymbolStore {
	entries := make(map[string]*symbolEntry, len(symbols))
	for _, sym := range symbols {
		entries[sym] = &symbolEntry{state: NewSymbolState(sym)}
	}
	return &SymbolStore{entries: entries}
}

// WithState runs fn with the symbol's state under its entry lock. Returns
// false when the symbol is not monitored.
func (s *SymbolStore) WithState(symbol string, fn func(*SymbolState)) bool {
	s.globalMu.RLock()
	e, ok := s.entries[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
	return true
}

// Symbols lists all monitored symbols.
func (s *SymbolStore) Symbols() []string {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for sym := range s.entries {
		out = append(out, sym)
	}
	return out
}

// Len returns the number of monitored symbols.
func (s *SymbolStore) Len() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	return len(s.entries)
}

// CountWithPrices returns how many symbols have received at least one last
// price, skipping symbols with no data yet.
func (s *SymbolStore) CountWithPrices() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	n := 0
	for _, e := range s.entries {
		e.mu.Lock()
		if e.state.hasLast {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

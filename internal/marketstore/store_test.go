package marketstore

import "testing"

func TestStoreWithState(t *testing.T) {
	s := NewSymbolStore([]string{"BTC_USDT", "ETH_USDT"})
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}

	ok := s.WithState("BTC_USDT", func(st *SymbolState) {
		st.UpdateLastPrice(50000, base)
	})
	if !ok {
		t.Fatalf("monitored symbol must be found")
	}

	if s.WithState("DOGE_USDT", func(*SymbolState) {}) {
		t.Fatalf("unmonitored symbol must report false")
	}
}

func TestStoreCountWithPrices(t *testing.T) {
	s := NewSymbolStore([]string{"BTC_USDT", "ETH_USDT", "SOL_USDT"})
	if s.CountWithPrices() != 0 {
		t.Fatalf("fresh store has no prices")
	}
	s.WithState("BTC_USDT", func(st *SymbolState) { st.UpdateLastPrice(50000, base) })
	s.WithState("ETH_USDT", func(st *SymbolState) { st.UpdateLastPrice(3000, base) })
	if got := s.CountWithPrices(); got != 2 {
		t.Fatalf("expected 2 symbols with prices, got %d", got)
	}
}

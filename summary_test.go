package cryptotax

import (
	"slices"
	"testing"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(slices.Values([]Event(nil)))
	for _, c := range Categories {
		v, ok := s.ByCategory[c]
		if !ok {
			t.Errorf("ByCategory[%s] missing", c)
			continue
		}
		if !v.IsZero() {
			t.Errorf("ByCategory[%s] = %s, want 0", c, v)
		}
	}
	if !s.Total.IsZero() {
		t.Errorf("Total = %s, want 0", s.Total)
	}
}

func TestSummarize(t *testing.T) {
	l := NewLedger("UGX")
	mustAppend(t, l, Draft{Category: Trading, Asset: "bitcoin", Quantity: dec("1"), Date: day("2024-01-01"), Details: TradingDetails{Type: Buy, Value: nd("1000")}})
	mustAppend(t, l, Draft{Category: Trading, Asset: "bitcoin", Quantity: dec("1"), Date: day("2024-01-02"), Details: TradingDetails{Type: Sell, Value: nd("1500.50")}})
	mustAppend(t, l, Draft{Category: Staking, Asset: "cardano", Quantity: dec("1"), Date: day("2024-01-03"), Details: StakingDetails{TotalReceipts: nd("200")}})
	mustAppend(t, l, Draft{Category: NFT, Asset: "ethereum", Quantity: dec("1"), Date: day("2024-01-04")})

	s := Summarize(l.List())
	assertDecimal(t, "trading", s.ByCategory[Trading], "2500.50")
	assertDecimal(t, "staking", s.ByCategory[Staking], "200")
	assertDecimal(t, "nft", s.ByCategory[NFT], "0")
	assertDecimal(t, "defi", s.ByCategory[DeFi], "0")
	assertDecimal(t, "Total", s.Total, "2700.50")
	if s.Count[Trading] != 2 || s.Count[NFT] != 1 {
		t.Errorf("Count = %v", s.Count)
	}
	assertDecimal(t, "Total(DeclaredValue)", l.Total(DeclaredValue), s.Total.String())
}

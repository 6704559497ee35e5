package cryptotax

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Summary totals declared values per category.
type Summary struct {
	Currency string `json:"currency"`
	// ByCategory has an entry for every category, zero when nothing was
	// declared.
	ByCategory map[Category]decimal.Decimal `json:"byCategory"`
	// Count is the number of events per category.
	Count map[Category]int `json:"count"`
	Total decimal.Decimal  `json:"total"`
}

// Summarize totals the declared values of events. Events without a declared
// value count as zero.
func Summarize(events iter.Seq[Event]) Summary {
	s := Summary{
		ByCategory: make(map[Category]decimal.Decimal, len(Categories)),
		Count:      make(map[Category]int, len(Categories)),
		Total:      decimal.Zero,
	}
	for _, c := range Categories {
		s.ByCategory[c] = decimal.Zero
	}
	for e := range events {
		s.Count[e.Category]++
		v, ok := e.DeclaredValue()
		if !ok {
			continue
		}
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(v)
		s.Total = s.Total.Add(v)
	}
	return s
}

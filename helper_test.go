package cryptotax

import (
	"testing"

	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// dec is a helper for test to create decimals from strings.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// nd is a helper for test to create a valid NullDecimal.
func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// day is a helper for test to create dates in 2024.
func day(s string) date.Date { return date.MustParse(s) }

// acquire returns an acquisition event with an explicit unit valuation.
func acquire(id EventID, asset, on, qty, unit string) Event {
	e := Event{ID: id, Category: Trading, Kind: Acquisition, Asset: asset, Quantity: dec(qty), Date: day(on), Details: TradingDetails{Type: Buy}}
	if unit != "" {
		e.Valuation = nd(unit)
	}
	return e
}

// dispose returns a disposal event with an explicit unit valuation.
func dispose(id EventID, asset, on, qty, unit string) Event {
	e := Event{ID: id, Category: Trading, Kind: Disposal, Asset: asset, Quantity: dec(qty), Date: day(on), Details: TradingDetails{Type: Sell}}
	if unit != "" {
		e.Valuation = nd(unit)
	}
	return e
}

// mustAppend appends d to l or fails the test.
func mustAppend(t *testing.T, l *Ledger, d Draft) EventID {
	t.Helper()
	id, err := l.Append(d)
	if err != nil {
		t.Fatalf("Append(%+v) error = %v", d, err)
	}
	return id
}

// assertDecimal fails if got is not want.
func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// Package oracle resolves the historical unit price of a crypto asset on a
// calendar day.
//
// An Oracle is a pure lookup: one attempt, no retry and no caching. Callers
// decide their own fallback policy from the typed [Error] it returns, and wrap
// the oracle (see [Fallback], [Instrument], [NewCachingTransport]) when they
// want more.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// Oracle resolves the unit price of asset on a given day, in currency.
type Oracle interface {
	Resolve(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
	return f(ctx, asset, on, currency)
}

// Kind classifies oracle failures.
type Kind int

const (
	// NotFound means the service has no price for that asset on that day.
	NotFound Kind = iota + 1
	// Unreachable covers transport failures, unexpected statuses and unparseable bodies.
	Unreachable
	// MalformedResponse means the service answered but the currency field is missing or invalid.
	MalformedResponse
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unreachable:
		return "unreachable"
	case MalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Sentinels to be used with errors.Is.
var (
	ErrNotFound          = errors.New("price not found")
	ErrUnreachable       = errors.New("price service unreachable")
	ErrMalformedResponse = errors.New("malformed price response")
)

// Error is the error returned by oracles.
type Error struct {
	Kind     Kind
	Asset    string
	Date     date.Date
	Currency string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("price of %s in %s on %s: %s", e.Asset, e.Currency, e.Date, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotFound) and siblings work on *Error.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrUnreachable:
		return e.Kind == Unreachable
	case ErrMalformedResponse:
		return e.Kind == MalformedResponse
	}
	return false
}

// KindOf returns the Kind of an oracle error, or 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

type key struct {
	asset    string
	on       date.Date
	currency string
}

// Table is a static, in memory oracle. It is used for manual price entries.
// Its zero value is ready to use.
type Table struct {
	mu     sync.RWMutex
	prices map[key]decimal.Decimal
}

// Set records the unit price of asset on a given day.
func (t *Table) Set(asset string, on date.Date, currency string, price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prices == nil {
		t.prices = make(map[key]decimal.Decimal)
	}
	t.prices[key{asset, on, strings.ToUpper(currency)}] = price
}

// Len returns the number of recorded prices.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.prices)
}

// Resolve implements Oracle. Unknown entries are reported as NotFound.
func (t *Table) Resolve(_ context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[key{asset, on, strings.ToUpper(currency)}]
	if !ok {
		return decimal.Zero, &Error{Kind: NotFound, Asset: asset, Date: on, Currency: currency}
	}
	return p, nil
}

// Fallback returns an oracle that asks each oracle in turn, moving to the
// next one only when the previous one has no record (NotFound). Any other
// failure is returned as is.
func Fallback(oracles ...Oracle) Oracle {
	return Func(func(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
		err := error(&Error{Kind: NotFound, Asset: asset, Date: on, Currency: currency})
		for _, o := range oracles {
			var p decimal.Decimal
			p, err = o.Resolve(ctx, asset, on, currency)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return decimal.Zero, err
			}
		}
		return decimal.Zero, err
	})
}

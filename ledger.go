package cryptotax

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/cryptotax/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft is an event not yet recorded. Kind may be left empty, it then
// defaults from the category details: trading buys are acquisitions, sells
// and swaps are disposals, everything else is a receipt.
type Draft struct {
	Category  Category            `json:"category" validate:"required,oneof=trading staking mining nft defi"`
	Kind      Kind                `json:"kind,omitempty" validate:"omitempty,oneof=acquisition disposal receipt"`
	Asset     string              `json:"asset" validate:"required"`
	Quantity  decimal.Decimal     `json:"quantity" validate:"gte=0"`
	Date      date.Date           `json:"date" validate:"required"`
	Valuation decimal.NullDecimal `json:"unitValuation,omitzero" validate:"gte=0"`
	Details   Details             `json:"-" validate:"-"`
}

// Ledger is the append-only record of the income events of a session.
//
// A Ledger is safe for concurrent use. Events are never updated nor deleted:
// a correction is a new compensating event.
type Ledger struct {
	mu       sync.RWMutex
	session  uuid.UUID
	currency string
	events   []Event
}

// NewLedger creates an empty ledger whose values are expressed in currency.
func NewLedger(currency string) *Ledger {
	return &Ledger{
		session:  uuid.New(),
		currency: strings.ToUpper(currency),
		events:   make([]Event, 0),
	}
}

// Session returns the identifier of the ledger session.
func (l *Ledger) Session() uuid.UUID { return l.session }

// Currency returns the currency of every value in the ledger.
func (l *Ledger) Currency() string { return l.currency }

// Len returns the number of recorded events.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Append validates d, records it and returns the id of the new event.
// A missing or malformed field fails with a *ValidationError naming it.
func (l *Ledger) Append(d Draft) (EventID, error) {
	e, err := newEvent(d)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = EventID(len(l.events) + 1)
	l.events = append(l.events, e)
	return e.ID, nil
}

// newEvent validates a draft and returns the event it describes, without id.
func newEvent(d Draft) (Event, error) {
	d.Asset = strings.TrimSpace(d.Asset)
	if d.Details == nil {
		d.Details = NewDetails(d.Category)
	}
	if err := validateStruct(d); err != nil {
		return Event{}, err
	}
	if c := d.Details.Category(); c != d.Category {
		return Event{}, &ValidationError{Field: "category", Reason: fmt.Sprintf("%s event with %s details", d.Category, c)}
	}
	if err := validateStruct(d.Details); err != nil {
		return Event{}, err
	}
	if d.Kind == "" {
		d.Kind = d.Details.defaultKind()
	}
	return Event{
		Category:  d.Category,
		Kind:      d.Kind,
		Asset:     d.Asset,
		Quantity:  d.Quantity,
		Date:      d.Date,
		Valuation: d.Valuation,
		Details:   d.Details,
	}, nil
}

// restore records an event read back from storage, keeping its id.
func (l *Ledger) restore(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if want := EventID(len(l.events) + 1); e.ID != want {
		return fmt.Errorf("event id %d out of sequence, want %d", e.ID, want)
	}
	l.events = append(l.events, e)
	return nil
}

// List returns the events matching every filter, in insertion order.
//
// The sequence is lazy and reflects the ledger when iteration starts: events
// appended meanwhile are not visited.
func (l *Ledger) List(filters ...Filter) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		l.mu.RLock()
		events := l.events[:len(l.events):len(l.events)]
		l.mu.RUnlock()
		for _, e := range events {
			if !match(e, filters) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Event returns the event with the given id.
func (l *Ledger) Event(id EventID) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 1 || int(id) > len(l.events) {
		return Event{}, false
	}
	return l.events[id-1], true
}

// Events is like List but collects the events in a slice.
func (l *Ledger) Events(filters ...Filter) []Event {
	return slices.Collect(l.List(filters...))
}

// Total sums field across the events matching every filter. Events without
// that field count as zero.
func (l *Ledger) Total(field FieldSelector, filters ...Filter) decimal.Decimal {
	total := decimal.Zero
	for e := range l.List(filters...) {
		if v, ok := field(e); ok {
			total = total.Add(v)
		}
	}
	return total
}

// Filter selects events.
type Filter func(Event) bool

func match(e Event, filters []Filter) bool {
	for _, f := range filters {
		if f != nil && !f(e) {
			return false
		}
	}
	return true
}

// ByCategory selects events of any of the categories cs.
func ByCategory(cs ...Category) Filter {
	return func(e Event) bool { return slices.Contains(cs, e.Category) }
}

// ByKind selects events of any of the kinds ks.
func ByKind(ks ...Kind) Filter {
	return func(e Event) bool { return slices.Contains(ks, e.Kind) }
}

// ByAsset selects events of the asset a.
func ByAsset(a string) Filter {
	return func(e Event) bool { return e.Asset == a }
}

// Between selects events within the date range r.
func Between(r date.Range) Filter {
	return func(e Event) bool { return r.Contains(e.Date) }
}

// FieldSelector extracts a valuation bearing field from an event. The boolean
// is false when the event has no such field.
type FieldSelector func(Event) (decimal.Decimal, bool)

var (
	// DeclaredValue selects the designated valuation field of the category.
	DeclaredValue FieldSelector = Event.DeclaredValue
	// UnitValuation selects the unit valuation of the event.
	UnitValuation FieldSelector = Event.UnitValuation
	// Quantity selects the event quantity.
	Quantity FieldSelector = func(e Event) (decimal.Decimal, bool) { return e.Quantity, true }
)

// FieldByName returns the selector for a field name: "declared",
// "unitValuation", "quantity" or the json name of a numeric detail field such
// as "totalReceipts" or "apy".
func FieldByName(name string) (FieldSelector, error) {
	switch name {
	case "", "declared":
		return DeclaredValue, nil
	case "unitValuation":
		return UnitValuation, nil
	case "quantity":
		return Quantity, nil
	}
	for _, c := range Categories {
		if _, ok := numericField(NewDetails(c), name); ok {
			return func(e Event) (decimal.Decimal, bool) {
				v, ok := numericField(e.Details, name)
				if !ok || !v.Valid {
					return decimal.Zero, false
				}
				return v.Decimal, true
			}, nil
		}
	}
	return nil, fmt.Errorf("unknown field %q", name)
}

// numericField returns the numeric detail field called name.
func numericField(d Details, name string) (decimal.NullDecimal, bool) {
	switch x := d.(type) {
	case TradingDetails:
		if name == "value" {
			return x.Value, true
		}
	case StakingDetails:
		switch name {
		case "apy":
			return x.APY, true
		case "totalReceipts":
			return x.TotalReceipts, true
		}
	case MiningDetails:
		if name == "valuation" {
			return x.Valuation, true
		}
	case NFTDetails:
		switch name {
		case "salePrice":
			return x.SalePrice, true
		case "royaltyRate":
			return x.RoyaltyRate, true
		}
	case DeFiDetails:
		if name == "incomeEarned" {
			return x.IncomeEarned, true
		}
	}
	return decimal.NullDecimal{}, false
}

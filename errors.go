package cryptotax

import (
	"errors"
	"fmt"

	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed or missing input field. The caller can
// fix the field and submit again.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PricingError reports an event that needed a price from the oracle and did
// not get one. It aborts the processing of the event asset only.
type PricingError struct {
	EventID EventID
	Asset   string
	Date    date.Date
	Err     error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("event #%d: cannot price %s on %s: %v", e.EventID, e.Asset, e.Date, e.Err)
}

func (e *PricingError) Unwrap() error { return e.Err }

// InsufficientLotError reports a disposal requesting more than the open lots
// hold. Nothing has been consumed.
type InsufficientLotError struct {
	EventID   EventID
	Asset     string
	Date      date.Date
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Shortfall returns the quantity missing to satisfy the disposal.
func (e *InsufficientLotError) Shortfall() decimal.Decimal { return e.Requested.Sub(e.Available) }

func (e *InsufficientLotError) Error() string {
	return fmt.Sprintf("event #%d: cannot dispose %s %s on %s: only %s available, short by %s",
		e.EventID, e.Requested, e.Asset, e.Date, e.Available, e.Shortfall())
}

// AssetError is the failure that stopped the processing of one asset.
type AssetError struct {
	Asset string
	Err   error
}

func (e *AssetError) Error() string { return fmt.Sprintf("%s: %v", e.Asset, e.Err) }

func (e *AssetError) Unwrap() error { return e.Err }

// EventIDOf returns the id of the event an error is about, if any.
func EventIDOf(err error) (EventID, bool) {
	var perr *PricingError
	if errors.As(err, &perr) {
		return perr.EventID, true
	}
	var ierr *InsufficientLotError
	if errors.As(err, &ierr) {
		return ierr.EventID, true
	}
	return 0, false
}

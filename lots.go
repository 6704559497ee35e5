package cryptotax

import (
	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// Lot is an open quantity of an asset acquired at a unit cost.
//
// RemainingCost is the exact cost of Remaining: a lot acquired for a declared
// total keeps that total instead of UnitCost × Remaining.
type Lot struct {
	Asset         string          `json:"asset"`
	AcquisitionID EventID         `json:"acquisitionId"`
	AcquiredOn    date.Date       `json:"acquiredOn"`
	Remaining     decimal.Decimal `json:"remaining"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	RemainingCost decimal.Decimal `json:"remainingCost"`
}

// Cost returns the cost of the remaining quantity.
func (l Lot) Cost() decimal.Decimal { return l.RemainingCost }

// LotMatch is the part of a lot consumed by a disposal.
type LotMatch struct {
	AcquisitionID EventID         `json:"acquisitionId"`
	AcquiredOn    date.Date       `json:"acquiredOn"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	CostBasis     decimal.Decimal `json:"costBasis"`
}

// Cost returns the cost basis of the matched quantity.
func (m LotMatch) Cost() decimal.Decimal { return m.CostBasis }

// lots is the FIFO queue of the open lots of an asset, oldest first.
type lots []Lot

// available returns the total remaining quantity.
func (q lots) available() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q {
		total = total.Add(l.Remaining)
	}
	return total
}

// consume removes quantity from the front of the queue and returns the
// matched parts. The caller must have checked that enough is available.
func (q *lots) consume(quantity decimal.Decimal) []LotMatch {
	var matches []LotMatch
	remaining := (*q)[:0:0]
	for _, current := range *q {
		if !quantity.IsPositive() {
			remaining = append(remaining, current)
			continue
		}
		taken := decimal.Min(current.Remaining, quantity)
		// a fully consumed lot charges all of its remaining cost.
		cost := current.RemainingCost
		if current.Remaining.GreaterThan(taken) {
			cost = taken.Mul(current.UnitCost)
		}
		matches = append(matches, LotMatch{
			AcquisitionID: current.AcquisitionID,
			AcquiredOn:    current.AcquiredOn,
			Quantity:      taken,
			UnitCost:      current.UnitCost,
			CostBasis:     cost,
		})
		quantity = quantity.Sub(taken)
		if current.Remaining.GreaterThan(taken) {
			current.Remaining = current.Remaining.Sub(taken)
			current.RemainingCost = current.RemainingCost.Sub(cost)
			remaining = append(remaining, current)
		}
	}
	*q = remaining
	return matches
}

package cryptotax

import (
	"iter"

	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// DefaultThreshold is the reporting threshold in the default currency.
var DefaultThreshold = decimal.NewFromInt(10_000_000)

// Alert flags a value above the reporting threshold.
type Alert struct {
	EventID  EventID         `json:"eventId"`
	Category Category        `json:"category"`
	Asset    string          `json:"asset"`
	Date     date.Date       `json:"date"`
	Value    decimal.Decimal `json:"value"`
	// Threshold is the threshold the value exceeded.
	Threshold decimal.Decimal `json:"threshold"`
	// Realized is true when Value is a realized gain rather than a declared
	// value.
	Realized bool `json:"realized"`
}

// Evaluate returns an alert for every event whose declared value is strictly
// greater than threshold. Events without a declared value never alert.
func Evaluate(events iter.Seq[Event], threshold decimal.Decimal) []Alert {
	var alerts []Alert
	for e := range events {
		v, ok := e.DeclaredValue()
		if !ok || !v.GreaterThan(threshold) {
			continue
		}
		alerts = append(alerts, Alert{
			EventID:   e.ID,
			Category:  e.Category,
			Asset:     e.Asset,
			Date:      e.Date,
			Value:     v,
			Threshold: threshold,
		})
	}
	return alerts
}

// EvaluateRealizations returns an alert for every realized gain strictly
// greater than threshold.
func EvaluateRealizations(rs []Realization, threshold decimal.Decimal) []Alert {
	var alerts []Alert
	for _, r := range rs {
		if !r.Gain.GreaterThan(threshold) {
			continue
		}
		alerts = append(alerts, Alert{
			EventID:   r.DisposalID,
			Category:  r.Category,
			Asset:     r.Asset,
			Date:      r.Date,
			Value:     r.Gain,
			Threshold: threshold,
			Realized:  true,
		})
	}
	return alerts
}

package cryptotax

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/logger"
	"github.com/etnz/cryptotax/oracle"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCurrency is the valuation currency when none is configured.
const DefaultCurrency = "UGX"

// Realization is the gain or loss realized by a disposal.
type Realization struct {
	DisposalID EventID         `json:"disposalId"`
	Category   Category        `json:"category"`
	Asset      string          `json:"asset"`
	Date       date.Date       `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	// UnitPrice is the unit valuation of the disposal, given or resolved.
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Matches   []LotMatch      `json:"matches"`
	CostBasis decimal.Decimal `json:"costBasis"`
	Proceeds  decimal.Decimal `json:"proceeds"`
	Gain      decimal.Decimal `json:"gain"`
}

// Report is the outcome of a Process run.
type Report struct {
	Currency string
	// Realizations are ordered by asset of first appearance, then by
	// processing order.
	Realizations []Realization
	// Lots are the open lots left per asset.
	Lots map[string][]Lot
	// Errors holds one error per asset whose processing stopped.
	Errors []*AssetError
}

// Err returns the asset errors joined, or nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Within returns a copy of r keeping only the realizations dated in rng.
// Open lots and errors are kept as is.
func (r *Report) Within(rng date.Range) *Report {
	out := *r
	out.Realizations = slices.DeleteFunc(slices.Clone(r.Realizations), func(rz Realization) bool {
		return !rng.Contains(rz.Date)
	})
	return &out
}

// Engine matches disposals against acquisition lots, first in first out.
//
// The zero value is usable but cannot price events without a valuation.
type Engine struct {
	// Oracle resolves the unit price of events without a valuation.
	Oracle oracle.Oracle
	// Currency is the valuation currency, DefaultCurrency if empty.
	Currency string
	// Parallelism bounds the number of assets processed concurrently.
	Parallelism int
	Logger      *zap.SugaredLogger
}

// assetRun is the outcome of one asset.
type assetRun struct {
	realizations []Realization
	lots         lots
	err          error
}

// Process computes the realizations of events.
//
// Receipts are ignored. Each asset is processed on its own, in date order
// with ties broken by id: a failure stops that asset at the failing event but
// keeps what was realized before it, and never affects other assets. Process
// does not modify events and keeps no state between calls.
func (e *Engine) Process(ctx context.Context, events []Event) *Report {
	log := logger.OrNop(e.Logger)
	currency := cmp.Or(e.Currency, DefaultCurrency)

	// partition by asset, keeping the order of first appearance.
	var assets []string
	byAsset := make(map[string][]Event)
	for _, ev := range events {
		if ev.Kind != Acquisition && ev.Kind != Disposal {
			continue
		}
		if _, exists := byAsset[ev.Asset]; !exists {
			assets = append(assets, ev.Asset)
		}
		byAsset[ev.Asset] = append(byAsset[ev.Asset], ev)
	}

	runs := make([]assetRun, len(assets))
	var g errgroup.Group
	g.SetLimit(max(e.Parallelism, 1))
	for i, asset := range assets {
		g.Go(func() error {
			runs[i] = e.processAsset(ctx, currency, asset, byAsset[asset])
			return nil
		})
	}
	_ = g.Wait() // asset failures are kept in runs.

	report := &Report{Currency: currency, Lots: make(map[string][]Lot)}
	for i, asset := range assets {
		run := runs[i]
		report.Realizations = append(report.Realizations, run.realizations...)
		if len(run.lots) > 0 {
			report.Lots[asset] = run.lots
		}
		if run.err != nil {
			log.Warnw("asset processing stopped", "asset", asset, "err", run.err)
			report.Errors = append(report.Errors, &AssetError{Asset: asset, Err: run.err})
		}
	}
	log.Debugw("processed events", "events", len(events), "assets", len(assets),
		"realizations", len(report.Realizations), "failures", len(report.Errors))
	return report
}

// processAsset runs the FIFO matching of a single asset.
func (e *Engine) processAsset(ctx context.Context, currency, asset string, events []Event) (run assetRun) {
	events = slices.Clone(events)
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	for _, ev := range events {
		if !ev.Quantity.IsPositive() {
			continue
		}
		switch ev.Kind {
		case Acquisition:
			unit, total, err := e.value(ctx, currency, ev)
			if err != nil {
				run.err = err
				return run
			}
			run.lots = append(run.lots, Lot{
				Asset:         asset,
				AcquisitionID: ev.ID,
				AcquiredOn:    ev.Date,
				Remaining:     ev.Quantity,
				UnitCost:      unit,
				RemainingCost: total,
			})

		case Disposal:
			if available := run.lots.available(); available.LessThan(ev.Quantity) {
				run.err = &InsufficientLotError{
					EventID:   ev.ID,
					Asset:     asset,
					Date:      ev.Date,
					Requested: ev.Quantity,
					Available: available,
				}
				return run
			}
			unit, proceeds, err := e.value(ctx, currency, ev)
			if err != nil {
				run.err = err
				return run
			}
			matches := run.lots.consume(ev.Quantity)
			costBasis := decimal.Zero
			for _, m := range matches {
				costBasis = costBasis.Add(m.Cost())
			}
			run.realizations = append(run.realizations, Realization{
				DisposalID: ev.ID,
				Category:   ev.Category,
				Asset:      asset,
				Date:       ev.Date,
				Quantity:   ev.Quantity,
				UnitPrice:  unit,
				Matches:    matches,
				CostBasis:  costBasis,
				Proceeds:   proceeds,
				Gain:       proceeds.Sub(costBasis),
			})
		}
	}
	return run
}

// value returns the unit valuation of ev and the value of its whole quantity,
// asking the oracle when ev has none. A declared value is the exact total.
func (e *Engine) value(ctx context.Context, currency string, ev Event) (unit, total decimal.Decimal, err error) {
	if ev.Valuation.Valid {
		return ev.Valuation.Decimal, ev.Valuation.Decimal.Mul(ev.Quantity), nil
	}
	if v, ok := ev.DeclaredValue(); ok {
		u, _ := ev.UnitValuation()
		return u, v, nil
	}
	if e.Oracle == nil {
		return decimal.Zero, decimal.Zero, &PricingError{EventID: ev.ID, Asset: ev.Asset, Date: ev.Date, Err: errors.New("no valuation and no price oracle")}
	}
	p, err := e.Oracle.Resolve(ctx, ev.Asset, ev.Date, currency)
	if err != nil {
		return decimal.Zero, decimal.Zero, &PricingError{EventID: ev.ID, Asset: ev.Asset, Date: ev.Date, Err: err}
	}
	return p, p.Mul(ev.Quantity), nil
}

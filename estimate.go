package cryptotax

import (
	"cmp"
	"context"
	"errors"

	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/oracle"
	"github.com/shopspring/decimal"
)

// Estimate is the gain or loss of a purchase and a sale of an asset, both
// valued at the market price of their day. It ignores the ledger and its lots.
type Estimate struct {
	Asset            string
	Currency         string
	PurchaseDate     date.Date
	PurchaseQuantity decimal.Decimal
	PurchasePrice    decimal.Decimal
	SaleDate         date.Date
	SaleQuantity     decimal.Decimal
	SalePrice        decimal.Decimal
}

// CostBasis is the purchased quantity at the purchase price.
func (e Estimate) CostBasis() decimal.Decimal { return e.PurchaseQuantity.Mul(e.PurchasePrice) }

// Proceeds is the sold quantity at the sale price.
func (e Estimate) Proceeds() decimal.Decimal { return e.SaleQuantity.Mul(e.SalePrice) }

// Gain is the proceeds minus the cost basis, negative for a loss.
func (e Estimate) Gain() decimal.Decimal { return e.Proceeds().Sub(e.CostBasis()) }

// EstimateGain resolves the price of asset on the purchase and sale days and
// returns the resulting estimate. Quantities must not be negative.
func EstimateGain(ctx context.Context, o oracle.Oracle, currency, asset string, purchaseDate date.Date, purchaseQuantity decimal.Decimal, saleDate date.Date, saleQuantity decimal.Decimal) (Estimate, error) {
	e := Estimate{
		Asset:            asset,
		Currency:         cmp.Or(currency, DefaultCurrency),
		PurchaseDate:     purchaseDate,
		PurchaseQuantity: purchaseQuantity,
		SaleDate:         saleDate,
		SaleQuantity:     saleQuantity,
	}
	switch {
	case asset == "":
		return e, &ValidationError{Field: "asset", Reason: "is required"}
	case purchaseQuantity.IsNegative():
		return e, &ValidationError{Field: "purchaseQuantity", Reason: "must not be negative"}
	case saleQuantity.IsNegative():
		return e, &ValidationError{Field: "saleQuantity", Reason: "must not be negative"}
	case o == nil:
		return e, errors.New("no price oracle")
	}

	var err error
	if e.PurchasePrice, err = o.Resolve(ctx, asset, purchaseDate, e.Currency); err != nil {
		return e, err
	}
	if e.SalePrice, err = o.Resolve(ctx, asset, saleDate, e.Currency); err != nil {
		return e, err
	}
	return e, nil
}

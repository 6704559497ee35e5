package cryptotax

import (
	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
)

// EventID identifies an event in its ledger. IDs are assigned on append,
// starting at 1, and only grow.
type EventID int

// Event is a recorded income event. Events are values: the ledger hands out
// copies and never changes a recorded event.
type Event struct {
	ID       EventID
	Category Category
	Kind     Kind
	Asset    string
	Quantity decimal.Decimal
	Date     date.Date
	// Valuation is the optional unit valuation in the ledger currency.
	Valuation decimal.NullDecimal
	Details   Details
}

// DeclaredValue returns the value declared for the event category, if any.
func (e Event) DeclaredValue() (decimal.Decimal, bool) {
	if e.Details == nil {
		return decimal.Zero, false
	}
	return e.Details.DeclaredValue()
}

// Metadata returns the category specific fields of the event as strings.
func (e Event) Metadata() map[string]string {
	if e.Details == nil {
		return map[string]string{}
	}
	return e.Details.Fields()
}

// UnitValuation returns the unit valuation of the event: the explicit one
// when set, or else the declared value spread over the quantity.
func (e Event) UnitValuation() (decimal.Decimal, bool) {
	if e.Valuation.Valid {
		return e.Valuation.Decimal, true
	}
	if v, ok := e.DeclaredValue(); ok && e.Quantity.IsPositive() {
		return v.Div(e.Quantity), true
	}
	return decimal.Zero, false
}

// Details holds the fields specific to an event category. The concrete types
// are TradingDetails, StakingDetails, MiningDetails, NFTDetails and
// DeFiDetails.
type Details interface {
	Category() Category
	// DeclaredValue returns the designated valuation field of the category.
	DeclaredValue() (decimal.Decimal, bool)
	// Fields returns the populated fields, keyed by their json name.
	Fields() map[string]string
	defaultKind() Kind
}

// TradingDetails describes a buy, sell or swap on an exchange.
type TradingDetails struct {
	Type TradeType `json:"type" validate:"required,oneof=buy sell swap"`
	// Value is the total value of the trade.
	Value decimal.NullDecimal `json:"value,omitzero" validate:"gte=0"`
}

// StakingDetails describes staking and yield farming rewards.
type StakingDetails struct {
	Platform      string              `json:"platform,omitempty"`
	APY           decimal.NullDecimal `json:"apy,omitzero" validate:"gte=0,lte=100"`
	TotalReceipts decimal.NullDecimal `json:"totalReceipts,omitzero" validate:"gte=0"`
}

// MiningDetails describes mined assets. The mined quantity is the event
// quantity.
type MiningDetails struct {
	ProofType     ProofType           `json:"proofType,omitempty" validate:"omitempty,oneof=pow pos"`
	WalletAddress string              `json:"walletAddress,omitempty"`
	Valuation     decimal.NullDecimal `json:"valuation,omitzero" validate:"gte=0"`
}

// NFTDetails describes NFT sales and royalties.
type NFTDetails struct {
	ContractAddress string              `json:"contractAddress,omitempty"`
	TokenID         string              `json:"tokenId,omitempty"`
	SalePrice       decimal.NullDecimal `json:"salePrice,omitzero" validate:"gte=0"`
	ResaleChain     string              `json:"resaleChain,omitempty"`
	RoyaltyRate     decimal.NullDecimal `json:"royaltyRate,omitzero" validate:"gte=0,lte=100"`
}

// DeFiDetails describes lending and borrowing income.
type DeFiDetails struct {
	Protocol     string              `json:"protocol,omitempty"`
	IncomeEarned decimal.NullDecimal `json:"incomeEarned,omitzero" validate:"gte=0"`
}

func (TradingDetails) Category() Category { return Trading }
func (StakingDetails) Category() Category { return Staking }
func (MiningDetails) Category() Category  { return Mining }
func (NFTDetails) Category() Category     { return NFT }
func (DeFiDetails) Category() Category    { return DeFi }

func (d TradingDetails) DeclaredValue() (decimal.Decimal, bool) { return nullValue(d.Value) }
func (d StakingDetails) DeclaredValue() (decimal.Decimal, bool) { return nullValue(d.TotalReceipts) }
func (d MiningDetails) DeclaredValue() (decimal.Decimal, bool)  { return nullValue(d.Valuation) }
func (d NFTDetails) DeclaredValue() (decimal.Decimal, bool)     { return nullValue(d.SalePrice) }
func (d DeFiDetails) DeclaredValue() (decimal.Decimal, bool)    { return nullValue(d.IncomeEarned) }

func (d TradingDetails) defaultKind() Kind { return d.Type.Kind() }
func (StakingDetails) defaultKind() Kind   { return Receipt }
func (MiningDetails) defaultKind() Kind    { return Receipt }
func (NFTDetails) defaultKind() Kind       { return Receipt }
func (DeFiDetails) defaultKind() Kind      { return Receipt }

func (d TradingDetails) Fields() map[string]string {
	return fields{}.str("type", string(d.Type)).num("value", d.Value)
}

func (d StakingDetails) Fields() map[string]string {
	return fields{}.str("platform", d.Platform).num("apy", d.APY).num("totalReceipts", d.TotalReceipts)
}

func (d MiningDetails) Fields() map[string]string {
	return fields{}.str("proofType", string(d.ProofType)).str("walletAddress", d.WalletAddress).num("valuation", d.Valuation)
}

func (d NFTDetails) Fields() map[string]string {
	return fields{}.
		str("contractAddress", d.ContractAddress).
		str("tokenId", d.TokenID).
		num("salePrice", d.SalePrice).
		str("resaleChain", d.ResaleChain).
		num("royaltyRate", d.RoyaltyRate)
}

func (d DeFiDetails) Fields() map[string]string {
	return fields{}.str("protocol", d.Protocol).num("incomeEarned", d.IncomeEarned)
}

// NewDetails returns empty details for the category c, or nil if c is unknown.
func NewDetails(c Category) Details {
	switch c {
	case Trading:
		return TradingDetails{}
	case Staking:
		return StakingDetails{}
	case Mining:
		return MiningDetails{}
	case NFT:
		return NFTDetails{}
	case DeFi:
		return DeFiDetails{}
	}
	return nil
}

// WithDeclaredValue returns a copy of d whose designated valuation field is v.
func WithDeclaredValue(d Details, v decimal.Decimal) Details {
	nv := decimal.NewNullDecimal(v)
	switch x := d.(type) {
	case TradingDetails:
		x.Value = nv
		return x
	case StakingDetails:
		x.TotalReceipts = nv
		return x
	case MiningDetails:
		x.Valuation = nv
		return x
	case NFTDetails:
		x.SalePrice = nv
		return x
	case DeFiDetails:
		x.IncomeEarned = nv
		return x
	}
	return d
}

func nullValue(n decimal.NullDecimal) (decimal.Decimal, bool) {
	if !n.Valid {
		return decimal.Zero, false
	}
	return n.Decimal, true
}

// fields collects populated string fields.
type fields map[string]string

func (f fields) str(k, v string) fields {
	if v != "" {
		f[k] = v
	}
	return f
}

func (f fields) num(k string, v decimal.NullDecimal) fields {
	if v.Valid {
		f[k] = v.Decimal.String()
	}
	return f
}

package cryptotax

import (
	"fmt"
	"strings"
)

// Category is the income category of an event.
type Category string

const (
	Trading Category = "trading"
	Staking Category = "staking"
	Mining  Category = "mining"
	NFT     Category = "nft"
	DeFi    Category = "defi"
)

// Categories lists every category in presentation order.
var Categories = []Category{Trading, Staking, Mining, NFT, DeFi}

// Title returns the human readable name of the category.
func (c Category) Title() string {
	switch c {
	case Trading:
		return "Crypto Trading Income"
	case Staking:
		return "Staking & Yield Farming Income"
	case Mining:
		return "Mining Income"
	case NFT:
		return "NFT Royalties & Sales"
	case DeFi:
		return "DeFi Lending/Borrowing"
	default:
		return string(c)
	}
}

// ParseCategory parses a category from its identifier or its title, ignoring
// case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Title()) {
			return c, nil
		}
	}
	switch strings.ToLower(s) {
	case "trade", "exchange":
		return Trading, nil
	case "yield", "farming":
		return Staking, nil
	case "lending", "borrowing":
		return DeFi, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Kind tells how an event affects the holdings of its asset.
type Kind string

const (
	// Acquisition opens a lot.
	Acquisition Kind = "acquisition"
	// Disposal consumes open lots in FIFO order.
	Disposal Kind = "disposal"
	// Receipt is declared income that does not move lots.
	Receipt Kind = "receipt"
)

// ParseKind parses a kind, ignoring case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Acquisition, Disposal, Receipt:
		return k, nil
	}
	return "", fmt.Errorf("unknown kind: %q", s)
}

// TradeType is the transaction type of a trading event.
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
	Swap TradeType = "swap"
)

// ParseTradeType parses a trade type, ignoring case.
func ParseTradeType(s string) (TradeType, error) {
	switch t := TradeType(strings.ToLower(strings.TrimSpace(s))); t {
	case Buy, Sell, Swap:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type: %q", s)
}

// Kind returns the default kind of a trade of this type.
func (t TradeType) Kind() Kind {
	switch t {
	case Buy:
		return Acquisition
	case Sell, Swap:
		return Disposal
	default:
		return Receipt
	}
}

// ProofType is the consensus of a mining event.
type ProofType string

const (
	ProofOfWork  ProofType = "pow"
	ProofOfStake ProofType = "pos"
)

// ParseProofType parses a proof type from "pow", "pos" or their long names.
func ParseProofType(s string) (ProofType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pow", "proof-of-work", "proof of work":
		return ProofOfWork, nil
	case "pos", "proof-of-stake", "proof of stake":
		return ProofOfStake, nil
	}
	return "", fmt.Errorf("unknown proof type: %q", s)
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/google/subcommands"
)

// entryFlags are the flags shared by every income entry command.
type entryFlags struct {
	date     string
	asset    string
	quantity decimalFlag
	kind     string
	price    decimalFlag
}

func (e *entryFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&e.date, "d", date.Today().String(), "Event date (YYYY-MM-DD)")
	f.StringVar(&e.asset, "a", "", "Asset identifier as known by the price API (e.g. bitcoin)")
	f.Var(&e.quantity, "q", "Quantity of the asset")
	f.StringVar(&e.kind, "k", "", "Event kind (acquisition, disposal, receipt). Defaults from the category")
	f.Var(&e.price, "p", "Unit valuation in the ledger currency. Looked up from the price API when missing")
}

// draft builds the draft of a category event from the flags.
func (e *entryFlags) draft(details cryptotax.Details) (cryptotax.Draft, error) {
	day, err := date.Parse(e.date)
	if err != nil {
		return cryptotax.Draft{}, err
	}
	var kind cryptotax.Kind
	if e.kind != "" {
		if kind, err = cryptotax.ParseKind(e.kind); err != nil {
			return cryptotax.Draft{}, err
		}
	}
	return cryptotax.Draft{
		Category:  details.Category(),
		Kind:      kind,
		Asset:     e.asset,
		Quantity:  e.quantity.Decimal,
		Date:      day,
		Valuation: e.price.NullDecimal,
		Details:   details,
	}, nil
}

// appendEntry records one event built from flags in the ledger file.
func appendEntry(e *entryFlags, details cryptotax.Details) subcommands.ExitStatus {
	d, err := e.draft(details)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	id, err := l.Append(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveLedger(cfg, l); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved %s entry #%d to %s\n", d.Category.Title(), id, cfg.LedgerFile)
	return subcommands.ExitSuccess
}

// --- Trade Command ---

type tradeCmd struct {
	entryFlags
	typ   string
	value decimalFlag
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "record a buy, sell or swap on an exchange" }
func (*tradeCmd) Usage() string {
	return `ctax trade -a <asset> -q <quantity> [-type buy|sell|swap] [-value <total>] [-p <unit price>] [-d <date>]

  Records a trade. Buys are acquisitions, sells and swaps are disposals
  matched against earlier buys by the gains report.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.typ, "type", string(cryptotax.Buy), "Transaction type (buy, sell, swap)")
	f.Var(&c.value, "value", "Total value of the trade in the ledger currency")
}

func (c *tradeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	typ, err := cryptotax.ParseTradeType(c.typ)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return appendEntry(&c.entryFlags, cryptotax.TradingDetails{Type: typ, Value: c.value.NullDecimal})
}

// --- Stake Command ---

type stakeCmd struct {
	entryFlags
	platform string
	apy      decimalFlag
	receipts decimalFlag
}

func (*stakeCmd) Name() string     { return "stake" }
func (*stakeCmd) Synopsis() string { return "record staking or yield farming rewards" }
func (*stakeCmd) Usage() string {
	return `ctax stake -a <asset> [-q <quantity>] [-platform <name>] [-apy <percent>] [-receipts <total>] [-d <date>]

  Records staking rewards. The total receipts are the declared income.
`
}

func (c *stakeCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.platform, "platform", "", "Staking platform")
	f.Var(&c.apy, "apy", "Annual percentage yield (0-100)")
	f.Var(&c.receipts, "receipts", "Total receipts in the ledger currency")
}

func (c *stakeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return appendEntry(&c.entryFlags, cryptotax.StakingDetails{
		Platform:      c.platform,
		APY:           c.apy.NullDecimal,
		TotalReceipts: c.receipts.NullDecimal,
	})
}

// --- Mine Command ---

type mineCmd struct {
	entryFlags
	proof     string
	wallet    string
	valuation decimalFlag
}

func (*mineCmd) Name() string     { return "mine" }
func (*mineCmd) Synopsis() string { return "record mined or validated coins" }
func (*mineCmd) Usage() string {
	return `ctax mine -a <asset> -q <quantity> [-proof pow|pos] [-wallet <address>] [-valuation <total>] [-d <date>]

  Records a mining reward. The valuation is the declared income.
`
}

func (c *mineCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.proof, "proof", "", "Proof type (pow, pos)")
	f.StringVar(&c.wallet, "wallet", "", "Wallet address")
	f.Var(&c.valuation, "valuation", "Valuation of the mined coins in the ledger currency")
}

func (c *mineCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var proof cryptotax.ProofType
	if c.proof != "" {
		var err error
		if proof, err = cryptotax.ParseProofType(c.proof); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return appendEntry(&c.entryFlags, cryptotax.MiningDetails{
		ProofType:     proof,
		WalletAddress: c.wallet,
		Valuation:     c.valuation.NullDecimal,
	})
}

// --- NFT Command ---

type nftCmd struct {
	entryFlags
	contract  string
	tokenID   string
	salePrice decimalFlag
	chain     string
	royalty   decimalFlag
}

func (*nftCmd) Name() string     { return "nft" }
func (*nftCmd) Synopsis() string { return "record an NFT sale or royalty" }
func (*nftCmd) Usage() string {
	return `ctax nft -a <asset> [-contract <address>] [-token-id <id>] [-sale-price <total>] [-chain <name>] [-royalty <percent>] [-d <date>]

  Records an NFT sale. The sale price is the declared income.
`
}

func (c *nftCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.contract, "contract", "", "NFT contract address")
	f.StringVar(&c.tokenID, "token-id", "", "Token id")
	f.Var(&c.salePrice, "sale-price", "Sale price in the ledger currency")
	f.StringVar(&c.chain, "chain", "", "Resale chain")
	f.Var(&c.royalty, "royalty", "Royalty rate (0-100)")
}

func (c *nftCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return appendEntry(&c.entryFlags, cryptotax.NFTDetails{
		ContractAddress: c.contract,
		TokenID:         c.tokenID,
		SalePrice:       c.salePrice.NullDecimal,
		ResaleChain:     c.chain,
		RoyaltyRate:     c.royalty.NullDecimal,
	})
}

// --- DeFi Command ---

type defiCmd struct {
	entryFlags
	protocol string
	income   decimalFlag
}

func (*defiCmd) Name() string     { return "defi" }
func (*defiCmd) Synopsis() string { return "record DeFi lending or borrowing income" }
func (*defiCmd) Usage() string {
	return `ctax defi -a <asset> [-protocol <name>] [-income <total>] [-q <quantity>] [-d <date>]

  Records DeFi income. The income earned is the declared income.
`
}

func (c *defiCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.protocol, "protocol", "", "DeFi protocol")
	f.Var(&c.income, "income", "Income earned in the ledger currency")
}

func (c *defiCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return appendEntry(&c.entryFlags, cryptotax.DeFiDetails{Protocol: c.protocol, IncomeEarned: c.income.NullDecimal})
}

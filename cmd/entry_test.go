package cmd

import (
	"testing"

	"github.com/etnz/cryptotax"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

func TestEntryCommands(t *testing.T) {
	tests := []struct {
		name     string
		cmd      subcommands.Command
		args     []string
		category cryptotax.Category
		kind     cryptotax.Kind
		declared string
	}{
		{
			name: "trade buy", cmd: &tradeCmd{},
			args:     []string{"-d", "2024-01-01", "-a", "bitcoin", "-q", "1.5", "-p", "100", "-value", "150"},
			category: cryptotax.Trading, kind: cryptotax.Acquisition, declared: "150",
		},
		{
			name: "trade swap", cmd: &tradeCmd{},
			args:     []string{"-d", "2024-01-02", "-a", "bitcoin", "-q", "0.5", "-type", "Swap"},
			category: cryptotax.Trading, kind: cryptotax.Disposal,
		},
		{
			name: "stake", cmd: &stakeCmd{},
			args:     []string{"-a", "cardano", "-platform", "Binance Staking", "-apy", "5.5", "-receipts", "250,000"},
			category: cryptotax.Staking, kind: cryptotax.Receipt, declared: "250000",
		},
		{
			name: "mine", cmd: &mineCmd{},
			args:     []string{"-a", "bitcoin", "-q", "0.01", "-proof", "pow", "-wallet", "bc1q", "-valuation", "1500000"},
			category: cryptotax.Mining, kind: cryptotax.Receipt, declared: "1500000",
		},
		{
			name: "nft", cmd: &nftCmd{},
			args:     []string{"-a", "ethereum", "-contract", "0xabc", "-token-id", "42", "-sale-price", "9000000", "-royalty", "10"},
			category: cryptotax.NFT, kind: cryptotax.Receipt, declared: "9000000",
		},
		{
			name: "defi", cmd: &defiCmd{},
			args:     []string{"-a", "usd-coin", "-protocol", "Aave", "-income", "120000", "-k", "acquisition", "-q", "30", "-p", "4000"},
			category: cryptotax.DeFi, kind: cryptotax.Acquisition, declared: "120000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := useLedger(t, "")
			if status := run(t, tt.cmd, tt.args...); status != subcommands.ExitSuccess {
				t.Fatalf("Execute() = %v, want success", status)
			}
			events := readLedger(t, path).Events()
			if len(events) != 1 {
				t.Fatalf("ledger has %d events, want 1", len(events))
			}
			e := events[0]
			if e.Category != tt.category || e.Kind != tt.kind {
				t.Errorf("event = %s/%s, want %s/%s", e.Category, e.Kind, tt.category, tt.kind)
			}
			v, ok := e.DeclaredValue()
			if tt.declared == "" {
				if ok {
					t.Errorf("declared value = %s, want none", v)
				}
				return
			}
			if !ok || !v.Equal(decimal.RequireFromString(tt.declared)) {
				t.Errorf("declared value = %s (%v), want %s", v, ok, tt.declared)
			}
		})
	}
}

func TestEntryCommands_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{"no asset", &tradeCmd{}, []string{"-q", "1"}, subcommands.ExitFailure},
		{"bad date", &tradeCmd{}, []string{"-a", "bitcoin", "-d", "yesterday"}, subcommands.ExitUsageError},
		{"bad trade type", &tradeCmd{}, []string{"-a", "bitcoin", "-type", "hold"}, subcommands.ExitUsageError},
		{"apy above 100", &stakeCmd{}, []string{"-a", "cardano", "-apy", "120"}, subcommands.ExitFailure},
		{"royalty above 100", &nftCmd{}, []string{"-a", "ethereum", "-royalty", "101"}, subcommands.ExitFailure},
		{"bad proof", &mineCmd{}, []string{"-a", "bitcoin", "-proof", "pox"}, subcommands.ExitUsageError},
		{"bad kind", &defiCmd{}, []string{"-a", "usd-coin", "-k", "gift"}, subcommands.ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := useLedger(t, "")
			if got := run(t, tt.cmd, tt.args...); got != tt.want {
				t.Errorf("Execute() = %v, want %v", got, tt.want)
			}
			if n := readLedger(t, path).Len(); n != 0 {
				t.Errorf("ledger has %d events, want none", n)
			}
		})
	}
}

func TestDecimalFlag(t *testing.T) {
	var f decimalFlag
	if f.String() != "" {
		t.Errorf("String() of unset flag = %q, want empty", f.String())
	}
	if err := f.Set("1,234.5"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !f.Valid || f.String() != "1234.5" {
		t.Errorf("flag = %q (valid %v), want 1234.5", f.String(), f.Valid)
	}
	if err := f.Set("abc"); err == nil {
		t.Error("Set(abc) should fail")
	}
}

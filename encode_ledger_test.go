package cryptotax

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeLedger(t *testing.T) {
	l := NewLedger("UGX")
	mustAppend(t, l, Draft{Category: Trading, Asset: "bitcoin", Quantity: dec("1.5"), Date: day("2024-01-01"), Valuation: nd("100"), Details: TradingDetails{Type: Buy, Value: nd("150")}})

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("EncodeLedger() wrote %d lines, want 2:\n%s", len(lines), buf.String())
	}
	wantHeader := `{"session":"` + l.Session().String() + `","currency":"UGX"}`
	if lines[0] != wantHeader {
		t.Errorf("header = %s, want %s", lines[0], wantHeader)
	}
	want := `{"id":1,"date":"2024-01-01","category":"trading","kind":"acquisition","asset":"bitcoin","quantity":1.5,"unitValuation":100,"type":"buy","value":150}`
	if lines[1] != want {
		t.Errorf("event line = %s\nwant         %s", lines[1], want)
	}
}

func TestDecodeLedger(t *testing.T) {
	l := NewLedger("KES")
	mustAppend(t, l, Draft{Category: Trading, Asset: "bitcoin", Quantity: dec("1"), Date: day("2024-01-01"), Details: TradingDetails{Type: Swap}})
	mustAppend(t, l, Draft{Category: Staking, Asset: "cardano", Quantity: dec("12.5"), Date: day("2024-01-02"), Details: StakingDetails{Platform: "Binance", APY: nd("4.2"), TotalReceipts: nd("3000")}})
	mustAppend(t, l, Draft{Category: Mining, Kind: Acquisition, Asset: "ethereum", Quantity: dec("0.01"), Date: day("2024-01-03"), Details: MiningDetails{ProofType: ProofOfStake, WalletAddress: "0xabc", Valuation: nd("90000")}})
	mustAppend(t, l, Draft{Category: NFT, Asset: "ethereum", Quantity: dec("1"), Date: day("2024-01-04"), Details: NFTDetails{ContractAddress: "0xdef", TokenID: "42", SalePrice: nd("5000000"), ResaleChain: "polygon", RoyaltyRate: nd("7.5")}})
	mustAppend(t, l, Draft{Category: DeFi, Asset: "usdc", Quantity: dec("100"), Date: day("2024-01-05"), Details: DeFiDetails{Protocol: "Aave", IncomeEarned: nd("12000")}})

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	got, err := DecodeLedger(&buf)
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if got.Session() != l.Session() || got.Currency() != "KES" {
		t.Errorf("DecodeLedger() session/currency = %v/%s, want %v/KES", got.Session(), got.Currency(), l.Session())
	}
	want, have := l.Events(), got.Events()
	if len(have) != len(want) {
		t.Fatalf("DecodeLedger() events = %d, want %d", len(have), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(want[i].Metadata(), have[i].Metadata()) {
			t.Errorf("event %d metadata = %v, want %v", i+1, have[i].Metadata(), want[i].Metadata())
		}
		if have[i].ID != want[i].ID || have[i].Kind != want[i].Kind || !have[i].Quantity.Equal(want[i].Quantity) || have[i].Date != want[i].Date {
			t.Errorf("event %d = %+v, want %+v", i+1, have[i], want[i])
		}
	}
	// ids keep growing after a reload.
	if id := mustAppend(t, got, Draft{Category: Mining, Asset: "eth", Quantity: dec("1"), Date: day("2024-02-01")}); id != 6 {
		t.Errorf("Append() after reload id = %d, want 6", id)
	}
}

func TestDecodeLedger_Errors(t *testing.T) {
	tests := []struct {
		name, input string
	}{
		{"not json", "hello\n"},
		{"out of sequence", `{"id":2,"date":"2024-01-01","category":"mining","kind":"receipt","asset":"eth","quantity":1}`},
		{"unknown category", `{"id":1,"date":"2024-01-01","category":"lottery","kind":"receipt","asset":"eth","quantity":1}`},
		{"bad date", `{"id":1,"date":"soon","category":"mining","kind":"receipt","asset":"eth","quantity":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLedger(strings.NewReader(tt.input)); err == nil {
				t.Error("DecodeLedger() expected an error")
			}
		})
	}
}

func TestDecodeLedger_Headerless(t *testing.T) {
	input := "\n" + `{"id":1,"date":"2024-01-01","category":"defi","kind":"receipt","asset":"usdc","quantity":1,"incomeEarned":10}` + "\n"
	l, err := DecodeLedger(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if l.Currency() != DefaultCurrency || l.Len() != 1 {
		t.Errorf("DecodeLedger() = %s with %d events, want %s with 1", l.Currency(), l.Len(), DefaultCurrency)
	}
	assertDecimal(t, "Total", l.Total(DeclaredValue), "10")
}

func TestDraft_UnmarshalJSON(t *testing.T) {
	var d Draft
	input := `{"category":"staking","asset":"cardano","quantity":"3","date":"2024-05-01","platform":"Kraken","apy":6,"totalReceipts":450000}`
	if err := json.Unmarshal([]byte(input), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := StakingDetails{Platform: "Kraken", APY: nd("6"), TotalReceipts: nd("450000")}
	got, ok := d.Details.(StakingDetails)
	if !ok {
		t.Fatalf("Details = %T, want StakingDetails", d.Details)
	}
	if got.Platform != want.Platform || !got.APY.Decimal.Equal(want.APY.Decimal) || !got.TotalReceipts.Decimal.Equal(want.TotalReceipts.Decimal) {
		t.Errorf("Details = %+v, want %+v", got, want)
	}
	if d.Date != day("2024-05-01") || !d.Quantity.Equal(dec("3")) {
		t.Errorf("Draft = %+v", d)
	}

	// unknown categories are left to Append.
	var bad Draft
	if err := json.Unmarshal([]byte(`{"category":"lottery","asset":"x"}`), &bad); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	var verr *ValidationError
	if _, err := NewLedger("UGX").Append(bad); !errors.As(err, &verr) || verr.Field != "category" {
		t.Errorf("Append() error = %v, want an invalid category", err)
	}
}

func TestSaveAndLoadLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ledger.jsonl")

	l, err := LoadLedger(path, "ugx")
	if err != nil {
		t.Fatalf("LoadLedger() on a missing file error = %v", err)
	}
	if l.Len() != 0 || l.Currency() != "UGX" {
		t.Errorf("LoadLedger() = %d events in %s, want an empty UGX ledger", l.Len(), l.Currency())
	}
	mustAppend(t, l, Draft{Category: Trading, Asset: "bitcoin", Quantity: dec("1"), Date: day("2024-01-01"), Details: TradingDetails{Type: Buy}})
	if err := SaveLedger(path, l); err != nil {
		t.Fatalf("SaveLedger() error = %v", err)
	}

	reloaded, err := LoadLedger(path, "UGX")
	if err != nil {
		t.Fatalf("LoadLedger() error = %v", err)
	}
	if reloaded.Len() != 1 || reloaded.Session() != l.Session() {
		t.Errorf("LoadLedger() = %d events, session %v; want 1 event, session %v", reloaded.Len(), reloaded.Session(), l.Session())
	}
	if _, err := LoadLedger(path, "USD"); err == nil {
		t.Error("LoadLedger() in another currency expected an error")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("SaveLedger() left %d files, want only the ledger", len(entries))
	}
}

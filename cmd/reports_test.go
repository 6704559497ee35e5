package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

func TestReportCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{"log", &logCmd{}, nil, subcommands.ExitSuccess},
		{"log year", &logCmd{}, []string{"-year", "2024", "-c", "staking", "-tail", "1"}, subcommands.ExitSuccess},
		{"log head and tail", &logCmd{}, []string{"-head", "1", "-tail", "1"}, subcommands.ExitUsageError},
		{"log bad category", &logCmd{}, []string{"-c", "lottery"}, subcommands.ExitUsageError},
		{"log inverted period", &logCmd{}, []string{"-s", "2024-02-01", "-d", "2024-01-01"}, subcommands.ExitUsageError},
		{"gains", &gainsCmd{}, nil, subcommands.ExitSuccess},
		{"gains of another year", &gainsCmd{}, []string{"-year", "2023"}, subcommands.ExitSuccess},
		{"alerts", &alertsCmd{}, nil, subcommands.ExitSuccess},
		{"alerts with gains", &alertsCmd{}, []string{"-gains"}, subcommands.ExitSuccess},
		{"summary", &summaryCmd{}, []string{"-entries"}, subcommands.ExitSuccess},
		{"fmt", &fmtCmd{}, nil, subcommands.ExitSuccess},
		{"topic", &topicCmd{}, []string{"gains", "ledger"}, subcommands.ExitSuccess},
		{"topic list", &topicCmd{}, []string{"-list"}, subcommands.ExitSuccess},
		{"unknown topic", &topicCmd{}, []string{"nope"}, subcommands.ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useLedger(t, sampleLedger)
			if got := run(t, tt.cmd, tt.args...); got != tt.want {
				t.Errorf("Execute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGains_UnpricedDisposal(t *testing.T) {
	useLedger(t, `{"id":1,"date":"2024-01-01","category":"trading","kind":"disposal","asset":"solana","quantity":1,"type":"sell"}
`)
	if got := run(t, &gainsCmd{}); got != subcommands.ExitFailure {
		t.Errorf("Execute() = %v, want failure for an unpriced disposal", got)
	}
}

func TestGains_ManualPrices(t *testing.T) {
	path := useLedger(t, `{"id":1,"date":"2024-01-01","category":"trading","kind":"acquisition","asset":"solana","quantity":2,"type":"buy"}
{"id":2,"date":"2024-03-01","category":"trading","kind":"disposal","asset":"solana","quantity":1,"type":"sell"}
`)
	prices := filepath.Join(filepath.Dir(path), "prices.csv")
	if err := os.WriteFile(prices, []byte("Token,Date,Price\nsolana,2024-01-01,\"100,000\"\nsolana,2024-03-01,150000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := *pricesFile
	*pricesFile = prices
	t.Cleanup(func() { *pricesFile = old })

	if got := run(t, &gainsCmd{}); got != subcommands.ExitSuccess {
		t.Errorf("Execute() = %v, want success with manual prices", got)
	}
}

func TestLoadPrices_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"missing column", "Token,Price\nsolana,1\n"},
		{"bad date", "Token,Date,Price\nsolana,someday,1\n"},
		{"bad price", "Token,Date,Price\nsolana,2024-01-01,free\n"},
		{"negative price", "Token,Date,Price\nsolana,2024-01-01,-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := loadPrices(path, "UGX"); err == nil {
				t.Error("loadPrices() should fail")
			}
		})
	}
}

func TestImport(t *testing.T) {
	path := useLedger(t, "")
	export := filepath.Join(filepath.Dir(path), "wallet.csv")
	content := "Token,Amount,Date,Price\nbitcoin,1,2024-01-01,100000000\nbitcoin,-0.5,2024-02-01,150000000\n,3,2024-02-02,1\n"
	if err := os.WriteFile(export, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if got := run(t, &importCmd{}, "-preview", export); got != subcommands.ExitSuccess {
		t.Fatalf("import -preview = %v, want success", got)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("import -preview wrote the ledger")
	}

	if got := run(t, &importCmd{}, export); got != subcommands.ExitSuccess {
		t.Fatalf("import = %v, want success", got)
	}
	if n := readLedger(t, path).Len(); n != 2 {
		t.Errorf("ledger has %d events, want 2", n)
	}

	if got := run(t, &importCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("import without file = %v, want usage error", got)
	}
	if got := run(t, &importCmd{}, "-c", "lottery", export); got != subcommands.ExitUsageError {
		t.Errorf("import -c lottery = %v, want usage error", got)
	}
}

func TestSummary_HTML(t *testing.T) {
	path := useLedger(t, sampleLedger)
	out := filepath.Join(filepath.Dir(path), "summary.html")
	if got := run(t, &summaryCmd{}, "-html", out); got != subcommands.ExitSuccess {
		t.Fatalf("Execute() = %v, want success", got)
	}
	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "<table>") || !strings.Contains(string(html), "180,250,000") {
		t.Errorf("summary html:\n%s", html)
	}
}

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prices := map[string]string{"01-01-2024": "100000000", "01-06-2024": "150000000"}
		p, ok := prices[r.URL.Query().Get("date")]
		if r.URL.Path != "/coins/bitcoin/history" || !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"id":"bitcoin","market_data":{"current_price":{"ugx":%s}}}`, p)
	}))
	defer srv.Close()

	useLedger(t, "")
	oldURL := *oracleURL
	*oracleURL, *offline = srv.URL, false
	t.Cleanup(func() { *oracleURL = oldURL })

	if got := run(t, &priceCmd{}, "-a", "bitcoin", "-buy", "2024-01-01", "-sell", "2024-06-01", "-q", "0.5"); got != subcommands.ExitSuccess {
		t.Errorf("price = %v, want success", got)
	}
	if got := run(t, &priceCmd{}, "-a", "bitcoin", "-buy", "2024-01-02", "-sell", "2024-06-01", "-q", "0.5"); got != subcommands.ExitFailure {
		t.Errorf("price without market data = %v, want failure", got)
	}
	if got := run(t, &priceCmd{}, "-a", "bitcoin", "-sell", "2024-06-01"); got != subcommands.ExitUsageError {
		t.Errorf("price without purchase = %v, want usage error", got)
	}
}

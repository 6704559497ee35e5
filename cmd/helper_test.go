package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/cryptotax"
	"github.com/google/subcommands"
)

// sampleLedger buys 1.0 and 0.5 bitcoin, sells 1.2 and records a staking reward.
const sampleLedger = `{"session":"7f9c24e8-3b12-4ad5-9f3e-0c1b2a3d4e5f","currency":"UGX"}
{"id":1,"date":"2024-01-01","category":"trading","kind":"acquisition","asset":"bitcoin","quantity":1,"unitValuation":100000000,"type":"buy"}
{"id":2,"date":"2024-01-05","category":"trading","kind":"acquisition","asset":"bitcoin","quantity":0.5,"unitValuation":120000000,"type":"buy"}
{"id":3,"date":"2024-01-10","category":"trading","kind":"disposal","asset":"bitcoin","quantity":1.2,"unitValuation":150000000,"type":"sell","value":180000000}
{"id":4,"date":"2024-02-01","category":"staking","kind":"receipt","asset":"cardano","quantity":10,"platform":"Binance Staking","totalReceipts":250000}
`

// useLedger points the global flags to a temporary ledger file with content
// (no file if content is empty) and never calls the price API.
func useLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, env := range []string{"CTAX_CURRENCY", "CTAX_THRESHOLD", "CTAX_LEDGER_FILE", "CTAX_PARALLELISM"} {
		t.Setenv(env, "")
	}

	oldLedger, oldOffline, oldRaw := *ledgerFile, *offline, *raw
	*ledgerFile, *offline, *raw = path, true, true
	t.Cleanup(func() { *ledgerFile, *offline, *raw = oldLedger, oldOffline, oldRaw })
	return path
}

// run parses args for c and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), fs)
}

// readLedger loads the ledger file at path.
func readLedger(t *testing.T, path string) *cryptotax.Ledger {
	t.Helper()
	l, err := cryptotax.LoadLedger(path, "")
	if err != nil {
		t.Fatalf("LoadLedger() error = %v", err)
	}
	return l
}

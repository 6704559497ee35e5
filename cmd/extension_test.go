package cmd

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/etnz/cryptotax/config"
)

// captureStdout returns what f printed on stdout.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		done <- b
	}()
	f()
	w.Close()
	return string(<-done)
}

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extensions are shell scripts in this test")
	}
	path := useLedger(t, "")
	bin := t.TempDir()
	script := "#!/bin/sh\n" +
		"echo \"" + config.EnvLedgerFile + "=$" + config.EnvLedgerFile + "\"\n" +
		"echo \"" + config.EnvCurrency + "=$" + config.EnvCurrency + "\"\n" +
		"echo \"" + EnvVerbose + "=$" + EnvVerbose + "\"\n" +
		"echo \"args=$*\"\n" +
		"exit 3\n"
	if err := os.WriteFile(filepath.Join(bin, "ctax-hello"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	oldCurrency := *currency
	*currency = "kes"
	t.Cleanup(func() { *currency = oldCurrency })

	var found bool
	var code int
	out := captureStdout(t, func() {
		found, code = RunExtension("hello", []string{"a", "b"})
	})
	if !found || code != 3 {
		t.Errorf("RunExtension() = %v, %d, want true, 3", found, code)
	}
	for _, want := range []string{
		config.EnvLedgerFile + "=" + path,
		config.EnvCurrency + "=KES",
		EnvVerbose + "=false",
		"args=a b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("extension output does not contain %q:\n%s", want, out)
		}
	}

	if found, _ := RunExtension("missing-extension", nil); found {
		t.Error("RunExtension() found a missing extension")
	}
}

package cryptotax

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadLedger reads the ledger file at path. A missing file is an empty ledger
// in currency. An existing ledger must be in currency, unless currency is
// empty.
func LoadLedger(path, currency string) (*Ledger, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(cmp.Or(currency, DefaultCurrency)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger: %w", err)
	}
	defer f.Close()

	l, err := DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger %q: %w", path, err)
	}
	if currency != "" && !strings.EqualFold(l.Currency(), currency) {
		return nil, fmt.Errorf("ledger %q is in %s, not %s", path, l.Currency(), strings.ToUpper(currency))
	}
	return l, nil
}

// SaveLedger writes l to path, replacing the previous file only once the new
// content is completely written.
func SaveLedger(path string, l *Ledger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("cannot save ledger: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := EncodeLedger(tmp, l); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot save ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot save ledger: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

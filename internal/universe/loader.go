package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumn is returned when the symbol column is absent from the header.
var ErrMissingColumn = errors.New("symbol column not found")

// Options controls how symbols are read from a listing file.
type Options struct {
	Column string // header name holding the symbol, e.g. "SYMBOL"
	Suffix string // appended to each symbol, e.g. ".NS"
}

// LoadCSV reads the ticker universe from a CSV listing such as NSE's EQUITY_L.csv.
func LoadCSV(path string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads symbols from r. Blank cells are skipped and duplicates keep
// their first position.
func Parse(r io.Reader, opts Options) ([]string, error) {
	if opts.Column == "" {
		opts.Column = "SYMBOL"
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")), opts.Column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%q: %w", opts.Column, ErrMissingColumn)
	}

	seen := make(map[string]struct{})
	var symbols []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe record: %w", err)
		}
		if col >= len(record) {
			continue
		}
		sym := strings.TrimSpace(record[col])
		if sym == "" {
			continue
		}
		sym += opts.Suffix
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"BreakoutScanner/internal/model"
)

var csvHeader = []string{"Ticker", "Lifetime High", "Pullback Low", "Appreciation High"}

// WriteCSV writes one row per match in scan order.
func WriteCSV(w io.Writer, matches []model.MatchRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range matches {
		row := []string{
			m.Ticker,
			formatPrice(m.LifetimeHigh),
			formatPrice(m.PullbackLow),
			formatPrice(m.AppreciationHigh),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", m.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the matches to path, creating parent directories.
func SaveCSV(path string, matches []model.MatchRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	if err := WriteCSV(f, matches); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatPrice keeps full float precision so exported levels round-trip.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"BreakoutScanner/internal/model"
)

// SuccessRateText renders the success rate as a percentage with two decimals,
// or "No stocks to analyze." when nothing was attempted.
func SuccessRateText(sum *model.ScanSummary) string {
	rate, ok := sum.SuccessRate()
	if !ok {
		return "No stocks to analyze."
	}
	return fmt.Sprintf("Success Rate: %s%%", Percent(rate))
}

// Percent converts a fraction to a percentage string with two decimals.
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).StringFixed(2)
}

// FormatSummary renders a plain-text summary of a scan.
func FormatSummary(sum *model.ScanSummary) string {
	var b strings.Builder
	b.WriteString(SuccessRateText(sum))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Matched: %d of %d (failed: %d)\n", len(sum.Matches), sum.Total, len(sum.Failed)))

	b.WriteString("Annual Opportunities:\n")
	for _, year := range sum.Years() {
		b.WriteString(fmt.Sprintf("  %d: %d opportunities\n", year, sum.YearCounts[year]))
	}

	b.WriteString("Failed Tickers: ")
	if len(sum.Failed) == 0 {
		b.WriteString("none")
	} else {
		b.WriteString(strings.Join(sum.Failed, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

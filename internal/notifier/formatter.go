package notifier

import (
	"fmt"
	"html"
	"strings"

	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/report"
)

// maxListed caps how many matches and failures are spelled out in a message.
const maxListed = 20

// FormatScanReport formats a scan summary into a Telegram HTML message.
func FormatScanReport(sum *model.ScanSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Lifetime-high scan</b> | %s\n\n", sum.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Tickers: %d | Matched: %d | Failed: %d\n", sum.Total, len(sum.Matches), len(sum.Failed)))
	b.WriteString(html.EscapeString(report.SuccessRateText(sum)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Support &lt; %s%% | Appreciation &gt; %s%%\n\n",
		report.Percent(sum.SupportThreshold), report.Percent(sum.AppreciationThreshold)))

	if years := sum.Years(); len(years) > 0 {
		b.WriteString("📅 <b>Annual opportunities:</b>\n")
		for _, y := range years {
			b.WriteString(fmt.Sprintf("  %d: %d\n", y, sum.YearCounts[y]))
		}
		b.WriteString("\n")
	}

	if len(sum.Matches) > 0 {
		b.WriteString("📈 <b>Matches:</b>\n")
		for i, m := range sum.Matches {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(sum.Matches)-maxListed))
				break
			}
			b.WriteString(fmt.Sprintf("  %s: high %.2f, low %.2f, rally %.2f\n",
				html.EscapeString(m.Ticker), m.LifetimeHigh, m.PullbackLow, m.AppreciationHigh))
		}
	}

	if len(sum.Failed) > 0 {
		listed := sum.Failed
		if len(listed) > maxListed {
			listed = listed[:maxListed]
		}
		b.WriteString(fmt.Sprintf("\n⚠️ No data: %s", html.EscapeString(strings.Join(listed, ", "))))
		if len(sum.Failed) > maxListed {
			b.WriteString(fmt.Sprintf(" … (+%d)", len(sum.Failed)-maxListed))
		}
		b.WriteString("\n")
	}

	return b.String()
}

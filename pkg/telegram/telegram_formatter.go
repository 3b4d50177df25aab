package telegram

import (
	"fmt"
	"strings"
	"time"

	"stock-whisperer/pkg/utils"
)

// FormatAnalysisAlertMessage formats a strong recommendation into a Markdown
// alert for Telegram.
func FormatAnalysisAlertMessage(ticker string, recommendation string, score float64, price float64) string {
	var emoji string
	switch recommendation {
	case "Strong Buy":
		emoji = "🟢"
	case "Strong Sell":
		emoji = "🔴"
	default:
		emoji = "🔔"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s *[%s] %s*\n", emoji, ticker, recommendation))
	builder.WriteString(fmt.Sprintf("💰 Price: $%.2f\n", price))
	builder.WriteString(fmt.Sprintf("📊 Score: %+.2f\n", score))
	builder.WriteString(fmt.Sprintf("📅 %s\n", utils.PrettyDate(utils.TimeNowET())))
	return builder.String()
}

// FormatWatchlistSummaryMessage formats the outcome of a scheduled watchlist
// run into a single Markdown message.
func FormatWatchlistSummaryMessage(results map[string]string, failures []string) string {
	var builder strings.Builder
	builder.WriteString("📋 *Watchlist Analysis Summary*\n\n")

	for ticker, recommendation := range results {
		var icon string
		switch {
		case strings.Contains(recommendation, "Buy"):
			icon = "🟢"
		case strings.Contains(recommendation, "Sell"):
			icon = "🔴"
		default:
			icon = "🟡"
		}
		builder.WriteString(fmt.Sprintf("%s `%s` %s\n", icon, ticker, recommendation))
	}

	if len(failures) > 0 {
		builder.WriteString(fmt.Sprintf("\n⚠️ Failed: %s\n", strings.Join(failures, ", ")))
	}

	builder.WriteString(fmt.Sprintf("\n📅 %s\n", utils.PrettyDate(utils.TimeNowET())))
	return builder.String()
}

// FormatErrorAlertMessage formats an operational error notification.
func FormatErrorAlertMessage(t time.Time, errType string, errMsg string) string {
	return fmt.Sprintf("📛 *[ERROR ALERT]*\n%s\n🔧 %s\n⚠️ %s\n", utils.PrettyDate(t), errType, errMsg)
}

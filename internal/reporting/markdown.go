package reporting

import (
	"fmt"
	"strings"
	"time"

	"tradesim-lab/internal/domain"
)

// RenderMarkdown renders the run summary as a Markdown string.
func RenderMarkdown(s Summary) string {
	var sb strings.Builder

	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategy: %s | Symbol: %s\n\n", s.Strategy, s.Symbol))

	sb.WriteString("## Account\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Start Balance | %.4f |\n", s.StartBalance))
	sb.WriteString(fmt.Sprintf("| Final Balance | %.4f |\n", s.FinalBalance))
	sb.WriteString(fmt.Sprintf("| Profit Rate | %.4f |\n", s.ProfitRate))
	sb.WriteString("\n")

	sb.WriteString("## Trades\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Closing Trades | %d |\n", s.TradeCount))
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", s.WinCount))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", s.LoseCount))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Gross Profit | %.4f |\n", s.GrossProfit))
	sb.WriteString(fmt.Sprintf("| Gross Loss | %.4f |\n", s.GrossLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.4f |\n", s.ProfitFactor))
	sb.WriteString("\n")

	sb.WriteString("## Risk\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Max Loss Rate | %.4f |\n", s.MaxLossRate))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f |\n", s.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Drawdown Pct | %.4f |\n", s.MaxDrawdownPct))
	sb.WriteString("\n")

	return sb.String()
}

// RenderTradeMarkdown renders the trade log as a Markdown table.
func RenderTradeMarkdown(rows []domain.TradeLogRow) string {
	var sb strings.Builder

	sb.WriteString("## Trade Log\n\n")
	if len(rows) == 0 {
		sb.WriteString("No trades.\n")
		return sb.String()
	}
	sb.WriteString("| Time | Side | Order | Price | Qty | Position | PnL | Balance | Drawdown |\n")
	sb.WriteString("|------|------|-------|-------|-----|----------|-----|---------|----------|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			r.Time.Format(time.RFC3339), r.Side, r.OrderID,
			r.Price, r.Qty, r.Position, r.RealizedPnL, r.Balance, r.Drawdown))
	}
	return sb.String()
}

package reporting

import (
	"fmt"
	"strings"
	"time"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/replay"
)

// RenderTradeCSV renders the trade log as a CSV string.
func RenderTradeCSV(rows []domain.TradeLogRow) string {
	var sb strings.Builder

	sb.WriteString("time,side,order_id,price,qty,position,realized_pnl,balance,drawdown\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.Time.Format(time.RFC3339),
			r.Side,
			r.OrderID,
			r.Price,
			r.Qty,
			r.Position,
			r.RealizedPnL,
			r.Balance,
			r.Drawdown,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the per-tick balance series as a CSV string.
func RenderEquityCSV(points []replay.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("time,balance,drawdown_pct\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f\n",
			p.Time.Format(time.RFC3339), p.Balance, p.DrawdownPct))
	}

	return sb.String()
}

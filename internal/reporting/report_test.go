package reporting

import (
	"math"
	"strings"
	"testing"
	"time"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/replay"
)

func settledLedger(t *testing.T) *account.Ledger {
	t.Helper()
	l, err := account.NewLedger(account.Config{
		StartBalance: 1000,
		Commission:   0,
		Leverage:     1,
		QtyInUSDT:    true,
	})
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// One winning round trip (+10) and one losing one (-5).
	mustCommit := func(side domain.Side, qty, price float64) {
		t.Helper()
		if _, err := l.Commit("t", side, qty, price, true, false, "", now); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}
	mustCommit(domain.SideLong, 100, 100)
	mustCommit(domain.SideShort, 100, 110)
	mustCommit(domain.SideLong, 100, 100)
	mustCommit(domain.SideShort, 100, 95)

	l.Freeze()
	return l
}

func TestBuildSummary(t *testing.T) {
	l := settledLedger(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	s := BuildSummary("doten_20", "BTCUSDT", l, now)

	if s.Strategy != "doten_20" || s.Symbol != "BTCUSDT" {
		t.Errorf("Identity: %s %s", s.Strategy, s.Symbol)
	}
	if s.StartBalance != 1000 || math.Abs(s.FinalBalance-1005) > 1e-9 {
		t.Errorf("Balances: start %f final %f", s.StartBalance, s.FinalBalance)
	}
	if math.Abs(s.ProfitRate-0.005) > 1e-9 {
		t.Errorf("ProfitRate: got %f, want 0.005", s.ProfitRate)
	}
	if s.TradeCount != 2 || s.WinCount != 1 || s.LoseCount != 1 {
		t.Errorf("Trades: %d/%d/%d", s.TradeCount, s.WinCount, s.LoseCount)
	}
	if s.WinRate != 0.5 {
		t.Errorf("WinRate: got %f, want 0.5", s.WinRate)
	}
	if math.Abs(s.GrossProfit-10) > 1e-9 || math.Abs(s.GrossLoss-5) > 1e-9 {
		t.Errorf("Gross: +%f -%f", s.GrossProfit, s.GrossLoss)
	}
	if math.Abs(s.ProfitFactor-2) > 1e-9 {
		t.Errorf("ProfitFactor: got %f, want 2", s.ProfitFactor)
	}
	wantPct := 5.0 / 1010.0 * 100
	if math.Abs(s.MaxDrawdownPct-wantPct) > 1e-9 {
		t.Errorf("MaxDrawdownPct: got %f, want %f", s.MaxDrawdownPct, wantPct)
	}
}

func TestBuildSummary_NoTrades(t *testing.T) {
	l, err := account.NewLedger(account.Config{StartBalance: 1000, Commission: 0, Leverage: 1})
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	s := BuildSummary("stub", "BTCUSDT", l, time.Now())
	if s.TradeCount != 0 || s.WinRate != 0 || s.ProfitFactor != 0 {
		t.Errorf("Empty run summary: %+v", s)
	}
}

func TestSummary_RunRecord(t *testing.T) {
	s := BuildSummary("doten_20", "BTCUSDT", settledLedger(t), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	r := s.RunRecord("abc123")
	if r.RunID != "abc123" || r.Strategy != "doten_20" || r.Symbol != "BTCUSDT" {
		t.Errorf("RunRecord identity: %+v", r)
	}
	if r.TradeCount != s.TradeCount || r.WinCount != s.WinCount || r.ProfitFactor != s.ProfitFactor {
		t.Errorf("RunRecord metrics: %+v", r)
	}
}

func TestRenderMarkdown(t *testing.T) {
	s := BuildSummary("doten_20", "BTCUSDT", settledLedger(t), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	out := RenderMarkdown(s)
	for _, want := range []string{
		"# Simulation Report",
		"Strategy: doten_20 | Symbol: BTCUSDT",
		"| Final Balance | 1005.0000 |",
		"| Closing Trades | 2 |",
		"| Profit Factor | 2.0000 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderTradeMarkdown_Empty(t *testing.T) {
	out := RenderTradeMarkdown(nil)
	if !strings.Contains(out, "No trades.") {
		t.Errorf("Empty trade log rendering: %q", out)
	}
}

func TestRenderTradeCSV(t *testing.T) {
	rows := []domain.TradeLogRow{{
		Time:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Side:        domain.SideLong,
		OrderID:     "Long",
		Price:       100,
		Qty:         2,
		Position:    2,
		Balance:     1000,
	}}

	out := RenderTradeCSV(rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("Lines: got %d, want 2", len(lines))
	}
	if lines[0] != "time,side,order_id,price,qty,position,realized_pnl,balance,drawdown" {
		t.Errorf("Header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-01-01T00:00:00Z,BUY,Long,100.000000") {
		t.Errorf("Row: %q", lines[1])
	}
}

func TestRenderEquityCSV(t *testing.T) {
	points := []replay.EquityPoint{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Balance: 1000},
		{Time: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), Balance: 1001, DrawdownPct: 0.5},
	}

	out := RenderEquityCSV(points)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Lines: got %d, want 3", len(lines))
	}
	if lines[0] != "time,balance,drawdown_pct" {
		t.Errorf("Header: %q", lines[0])
	}
	if lines[2] != "2024-01-01T00:01:00Z,1001.000000,0.500000" {
		t.Errorf("Row: %q", lines[2])
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/reporting"
	pgstore "tradesim-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	runID := flag.String("run-id", "", "Run to report on; empty lists all runs")
	tradeCSV := flag.String("trade-csv", "", "Write the run's trade log CSV to this path")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("shutting down")
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("connect to postgres")
	}
	defer pool.Close()

	runStore := pgstore.NewRunStore(pool)

	if *runID == "" {
		runs, err := runStore.List(ctx)
		if err != nil {
			logger.WithError(err).Fatal("list runs")
		}
		fmt.Println("| Run | Strategy | Symbol | Created | Final Balance | Trades | MaxDD% |")
		fmt.Println("|-----|----------|--------|---------|---------------|--------|--------|")
		for _, r := range runs {
			fmt.Printf("| %s | %s | %s | %s | %.4f | %d | %.4f |\n",
				r.RunID, r.Strategy, r.Symbol, r.CreatedAt.Format(time.RFC3339),
				r.FinalBalance, r.TradeCount, r.MaxDrawdownPct)
		}
		return
	}

	run, err := runStore.GetByID(ctx, *runID)
	if err != nil {
		logger.WithError(err).Fatal("load run")
	}
	rows, err := pgstore.NewTradeStore(pool).GetByRunID(ctx, *runID)
	if err != nil {
		logger.WithError(err).Fatal("load trade log")
	}

	summary := reporting.Summary{
		Strategy:       run.Strategy,
		Symbol:         run.Symbol,
		GeneratedAt:    run.CreatedAt,
		StartBalance:   run.StartBalance,
		FinalBalance:   run.FinalBalance,
		TradeCount:     run.TradeCount,
		WinCount:       run.WinCount,
		LoseCount:      run.LoseCount,
		MaxDrawdownPct: run.MaxDrawdownPct,
		ProfitFactor:   run.ProfitFactor,
	}
	if run.StartBalance != 0 {
		summary.ProfitRate = (run.FinalBalance - run.StartBalance) / run.StartBalance
	}
	if run.TradeCount > 0 {
		summary.WinRate = float64(run.WinCount) / float64(run.TradeCount)
	}

	fmt.Print(reporting.RenderMarkdown(summary))
	fmt.Print(reporting.RenderTradeMarkdown(rows))

	if *tradeCSV != "" {
		if err := os.WriteFile(*tradeCSV, []byte(reporting.RenderTradeCSV(rows)), 0o644); err != nil {
			logger.WithError(err).Fatal("write trade csv")
		}
	}
}

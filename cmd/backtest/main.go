package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/engine"
	"tradesim-lab/internal/idhash"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/orderbook"
	"tradesim-lab/internal/replay"
	"tradesim-lab/internal/reporting"
	"tradesim-lab/internal/storage"
	chstore "tradesim-lab/internal/storage/clickhouse"
	"tradesim-lab/internal/storage/migrations"
	pgstore "tradesim-lab/internal/storage/postgres"
	"tradesim-lab/internal/strategy"
	"tradesim-lab/internal/timeframe"
)

func main() {
	// Data source
	csvPath := flag.String("csv", "", "CSV candle file (time,open,high,low,close,volume)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (alternative to --csv)")
	symbol := flag.String("symbol", "BTCUSDT", "Instrument symbol")
	baseTF := flag.String("base-tf", "1m", "Stored timeframe of the source candles")
	fromStr := flag.String("from", "", "Range start (RFC 3339), ClickHouse source only")
	toStr := flag.String("to", "", "Range end (RFC 3339), ClickHouse source only")

	// Engine
	timeframes := flag.String("timeframes", "1h", "Comma-separated trading timeframes")
	ohlcvLen := flag.Int("ohlcv-len", 100, "Bars per strategy window")
	minuteGranularity := flag.Bool("minute-granularity", false, "Derive all timeframes from 1m candles")
	tfOrder := flag.String("tf-order", "desc", "Timeframe evaluation order: desc, asc, none")
	tieBreak := flag.String("tie-break", "limit-wins", "Stop-limit same-bar policy: limit-wins, convert-only")
	balance := flag.Float64("balance", 1000, "Starting balance")
	commission := flag.Float64("commission", 0.001, "Commission rate per fill")
	leverage := flag.Float64("leverage", 1, "Account leverage")
	qtyInUSDT := flag.Bool("qty-in-usdt", true, "Quantities denominated in quote currency")

	// Strategy
	strategyName := flag.String("strategy", "doten", "Strategy: doten, sma_cross, stub")
	length := flag.Int("length", 20, "Channel lookback for doten")
	fast := flag.Int("fast", 10, "Fast SMA period for sma_cross")
	slow := flag.Int("slow", 30, "Slow SMA period for sma_cross")

	// Output
	tradeCSV := flag.String("trade-csv", "", "Write the trade log CSV to this path")
	equityCSV := flag.String("equity-csv", "", "Write the equity curve CSV to this path")
	postgresDSN := flag.String("postgres-dsn", "", "Persist the run to PostgreSQL")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if *csvPath == "" && *clickhouseDSN == "" {
		logger.Fatal("either --csv or --clickhouse-dsn is required")
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

	cfg := engine.Config{
		Timeframes:        strings.Split(*timeframes, ","),
		OHLCVLen:          *ohlcvLen,
		MinuteGranularity: *minuteGranularity,
		TimeframeOrder:    parseOrder(*tfOrder),
		TieBreak:          parseTieBreak(*tieBreak),
		Account: account.Config{
			StartBalance: *balance,
			Commission:   *commission,
			Leverage:     *leverage,
			QtyInUSDT:    *qtyInUSDT,
		},
	}

	strat, err := strategy.FromName(*strategyName, strategy.Params{
		Length: *length,
		Fast:   *fast,
		Slow:   *slow,
	})
	if err != nil {
		logger.WithError(err).Fatal("build strategy")
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("build engine")
	}
	driver, err := replay.NewDriver(eng, strat, logger)
	if err != nil {
		logger.WithError(err).Fatal("build driver")
	}

	src, cleanup, err := buildSource(ctx, *csvPath, *clickhouseDSN, *symbol, *baseTF, *fromStr, *toStr)
	if err != nil {
		logger.WithError(err).Fatal("open candle source")
	}
	defer cleanup()

	began := time.Now()
	if err := driver.Run(ctx, src); err != nil {
		observability.RecordRun("failed", time.Since(began).Seconds())
		logger.WithError(err).Fatal("backtest failed")
	}
	observability.RecordRun("completed", time.Since(began).Seconds())
	observability.DefaultMetrics.LastCompletedRun.Set(float64(time.Now().Unix()))

	summary := reporting.BuildSummary(strat.Name(), *symbol, eng.Ledger(), time.Now().UTC())
	fmt.Print(reporting.RenderMarkdown(summary))
	fmt.Print(reporting.RenderTradeMarkdown(eng.Ledger().TradeLog()))

	if *tradeCSV != "" {
		if err := os.WriteFile(*tradeCSV, []byte(reporting.RenderTradeCSV(eng.Ledger().TradeLog())), 0o644); err != nil {
			logger.WithError(err).Fatal("write trade csv")
		}
	}
	if *equityCSV != "" {
		if err := os.WriteFile(*equityCSV, []byte(reporting.RenderEquityCSV(driver.History())), 0o644); err != nil {
			logger.WithError(err).Fatal("write equity csv")
		}
	}

	if *postgresDSN != "" {
		if err := persistRun(ctx, *postgresDSN, summary, eng, driver.History()); err != nil {
			logger.WithError(err).Fatal("persist run")
		}
	}
}

func parseTieBreak(s string) orderbook.TieBreak {
	if strings.ToLower(s) == "convert-only" {
		return orderbook.ConvertOnly
	}
	return orderbook.LimitWins
}

func parseOrder(s string) timeframe.SortOrder {
	switch strings.ToLower(s) {
	case "asc":
		return timeframe.Ascending
	case "none":
		return timeframe.Insertion
	default:
		return timeframe.Descending
	}
}

func buildSource(ctx context.Context, csvPath, dsn, symbol, baseTF, fromStr, toStr string) (replay.CandleSource, func(), error) {
	if csvPath != "" {
		src, err := replay.NewCSVSource(csvPath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return nil, nil, fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return nil, nil, fmt.Errorf("parse --to: %w", err)
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	var store storage.CandleStore = chstore.NewCandleStore(conn)
	return replay.NewStoreSource(store, symbol, baseTF, from, to), func() { conn.Close() }, nil
}

func persistRun(ctx context.Context, dsn string, summary reporting.Summary, eng *engine.Engine, history []replay.EquityPoint) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	started := summary.GeneratedAt
	if len(history) > 0 {
		started = history[0].Time
	}
	runID := idhash.ComputeRunID(summary.Strategy, summary.Symbol, started, summary.GeneratedAt)
	if err := pgstore.NewRunStore(pool).Insert(ctx, summary.RunRecord(runID)); err != nil {
		return err
	}
	if err := pgstore.NewTradeStore(pool).InsertBulk(ctx, runID, eng.Ledger().TradeLog()); err != nil {
		return err
	}
	fmt.Printf("\nRun persisted: %s\n", runID)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/account"
	"tradesim-lab/internal/engine"
	"tradesim-lab/internal/livefeed"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/replay"
	"tradesim-lab/internal/reporting"
	"tradesim-lab/internal/strategy"
	"tradesim-lab/internal/timeframe"
)

func main() {
	endpoint := flag.String("endpoint", "wss://stream.binance.com:9443", "Exchange WebSocket endpoint")
	symbol := flag.String("symbol", "btcusdt", "Instrument symbol")
	interval := flag.String("interval", "1m", "Kline interval of the stream")

	timeframes := flag.String("timeframes", "1h", "Comma-separated trading timeframes")
	ohlcvLen := flag.Int("ohlcv-len", 100, "Bars per strategy window")
	minuteGranularity := flag.Bool("minute-granularity", false, "Derive all timeframes from 1m candles")
	balance := flag.Float64("balance", 1000, "Starting paper balance")
	commission := flag.Float64("commission", 0.001, "Commission rate per fill")
	leverage := flag.Float64("leverage", 1, "Account leverage")
	qtyInUSDT := flag.Bool("qty-in-usdt", true, "Quantities denominated in quote currency")

	strategyName := flag.String("strategy", "doten", "Strategy: doten, sma_cross, stub")
	length := flag.Int("length", 20, "Channel lookback for doten")
	fast := flag.Int("fast", 10, "Fast SMA period for sma_cross")
	slow := flag.Int("slow", 30, "Slow SMA period for sma_cross")

	metricsAddr := flag.String("metrics-addr", ":9100", "Prometheus metrics listen address, empty to disable")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
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

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.WithField("addr", *metricsAddr).Info("metrics server started")
	}

	cfg := engine.Config{
		Timeframes:        strings.Split(*timeframes, ","),
		OHLCVLen:          *ohlcvLen,
		MinuteGranularity: *minuteGranularity,
		TimeframeOrder:    timeframe.Descending,
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

	client, err := livefeed.NewKlineClient(ctx, *endpoint, *symbol, *interval, nil, logger)
	if err != nil {
		logger.WithError(err).Fatal("connect kline stream")
	}
	defer client.Close()

	logger.WithFields(logrus.Fields{
		"symbol":   *symbol,
		"interval": *interval,
		"strategy": strat.Name(),
	}).Info("paper trading started")

	if err := livefeed.Run(ctx, driver, client.Stream()); err != nil {
		logger.WithError(err).Fatal("paper trading failed")
	}

	summary := reporting.BuildSummary(strat.Name(), strings.ToUpper(*symbol), eng.Ledger(), time.Now().UTC())
	fmt.Print(reporting.RenderMarkdown(summary))
	fmt.Print(reporting.RenderTradeMarkdown(eng.Ledger().TradeLog()))
}

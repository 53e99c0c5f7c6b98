package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/dataquality"
	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/observability"
	"tradesim-lab/internal/replay"
	chstore "tradesim-lab/internal/storage/clickhouse"
	"tradesim-lab/internal/storage/migrations"
	"tradesim-lab/internal/timeframe"
)

const insertBatchSize = 10000

func main() {
	csvPath := flag.String("csv", "", "CSV candle file to ingest (required)")
	symbol := flag.String("symbol", "", "Instrument symbol (required)")
	tfLabel := flag.String("timeframe", "1m", "Timeframe of the candles")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	checkOnly := flag.Bool("check-only", false, "Validate continuity without writing")
	strict := flag.Bool("strict", true, "Fail on any continuity issue")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if *csvPath == "" {
		logger.Fatal("--csv is required")
	}
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if !*checkOnly && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required unless --check-only")
	}

	spec, err := timeframe.Lookup(*tfLabel)
	if err != nil {
		logger.WithError(err).Fatal("unknown timeframe")
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

	src, err := replay.NewCSVSource(*csvPath)
	if err != nil {
		logger.WithError(err).Fatal("open csv")
	}
	defer src.Close()

	var candles []domain.Candle
	for {
		c, err := src.Next(ctx)
		if errors.Is(err, replay.ErrEndOfData) {
			break
		}
		if err != nil {
			logger.WithError(err).Fatal("read csv")
		}
		candles = append(candles, c)
	}
	logger.WithField("candles", len(candles)).Info("csv loaded")

	issues := dataquality.CheckContinuity(candles, spec.Bucket)
	for _, issue := range issues {
		logger.Warn(issue.String())
	}
	if len(issues) > 0 && *strict {
		logger.WithField("issues", len(issues)).Fatal("continuity check failed")
	}
	if *checkOnly {
		logger.Info("check passed")
		return
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.WithError(err).Fatal("clickhouse migrations")
	}
	defer conn.Close()

	store := chstore.NewCandleStore(conn)
	for start := 0; start < len(candles); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(candles) {
			end = len(candles)
		}
		began := time.Now()
		err := store.InsertBulk(ctx, *symbol, *tfLabel, candles[start:end])
		observability.RecordDBQuery("clickhouse", "insert_candles", time.Since(began).Seconds(), err)
		if err != nil {
			logger.WithError(err).Fatal("insert candles")
		}
		logger.WithFields(logrus.Fields{
			"from": start,
			"to":   end,
		}).Debug("batch inserted")
	}

	observability.DefaultMetrics.LastSuccessfulIngest.Set(float64(time.Now().Unix()))
	logger.WithFields(logrus.Fields{
		"symbol":    *symbol,
		"timeframe": *tfLabel,
		"candles":   len(candles),
	}).Info("ingest complete")
}

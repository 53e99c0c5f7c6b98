package livefeed

import (
	"context"
	"errors"

	"tradesim-lab/internal/replay"
)

// Run feeds closed klines into the driver until the context is
// canceled or the stream ends, then finalizes the run. Forming-bar
// updates are skipped; the driver sees only final candles, so live
// and historical runs share one pipeline.
func Run(ctx context.Context, d *replay.Driver, stream <-chan Kline) error {
	for {
		select {
		case <-ctx.Done():
			if err := d.Finalize(); err != nil {
				return err
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case k, ok := <-stream:
			if !ok {
				return d.Finalize()
			}
			if !k.Closed {
				continue
			}
			if err := d.Tick(ctx, k.Candle); err != nil {
				return err
			}
		}
	}
}

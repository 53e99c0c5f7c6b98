// Package livefeed streams exchange kline data over WebSocket and
// feeds it into a running simulation for paper trading.
package livefeed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tradesim-lab/internal/domain"
)

// Kline is one kline update from the exchange stream. Updates arrive
// repeatedly for the forming bar; Closed marks the final one.
type Kline struct {
	Candle domain.Candle
	Closed bool
}

// klineEvent mirrors the exchange wire format. Prices come as
// strings.
type klineEvent struct {
	EventType string       `json:"e"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTime int64  `json:"t"`
	Symbol   string `json:"s"`
	Interval string `json:"i"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	IsClosed bool   `json:"x"`
}

// parseKline decodes one stream message. Non-kline messages return a
// zero Kline and false.
func parseKline(data []byte) (Kline, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return Kline{}, false, fmt.Errorf("decode kline event: %w", err)
	}
	if ev.EventType != "kline" {
		return Kline{}, false, nil
	}

	k := ev.Kline
	vals := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Kline{}, false, fmt.Errorf("parse kline field %q: %w", s, err)
		}
		vals[i] = v
	}

	c := domain.Candle{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}
	if err := c.Validate(); err != nil {
		return Kline{}, false, fmt.Errorf("invalid kline candle: %w", err)
	}
	return Kline{Candle: c, Closed: k.IsClosed}, true, nil
}

package livefeed

import (
	"testing"
	"time"
)

func TestParseKline(t *testing.T) {
	data := []byte(`{
		"e": "kline",
		"k": {
			"t": 1704067200000,
			"s": "BTCUSDT",
			"i": "1m",
			"o": "42000.10",
			"h": "42100.00",
			"l": "41950.50",
			"c": "42050.25",
			"v": "12.345",
			"x": true
		}
	}`)

	k, ok, err := parseKline(data)
	if err != nil {
		t.Fatalf("parseKline failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a kline event")
	}
	if !k.Closed {
		t.Error("Closed flag lost")
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !k.Candle.Timestamp.Equal(want) {
		t.Errorf("Timestamp: got %s, want %s", k.Candle.Timestamp, want)
	}
	if k.Candle.Open != 42000.10 || k.Candle.High != 42100 || k.Candle.Low != 41950.50 {
		t.Errorf("Prices: %+v", k.Candle)
	}
	if k.Candle.Volume != 12.345 {
		t.Errorf("Volume: got %f", k.Candle.Volume)
	}
}

func TestParseKline_FormingBar(t *testing.T) {
	data := []byte(`{"e":"kline","k":{"t":1704067200000,"o":"100","h":"101","l":"99","c":"100","v":"1","x":false}}`)

	k, ok, err := parseKline(data)
	if err != nil || !ok {
		t.Fatalf("parseKline: ok=%v err=%v", ok, err)
	}
	if k.Closed {
		t.Error("Forming bar reported as closed")
	}
}

func TestParseKline_NonKlineEvent(t *testing.T) {
	data := []byte(`{"e":"24hrTicker","s":"BTCUSDT"}`)

	_, ok, err := parseKline(data)
	if err != nil {
		t.Fatalf("parseKline failed: %v", err)
	}
	if ok {
		t.Error("Non-kline event accepted")
	}
}

func TestParseKline_BadPayloads(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"bad price", `{"e":"kline","k":{"t":1704067200000,"o":"oops","h":"101","l":"99","c":"100","v":"1","x":true}}`},
		{"invalid range", `{"e":"kline","k":{"t":1704067200000,"o":"100","h":"90","l":"99","c":"100","v":"1","x":true}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := parseKline([]byte(tc.data)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

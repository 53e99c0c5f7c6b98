package livefeed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tradesim-lab/internal/observability"
)

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
}

// DefaultClientConfig returns default WebSocket configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// KlineClient subscribes to one symbol's kline stream and delivers
// updates on a channel. It reconnects with exponential backoff until
// closed.
type KlineClient struct {
	url    string
	config ClientConfig
	log    *logrus.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan Kline
	done chan struct{}
	wg   sync.WaitGroup
}

// NewKlineClient connects to endpoint and subscribes to the kline
// stream for symbol at interval (e.g. "btcusdt", "1m").
func NewKlineClient(ctx context.Context, endpoint, symbol, interval string, config *ClientConfig, log *logrus.Logger) (*KlineClient, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = logrus.New()
	}

	c := &KlineClient{
		url:    fmt.Sprintf("%s/ws/%s@kline_%s", strings.TrimSuffix(endpoint, "/"), strings.ToLower(symbol), interval),
		config: cfg,
		log:    log,
		out:    make(chan Kline, 64),
		done:   make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Stream returns the kline channel. The channel closes when the
// client is closed. There must be exactly one consumer.
func (c *KlineClient) Stream() <-chan Kline { return c.out }

// Close shuts the client down and closes the stream channel.
func (c *KlineClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.out)
	return nil
}

func (c *KlineClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *KlineClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.WithError(err).Warn("kline stream read failed, reconnecting")
			if !c.reconnect() {
				return
			}
			continue
		}

		began := time.Now()
		k, ok, err := parseKline(data)
		if err != nil {
			c.log.WithError(err).Warn("dropped malformed kline message")
			continue
		}
		if !ok {
			continue
		}
		observability.RecordKlineReceived()

		select {
		case c.out <- k:
			observability.DefaultMetrics.KlineLatency.Observe(time.Since(began).Seconds())
		case <-c.done:
			return
		}
	}
}

// reconnect retries with exponential backoff. Returns false when the
// client was closed while waiting.
func (c *KlineClient) reconnect() bool {
	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			c.log.Info("kline stream reconnected")
			observability.RecordStreamReconnect()
			return true
		}
		c.log.WithError(err).Warn("kline stream reconnect failed")

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

func (c *KlineClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil && !c.closed.Load() {
				c.log.WithError(err).Debug("ping failed")
			}
		}
	}
}

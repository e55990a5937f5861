package databento

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"
	"SignalForge/pkg/util"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Databento live gateway,
// consuming ohlcv-1m records as newline-delimited JSON frames.
type Client struct {
	apiKey         string
	gatewayURL     string
	dataset        string
	schema         string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a new Databento MarketStream.
func New(apiKey, gatewayURL, dataset, schema string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	if schema == "" {
		schema = "ohlcv-1m"
	}
	return &Client{
		apiKey:         apiKey,
		gatewayURL:     gatewayURL,
		dataset:        dataset,
		schema:         schema,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection and authenticates.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("databento connect: %w", err)
	}
	auth := map[string]string{"type": "auth", "key": c.apiKey}
	if err := conn.WriteJSON(auth); err != nil {
		_ = conn.Close()
		return fmt.Errorf("databento auth: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("databento: connected", logger.String("gateway", c.gatewayURL))
	return nil
}

// Subscribe requests the configured symbols on the configured schema.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("databento not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{
			"type":    "subscribe",
			"dataset": c.dataset,
			"schema":  c.schema,
			"symbol":  s,
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.log.Info("databento: subscribed", logger.String("symbol", s), logger.String("schema", c.schema))
	}
	return nil
}

type wireFrame struct {
	Type    string  `json:"type"`
	TS      string  `json:"ts"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  float64 `json:"volume"`
	Symbol  string  `json:"symbol"`
	Message string  `json:"message"`
}

// parseFrame turns one wire frame into a Bar. Status frames return (nil, nil);
// error frames return an error; unknown types are skipped as (nil, nil).
func parseFrame(b []byte) (*models.Bar, error) {
	var f wireFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("databento frame: %w", err)
	}
	switch f.Type {
	case "ohlcv":
		ts, ok := util.ParseTime(f.TS)
		if !ok {
			return nil, fmt.Errorf("databento ts %q: unparseable", f.TS)
		}
		bar := &models.Bar{
			Symbol:   f.Symbol,
			OpenTime: ts,
			Open:     f.Open,
			High:     f.High,
			Low:      f.Low,
			Close:    f.Close,
			Volume:   f.Volume,
		}
		return bar, nil
	case "error":
		return nil, fmt.Errorf("databento gateway: %s", f.Message)
	default:
		// status and heartbeat frames
		return nil, nil
	}
}

// Read streams sealed one-minute bars and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Bar, <-chan error) {
	bars := make(chan *models.Bar, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(bars)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("databento conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("databento read: %w", err)
					return
				}
				bar, err := parseFrame(b)
				if err != nil {
					c.log.Warn("databento: bad frame", logger.Error(err))
					continue
				}
				if bar == nil {
					continue
				}
				select {
				case bars <- bar:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return bars, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

package mexc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the MEXC contract WebSocket.
type Client struct {
	websocketURL   string
	symbols        []string
	depthLimit     int
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a MEXC MarketStream for the given symbols.
func New(websocketURL string, symbols []string, depthLimit int, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		depthLimit:     depthLimit,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("mexc connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("mexc: connected", logger.String("url", c.websocketURL))
	return nil
}

type subscribeMsg struct {
	Method string      `json:"method"`
	Param  interface{} `json:"param,omitempty"`
}

type symbolParam struct {
	Symbol string `json:"symbol"`
}

type depthParam struct {
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit"`
}

// Subscribe requests ticker, fair price, and depth channels for every symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("mexc not connected")
	}
	for _, s := range c.symbols {
		msgs := []subscribeMsg{
			{Method: "sub.ticker", Param: symbolParam{Symbol: s}},
			{Method: "sub.fair_price", Param: symbolParam{Symbol: s}},
			{Method: "sub.depth", Param: depthParam{Symbol: s, Limit: c.depthLimit}},
		}
		for _, m := range msgs {
			if err := c.writeJSON(m); err != nil {
				return fmt.Errorf("subscribe %s: %w", s, err)
			}
		}
	}
	c.log.Info("mexc: subscribed", logger.Int("symbols", len(c.symbols)))
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// flexFloat accepts numeric JSON fields that MEXC serializes either as a
// number or as a quoted string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type envelope struct {
	Channel string          `json:"channel"`
	Symbol  string          `json:"symbol"`
	Data    json.RawMessage `json:"data"`
	TS      int64           `json:"ts"`
}

type tickerData struct {
	LastPrice flexFloat `json:"lastPrice"`
	FairPrice flexFloat `json:"fairPrice"`
	Timestamp int64     `json:"timestamp"`
}

type fairPriceData struct {
	Price     flexFloat `json:"price"`
	Timestamp int64     `json:"timestamp"`
}

type depthData struct {
	Asks      [][]flexFloat `json:"asks"`
	Bids      [][]flexFloat `json:"bids"`
	Timestamp int64         `json:"timestamp"`
}

// Read streams normalized market events and errors. The returned channels
// close when the read loop exits.
func (c *Client) Read(ctx context.Context) (<-chan models.MarketEvent, <-chan error) {
	events := make(chan models.MarketEvent, 1024)
	errs := make(chan error, 1)

	// ping loop, MEXC drops silent connections
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil && c.connected {
					_ = c.writeJSON(subscribeMsg{Method: "ping"})
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("mexc conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("mexc read: %w", err)
					return
				}
				ev, ok := parseFrame(b, c.log)
				if !ok {
					continue
				}
				select {
				case events <- ev:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return events, errs
}

// parseFrame turns one raw WebSocket frame into a market event. Pong replies,
// subscription acks, and unknown channels yield (zero, false). Malformed data
// frames are logged and dropped rather than killing the read loop.
func parseFrame(b []byte, log *logger.Logger) (models.MarketEvent, bool) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		log.Warn("mexc: malformed frame", logger.Error(err))
		return models.MarketEvent{}, false
	}
	if env.Symbol == "" || len(env.Data) == 0 {
		return models.MarketEvent{}, false
	}

	switch env.Channel {
	case "push.ticker":
		var d tickerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			log.Warn("mexc: bad ticker payload", logger.String("symbol", env.Symbol), logger.Error(err))
			return models.MarketEvent{}, false
		}
		ev := models.MarketEvent{
			Kind:      models.EventTicker,
			Symbol:    env.Symbol,
			LastPrice: float64(d.LastPrice),
			Timestamp: frameTime(d.Timestamp, env.TS),
		}
		// The ticker channel carries the fair price too when available.
		if d.FairPrice > 0 {
			mark := float64(d.FairPrice)
			ev.MarkPrice = &mark
		}
		return ev, true

	case "push.fair_price":
		var d fairPriceData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			log.Warn("mexc: bad fair price payload", logger.String("symbol", env.Symbol), logger.Error(err))
			return models.MarketEvent{}, false
		}
		mark := float64(d.Price)
		return models.MarketEvent{
			Kind:      models.EventMarkPrice,
			Symbol:    env.Symbol,
			MarkPrice: &mark,
			Timestamp: frameTime(d.Timestamp, env.TS),
		}, true

	case "push.depth":
		var d depthData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			log.Warn("mexc: bad depth payload", logger.String("symbol", env.Symbol), logger.Error(err))
			return models.MarketEvent{}, false
		}
		ob := &models.Orderbook{
			Bids:      parseLevels(d.Bids),
			Asks:      parseLevels(d.Asks),
			Timestamp: frameTime(d.Timestamp, env.TS),
		}
		return models.MarketEvent{
			Kind:      models.EventOrderbook,
			Symbol:    env.Symbol,
			Orderbook: ob,
			Timestamp: ob.Timestamp,
		}, true
	}
	return models.MarketEvent{}, false
}

// parseLevels maps [price, volume, ...] rows to book levels, skipping rows
// that are too short.
func parseLevels(rows [][]flexFloat) []models.OrderbookLevel {
	levels := make([]models.OrderbookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		levels = append(levels, models.OrderbookLevel{
			Price:    float64(row[0]),
			Quantity: float64(row[1]),
		})
	}
	return levels
}

func frameTime(dataTS, envTS int64) time.Time {
	ts := dataTS
	if ts == 0 {
		ts = envTS
	}
	if ts == 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ts).UTC()
}

// Reconnect closes and reconnects, then resubscribes.
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

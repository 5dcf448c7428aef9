package kinesis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/calweir/triarb/internal/domain"
)

const (
	// DefaultWSURL is the production ticker socket endpoint.
	DefaultWSURL = "wss://apip.kinesis.money/notifications/market-analytics/tickers"

	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// TickerHandler is called for every top-of-book update. The initial snapshot
// after subscribing is delivered through the same handler, one ticker at a
// time.
type TickerHandler func(Ticker)

// WSClient is a WebSocket client for the Kinesis ticker feed. It covers one
// connection; reconnection policy belongs to the caller, which re-dials with
// a fresh client when Listen returns.
type WSClient struct {
	wsURL string

	mu   sync.Mutex
	conn *websocket.Conn

	handlerMu sync.RWMutex
	handlers  []TickerHandler
}

// NewWSClient creates a WebSocket client. An empty wsURL selects DefaultWSURL.
func NewWSClient(wsURL string) *WSClient {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	return &WSClient{wsURL: wsURL}
}

// OnTicker registers a handler for ticker updates. Register before Listen.
func (w *WSClient) OnTicker(handler TickerHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Connect establishes the WebSocket connection.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("kinesis/ws: connect: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	w.conn = conn
	return nil
}

// wsCommand is the outbound subscription envelope.
type wsCommand struct {
	Event     string   `json:"event"`
	SymbolIDs []string `json:"symbolIds"`
}

// SubscribeTickers asks the server to stream updates for the given pair ids.
// The server answers with a tickerInit snapshot followed by tickerChange
// updates.
func (w *WSClient) SubscribeTickers(symbolIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("kinesis/ws: not connected")
	}

	data, err := json.Marshal(wsCommand{Event: "subscribeToTickers", SymbolIDs: symbolIDs})
	if err != nil {
		return fmt.Errorf("kinesis/ws: marshal subscribe: %w", err)
	}
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("kinesis/ws: subscribe: %w", err)
	}
	return nil
}

// Listen reads and dispatches messages until the connection drops or ctx is
// cancelled. It always returns a non-nil error; a dropped connection is
// reported as domain.ErrWSDisconnect.
func (w *WSClient) Listen(ctx context.Context) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("kinesis/ws: not connected")
	}

	done := make(chan struct{})
	defer close(done)
	go w.pingLoop(conn, done)

	// Close the connection when ctx ends so the blocked read returns.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("kinesis/ws: %w", ctxErr)
			}
			return fmt.Errorf("kinesis/ws: read: %v: %w", err, domain.ErrWSDisconnect)
		}
		w.handleMessage(message)
	}
}

// Close closes the connection, unblocking a concurrent Listen.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	_ = w.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *WSClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one raw message. tickerInit carries the full snapshot
// keyed by pair id; tickerChange carries a single update. Unparseable
// messages are dropped.
func (w *WSClient) handleMessage(raw []byte) {
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}

	switch envelope.Event {
	case "tickerInit":
		var tickers map[string]Ticker
		if err := json.Unmarshal(envelope.Data, &tickers); err != nil {
			return
		}
		for id, t := range tickers {
			if t.SymbolID == "" {
				t.SymbolID = id
			}
			w.dispatch(t)
		}
	case "tickerChange":
		var t Ticker
		if err := json.Unmarshal(envelope.Data, &t); err != nil {
			return
		}
		w.dispatch(t)
	}
}

func (w *WSClient) dispatch(t Ticker) {
	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(t)
	}
}

package orderbook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strikelabs/strikedesk/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// WSCommand is the subscribe/unsubscribe frame sent to the orderbook WS.
type WSCommand struct {
	Type        string   `json:"type"`
	Channel     string   `json:"channel"`
	Underlyings []string `json:"underlyings,omitempty"`
}

// wsMessage is the envelope of every frame received from the orderbook WS.
type wsMessage struct {
	Event      string  `json:"event"`
	Underlying string  `json:"underlying,omitempty"`
	Symbol     string  `json:"symbol,omitempty"`
	Price      float64 `json:"price,omitempty"`
}

// OrdersUpdateHandler is called when the book for an underlying changed and
// a fresh REST fetch is warranted. The WS carries no order payloads; REST
// remains the single source of order data.
type OrdersUpdateHandler func(underlying string)

// SpotPriceHandler is called for every spot price tick.
type SpotPriceHandler func(symbol string, price float64)

// WSClient is the WebSocket client for the orderbook's notification feed.
// It manages the connection lifecycle, subscriptions, and dispatches frames
// to registered handlers.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Subscriptions to restore on reconnect.
	subscriptions []WSCommand

	ordersHandlers []OrdersUpdateHandler
	spotHandlers   []SpotPriceHandler
	handlerMu      sync.RWMutex

	done chan struct{}

	// disconnected closes when the read or ping loop hits a connection
	// error, so the owning feed can reconnect instead of blocking forever.
	disconnected chan struct{}
	discOnce     sync.Once
}

// NewWSClient creates a WebSocket client for the given endpoint, e.g.
// "wss://ws.strikelabs.xyz/v1/stream".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL:        wsURL,
		done:         make(chan struct{}),
		disconnected: make(chan struct{}),
	}
}

// Disconnected closes when the connection is lost. It never closes on a
// clean Close; callers multiplex it with their own shutdown signal.
func (w *WSClient) Disconnected() <-chan struct{} {
	return w.disconnected
}

func (w *WSClient) signalDisconnect() {
	select {
	case <-w.done:
		// Deliberate close, not a drop.
		return
	default:
	}
	w.discOnce.Do(func() { close(w.disconnected) })
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Subscriptions from a previous connection are restored.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("orderbook/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("orderbook/ws: connect: %w", err)
	}

	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	for _, cmd := range w.subscriptions {
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("orderbook/ws: restore subscription: %w", err)
		}
	}

	return nil
}

// Subscribe subscribes to the given channels for the specified underlyings.
// Valid channels are "orders" and "spot".
func (w *WSClient) Subscribe(ctx context.Context, channels []string, underlyings []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("orderbook/ws: not connected")
	}

	for _, ch := range channels {
		cmd := WSCommand{
			Type:        "subscribe",
			Channel:     ch,
			Underlyings: underlyings,
		}
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("orderbook/ws: subscribe to %s: %w", ch, err)
		}
		w.subscriptions = append(w.subscriptions, cmd)
	}

	return nil
}

// Close shuts down the WebSocket connection and stops the read loop.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}

	return nil
}

// OnOrdersUpdate registers a handler for "orders_updated" frames.
func (w *WSClient) OnOrdersUpdate(handler OrdersUpdateHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.ordersHandlers = append(w.ordersHandlers, handler)
}

// OnSpotPrice registers a handler for "spot" frames.
func (w *WSClient) OnSpotPrice(handler SpotPriceHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.spotHandlers = append(w.spotHandlers, handler)
}

// sendCommand sends a JSON command to the WebSocket. Caller must hold w.mu.
func (w *WSClient) sendCommand(cmd WSCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop continuously reads frames and dispatches them. It runs in its own
// goroutine and exits on any read error; the owning feed decides whether to
// reconnect.
func (w *WSClient) readLoop() {
	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			w.signalDisconnect()
			return
		}
		w.dispatch(data)
	}
}

func (w *WSClient) dispatch(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	w.handlerMu.RLock()
	defer w.handlerMu.RUnlock()

	switch msg.Event {
	case "orders_updated":
		for _, h := range w.ordersHandlers {
			h(msg.Underlying)
		}
	case "spot":
		for _, h := range w.spotHandlers {
			h(msg.Symbol, msg.Price)
		}
	}
}

// pingLoop sends keep-alive pings until the connection closes.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				w.signalDisconnect()
				return
			}
		}
	}
}

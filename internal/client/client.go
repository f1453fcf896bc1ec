package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/server" // Reuse message types
)

const (
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

var ErrNotConnected = errors.New("not connected")

// Client represents a WebSocket client for a poker room
type Client struct {
	serverURL string
	room      string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	playerID  string
	closeOnce sync.Once

	eventHandlers map[server.MessageType][]EventHandler
	waiters       map[server.MessageType][]chan *server.Message
}

// EventHandler handles an incoming message. Handlers run one at a time in
// the order messages arrive and must not block.
type EventHandler func(*server.Message)

// NewClient creates a client for the named room. An empty room selects
// the server's default room.
func NewClient(serverURL, room string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		room:          room,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[server.MessageType][]EventHandler),
		waiters:       make(map[server.MessageType][]chan *server.Message),
	}
}

// WebSocketURL converts a server URL into the room's WebSocket endpoint
func WebSocketURL(serverURL, room string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}

	u.Path = "/ws"
	q := u.Query()
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	target, err := WebSocketURL(c.serverURL, c.room)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", target)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server", "room", c.room)
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
			c.connected = false
		}

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the client disconnects
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// PlayerID returns the id assigned by the server, or "" before joining
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SendMessage sends a message to the server
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return fmt.Errorf("send buffer full")
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				c.cancel()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor processes incoming messages and dispatches to handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches messages to registered handlers and waiters
func (c *Client) handleMessage(msg *server.Message) {
	if msg.Type == server.MessageTypeYourID {
		var data game.YourIDEvent
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			c.mu.Lock()
			c.playerID = data.PlayerID
			c.mu.Unlock()
		}
	}

	c.mu.Lock()
	handlers := c.eventHandlers[msg.Type]
	waiters := c.waiters[msg.Type]
	delete(c.waiters, msg.Type)
	c.mu.Unlock()

	for _, w := range waiters {
		w <- msg
	}

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, handler := range handlers {
		handler(msg)
	}
}

// AddEventHandler adds an event handler for a specific message type
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

func (c *Client) sendData(messageType server.MessageType, data any) error {
	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// Join takes a seat in the room under the given display name
func (c *Client) Join(name string) error {
	return c.sendData(server.MessageTypeJoin, server.JoinData{Name: name})
}

// Bet adds amount to the player's bet
func (c *Client) Bet(amount int) error {
	return c.sendData(server.MessageTypeAction, server.ActionData{
		Action: "bet",
		Amount: json.RawMessage(strconv.Itoa(amount)),
	})
}

// Fold gives up the current round
func (c *Client) Fold() error {
	return c.sendData(server.MessageTypeAction, server.ActionData{Action: "fold"})
}

// Deal asks the server to advance the round. Only the dealer may deal.
func (c *Client) Deal() error {
	return c.sendData(server.MessageTypeDeal, struct{}{})
}

// ToggleShowCards flips the room's reveal flag. Only the host may toggle.
func (c *Client) ToggleShowCards() error {
	return c.sendData(server.MessageTypeShowCards, struct{}{})
}

// ChooseDealer hands the deal to another seated player. Only the host may
// choose.
func (c *Client) ChooseDealer(playerID string) error {
	return c.sendData(server.MessageTypeChooseDealer, server.ChooseDealerData{DealerID: playerID})
}

// WaitForMessage waits for the next message of a type with timeout
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.mu.Lock()
	c.waiters[messageType] = append(c.waiters[messageType], responseChan)
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, ErrNotConnected
	}
}

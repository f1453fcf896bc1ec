package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerroom/internal/connid"
	"github.com/lox/pokerroom/internal/game"
)

// Connection represents a WebSocket connection to a client. The
// connection id doubles as the player id in the room's session.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	room      *Room
	logger    *log.Logger
	clock     quartz.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper bound to a room
func NewConnection(id string, conn *websocket.Conn, room *Room, clock quartz.Clock, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		room:   room,
		logger: logger.WithPrefix("conn").With("id", id, "room", room.Name),
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the connection id
func (c *Connection) ID() string {
	return c.id
}

// Room returns the name of the room the connection belongs to
func (c *Connection) Room() string {
	return c.room.Name
}

// Done is closed when the connection shuts down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client without blocking. A client
// that cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// send on a closed channel during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = errors.New("connection closed")

// readPump handles incoming messages from the client. Commands are
// applied to the session synchronously, so each connection's commands
// reach the session in the order they were sent.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.sendError("", "invalid_message", "Failed to parse message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "conn", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	session := c.room.Session
	var res game.Result

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := unmarshalData(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse join data")
			return
		}
		_, res = session.Join(c.id, data.Name)

	case MessageTypeAction:
		var data ActionData
		if err := unmarshalData(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse action data")
			return
		}
		action, err := game.ParseAction(data.Action, data.AmountString())
		if err != nil {
			c.logger.Debug("Rejected action", "action", data.Action, "error", err)
			res = game.IgnoredInvalid
			break
		}
		res = session.Act(c.id, action)

	case MessageTypeShowCards:
		res = session.ToggleShowCards(c.id)

	case MessageTypeDeal:
		res = session.Deal(c.id)

	case MessageTypeChooseDealer:
		var data ChooseDealerData
		if err := unmarshalData(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse choose dealer data")
			return
		}
		if err := connid.Validate(data.DealerID); err != nil {
			c.logger.Debug("Rejected dealer id", "dealer", data.DealerID, "error", err)
			res = game.IgnoredInvalid
			break
		}
		res = session.ChooseDealer(c.id, data.DealerID)

	default:
		c.sendError(msg.RequestID, "unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	if !res.OK() && c.room.Config.ReportRejections {
		c.sendRejection(msg, res)
	}
}

// unmarshalData decodes a message payload, treating an absent payload as
// an empty object
func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// sendError sends an error message to the client, tagged with the request
// id of the message that caused it
func (c *Connection) sendError(requestID, code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = requestID

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) sendRejection(command *Message, res game.Result) {
	msg, err := NewMessage(MessageTypeActionRejected, ActionRejectedData{
		Command: command.Type,
		Reason:  res.String(),
	})
	if err != nil {
		c.logger.Error("Failed to create rejection message", "error", err)
		return
	}
	msg.RequestID = command.RequestID
	_ = c.SendMessage(msg)
}

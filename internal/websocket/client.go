// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"tipster-service/internal/domain/auth"
	wstypes "tipster-service/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	pingInterval   = 54 * time.Second // below idleTimeout
	maxRequestSize = 4 * 1024
	outboxSize     = 64
)

// Client is one authenticated socket. The hub writes to it through send; the
// socket itself is only touched by readLoop and writeLoop.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	actor    auth.Actor
	tokenID  string
	channels *channelSet

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, actor auth.Actor, tokenID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		actor:    actor,
		tokenID:  tokenID,
		channels: newChannelSet(wstypes.DefaultChannels...),
		out:      make(chan []byte, outboxSize),
		done:     make(chan struct{}),
	}
}

// Serve pumps the socket until either side closes it.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

// Close is idempotent; it ends writeLoop, which closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxRequestSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read failed", zap.Int64("identity_id", c.actor.ID), zap.Error(err))
			}
			return
		}

		var req wstypes.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			c.sendError("bad_request", "frame is not valid JSON")
			continue
		}
		c.handle(req)
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.out:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, payload)
}

func (c *Client) handle(req wstypes.Request) {
	switch req.Command {
	case wstypes.CommandPing:
		c.send(wstypes.NewFrame(wstypes.EventPong, "", nil))

	case wstypes.CommandSubscribe:
		granted := make([]wstypes.Channel, 0, len(req.Channels))
		for _, ch := range req.Channels {
			if ch == wstypes.ChannelAdmin && !c.actor.IsAdmin() {
				continue
			}
			c.channels.add(ch)
			granted = append(granted, ch)
		}
		c.send(wstypes.NewFrame(wstypes.EventSubscribed, "", map[string]any{"channels": granted}))

	case wstypes.CommandUnsubscribe:
		for _, ch := range req.Channels {
			c.channels.remove(ch)
		}
		c.send(wstypes.NewFrame(wstypes.EventUnsubscribed, "", map[string]any{"channels": req.Channels}))

	default:
		c.sendError("unknown_command", "unsupported command "+string(req.Command))
	}
}

// send queues a frame. A client whose outbox is full is disconnected rather
// than allowed to stall the hub.
func (c *Client) send(frame *wstypes.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.hub.logger.Error("failed to encode websocket frame", zap.String("event", string(frame.Event)), zap.Error(err))
		return
	}

	select {
	case <-c.done:
	case c.out <- payload:
	default:
		c.hub.logger.Warn("websocket client too slow, disconnecting", zap.Int64("identity_id", c.actor.ID))
		c.Close()
	}
}

func (c *Client) sendError(code, message string) {
	c.send(wstypes.NewFrame(wstypes.EventError, "", wstypes.ErrorData{Code: code, Message: message}))
}

package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"
)

// Client is one open websocket connection bound to a session. Its read and
// write pumps run independently of every other connection; the send channel
// is the bounded outbound queue the hub delivers into.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	session chat.Session
	chat    services.IChatService
	monitor *observability.MonitoringManager
	log     *slog.Logger
	cfg     Config

	closeOnce sync.Once
	cleanup   func()
}

func newClient(conn *websocket.Conn, chatService services.IChatService,
	monitor *observability.MonitoringManager, log *slog.Logger, cfg Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, cfg.SendBufferSize),
		chat:    chatService,
		monitor: monitor,
		log:     log,
		cfg:     cfg,
	}
}

// Consume implements contract.EventSink. It must never block the hub: a
// full send buffer means this client cannot keep pace, so the connection is
// forcibly closed and ErrSlowConsumer is returned. The hub then removes the
// session; the read pump's cleanup also calls Remove, which is idempotent.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}
	frame, err := newMessageFrame(broadcast.Message)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.close()
		return errors.ErrSlowConsumer
	}
}

// enqueue offers a frame to the sender only (error acknowledgments). Best
// effort: if the buffer is full the ack is dropped, never the connection.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Debug("ack dropped, send buffer full",
			"connection_id", c.session.ConnectionID)
	}
}

// close terminates the underlying connection exactly once. Closing the
// socket unblocks both pumps; cleanup (registry removal) runs in the read
// pump's defer.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// readPump consumes inbound frames until the connection dies. It blocks the
// handler goroutine; cleanup runs unconditionally on exit so the registry
// invariant holds for every way the connection can end.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if c.cleanup != nil {
			c.cleanup()
		}
		c.close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Debug("read error",
					"connection_id", c.session.ConnectionID, "err", err)
			}
			return
		}
		c.handleInbound(ctx, raw)
	}
}

// handleInbound parses one frame and forwards sendMessage events to the
// hub. Publish failures local to this sender are acknowledged to this
// sender only; nothing here can affect another connection.
func (c *Client) handleInbound(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.log.Debug("invalid frame",
			"connection_id", c.session.ConnectionID, "err", err)
		return
	}

	if envelope.Event != EventSendMessage {
		c.log.Debug("unknown event",
			"connection_id", c.session.ConnectionID, "event", envelope.Event)
		return
	}

	var data SendMessageData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		c.log.Debug("invalid sendMessage payload",
			"connection_id", c.session.ConnectionID, "err", err)
		return
	}

	_, err := c.chat.PostMessage(ctx, c.session, data.Text)
	switch {
	case err == nil:
		c.monitor.CountPublished()
	case stderrors.Is(err, errors.ErrEmptyMessage):
		if frame, ferr := errorFrame(CodeEmptyMessage, "message is empty"); ferr == nil {
			c.enqueue(frame)
		}
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		c.log.Error("publish failed, store unavailable",
			"connection_id", c.session.ConnectionID, "err", err)
		if frame, ferr := errorFrame(CodeStoreUnavailable, "message could not be saved"); ferr == nil {
			c.enqueue(frame)
		}
	default:
		c.log.Error("publish failed",
			"connection_id", c.session.ConnectionID, "err", err)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. Runs in its own goroutine per client.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

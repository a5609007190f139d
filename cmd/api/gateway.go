package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/simplechat/chat-server/internal/data"
	"github.com/simplechat/chat-server/internal/delivery"
)

const (
	destinationSend      = "chat.send"
	destinationHeartbeat = "heartbeat"

	// maxFrameSize bounds an inbound frame; content alone is capped at
	// 1000 characters, so 4 KiB leaves ample room for the envelope.
	maxFrameSize = 4096
)

// inboundFrame is the client-to-server publish shape.
type inboundFrame struct {
	Destination string `json:"destination"`
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content" validate:"required,max=1000"`
}

// outboundFrame is everything the server writes on the socket: pushed
// messages on the user's private channel, and error notifications.
type outboundFrame struct {
	Type    string        `json:"type"` // "message" or "error"
	Message *data.Message `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Detail  string        `json:"detail,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The SPA is served from its own origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsClient is one live connection. A single writer goroutine drains send, so
// pushes from many routers never interleave writes on the socket.
type wsClient struct {
	conn      *websocket.Conn
	send      chan outboundFrame
	done      chan struct{}
	closeOnce sync.Once
	closeMsg  []byte // written before done closes; read after, so no race

	writeWait time.Duration
}

func newWSClient(conn *websocket.Conn, queueSize int, writeWait time.Duration) *wsClient {
	return &wsClient{
		conn:      conn,
		send:      make(chan outboundFrame, queueSize),
		done:      make(chan struct{}),
		writeWait: writeWait,
	}
}

// Push implements delivery.Pusher. It never blocks: a closed session or a
// full queue reports an error and the message is left to the history read.
func (c *wsClient) Push(m *data.Message) error {
	return c.enqueue(outboundFrame{Type: "message", Message: m})
}

func (c *wsClient) enqueue(f outboundFrame) error {
	select {
	case <-c.done:
		return errors.New("session closed")
	case c.send <- f:
		return nil
	default:
		return errors.New("send queue full")
	}
}

// shutdown ends the session without a close frame (peer already gone).
func (c *wsClient) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// shutdownWith ends the session after sending a close frame with the given
// code, e.g. when a newer session supersedes this one.
func (c *wsClient) shutdownWith(code int, text string) {
	c.closeOnce.Do(func() {
		c.closeMsg = websocket.FormatCloseMessage(code, text)
		close(c.done)
	})
}

// writePump owns all writes on the socket: queued frames, keepalive pings,
// and the final close frame.
func (c *wsClient) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			if c.closeMsg != nil {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, c.closeMsg)
			}
			return
		}
	}
}

// handleWS is the session gateway: authenticate the handshake, register the
// session (superseding any previous one), then demultiplex inbound frames
// until the connection closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.auth.VerifyToken(bearerToken(r))
	if err != nil {
		apiError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	client := newWSClient(conn, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	sess := &delivery.Session{
		ID:          uuid.NewString(),
		UserID:      claims.UserID,
		Conn:        client,
		ConnectedAt: time.Now(),
	}

	// Single active session per user: the previous connection, if any, is
	// told why and closed.
	if old := s.registry.Register(claims.UserID, sess); old != nil {
		if oldClient, ok := old.Conn.(*wsClient); ok {
			oldClient.shutdownWith(websocket.ClosePolicyViolation, "session superseded")
		}
	}

	slog.Info("session open", "user_id", claims.UserID, "session_id", sess.ID)

	go client.writePump(pingPeriodFor(s.cfg.PongTimeout))
	s.readLoop(client, sess)
}

func pingPeriodFor(pongWait time.Duration) time.Duration {
	return pongWait * 9 / 10
}

// readLoop runs the Active state of the session: parse inbound frames,
// forward chat.send to the delivery router, drop anything malformed. It
// returns when the peer disconnects or the read deadline expires.
func (s *Server) readLoop(c *wsClient, sess *delivery.Session) {
	defer func() {
		// Identity-checked: a newer session for this user stays put.
		s.registry.Unregister(sess.UserID, sess)
		c.shutdown()
		slog.Info("session closed", "user_id", sess.UserID, "session_id", sess.ID)
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		// Any inbound frame counts as liveness.
		_ = c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			slog.Warn("malformed frame dropped", "user_id", sess.UserID, "error", err)
			continue
		}

		switch frame.Destination {
		case destinationHeartbeat:
			// Deadline already reset above.
		case destinationSend:
			s.handleSendFrame(c, sess, &frame)
		default:
			slog.Warn("unknown destination dropped", "user_id", sess.UserID, "destination", frame.Destination)
		}
	}
}

// handleSendFrame validates and routes one publish. Failures are reported on
// this connection only; the session stays Active either way.
func (s *Server) handleSendFrame(c *wsClient, sess *delivery.Session, frame *inboundFrame) {
	if err := s.validate.Struct(frame); err != nil {
		slog.Warn("invalid chat.send frame", "user_id", sess.UserID, "error", err)
		_ = c.enqueue(outboundFrame{Type: "error", Error: "invalid_frame", Detail: "content is required and at most 1000 characters"})
		return
	}

	// Store operations run on a background context: closing this connection
	// must never cancel a send already on its way to the store.
	ctx := context.Background()

	// Friend policy is enforced here at the edge; the router is policy-free.
	allowed, err := s.friends.AreFriends(ctx, sess.UserID, frame.RecipientID)
	if err != nil {
		slog.Error("friend check failed", "user_id", sess.UserID, "error", err)
		_ = c.enqueue(outboundFrame{Type: "error", Error: "delivery_failed", Detail: "message was not stored; resend"})
		return
	}
	if !allowed {
		_ = c.enqueue(outboundFrame{Type: "error", Error: "forbidden", Detail: "recipient is not a friend"})
		return
	}

	// Sender identity comes from the authenticated session, never from the
	// frame payload.
	if _, err := s.router.Send(ctx, sess.UserID, frame.RecipientID, frame.Content); err != nil {
		switch {
		case errors.Is(err, delivery.ErrInvalidRecipient):
			_ = c.enqueue(outboundFrame{Type: "error", Error: "invalid_recipient"})
		case errors.Is(err, delivery.ErrStoreUnavailable):
			_ = c.enqueue(outboundFrame{Type: "error", Error: "delivery_failed", Detail: "message was not stored; resend"})
		default:
			slog.Error("send failed", "user_id", sess.UserID, "error", err)
			_ = c.enqueue(outboundFrame{Type: "error", Error: "delivery_failed"})
		}
	}
}

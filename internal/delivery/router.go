package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simplechat/chat-server/internal/data"
)

// MessageLog is the append side of the message store.
type MessageLog interface {
	Append(ctx context.Context, senderID, recipientID int64, content string) (*data.Message, error)
}

// UserDirectory answers whether a user id refers to a real account.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Router is the central state-transition point for a send: validate, persist,
// then best-effort push to whichever of the two participants is connected.
type Router struct {
	registry *Registry
	log      MessageLog
	users    UserDirectory
}

// NewRouter returns a Router wired with its two leaf dependencies.
func NewRouter(registry *Registry, log MessageLog, users UserDirectory) *Router {
	return &Router{registry: registry, log: log, users: users}
}

// Send validates the recipient, persists the message, and pushes it to the
// recipient's live session and back to the sender's as an echo. A successful
// return means the message is durably stored and ordered within its
// conversation; it does not mean the recipient's client received the push.
//
// The push is fire-and-forget. Reliability comes from persistence plus the
// pull-based history read, not from push delivery guarantees.
func (rt *Router) Send(ctx context.Context, senderID, recipientID int64, content string) (*data.Message, error) {
	if senderID == recipientID {
		return nil, ErrInvalidRecipient
	}

	exists, err := rt.users.UserExists(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: verify recipient: %v", ErrStoreUnavailable, err)
	}
	if !exists {
		return nil, ErrInvalidRecipient
	}

	// Persist first. If this fails the send failed; nothing is pushed.
	msg, err := rt.log.Append(ctx, senderID, recipientID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// The recipient gets the push; the sender's session gets an echo so the
	// client can render its own message from the authoritative record.
	rt.push(recipientID, msg)
	rt.push(senderID, msg)

	return msg, nil
}

// push attempts delivery to the user's live session, if any. Failure is
// logged and otherwise ignored; the message stays retrievable via history.
func (rt *Router) push(userID int64, msg *data.Message) {
	s := rt.registry.Lookup(userID)
	if s == nil {
		return
	}
	if err := s.Conn.Push(msg); err != nil {
		slog.Warn("push failed", "user_id", userID, "session_id", s.ID, "msg_id", msg.ID, "error", err)
	}
}

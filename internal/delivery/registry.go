package delivery

import (
	"sync"
	"time"

	"github.com/simplechat/chat-server/internal/data"
)

// Pusher is the minimal interface the registry needs from a connection: the
// ability to deliver one message to the connected client.
type Pusher interface {
	Push(*data.Message) error
}

// Session is one authenticated live transport connection for a user.
type Session struct {
	ID          string
	UserID      int64
	Conn        Pusher
	ConnectedAt time.Time
}

// Registry maps each user id to that user's single currently-active session.
// A user connecting again supersedes the previous session; the caller is
// responsible for closing the superseded one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Register installs s as the current session for userID and returns the
// session it replaced, if any.
func (r *Registry) Register(userID int64, s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.sessions[userID]
	r.sessions[userID] = s
	return old
}

// Unregister removes the mapping only if the stored session is the one
// given. A late disconnect of a superseded connection therefore cannot evict
// the session that replaced it.
func (r *Registry) Unregister(userID int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[userID] == s {
		delete(r.sessions, userID)
	}
}

// Lookup returns the live session for userID, or nil. Safe to call from many
// concurrent senders.
func (r *Registry) Lookup(userID int64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

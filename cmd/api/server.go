package main

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/simplechat/chat-server/internal/auth"
	"github.com/simplechat/chat-server/internal/config"
	"github.com/simplechat/chat-server/internal/data"
	"github.com/simplechat/chat-server/internal/delivery"
	"github.com/simplechat/chat-server/internal/middleware"
)

// userDirectory is the subset of data.UsersStore the handlers use. Declared
// here so tests can swap in an in-memory implementation.
type userDirectory interface {
	CreateUser(ctx context.Context, username, email, hashedPassword string) (*data.User, error)
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
	SearchUsers(ctx context.Context, query string, excludeID int64) ([]*data.User, error)
}

// friendGraph is the subset of data.FriendsStore the handlers and the
// gateway use.
type friendGraph interface {
	SendRequest(ctx context.Context, senderID, receiverID int64) (*data.FriendRequest, error)
	Respond(ctx context.Context, userID, requestID int64, status data.FriendStatus) (*data.FriendRequest, error)
	Pending(ctx context.Context, userID int64) ([]*data.FriendRequest, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// Server holds the wired application: stores, the delivery core, auth and
// configuration. It serves both the REST API and the WebSocket gateway.
type Server struct {
	users    userDirectory
	friends  friendGraph
	registry *delivery.Registry
	router   *delivery.Router
	history  *delivery.History
	auth     *auth.JWTManager
	validate *validator.Validate
	cfg      *config.Config
}

// newServer returns a ready-to-use Server.
func newServer(
	users userDirectory,
	friends friendGraph,
	registry *delivery.Registry,
	router *delivery.Router,
	history *delivery.History,
	authMgr *auth.JWTManager,
	cfg *config.Config,
) *Server {
	return &Server{
		users:    users,
		friends:  friends,
		registry: registry,
		router:   router,
		history:  history,
		auth:     authMgr,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
	}
}

// routes assembles the HTTP mux. Register and login sit behind the rate
// limiter; everything else requires a bearer token.
func (s *Server) routes(limiter *middleware.LimiterStore) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", middleware.RateLimit(limiter, http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/login", middleware.RateLimit(limiter, http.HandlerFunc(s.handleLogin)))

	mux.Handle("GET /api/users/me", s.requireAuth(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /api/users/search", s.requireAuth(http.HandlerFunc(s.handleSearchUsers)))

	mux.Handle("GET /api/messages/{friendId}", s.requireAuth(http.HandlerFunc(s.handleHistory)))

	mux.Handle("POST /api/friends/request/{receiverId}", s.requireAuth(http.HandlerFunc(s.handleFriendRequest)))
	mux.Handle("POST /api/friends/respond/{requestId}", s.requireAuth(http.HandlerFunc(s.handleFriendRespond)))
	mux.Handle("GET /api/friends", s.requireAuth(http.HandlerFunc(s.handleFriends)))
	mux.Handle("GET /api/friends/pending", s.requireAuth(http.HandlerFunc(s.handleFriendsPending)))

	// The gateway authenticates during the handshake itself.
	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

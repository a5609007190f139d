package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/simplechat/chat-server/internal/auth"
	"github.com/simplechat/chat-server/internal/data"
	"github.com/simplechat/chat-server/internal/delivery"
)

// writeJSON writes v with the given status. Encoding failures are logged;
// the status line is already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// apiError writes the uniform {"error": ...} body the client expects.
func apiError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes the request body into dst and validates it.
func (s *Server) readJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleRegister creates an account: hashes the password, stores the user,
// returns a JWT token so the client can connect immediately.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.readJSON(r, &req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid registration payload")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		apiError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Username, req.Email, hashed)
	if err != nil {
		if errors.Is(err, data.ErrUserExists) {
			apiError(w, http.StatusBadRequest, "username or email already taken")
			return
		}
		slog.Error("create user failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		apiError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, UserID: user.ID, ExpiresAt: expiresAt})
}

// handleLogin authenticates a user and returns a JWT token. Unknown user and
// wrong password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.readJSON(r, &req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	user, err := s.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		apiError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		apiError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		apiError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, UserID: user.ID, ExpiresAt: expiresAt})
}

// handleMe returns the authenticated user's public profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	user, err := s.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		apiError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Dto())
}

// handleSearchUsers finds users by username substring, excluding the caller.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	users, err := s.users.SearchUsers(r.Context(), r.URL.Query().Get("query"), claims.UserID)
	if err != nil {
		slog.Error("search users failed", "error", err)
		apiError(w, http.StatusInternalServerError, "search failed")
		return
	}

	dtos := lo.Map(users, func(u *data.User, _ int) data.UserDto { return u.Dto() })
	writeJSON(w, http.StatusOK, dtos)
}

// handleHistory serves one page of the conversation with the given friend,
// oldest-first, page size fixed at 20, page defaulting to 0.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	friendID, err := strconv.ParseInt(r.PathValue("friendId"), 10, 64)
	if err != nil {
		apiError(w, http.StatusBadRequest, "invalid friend id")
		return
	}

	var page int64
	if p := r.URL.Query().Get("page"); p != "" {
		if page, err = strconv.ParseInt(p, 10, 64); err != nil || page < 0 {
			apiError(w, http.StatusBadRequest, "invalid page")
			return
		}
	}

	msgs, err := s.history.Fetch(r.Context(), claims.UserID, claims.UserID, friendID, page)
	if err != nil {
		if errors.Is(err, delivery.ErrForbidden) {
			apiError(w, http.StatusForbidden, "not a conversation participant")
			return
		}
		slog.Error("history fetch failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	if msgs == nil {
		msgs = []*data.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// friendStateErrors map to 400 like the original management API.
var friendStateErrors = []error{
	data.ErrSelfRequest,
	data.ErrRequestPending,
	data.ErrAlreadyFriends,
	data.ErrRequestInbound,
	data.ErrAlreadyResponded,
}

func isFriendStateError(err error) bool {
	for _, e := range friendStateErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// handleFriendRequest sends a friend request to the user in the path.
func (s *Server) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	receiverID, err := strconv.ParseInt(r.PathValue("receiverId"), 10, 64)
	if err != nil {
		apiError(w, http.StatusBadRequest, "invalid receiver id")
		return
	}

	req, err := s.friends.SendRequest(r.Context(), claims.UserID, receiverID)
	if err != nil {
		if isFriendStateError(err) {
			apiError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("send friend request failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to send friend request")
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

type friendRespondRequest struct {
	Status data.FriendStatus `json:"status" validate:"required,oneof=ACCEPTED DECLINED"`
}

// handleFriendRespond lets the receiver accept or decline a pending request.
func (s *Server) handleFriendRespond(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	requestID, err := strconv.ParseInt(r.PathValue("requestId"), 10, 64)
	if err != nil {
		apiError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body friendRespondRequest
	if err := s.readJSON(r, &body); err != nil {
		apiError(w, http.StatusBadRequest, "status must be ACCEPTED or DECLINED")
		return
	}

	req, err := s.friends.Respond(r.Context(), claims.UserID, requestID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRequestNotFound):
			apiError(w, http.StatusNotFound, "friend request not found")
		case errors.Is(err, data.ErrNotReceiver):
			apiError(w, http.StatusForbidden, "cannot respond to this friend request")
		case isFriendStateError(err):
			apiError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("respond to friend request failed", "error", err)
			apiError(w, http.StatusInternalServerError, "failed to respond to friend request")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// handleFriends lists the authenticated user's friends as public profiles.
func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	ids, err := s.friends.FriendIDs(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("list friends failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}

	dtos := make([]data.UserDto, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetUserByID(r.Context(), id)
		if err != nil {
			// Account deleted since the friendship formed; skip it.
			continue
		}
		dtos = append(dtos, user.Dto())
	}

	writeJSON(w, http.StatusOK, dtos)
}

// handleFriendsPending lists requests waiting on the authenticated user.
func (s *Server) handleFriendsPending(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	reqs, err := s.friends.Pending(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("list pending requests failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to list pending requests")
		return
	}

	if reqs == nil {
		reqs = []*data.FriendRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

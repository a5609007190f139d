package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/simplechat/chat-server/internal/auth"
)

// context key type for storing auth claims in request context
type authContextKey struct{}

// claimsFromContext extracts auth claims from the context, if present.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}

// bearerToken pulls the credential from the Authorization header, falling
// back to the "token" query parameter (browser WebSocket clients cannot set
// headers on the handshake).
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
	}
	return r.URL.Query().Get("token")
}

// requireAuth enforces a valid bearer token and attaches the claims to the
// request context for handlers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apiError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := s.auth.VerifyToken(token)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

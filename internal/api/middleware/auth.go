// Package middleware contains the chi middleware for authentication and
// request tracing.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// AuthMiddleware authenticates requests from their bearer token.
//
// A request passes through four gates: the Authorization header is present
// and well-formed, the token's signature and expiry verify, the token is
// still in the user's active token list (selective revocation), and the
// user record resolves. Failing any gate short-circuits with 401 before
// the handler runs. On success the resolved user and the matched token are
// attached to the request context.
type AuthMiddleware struct {
	jwtService auth.JWTService
	userStore  store.UserStore
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, userStore store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userStore:  userStore,
	}
}

// Authenticate is the middleware function to mount on protected routes.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		token := parts[1]

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		// A verified signature is not enough: the token must still be in
		// the user's active list, otherwise it has been revoked.
		active, err := m.userStore.HasToken(r.Context(), claims.UserID, token)
		if err != nil {
			slog.Error("failed to check token revocation", "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}
		if !active {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Please authenticate")
			return
		}

		user, err := m.userStore.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				// Token for a deleted account.
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Please authenticate")
				return
			}
			slog.Error("failed to resolve user", "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		ctx := context.WithValue(r.Context(), shared.CurrentUserContextKey, user)
		ctx = context.WithValue(ctx, shared.AuthTokenContextKey, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/redmonkez12/taskrooms/internal/httputil"
	"github.com/redmonkez12/taskrooms/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware resolves a bearer token to an active user.
// It is the single gate in front of every protected operation.
type Middleware struct {
	tokens   *JWTService
	userRepo UserRepository
}

func NewMiddleware(tokens *JWTService, userRepo UserRepository) *Middleware {
	return &Middleware{tokens: tokens, userRepo: userRepo}
}

// RequireAuth validates the access token and loads the user.
// Every failure mode (missing header, bad signature, expired token,
// unknown or deactivated user) produces the same 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Priority 1: Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			} else {
				httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeUnauthorized, http.StatusUnauthorized)
				return
			}
		}

		// Priority 2: Cookie (fallback)
		if token == "" {
			cookieToken, err := GetAccessTokenFromCookie(r)
			if err != nil {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
				return
			}
			token = cookieToken
		}

		userID, err := m.tokens.VerifySubject(token, TokenKindAccess)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		currentUser, err := m.userRepo.GetByID(r.Context(), userID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}
		if !currentUser.IsActive {
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, currentUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext extracts the resolved user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}

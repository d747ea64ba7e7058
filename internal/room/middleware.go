package room

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/auth"
	"github.com/redmonkez12/taskrooms/internal/httputil"
	"github.com/redmonkez12/taskrooms/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const MembershipContextKey ContextKey = "room_membership"

// Middleware resolves the {roomID} route param into the caller's
// membership before any room-scoped handler runs.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireMembership rejects non-members with 403. Role checks stay in
// the handlers; this only establishes that a membership exists.
func (m *Middleware) RequireMembership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		currentUser, ok := auth.GetUserFromContext(r.Context())
		if !ok {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid room id", httputil.CodeInvalidInput, http.StatusBadRequest)
			return
		}

		member, err := m.service.MembershipOf(r.Context(), currentUser.ID, roomID)
		if err != nil {
			if errors.Is(err, ErrNotMember) {
				httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
				return
			}
			logger.Error("failed to resolve room membership", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to resolve membership", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), MembershipContextKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetMembershipFromContext extracts the resolved membership from the
// request context
func GetMembershipFromContext(ctx context.Context) (*Membership, bool) {
	member, ok := ctx.Value(MembershipContextKey).(*Membership)
	return member, ok
}

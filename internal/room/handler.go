package room

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/auth"
	"github.com/redmonkez12/taskrooms/internal/httputil"
	"github.com/redmonkez12/taskrooms/internal/logging"
)

// Handler contains HTTP handlers for room and invite endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreateRoomRequest represents the room creation request body
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// JoinRequest represents the join-by-code request body
type JoinRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	Code   string    `json:"code"`
}

// InviteResponse carries a freshly issued invite code
type InviteResponse struct {
	RoomID uuid.UUID `json:"room_id"`
	Code   string    `json:"code"`
}

// CreateRoom handles room creation
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create room request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newRoom, err := h.service.CreateRoom(r.Context(), currentUser.ID, req.Name)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidInput, http.StatusBadRequest)
			return
		}
		logger.Error("failed to create room", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create room", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("room created", "room_id", newRoom.ID, "user_id", currentUser.ID)

	httputil.RespondJSON(w, newRoom, http.StatusCreated)
}

// Join handles joining a room with an invite code
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid join request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.RoomID == uuid.Nil || req.Code == "" {
		httputil.RespondErrorWithCode(w, "room_id and code are required", httputil.CodeInvalidInput, http.StatusBadRequest)
		return
	}

	member, err := h.service.Join(r.Context(), currentUser.ID, req.RoomID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInviteCode):
			logger.Warn("join failed: invalid invite code", "room_id", req.RoomID)
			httputil.RespondErrorWithCode(w, "invalid or expired invite code", httputil.CodeInvalidInviteCode, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyMember):
			logger.Warn("join failed: already a member", "room_id", req.RoomID)
			httputil.RespondErrorWithCode(w, "already a member of this room", httputil.CodeConflict, http.StatusConflict)
		default:
			logger.Error("join failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to join room", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user joined room", "room_id", req.RoomID, "user_id", currentUser.ID)

	httputil.RespondJSON(w, member, http.StatusCreated)
}

// CreateInvite issues a new invite code for the room
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	code, err := h.service.CreateInviteLink(r.Context(), member)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			logger.Warn("invite creation forbidden", "room_id", member.RoomID, "role", member.Role)
			httputil.RespondErrorWithCode(w, "insufficient role", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		logger.Error("failed to create invite", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create invite", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, InviteResponse{RoomID: member.RoomID, Code: code}, http.StatusCreated)
}

// DeleteInvite revokes the room's invite code
func (h *Handler) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	if err := h.service.DeleteInviteLink(r.Context(), member); err != nil {
		if errors.Is(err, ErrForbidden) {
			logger.Warn("invite deletion forbidden", "room_id", member.RoomID, "role", member.Role)
			httputil.RespondErrorWithCode(w, "insufficient role", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		logger.Error("failed to delete invite", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete invite", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "invite link deleted"}, http.StatusOK)
}

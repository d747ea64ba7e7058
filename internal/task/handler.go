package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/auth"
	"github.com/redmonkez12/taskrooms/internal/httputil"
	"github.com/redmonkez12/taskrooms/internal/logging"
	"github.com/redmonkez12/taskrooms/internal/room"
)

// Handler contains HTTP handlers for personal and room task endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreateTaskRequest represents the task creation request body
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
}

// PatchTaskRequest represents the partial update request body.
// Absent fields stay nil and are not applied.
type PatchTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	DueAt       *time.Time `json:"due_at"`
}

func (r PatchTaskRequest) toPatch() Patch {
	return Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		DueAt:       r.DueAt,
	}
}

// CreatePersonal handles personal task creation
func (h *Handler) CreatePersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newTask, err := h.service.CreatePersonal(r.Context(), currentUser.ID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		h.respondCreateError(w, logger, err)
		return
	}

	logger.Info("task created", "task_id", newTask.ID, "user_id", currentUser.ID)

	httputil.RespondJSON(w, newTask, http.StatusCreated)
}

// ListPersonal handles listing the caller's personal tasks
func (h *Handler) ListPersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	tasks, err := h.service.ListPersonal(r.Context(), currentUser.ID, r.URL.Query().Get("order_by"))
	if err != nil {
		if errors.Is(err, ErrInvalidOrdering) {
			httputil.RespondErrorWithCode(w, "invalid order_by field", httputil.CodeInvalidOrdering, http.StatusBadRequest)
			return
		}
		logger.Error("failed to list tasks", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list tasks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, tasks, http.StatusOK)
}

// GetPersonal handles fetching a single personal task
func (h *Handler) GetPersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetPersonal(r.Context(), currentUser.ID, taskID)
	if err != nil {
		h.respondLookupError(w, logger, err, "failed to get task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// PatchPersonal handles partial update of a personal task
func (h *Handler) PatchPersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid patch task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	task, err := h.service.PatchPersonal(r.Context(), currentUser.ID, taskID, req.toPatch())
	if err != nil {
		h.respondMutationError(w, logger, err, "failed to update task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// CompletePersonal handles marking a personal task complete
func (h *Handler) CompletePersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.CompletePersonal(r.Context(), currentUser.ID, taskID)
	if err != nil {
		h.respondMutationError(w, logger, err, "failed to complete task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// DeletePersonal handles deleting a personal task
func (h *Handler) DeletePersonal(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePersonal(r.Context(), currentUser.ID, taskID); err != nil {
		h.respondMutationError(w, logger, err, "failed to delete task")
		return
	}

	logger.Info("task deleted", "task_id", taskID, "user_id", currentUser.ID)

	httputil.RespondJSON(w, map[string]string{"message": "task deleted"}, http.StatusOK)
}

// CreateRoomTask handles task creation inside a room
func (h *Handler) CreateRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newTask, err := h.service.CreateInRoom(r.Context(), member, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		h.respondCreateError(w, logger, err)
		return
	}

	logger.Info("room task created", "task_id", newTask.ID, "room_id", member.RoomID, "user_id", member.UserID)

	httputil.RespondJSON(w, newTask, http.StatusCreated)
}

// ListRoomTasks handles listing all tasks of a room
func (h *Handler) ListRoomTasks(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	tasks, err := h.service.ListRoom(r.Context(), member, r.URL.Query().Get("order_by"))
	if err != nil {
		if errors.Is(err, ErrInvalidOrdering) {
			httputil.RespondErrorWithCode(w, "invalid order_by field", httputil.CodeInvalidOrdering, http.StatusBadRequest)
			return
		}
		logger.Error("failed to list room tasks", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list tasks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, tasks, http.StatusOK)
}

// GetRoomTask handles fetching a single room task
func (h *Handler) GetRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetRoom(r.Context(), member, taskID)
	if err != nil {
		h.respondLookupError(w, logger, err, "failed to get task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// PatchRoomTask handles partial update of a room task
func (h *Handler) PatchRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid patch task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	task, err := h.service.PatchRoom(r.Context(), member, taskID, req.toPatch())
	if err != nil {
		h.respondMutationError(w, logger, err, "failed to update task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// CompleteRoomTask handles marking a room task complete
func (h *Handler) CompleteRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.CompleteRoom(r.Context(), member, taskID)
	if err != nil {
		h.respondMutationError(w, logger, err, "failed to complete task")
		return
	}

	httputil.RespondJSON(w, task, http.StatusOK)
}

// AcceptRoomTask handles claiming an unassigned room task
func (h *Handler) AcceptRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Accept(r.Context(), member, taskID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "task not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrConflict):
			logger.Warn("accept conflict: task already assigned", "task_id", taskID, "user_id", member.UserID)
			httputil.RespondErrorWithCode(w, "task is already assigned", httputil.CodeConflict, http.StatusConflict)
		case errors.Is(err, room.ErrForbidden):
			httputil.RespondErrorWithCode(w, "insufficient role", httputil.CodeForbidden, http.StatusForbidden)
		default:
			logger.Error("failed to accept task", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to accept task", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("task accepted", "task_id", taskID, "room_id", member.RoomID, "user_id", member.UserID)

	httputil.RespondJSON(w, task, http.StatusOK)
}

// DeleteRoomTask handles deleting a room task
func (h *Handler) DeleteRoomTask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	member, ok := room.GetMembershipFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not a room member", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRoom(r.Context(), member, taskID); err != nil {
		h.respondMutationError(w, logger, err, "failed to delete task")
		return
	}

	logger.Info("room task deleted", "task_id", taskID, "room_id", member.RoomID)

	httputil.RespondJSON(w, map[string]string{"message": "task deleted"}, http.StatusOK)
}

func (h *Handler) respondCreateError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrDueAtRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidInput, http.StatusBadRequest)
	case errors.Is(err, room.ErrForbidden):
		httputil.RespondErrorWithCode(w, "insufficient role", httputil.CodeForbidden, http.StatusForbidden)
	default:
		logger.Error("failed to create task", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create task", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func (h *Handler) respondLookupError(w http.ResponseWriter, logger *logging.Logger, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		httputil.RespondErrorWithCode(w, "task not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}
	logger.Error(message, "error", err.Error())
	httputil.RespondErrorWithCode(w, message, httputil.CodeInternalError, http.StatusInternalServerError)
}

func (h *Handler) respondMutationError(w http.ResponseWriter, logger *logging.Logger, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "task not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrTitleRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidInput, http.StatusBadRequest)
	case errors.Is(err, room.ErrForbidden):
		httputil.RespondErrorWithCode(w, "insufficient role", httputil.CodeForbidden, http.StatusForbidden)
	default:
		logger.Error(message, "error", err.Error())
		httputil.RespondErrorWithCode(w, message, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid task id", httputil.CodeInvalidInput, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return taskID, true
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskrooms/internal/auth"
	"github.com/redmonkez12/taskrooms/internal/cache"
	"github.com/redmonkez12/taskrooms/internal/config"
	"github.com/redmonkez12/taskrooms/internal/logging"
	"github.com/redmonkez12/taskrooms/internal/ratelimit"
	"github.com/redmonkez12/taskrooms/internal/room"
	"github.com/redmonkez12/taskrooms/internal/task"
	"github.com/redmonkez12/taskrooms/internal/user"
)

// In-memory repositories backing the full router under test.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func (r *memUserRepo) Create(_ context.Context, email, passwordHash string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, IsActive: true}
	r.users[email] = u
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memUserRepo) MarkVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.IsVerified = true
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return user.ErrNotFound
}

type memRoomRepo struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*room.Room
	members map[uuid.UUID][]*room.Membership
}

func (r *memRoomRepo) CreateWithCreator(_ context.Context, name string, creatorID uuid.UUID) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	newRoom := &room.Room{ID: uuid.New(), Name: name, CreatedBy: creatorID, CreatedAt: time.Now()}
	r.rooms[newRoom.ID] = newRoom
	r.members[newRoom.ID] = []*room.Membership{{ID: uuid.New(), UserID: creatorID, RoomID: newRoom.ID, Role: room.RoleCreator}}
	return newRoom, nil
}

func (r *memRoomRepo) GetByID(_ context.Context, roomID uuid.UUID) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, room.ErrNotFound
	}
	return rm, nil
}

func (r *memRoomRepo) MembershipOf(_ context.Context, userID, roomID uuid.UUID) (*room.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[roomID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, room.ErrNotMember
}

func (r *memRoomRepo) AddMember(_ context.Context, userID, roomID uuid.UUID, role room.Role) (*room.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[roomID] {
		if m.UserID == userID {
			return nil, room.ErrAlreadyMember
		}
	}
	m := &room.Membership{ID: uuid.New(), UserID: userID, RoomID: roomID, Role: role}
	r.members[roomID] = append(r.members[roomID], m)
	return m, nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*task.Task
}

func (r *memTaskRepo) Create(_ context.Context, t *task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.tasks[stored.ID] = &stored
	clone := stored
	return &clone, nil
}

func (r *memTaskRepo) ListPersonal(_ context.Context, userID uuid.UUID, _ task.Ordering) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []task.Task{}
	for _, t := range r.tasks {
		if t.Owner.Type == task.OwnerTypeUser && t.Owner.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTaskRepo) ListRoom(_ context.Context, roomID uuid.UUID, _ task.Ordering) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []task.Task{}
	for _, t := range r.tasks {
		if t.Owner.Type == task.OwnerTypeRoom && t.Owner.RoomID != nil && *t.Owner.RoomID == roomID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTaskRepo) GetPersonal(_ context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Owner.Type != task.OwnerTypeUser || t.Owner.UserID != userID {
		return nil, task.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTaskRepo) GetRoom(_ context.Context, roomID, taskID uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Owner.Type != task.OwnerTypeRoom || t.Owner.RoomID == nil || *t.Owner.RoomID != roomID {
		return nil, task.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTaskRepo) Update(_ context.Context, t *task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[t.ID]
	if !ok {
		return nil, task.ErrNotFound
	}
	stored := *t
	// Assignment only changes through Assign, mirroring the bun column list.
	stored.AssignedID = current.AssignedID
	r.tasks[t.ID] = &stored
	clone := stored
	return &clone, nil
}

func (r *memTaskRepo) Delete(_ context.Context, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return task.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *memTaskRepo) Assign(_ context.Context, taskID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.AssignedID != nil {
		return task.ErrConflict
	}
	t.AssignedID = &userID
	return nil
}

type noopEmail struct{}

func (noopEmail) SendVerificationCode(context.Context, string, string) error  { return nil }
func (noopEmail) SendPasswordResetCode(context.Context, string, string) error { return nil }

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := logging.NewLogger(true)
	store := cache.NewMemory()

	tokens, err := auth.NewJWTService([]byte("0123456789abcdef0123456789abcdef"), "HS256", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	userRepo := &memUserRepo{users: make(map[string]*user.User)}
	roomRepo := &memRoomRepo{rooms: make(map[uuid.UUID]*room.Room), members: make(map[uuid.UUID][]*room.Membership)}
	taskRepo := &memTaskRepo{tasks: make(map[uuid.UUID]*task.Task)}

	authService := auth.NewService(
		userRepo,
		auth.NewVerificationCodes(store, 5*time.Minute),
		auth.NewResetCodes(store, 5*time.Minute),
		tokens,
		noopEmail{},
		logger,
		15*time.Minute,
	)
	roomService := room.NewService(roomRepo, room.NewInviteCodes(store, 24*time.Hour), logger)
	taskService := task.NewService(taskRepo, logger)

	// The limiter fails open on backend errors, so an unreachable Redis
	// keeps the endpoints usable in tests
	limiter := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}))

	authHandler := auth.NewHandler(authService, limiter, logger, false, 15*time.Minute, 7*24*time.Hour)
	authMiddleware := auth.NewMiddleware(tokens, userRepo)
	roomHandler := room.NewHandler(roomService, logger)
	roomMiddleware := room.NewMiddleware(roomService)
	taskHandler := task.NewHandler(taskService, logger)

	cfg := &config.Config{Server: config.ServerConfig{Env: "dev", Port: "8080"}}

	return NewRouter(cfg, authHandler, authMiddleware, roomHandler, roomMiddleware, taskHandler, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PersonalTaskFlow(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice@example.com")

	// Create
	rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{
		"title":       "write report",
		"description": "quarterly numbers",
		"due_at":      time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created task.Task
	decodeBody(t, rec, &created)
	assert.Equal(t, "write report", created.Title)
	assert.False(t, created.Completed)

	// List
	rec = doJSON(t, router, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []task.Task
	decodeBody(t, rec, &listed)
	assert.Len(t, listed, 1)

	// Ordering is validated
	rec = doJSON(t, router, http.MethodGet, "/tasks?order_by=priority", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Patch to completed derives the timestamp
	rec = doJSON(t, router, http.MethodPatch, "/tasks/"+created.ID.String(), token, map[string]any{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched task.Task
	decodeBody(t, rec, &patched)
	assert.True(t, patched.Completed)
	assert.NotNil(t, patched.CompletedAt)

	// Another user cannot see or delete it
	otherToken := registerAndLogin(t, router, "mallory@example.com")
	rec = doJSON(t, router, http.MethodGet, "/tasks/"+created.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+created.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Delete and verify the list is empty
	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed = nil
	decodeBody(t, rec, &listed)
	assert.Empty(t, listed)
}

func TestRouter_RefreshFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "bob@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "bob@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &tokens)
	require.NotEmpty(t, tokens.RefreshToken)

	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken, "refresh must not mint a new refresh token")

	// An access token is rejected where a refresh token is expected
	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": tokens.AccessToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Missing token entirely
	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RoomFlow(t *testing.T) {
	router := newTestRouter(t)
	creatorToken := registerAndLogin(t, router, "creator@example.com")
	memberToken := registerAndLogin(t, router, "member@example.com")
	outsiderToken := registerAndLogin(t, router, "outsider@example.com")

	// Create a room
	rec := doJSON(t, router, http.MethodPost, "/tasks/rooms", creatorToken, map[string]string{
		"name": "sprint board",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var newRoom room.Room
	decodeBody(t, rec, &newRoom)
	roomPath := "/tasks/rooms/" + newRoom.ID.String()

	// Issue an invite and join with it
	rec = doJSON(t, router, http.MethodPost, roomPath+"/invite", creatorToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var invite struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &invite)
	require.NotEmpty(t, invite.Code)

	rec = doJSON(t, router, http.MethodPost, "/tasks/rooms/join", memberToken, map[string]any{
		"room_id": newRoom.ID, "code": invite.Code,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A wrong code is rejected
	rec = doJSON(t, router, http.MethodPost, "/tasks/rooms/join", outsiderToken, map[string]any{
		"room_id": newRoom.ID, "code": "0000-0000-0000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-members are shut out of room-scoped routes
	rec = doJSON(t, router, http.MethodGet, roomPath+"/tasks", outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Creator creates a task, member cannot
	rec = doJSON(t, router, http.MethodPost, roomPath+"/tasks", creatorToken, map[string]any{
		"title":  "triage bugs",
		"due_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var roomTask task.Task
	decodeBody(t, rec, &roomTask)

	rec = doJSON(t, router, http.MethodPost, roomPath+"/tasks", memberToken, map[string]any{
		"title":  "sneaky task",
		"due_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Members list room tasks
	rec = doJSON(t, router, http.MethodGet, roomPath+"/tasks", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roomTasks []task.Task
	decodeBody(t, rec, &roomTasks)
	assert.Len(t, roomTasks, 1)

	taskPath := roomPath + "/tasks/" + roomTask.ID.String()

	// Member cannot complete before accepting
	rec = doJSON(t, router, http.MethodPost, taskPath+"/complete", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Member accepts, second accept conflicts
	rec = doJSON(t, router, http.MethodPost, taskPath+"/accept", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = doJSON(t, router, http.MethodPost, taskPath+"/accept", creatorToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Member completes their assignment
	rec = doJSON(t, router, http.MethodPost, taskPath+"/complete", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var completed task.Task
	decodeBody(t, rec, &completed)
	assert.True(t, completed.Completed)
	assert.NotNil(t, completed.CompletedAt)

	// Member cannot delete; creator can
	rec = doJSON(t, router, http.MethodDelete, taskPath, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, taskPath, creatorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Member cannot manage invites
	rec = doJSON(t, router, http.MethodPost, roomPath+"/invite", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, roomPath+"/invite", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_VerifyEmailFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Wrong code
	rec = doJSON(t, router, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": "carol@example.com", "code": "000000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown email looks identical to a wrong code
	rec = doJSON(t, router, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": "nobody@example.com", "code": "000000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Enumeration-safe endpoints always answer 200
	rec = doJSON(t, router, http.MethodPost, "/auth/resend-verification", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/auth/password_reset/request", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/redmonkez12/taskrooms/internal/auth"
	"github.com/redmonkez12/taskrooms/internal/config"
	"github.com/redmonkez12/taskrooms/internal/httputil"
	"github.com/redmonkez12/taskrooms/internal/logging"
	"github.com/redmonkez12/taskrooms/internal/room"
	"github.com/redmonkez12/taskrooms/internal/task"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	roomHandler *room.Handler,
	roomMiddleware *room.Middleware,
	taskHandler *task.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/verify", authHandler.VerifyEmail)
		r.Post("/resend-verification", authHandler.ResendVerification)
		r.Post("/password_reset/request", authHandler.ForgotPassword)
		r.Post("/password_reset/confirm", authHandler.ResetPassword)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Route("/tasks", func(r chi.Router) {
			// Personal tasks
			r.Get("/", taskHandler.ListPersonal)
			r.Post("/", taskHandler.CreatePersonal)
			r.Get("/{taskID}", taskHandler.GetPersonal)
			r.Patch("/{taskID}", taskHandler.PatchPersonal)
			r.Delete("/{taskID}", taskHandler.DeletePersonal)
			r.Post("/{taskID}/complete", taskHandler.CompletePersonal)

			// Rooms
			r.Post("/rooms", roomHandler.CreateRoom)
			r.Post("/rooms/join", roomHandler.Join)

			// Room-scoped routes resolve membership before the handler runs
			r.Route("/rooms/{roomID}", func(r chi.Router) {
				r.Use(roomMiddleware.RequireMembership)

				r.Post("/invite", roomHandler.CreateInvite)
				r.Delete("/invite", roomHandler.DeleteInvite)

				r.Get("/tasks", taskHandler.ListRoomTasks)
				r.Post("/tasks", taskHandler.CreateRoomTask)
				r.Get("/tasks/{taskID}", taskHandler.GetRoomTask)
				r.Patch("/tasks/{taskID}", taskHandler.PatchRoomTask)
				r.Delete("/tasks/{taskID}", taskHandler.DeleteRoomTask)
				r.Post("/tasks/{taskID}/complete", taskHandler.CompleteRoomTask)
				r.Post("/tasks/{taskID}/accept", taskHandler.AcceptRoomTask)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

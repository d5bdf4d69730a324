package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"streamnet/internal/handler"
	"streamnet/internal/httputil"
	authmw "streamnet/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	AdminHandler   *handler.AdminHandler
	SupportHandler *handler.SupportHandler
	ChatHandler    *handler.ChatHandler // nil when the chat provider is not configured

	Sessions       authmw.SessionParser
	Users          authmw.UserLoader
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(authmw.CORS(cfg.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := authmw.Auth(cfg.Sessions, cfg.Users, cfg.Log)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.With(authmw.OptionalAuth(cfg.Sessions, cfg.Users)).Post("/create-admin", cfg.AuthHandler.CreateAdmin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", cfg.AuthHandler.Me)
			r.With(authmw.RequireNotBlocked).Post("/onboarding", cfg.AuthHandler.Onboard)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireNotBlocked)

		r.Get("/", cfg.UserHandler.Recommended)
		r.Get("/friends", cfg.UserHandler.Friends)
		r.Get("/search", cfg.UserHandler.Search)
		r.Get("/friend-requests", cfg.UserHandler.FriendRequests)
		r.Get("/outgoing-friend-requests", cfg.UserHandler.OutgoingRequests)
		r.Get("/check-friends/{userId}", cfg.UserHandler.CheckFriends)

		r.Post("/friend-request/{id}", cfg.UserHandler.SendRequest)
		r.Put("/friend-request/{id}/accept", cfg.UserHandler.AcceptRequest)
		r.Put("/friend-request/{id}/decline", cfg.UserHandler.DeclineRequest)
		r.Delete("/unfriend/{id}", cfg.UserHandler.Unfriend)

		r.Put("/profile", cfg.UserHandler.UpdateProfile)
		r.Put("/profile/avatar", cfg.UserHandler.UploadAvatar)

		r.Get("/{userId}", cfg.UserHandler.Profile)
	})

	if cfg.ChatHandler != nil {
		r.Route("/api/chat", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(authmw.RequireNotBlocked)
			r.Get("/token", cfg.ChatHandler.Token)
			r.Get("/channel/{userId}", cfg.ChatHandler.Channel)
		})
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireAdmin)

		r.Get("/stats", cfg.AdminHandler.Stats)
		r.Get("/users", cfg.AdminHandler.Users)
		r.Put("/users/{id}/block", cfg.AdminHandler.Block)
		r.Put("/users/{id}/role", cfg.AdminHandler.Role)
		r.Delete("/users/{id}", cfg.AdminHandler.Delete)
	})

	r.Route("/api/support", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/tickets", cfg.SupportHandler.Create)
		r.Get("/tickets", cfg.SupportHandler.ListOwn)
		r.Get("/tickets/{id}", cfg.SupportHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAdmin)
			r.Get("/admin/tickets", cfg.SupportHandler.ListAll)
			r.Put("/admin/tickets/{id}/respond", cfg.SupportHandler.Respond)
			r.Put("/admin/tickets/{id}/status", cfg.SupportHandler.SetStatus)
		})
	})

	return r
}

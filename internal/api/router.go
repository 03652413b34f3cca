package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/thanakrit-dev/election-be/internal/api/handlers"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/models"
	"github.com/thanakrit-dev/election-be/internal/services"
	"github.com/thanakrit-dev/election-be/internal/websocket"
)

// Deps bundles everything the router needs.
type Deps struct {
	Tokens     *auth.TokenManager
	Hub        *websocket.Hub
	Auth       services.AuthServiceProvider
	Users      services.UserServiceProvider
	Candidates services.CandidateServiceProvider
	Votes      services.VoteServiceProvider
	Settings   services.SettingServiceProvider
	Events     services.EventServiceProvider
	CORSOrigin string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Auth)
	userHandler := handlers.NewUserHandler(deps.Users)
	candidateHandler := handlers.NewCandidateHandler(deps.Candidates)
	voteHandler := handlers.NewVoteHandler(deps.Votes)
	settingHandler := handlers.NewSettingHandler(deps.Settings)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	requireAccess := deps.Tokens.RequireAccess
	requireRefresh := deps.Tokens.RequireRefresh
	requireAdmin := auth.RequireRole(models.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Live result feed
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.With(requireRefresh).Post("/refresh", authHandler.Refresh)
			r.With(requireAccess).Post("/logout", authHandler.Logout)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", candidateHandler.GetAll)
			r.Post("/signup", candidateHandler.Signup)
			r.With(requireAccess).Post("/apply", candidateHandler.Apply)
			r.Route("/user/{accountId}", func(r chi.Router) {
				r.Get("/", candidateHandler.GetByAccount)
				r.With(requireAccess).Patch("/", candidateHandler.Update)
				r.With(requireAccess, requireAdmin).Delete("/", candidateHandler.Delete)
			})
		})

		r.Route("/votes", func(r chi.Router) {
			r.With(requireAccess).Post("/", voteHandler.Cast)
			r.Get("/summary", voteHandler.Summary)
			r.With(requireAccess).Get("/me", voteHandler.Me)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/voting", settingHandler.GetVoting)
			r.With(requireAccess, requireAdmin).Patch("/voting", settingHandler.SetVoting)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAccess)
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.With(requireAdmin).Patch("/{id}", userHandler.Update)
			r.With(requireAdmin).Delete("/{id}", userHandler.Delete)
		})

		r.With(requireAccess, requireAdmin).Get("/events", eventHandler.Recent)
	})

	return r
}

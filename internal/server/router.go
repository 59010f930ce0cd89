package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/auth"
	"github.com/ayush/task-manager/backend/internal/logger"
	"github.com/ayush/task-manager/backend/internal/middleware"
	"github.com/ayush/task-manager/backend/internal/tasks"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenVerifier
	Auth           *auth.Handler
	Tasks          *tasks.Handler
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler for the whole API. Routes carrying
// the legacy /gp suffix are registered next to their plain form.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.Middleware(d.Logger))
	r.Use(logger.Recoverer(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("API Working"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := middleware.RequireAuth(d.Tokens)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", d.Auth.Me)
			r.Put("/profile", d.Auth.UpdateProfile)
			r.Put("/password", d.Auth.ChangePassword)
		})
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", d.Tasks.List)
		r.Get("/gp", d.Tasks.List)
		r.Post("/", d.Tasks.Create)
		r.Post("/gp", d.Tasks.Create)

		r.Get("/{id}", d.Tasks.Get)
		r.Get("/{id}/gp", d.Tasks.Get)
		r.Put("/{id}", d.Tasks.Update)
		r.Put("/{id}/gp", d.Tasks.Update)
		r.Delete("/{id}", d.Tasks.Delete)
		r.Delete("/{id}/gp", d.Tasks.Delete)
	})

	return r
}

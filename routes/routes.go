package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pregcare/rag-service/app"
	"github.com/pregcare/rag-service/handlers"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handlers.HealthCheck(deps))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handlers.StatusHandler(deps))
		r.Post("/chat", handlers.ChatHandler(deps))
		r.Get("/stats", handlers.StatsHandler(deps))
		r.Route("/history/{sessionID}", func(r chi.Router) {
			r.Get("/", handlers.GetHistoryHandler(deps))
			r.Post("/clear", handlers.ClearHistoryHandler(deps))
		})
	})

	return r
}

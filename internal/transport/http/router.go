package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-rolegate/internal/config"
	"github.com/go-rolegate/internal/domain"
	"github.com/go-rolegate/internal/transport/http/handler"
	appmiddleware "github.com/go-rolegate/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds the ops API router. ctx bounds the rate limiter's sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, per client IP.
	rl := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)
	r.Use(rl.Limit)

	var authMw func(http.Handler) http.Handler
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	} else {
		authMw = appmiddleware.DenyAll
	}

	healthH := handler.NewHealthHandler(deps.Ready)
	statsH := handler.NewStatsHandler(deps.Queue, deps.Captchas, deps.Cooldowns)
	snapH := handler.NewSnapshotHandler(deps.Snapshots, deps.Clearer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Check)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/stats", statsH.Get)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.OperatorRoleAdmin))
				r.Get("/snapshots/{userId}", snapH.Get)
				r.Delete("/snapshots/{partition}/{userId}", snapH.Delete)
			})
		})
	})

	return r
}

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/orghub/orghub/internal/api/v1"
	"github.com/orghub/orghub/internal/config"
	"github.com/orghub/orghub/internal/server/middleware"
)

func registerRoutes(ctx context.Context, router chi.Router, cfg *config.Config, deps Deps) {
	// API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group: registration, login, join, org config, cron.
	// 2. Authenticated group: everything operating on the caller's org.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, 5, 10))

			publicConfig := huma.DefaultConfig("OrgHub Public API", "1.0.0")
			publicConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			publicAPI := humachi.New(r, publicConfig)
			v1.RegisterAuthRoutes(publicAPI, deps.Store, deps.Auth)
			v1.RegisterJoinRoutes(publicAPI, deps.Invites)
			v1.RegisterPublicOrgRoutes(publicAPI, deps.Resolver)
			v1.RegisterCronRoutes(publicAPI, cfg.Cron.Secret, deps.Reminders)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimit(ctx, 100, 200))

			apiConfig := huma.DefaultConfig("OrgHub API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			v1.RegisterOrgRoutes(api, deps.Store, deps.Resolver, deps.Vault)
			v1.RegisterInviteRoutes(api, deps.Invites)
			v1.RegisterMemberRoutes(api, deps.Store)
			v1.RegisterEventRoutes(api, deps.Store)
			v1.RegisterNewsletterRoutes(api, deps.Store, deps.Mailer)
			v1.RegisterCommitteeRoutes(api, deps.Store)
			v1.RegisterBillingRoutes(api, deps.Store, deps.Billing)
		})
	})

	// Stripe webhooks authenticate with per-org signing secrets, not
	// sessions, so they sit outside the API groups.
	router.Post("/api/stripe/webhook/{orgSlug}", deps.Webhook.ServeHTTP)

	// Prometheus metrics (scraped inside the network boundary).
	router.Handle("/metrics", promhttp.Handler())

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/billing"
	"github.com/orghub/orghub/internal/config"
	"github.com/orghub/orghub/internal/email"
	"github.com/orghub/orghub/internal/invite"
	"github.com/orghub/orghub/internal/reminder"
	"github.com/orghub/orghub/internal/secrets"
	"github.com/orghub/orghub/internal/server/middleware"
	"github.com/orghub/orghub/internal/store/postgres"
	"github.com/orghub/orghub/internal/tenant"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// Deps bundles the services the route tree needs. Everything is required
// except Billing (orgs without Stripe credentials still work) and Reminders
// (disabled when no cron secret is set).
type Deps struct {
	Store     *postgres.Store
	Auth      *auth.Service
	Resolver  *tenant.Resolver
	Invites   *invite.Service
	Billing   *billing.StripeClient
	Webhook   *billing.WebhookHandler
	Reminders *reminder.Service
	Mailer    *email.Service
	Vault     *secrets.Vault
}

// New creates a Server with all routes wired. ctx bounds the background
// goroutines the rate limiters start.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Org-Slug", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Org-Slug"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	registerRoutes(ctx, router, cfg, deps)

	// Portal page routes resolve the tenant from the host and rewrite the
	// path; API and platform routes above bypass this entirely.
	tenantRouter := middleware.NewTenantRouter(cfg.Server.RootDomain, cfg.Server.DevMode, deps.Resolver, deps.Auth)
	router.NotFound(tenantRouter.Handler(http.HandlerFunc(portalPlaceholder)).ServeHTTP)

	return s
}

// portalPlaceholder answers rewritten portal paths until the SPA build is
// embedded. It keeps the tenant router exercised end to end. API paths that
// fell through to NotFound stay 404s.
func portalPlaceholder(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

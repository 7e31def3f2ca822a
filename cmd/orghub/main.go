package main

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/billing"
	"github.com/orghub/orghub/internal/config"
	"github.com/orghub/orghub/internal/email"
	"github.com/orghub/orghub/internal/invite"
	"github.com/orghub/orghub/internal/monitoring"
	"github.com/orghub/orghub/internal/reminder"
	"github.com/orghub/orghub/internal/secrets"
	"github.com/orghub/orghub/internal/server"
	"github.com/orghub/orghub/internal/store/postgres"
	redisstore "github.com/orghub/orghub/internal/store/redis"
	"github.com/orghub/orghub/internal/tenant"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("ORGHUB_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("ORGHUB_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	monitoring.InitMetrics()

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for the org config cache.
	cache, err := redisstore.NewConfigCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	resolver := tenant.NewResolver(store.Orgs(), cache)

	// Identity and sessions.
	authSvc := auth.NewService(store.Accounts(), store.Members(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Outbound email; disabled when no from-address is configured.
	mailer, err := email.NewService(ctx, cfg.Email.AWSRegion, cfg.Email.FromEmail, cfg.Email.FromName)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}

	// Invite lifecycle. Join links point at the tenant's portal.
	joinURL := func(orgSlug, token string) string {
		if cfg.Server.DevMode {
			return fmt.Sprintf("http://localhost%s/join?org=%s&token=%s", cfg.Server.Addr, url.QueryEscape(orgSlug), url.QueryEscape(token))
		}
		return fmt.Sprintf("https://%s.%s/join?token=%s", orgSlug, cfg.Server.RootDomain, url.QueryEscape(token))
	}
	inviteSvc := invite.NewService(store.Invites(), store.Members(), store.Orgs(), authSvc, mailer, joinURL)

	// Vault for Stripe credentials at rest. Falls back to a key derived
	// from the JWT secret when no dedicated key is configured.
	vaultSecret := cfg.Security.CredentialKey
	if vaultSecret == "" {
		vaultSecret = cfg.JWT.Secret
		log.Warn().Msg("ORGHUB_CREDENTIAL_KEY not set; deriving the vault key from the JWT secret, so rotating the JWT secret invalidates stored Stripe credentials")
	}
	vault, err := secrets.NewVault(secrets.DeriveKey(vaultSecret))
	if err != nil {
		return fmt.Errorf("credential vault: %w", err)
	}

	// Stripe checkout/portal plus the webhook reconciler.
	stripeClient := billing.NewStripeClient(store.Subscriptions(), vault)
	reconciler := billing.NewReconciler(store.Subscriptions(), store.Orders(), store.RSVPs(), store.Members(), stripeClient)
	webhook := billing.NewWebhookHandler(store.Orgs(), reconciler, vault)

	// Dues renewal reminder sweep, triggered by the cron endpoint.
	reminderSvc := reminder.NewService(store.Members(), store.Orgs(), mailer)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, server.Deps{
		Store:     store,
		Auth:      authSvc,
		Resolver:  resolver,
		Invites:   inviteSvc,
		Billing:   stripeClient,
		Webhook:   webhook,
		Reminders: reminderSvc,
		Mailer:    mailer,
		Vault:     vault,
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("root_domain", cfg.Server.RootDomain).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

package billing

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/monitoring"
)

// Stripe's own limit; anything larger is not a legitimate event payload.
const maxWebhookBody = 65536

// WebhookHandler terminates POST /api/stripe/webhook/{orgSlug}. Signature
// verification uses the org's own webhook secret, so each org points its
// Stripe account at its own URL.
type WebhookHandler struct {
	orgs       domain.OrgRepository
	reconciler *Reconciler
	creds      CredentialOpener
}

func NewWebhookHandler(orgs domain.OrgRepository, reconciler *Reconciler, creds CredentialOpener) *WebhookHandler {
	return &WebhookHandler{orgs: orgs, reconciler: reconciler, creds: creds}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "orgSlug")

	org, err := h.orgs.GetBySlug(r.Context(), slug)
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		http.Error(w, "unknown org", http.StatusBadRequest)
		return
	}

	if org.StripeSecretKey == nil || *org.StripeSecretKey == "" ||
		org.StripeWebhookSecret == nil || *org.StripeWebhookSecret == "" {
		monitoring.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		http.Error(w, "billing not configured for org", http.StatusBadRequest)
		return
	}

	// Credentials are sealed at rest; unseal into a request-local copy so
	// the reconciler sees usable keys without mutating the loaded row.
	secretKey, err := h.creds.Decrypt(*org.StripeSecretKey)
	if err != nil {
		h.credentialError(w, slug, err)
		return
	}
	whSecret, err := h.creds.Decrypt(*org.StripeWebhookSecret)
	if err != nil {
		h.credentialError(w, slug, err)
		return
	}
	unsealed := *org
	unsealed.StripeSecretKey = &secretKey
	unsealed.StripeWebhookSecret = &whSecret
	org = &unsealed

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), *org.StripeWebhookSecret)
	if err != nil {
		// Bad signature must never mutate state; Stripe will not retry 4xx.
		monitoring.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		log.Warn().Err(err).Str("org", slug).Msg("billing: webhook signature verification failed")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	if err := h.reconciler.HandleEvent(r.Context(), org, &event); err != nil {
		// 5xx makes Stripe redeliver; upsert keys make the retry safe.
		monitoring.WebhookEvents.WithLabelValues(string(event.Type), "error").Inc()
		log.Error().Err(err).Str("org", slug).Str("type", string(event.Type)).Msg("billing: webhook handling failed")
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	monitoring.WebhookEvents.WithLabelValues(string(event.Type), "ok").Inc()
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) credentialError(w http.ResponseWriter, slug string, err error) {
	monitoring.WebhookEvents.WithLabelValues("unknown", "error").Inc()
	log.Error().Err(err).Str("org", slug).Msg("billing: credential unseal failed")
	http.Error(w, "credential error", http.StatusInternalServerError)
}

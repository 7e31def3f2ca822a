package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Stripe webhook events received, by event type and outcome",
		},
		[]string{"type", "outcome"},
	)
	TenantResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Tenant slug resolutions by source (query, subdomain, header, none)",
		},
		[]string{"source"},
	)
	InvitesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_issued_total",
			Help: "Invites issued across all orgs",
		},
	)
	InvitesAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_accepted_total",
			Help: "Invites accepted across all orgs",
		},
	)
)

func InitMetrics() {
	for _, c := range []prometheus.Collector{WebhookEvents, TenantResolutions, InvitesIssued, InvitesAccepted} {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msg("Failed to register metric")
		}
	}
}

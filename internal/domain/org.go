package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Org plan tiers.
const (
	PlanFree    = "free"
	PlanManaged = "managed"
	PlanNetwork = "network"
)

// Org is one customer organization. Branding columns and feature flags are
// nullable in storage; nil means "use the platform default for this field",
// which is not the same as false/empty (see BuildOrgConfig).
type Org struct {
	ID   uuid.UUID
	Slug string
	Name string
	Plan string

	// Branding
	PrimaryColor   *string
	SecondaryColor *string
	LogoURL        *string
	FaviconURL     *string

	// Feature flags
	FeatureEvents          *bool
	FeatureCommittees      *bool
	FeatureNewsletters     *bool
	FeatureMessaging       *bool
	FeatureVolunteers      *bool
	FeatureZoom            *bool
	FeatureDocuments       *bool
	FeatureMemberDirectory *bool

	CustomDomain *string
	BillingEmail *string

	// Per-org payment processor credentials. Empty when billing is not
	// configured for the org.
	StripePublishableKey *string
	StripeSecretKey      *string
	StripeWebhookSecret  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrgRepository interface {
	Create(ctx context.Context, o *Org) error
	GetByID(ctx context.Context, id uuid.UUID) (*Org, error)
	GetBySlug(ctx context.Context, slug string) (*Org, error)
	Update(ctx context.Context, o *Org) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Org, error)
}

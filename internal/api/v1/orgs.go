package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/entitlements"
	"github.com/orghub/orghub/internal/server/middleware"
)

// sealCredential encrypts a non-empty credential; an empty string clears
// the field and is stored as-is.
func sealCredential(creds CredentialCipher, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return creds.Encrypt(value)
}

type GetOrgConfigInput struct {
	Slug string `path:"slug" maxLength:"63" doc:"Org slug"`
}

type GetOrgConfigOutput struct {
	Body *domain.OrgConfig
}

type UpdateOrgSettingsInput struct {
	Body struct {
		Name *string `json:"name,omitempty" maxLength:"255"`

		PrimaryColor   *string `json:"primary_color,omitempty" maxLength:"7"`
		SecondaryColor *string `json:"secondary_color,omitempty" maxLength:"7"`
		LogoURL        *string `json:"logo_url,omitempty" maxLength:"2048"`
		FaviconURL     *string `json:"favicon_url,omitempty" maxLength:"2048"`

		FeatureEvents          *bool `json:"feature_events,omitempty"`
		FeatureCommittees      *bool `json:"feature_committees,omitempty"`
		FeatureNewsletters     *bool `json:"feature_newsletters,omitempty"`
		FeatureMessaging       *bool `json:"feature_messaging,omitempty"`
		FeatureVolunteers      *bool `json:"feature_volunteers,omitempty"`
		FeatureZoom            *bool `json:"feature_zoom,omitempty"`
		FeatureDocuments       *bool `json:"feature_documents,omitempty"`
		FeatureMemberDirectory *bool `json:"feature_member_directory,omitempty"`

		CustomDomain *string `json:"custom_domain,omitempty" maxLength:"255"`
		BillingEmail *string `json:"billing_email,omitempty" maxLength:"255"`

		StripePublishableKey *string `json:"stripe_publishable_key,omitempty" maxLength:"255"`
		StripeSecretKey      *string `json:"stripe_secret_key,omitempty" maxLength:"255"`
		StripeWebhookSecret  *string `json:"stripe_webhook_secret,omitempty" maxLength:"255"`
	}
}

type UpdateOrgSettingsOutput struct {
	Body *domain.OrgConfig
}

// RegisterPublicOrgRoutes mounts the unauthenticated config endpoint the
// portal shell loads before any session exists.
func RegisterPublicOrgRoutes(api huma.API, configs ConfigInvalidator) {
	huma.Register(api, huma.Operation{
		OperationID: "get-org-config",
		Method:      http.MethodGet,
		Path:        "/orgs/{slug}/config",
		Summary:     "Get an org's resolved portal configuration",
		Tags:        []string{"Orgs"},
	}, func(ctx context.Context, input *GetOrgConfigInput) (*GetOrgConfigOutput, error) {
		// Resolution never fails: unknown slugs get the demo fallback.
		return &GetOrgConfigOutput{Body: configs.Resolve(ctx, input.Slug)}, nil
	})
}

func RegisterOrgRoutes(api huma.API, store DataStore, configs ConfigInvalidator, creds CredentialCipher) {
	huma.Register(api, huma.Operation{
		OperationID: "update-org-settings",
		Method:      http.MethodPatch,
		Path:        "/org/settings",
		Summary:     "Update the caller's org settings (admin only)",
		Tags:        []string{"Orgs"},
	}, func(ctx context.Context, input *UpdateOrgSettingsInput) (*UpdateOrgSettingsOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageOrgSettings) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		org, err := store.Orgs().GetByID(ctx, orgID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("org not found")
			}
			return nil, huma.Error500InternalServerError("failed to load org", err)
		}

		b := input.Body

		// A flag can only be switched on if the org's plan includes the
		// feature; switching off is always allowed.
		ent := entitlements.ForPlan(org.Plan)
		for _, g := range []struct {
			want    *bool
			feature string
		}{
			{b.FeatureEvents, entitlements.FeatureEvents},
			{b.FeatureCommittees, entitlements.FeatureCommittees},
			{b.FeatureNewsletters, entitlements.FeatureNewsletters},
			{b.FeatureMessaging, entitlements.FeatureMessaging},
			{b.FeatureVolunteers, entitlements.FeatureVolunteers},
			{b.FeatureZoom, entitlements.FeatureZoom},
			{b.FeatureDocuments, entitlements.FeatureDocuments},
			{b.FeatureMemberDirectory, entitlements.FeatureMemberDirectory},
		} {
			if g.want != nil && *g.want && !ent.HasFeature(g.feature) {
				return nil, huma.Error422UnprocessableEntity(
					fmt.Sprintf("the %s plan does not include %s", ent.Plan, g.feature))
			}
		}

		if b.Name != nil {
			org.Name = *b.Name
		}
		if b.PrimaryColor != nil {
			org.PrimaryColor = b.PrimaryColor
		}
		if b.SecondaryColor != nil {
			org.SecondaryColor = b.SecondaryColor
		}
		if b.LogoURL != nil {
			org.LogoURL = b.LogoURL
		}
		if b.FaviconURL != nil {
			org.FaviconURL = b.FaviconURL
		}
		if b.FeatureEvents != nil {
			org.FeatureEvents = b.FeatureEvents
		}
		if b.FeatureCommittees != nil {
			org.FeatureCommittees = b.FeatureCommittees
		}
		if b.FeatureNewsletters != nil {
			org.FeatureNewsletters = b.FeatureNewsletters
		}
		if b.FeatureMessaging != nil {
			org.FeatureMessaging = b.FeatureMessaging
		}
		if b.FeatureVolunteers != nil {
			org.FeatureVolunteers = b.FeatureVolunteers
		}
		if b.FeatureZoom != nil {
			org.FeatureZoom = b.FeatureZoom
		}
		if b.FeatureDocuments != nil {
			org.FeatureDocuments = b.FeatureDocuments
		}
		if b.FeatureMemberDirectory != nil {
			org.FeatureMemberDirectory = b.FeatureMemberDirectory
		}
		if b.CustomDomain != nil {
			org.CustomDomain = b.CustomDomain
		}
		if b.BillingEmail != nil {
			org.BillingEmail = b.BillingEmail
		}
		// The publishable key ships to browsers and stays plaintext; the
		// secret key and webhook secret are sealed before they hit the row.
		if b.StripePublishableKey != nil {
			org.StripePublishableKey = b.StripePublishableKey
		}
		if b.StripeSecretKey != nil {
			sealed, err := sealCredential(creds, *b.StripeSecretKey)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to store credentials", err)
			}
			org.StripeSecretKey = &sealed
		}
		if b.StripeWebhookSecret != nil {
			sealed, err := sealCredential(creds, *b.StripeWebhookSecret)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to store credentials", err)
			}
			org.StripeWebhookSecret = &sealed
		}
		org.UpdatedAt = time.Now()

		if err := store.Orgs().Update(ctx, org); err != nil {
			return nil, huma.Error500InternalServerError("failed to update org", err)
		}

		// The cached config is stale the moment the row changes.
		configs.Invalidate(ctx, org.Slug)

		return &UpdateOrgSettingsOutput{Body: domain.BuildOrgConfig(org)}, nil
	})
}

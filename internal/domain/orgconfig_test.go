package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/internal/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestBuildOrgConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil_org_returns_fallback", func(t *testing.T) {
		t.Parallel()

		cfg := domain.BuildOrgConfig(nil)

		require.NotNil(t, cfg)
		assert.Equal(t, uuid.Nil, cfg.ID)
		assert.Equal(t, "demo", cfg.Slug)
		assert.Equal(t, "Demo Organization", cfg.Name)
		assert.Equal(t, domain.PlanFree, cfg.Plan)
		assert.Equal(t, domain.DefaultBranding, cfg.Branding)
		assert.Equal(t, domain.DefaultFeatures, cfg.Features)
	})

	t.Run("all_nulls_get_per_field_defaults", func(t *testing.T) {
		t.Parallel()

		org := &domain.Org{
			ID:   uuid.New(),
			Slug: "elks-672",
			Name: "Elks Lodge 672",
			Plan: domain.PlanManaged,
		}

		cfg := domain.BuildOrgConfig(org)

		assert.Equal(t, org.ID, cfg.ID)
		assert.Equal(t, "elks-672", cfg.Slug)
		assert.Equal(t, "#3b82f6", cfg.Branding.PrimaryColor)
		assert.Equal(t, "#2ea043", cfg.Branding.SecondaryColor)
		assert.Empty(t, cfg.Branding.LogoURL)

		// Defaults differ per flag: not a blanket off.
		assert.True(t, cfg.Features.Events)
		assert.True(t, cfg.Features.Committees)
		assert.True(t, cfg.Features.MemberDirectory)
		assert.False(t, cfg.Features.Newsletters)
		assert.False(t, cfg.Features.Messaging)
		assert.False(t, cfg.Features.Volunteers)
		assert.False(t, cfg.Features.Zoom)
		assert.False(t, cfg.Features.Documents)
	})

	t.Run("set_fields_win_over_defaults", func(t *testing.T) {
		t.Parallel()

		org := &domain.Org{
			ID:                 uuid.New(),
			Slug:               "garden-club",
			Name:               "Garden Club",
			Plan:               domain.PlanFree,
			PrimaryColor:       strPtr("#112233"),
			LogoURL:            strPtr("https://cdn.example.com/logo.png"),
			FeatureEvents:      boolPtr(false),
			FeatureNewsletters: boolPtr(true),
			CustomDomain:       strPtr("members.gardenclub.org"),
		}

		cfg := domain.BuildOrgConfig(org)

		assert.Equal(t, "#112233", cfg.Branding.PrimaryColor)
		assert.Equal(t, "#2ea043", cfg.Branding.SecondaryColor, "unset secondary keeps default")
		assert.Equal(t, "https://cdn.example.com/logo.png", cfg.Branding.LogoURL)
		assert.False(t, cfg.Features.Events, "explicit false overrides default true")
		assert.True(t, cfg.Features.Newsletters, "explicit true overrides default false")
		assert.True(t, cfg.Features.Committees, "unset flag keeps its own default")
		assert.Equal(t, "members.gardenclub.org", cfg.CustomDomain)
	})

	t.Run("empty_string_branding_treated_as_unset", func(t *testing.T) {
		t.Parallel()

		org := &domain.Org{
			ID:           uuid.New(),
			Slug:         "x",
			Name:         "X",
			Plan:         domain.PlanFree,
			PrimaryColor: strPtr(""),
		}

		cfg := domain.BuildOrgConfig(org)
		assert.Equal(t, "#3b82f6", cfg.Branding.PrimaryColor)
	})

	t.Run("missing_plan_defaults_to_free", func(t *testing.T) {
		t.Parallel()

		cfg := domain.BuildOrgConfig(&domain.Org{ID: uuid.New(), Slug: "y", Name: "Y"})
		assert.Equal(t, domain.PlanFree, cfg.Plan)
	})
}

func TestInviteExpired(t *testing.T) {
	t.Parallel()

	// Covered in depth by the invite service tests; this pins the boundary.
	inv := &domain.Invite{}
	inv.ExpiresAt = inv.CreatedAt.Add(domain.InviteTTL)

	assert.False(t, inv.Expired(inv.ExpiresAt), "exactly at expiry is still valid")
	assert.True(t, inv.Expired(inv.ExpiresAt.Add(1)))
}

package domain

import "github.com/google/uuid"

// Branding is the fully-defaulted branding block of an OrgConfig.
type Branding struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url"`
	FaviconURL     string `json:"favicon_url"`
}

// Features is the fully-defaulted feature-flag block of an OrgConfig.
type Features struct {
	Events          bool `json:"events"`
	Committees      bool `json:"committees"`
	Newsletters     bool `json:"newsletters"`
	Messaging       bool `json:"messaging"`
	Volunteers      bool `json:"volunteers"`
	Zoom            bool `json:"zoom"`
	Documents       bool `json:"documents"`
	MemberDirectory bool `json:"member_directory"`
}

// OrgConfig is the request-ready view of an Org: every optional column has
// been replaced with its per-field default, so downstream consumers never
// see a nil. It is derived per request and never persisted.
type OrgConfig struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Plan         string    `json:"plan"`
	Branding     Branding  `json:"branding"`
	Features     Features  `json:"features"`
	CustomDomain string    `json:"custom_domain"`
}

// DefaultBranding applies when an org has no custom colors set.
var DefaultBranding = Branding{
	PrimaryColor:   "#3b82f6",
	SecondaryColor: "#2ea043",
}

// DefaultFeatures is the per-flag default set. The defaults differ per flag:
// events, committees and the member directory are on for a fresh org, the
// rest are opt-in.
var DefaultFeatures = Features{
	Events:          true,
	Committees:      true,
	Newsletters:     false,
	Messaging:       false,
	Volunteers:      false,
	Zoom:            false,
	Documents:       false,
	MemberDirectory: true,
}

// FallbackOrgConfig returns the config served when no org matches a request.
// Resolution never fails: unknown or deleted slugs get the demo org.
func FallbackOrgConfig() *OrgConfig {
	return &OrgConfig{
		ID:       uuid.Nil,
		Slug:     "demo",
		Name:     "Demo Organization",
		Plan:     PlanFree,
		Branding: DefaultBranding,
		Features: DefaultFeatures,
	}
}

// BuildOrgConfig merges an Org row with the platform defaults. Each optional
// field defaults independently; a nil Org yields FallbackOrgConfig.
func BuildOrgConfig(o *Org) *OrgConfig {
	if o == nil {
		return FallbackOrgConfig()
	}

	cfg := &OrgConfig{
		ID:   o.ID,
		Slug: o.Slug,
		Name: o.Name,
		Plan: o.Plan,
		Branding: Branding{
			PrimaryColor:   strOr(o.PrimaryColor, DefaultBranding.PrimaryColor),
			SecondaryColor: strOr(o.SecondaryColor, DefaultBranding.SecondaryColor),
			LogoURL:        strOr(o.LogoURL, DefaultBranding.LogoURL),
			FaviconURL:     strOr(o.FaviconURL, DefaultBranding.FaviconURL),
		},
		Features: Features{
			Events:          boolOr(o.FeatureEvents, DefaultFeatures.Events),
			Committees:      boolOr(o.FeatureCommittees, DefaultFeatures.Committees),
			Newsletters:     boolOr(o.FeatureNewsletters, DefaultFeatures.Newsletters),
			Messaging:       boolOr(o.FeatureMessaging, DefaultFeatures.Messaging),
			Volunteers:      boolOr(o.FeatureVolunteers, DefaultFeatures.Volunteers),
			Zoom:            boolOr(o.FeatureZoom, DefaultFeatures.Zoom),
			Documents:       boolOr(o.FeatureDocuments, DefaultFeatures.Documents),
			MemberDirectory: boolOr(o.FeatureMemberDirectory, DefaultFeatures.MemberDirectory),
		},
		CustomDomain: strOr(o.CustomDomain, ""),
	}

	if cfg.Plan == "" {
		cfg.Plan = PlanFree
	}

	return cfg
}

func strOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

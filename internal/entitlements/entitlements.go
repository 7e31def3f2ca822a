// Package entitlements maps org plan tiers to what the org may use: a
// member headcount ceiling and the set of portal features the tier
// includes. The free tier matches the default-on feature flags, so a
// fresh org never starts out over-entitled.
package entitlements

import (
	"errors"
	"slices"

	"github.com/orghub/orghub/internal/domain"
)

//nolint:gochecknoglobals // sentinel error
var ErrMemberLimitReached = errors.New("entitlements: member limit for plan reached")

// Feature names, one per org config feature flag.
const (
	FeatureEvents          = "events"
	FeatureCommittees      = "committees"
	FeatureNewsletters     = "newsletters"
	FeatureMessaging       = "messaging"
	FeatureVolunteers      = "volunteers"
	FeatureZoom            = "zoom"
	FeatureDocuments       = "documents"
	FeatureMemberDirectory = "member_directory"
)

// Entitlements is what a plan tier grants. MaxMembers of 0 means unlimited.
type Entitlements struct {
	Plan       string
	MaxMembers int
	Features   []string
}

//nolint:gochecknoglobals // static tier table
var tiers = map[string]Entitlements{
	domain.PlanFree: {
		Plan:       domain.PlanFree,
		MaxMembers: 50,
		Features: []string{
			FeatureEvents, FeatureCommittees, FeatureMemberDirectory,
		},
	},
	domain.PlanManaged: {
		Plan:       domain.PlanManaged,
		MaxMembers: 500,
		Features: []string{
			FeatureEvents, FeatureCommittees, FeatureMemberDirectory,
			FeatureNewsletters, FeatureVolunteers, FeatureDocuments,
		},
	},
	domain.PlanNetwork: {
		Plan:       domain.PlanNetwork,
		MaxMembers: 0,
		Features: []string{
			FeatureEvents, FeatureCommittees, FeatureMemberDirectory,
			FeatureNewsletters, FeatureVolunteers, FeatureDocuments,
			FeatureMessaging, FeatureZoom,
		},
	},
}

// ForPlan returns the entitlements for a plan tier. Unknown tiers fall
// back to free, so a bad plan value can only under-grant.
func ForPlan(plan string) Entitlements {
	if e, ok := tiers[plan]; ok {
		return e
	}
	return tiers[domain.PlanFree]
}

// HasFeature reports whether the plan includes a feature.
func (e Entitlements) HasFeature(feature string) bool {
	return slices.Contains(e.Features, feature)
}

// MemberCapReached reports whether adding one more member would exceed
// the plan's headcount ceiling.
func (e Entitlements) MemberCapReached(activeMembers int) bool {
	return e.MaxMembers > 0 && activeMembers >= e.MaxMembers
}

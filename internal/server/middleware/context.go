package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/domain"
)

type contextKey string

const (
	ContextKeyOrgID      contextKey = "org_id"
	ContextKeyOrgSlug    contextKey = "org_slug"
	ContextKeyOrgConfig  contextKey = "org_config"
	ContextKeyMemberID   contextKey = "member_id"
	ContextKeyMemberRole contextKey = "role"
)

func OrgIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyOrgID).(uuid.UUID)
	return v, ok
}

func OrgSlugFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyOrgSlug).(string)
	return v, ok
}

func OrgConfigFromContext(ctx context.Context) (*domain.OrgConfig, bool) {
	v, ok := ctx.Value(ContextKeyOrgConfig).(*domain.OrgConfig)
	return v, ok
}

func MemberIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyMemberID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyMemberRole).(string)
	return v, ok
}

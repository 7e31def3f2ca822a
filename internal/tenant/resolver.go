// Package tenant resolves an org slug to a fully-defaulted OrgConfig.
package tenant

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/domain"
)

// Cache is the slug-keyed config cache. *redis.ConfigCache satisfies it;
// a nil Cache disables caching entirely.
type Cache interface {
	Get(ctx context.Context, slug string) (*domain.OrgConfig, error)
	Set(ctx context.Context, slug string, cfg *domain.OrgConfig, updatedAt time.Time) error
	Invalidate(ctx context.Context, slug string) error
}

// Resolver turns a slug into an OrgConfig. Resolution never fails: an empty
// or unknown slug, or a store error, yields the fallback demo config so the
// portal always has branding to render.
type Resolver struct {
	orgs  domain.OrgRepository
	cache Cache
}

func NewResolver(orgs domain.OrgRepository, cache Cache) *Resolver {
	return &Resolver{orgs: orgs, cache: cache}
}

func (r *Resolver) Resolve(ctx context.Context, slug string) *domain.OrgConfig {
	if slug == "" {
		return domain.FallbackOrgConfig()
	}

	if r.cache != nil {
		cfg, err := r.cache.Get(ctx, slug)
		if err == nil {
			return cfg
		}
	}

	org, err := r.orgs.GetBySlug(ctx, slug)
	if err != nil {
		// Deleted or never-existed orgs are an expected case (stale links,
		// probes); they get the fallback, not an error page.
		return domain.FallbackOrgConfig()
	}

	cfg := domain.BuildOrgConfig(org)

	if r.cache != nil {
		if err := r.cache.Set(ctx, slug, cfg, org.UpdatedAt); err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("tenant: config cache write failed")
		}
	}

	return cfg
}

// Invalidate drops the cached config for a slug after a settings write.
func (r *Resolver) Invalidate(ctx context.Context, slug string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, slug); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("tenant: config cache invalidation failed")
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orghub/orghub/internal/domain"
)

type OrgRepo struct {
	pool *pgxpool.Pool
}

func NewOrgRepo(pool *pgxpool.Pool) *OrgRepo {
	return &OrgRepo{pool: pool}
}

const orgColumns = `id, slug, name, plan,
	primary_color, secondary_color, logo_url, favicon_url,
	feature_events, feature_committees, feature_newsletters, feature_messaging,
	feature_volunteers, feature_zoom, feature_documents, feature_member_directory,
	custom_domain, billing_email,
	stripe_publishable_key, stripe_secret_key, stripe_webhook_secret,
	created_at, updated_at`

func scanOrg(row pgx.Row) (*domain.Org, error) {
	var o domain.Org
	err := row.Scan(
		&o.ID, &o.Slug, &o.Name, &o.Plan,
		&o.PrimaryColor, &o.SecondaryColor, &o.LogoURL, &o.FaviconURL,
		&o.FeatureEvents, &o.FeatureCommittees, &o.FeatureNewsletters, &o.FeatureMessaging,
		&o.FeatureVolunteers, &o.FeatureZoom, &o.FeatureDocuments, &o.FeatureMemberDirectory,
		&o.CustomDomain, &o.BillingEmail,
		&o.StripePublishableKey, &o.StripeSecretKey, &o.StripeWebhookSecret,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrgRepo) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO orgs (id, slug, name, plan,
		     primary_color, secondary_color, logo_url, favicon_url,
		     feature_events, feature_committees, feature_newsletters, feature_messaging,
		     feature_volunteers, feature_zoom, feature_documents, feature_member_directory,
		     custom_domain, billing_email,
		     stripe_publishable_key, stripe_secret_key, stripe_webhook_secret,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		         $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		o.ID, o.Slug, o.Name, o.Plan,
		o.PrimaryColor, o.SecondaryColor, o.LogoURL, o.FaviconURL,
		o.FeatureEvents, o.FeatureCommittees, o.FeatureNewsletters, o.FeatureMessaging,
		o.FeatureVolunteers, o.FeatureZoom, o.FeatureDocuments, o.FeatureMemberDirectory,
		o.CustomDomain, o.BillingEmail,
		o.StripePublishableKey, o.StripeSecretKey, o.StripeWebhookSecret,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("orgRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *OrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Org, error) {
	o, err := scanOrg(r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM orgs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("orgRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("orgRepo.GetByID: %w", err)
	}

	return o, nil
}

func (r *OrgRepo) GetBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	o, err := scanOrg(r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM orgs WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("orgRepo.GetBySlug: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("orgRepo.GetBySlug: %w", err)
	}

	return o, nil
}

func (r *OrgRepo) Update(ctx context.Context, o *domain.Org) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orgs SET name = $1,
		     primary_color = $2, secondary_color = $3, logo_url = $4, favicon_url = $5,
		     feature_events = $6, feature_committees = $7, feature_newsletters = $8,
		     feature_messaging = $9, feature_volunteers = $10, feature_zoom = $11,
		     feature_documents = $12, feature_member_directory = $13,
		     custom_domain = $14, billing_email = $15,
		     stripe_publishable_key = $16, stripe_secret_key = $17, stripe_webhook_secret = $18,
		     updated_at = now()
		 WHERE id = $19`,
		o.Name,
		o.PrimaryColor, o.SecondaryColor, o.LogoURL, o.FaviconURL,
		o.FeatureEvents, o.FeatureCommittees, o.FeatureNewsletters,
		o.FeatureMessaging, o.FeatureVolunteers, o.FeatureZoom,
		o.FeatureDocuments, o.FeatureMemberDirectory,
		o.CustomDomain, o.BillingEmail,
		o.StripePublishableKey, o.StripeSecretKey, o.StripeWebhookSecret,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("orgRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orgRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orgs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("orgRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orgRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrgRepo) List(ctx context.Context, limit, offset int) ([]*domain.Org, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM orgs ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("orgRepo.List: %w", err)
	}
	defer rows.Close()

	var orgs []*domain.Org
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("orgRepo.List: scan: %w", err)
		}
		orgs = append(orgs, o)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("orgRepo.List: rows: %w", err)
	}

	return orgs, nil
}

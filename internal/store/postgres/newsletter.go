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

type NewsletterRepo struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepo(pool *pgxpool.Pool) *NewsletterRepo {
	return &NewsletterRepo{pool: pool}
}

const newsletterColumns = `id, org_id, title, slug, content, status,
	published_at, sent_at, created_by, created_at, updated_at`

func scanNewsletter(row pgx.Row) (*domain.Newsletter, error) {
	var n domain.Newsletter
	err := row.Scan(&n.ID, &n.OrgID, &n.Title, &n.Slug, &n.Content, &n.Status,
		&n.PublishedAt, &n.SentAt, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NewsletterRepo) Create(ctx context.Context, n *domain.Newsletter) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO newsletters (id, org_id, title, slug, content, status,
		     published_at, sent_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.OrgID, n.Title, n.Slug, n.Content, n.Status,
		n.PublishedAt, n.SentAt, n.CreatedBy, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("newsletterRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *NewsletterRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Newsletter, error) {
	n, err := scanNewsletter(r.pool.QueryRow(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE org_id = $1 AND id = $2`,
		orgID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("newsletterRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("newsletterRepo.GetByID: %w", err)
	}

	return n, nil
}

func (r *NewsletterRepo) Update(ctx context.Context, n *domain.Newsletter) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE newsletters SET title = $1, slug = $2, content = $3, status = $4,
		     published_at = $5, sent_at = $6, updated_at = now()
		 WHERE org_id = $7 AND id = $8`,
		n.Title, n.Slug, n.Content, n.Status, n.PublishedAt, n.SentAt, n.OrgID, n.ID,
	)
	if err != nil {
		return fmt.Errorf("newsletterRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("newsletterRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *NewsletterRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM newsletters WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("newsletterRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("newsletterRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *NewsletterRepo) List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Newsletter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters
		 WHERE org_id = $1 AND ($2 = false OR status <> 'draft')
		 ORDER BY created_at DESC, id
		 LIMIT 500`,
		orgID, publishedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("newsletterRepo.List: %w", err)
	}
	defer rows.Close()

	var newsletters []*domain.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("newsletterRepo.List: scan: %w", err)
		}
		newsletters = append(newsletters, n)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("newsletterRepo.List: rows: %w", err)
	}

	return newsletters, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orghub/orghub/internal/domain"
)

type InviteRepo struct {
	pool *pgxpool.Pool
}

func NewInviteRepo(pool *pgxpool.Pool) *InviteRepo {
	return &InviteRepo{pool: pool}
}

// Upsert relies on the partial unique index on (org_id, email) WHERE
// accepted_at IS NULL, so two concurrent issuances for the same pair race at
// the constraint instead of leaving two live invites behind. The conflict
// branch replaces the prior live invite wholesale (new token, fresh expiry).
func (r *InviteRepo) Upsert(ctx context.Context, inv *domain.Invite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invites (id, org_id, email, role, token, invited_by, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (org_id, email) WHERE accepted_at IS NULL
		 DO UPDATE SET id = EXCLUDED.id, role = EXCLUDED.role, token = EXCLUDED.token,
		     invited_by = EXCLUDED.invited_by, created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		inv.ID, inv.OrgID, inv.Email, inv.Role, inv.Token,
		inv.InvitedBy, inv.CreatedAt, inv.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inviteRepo.Upsert: %w", conflictErr(err))
	}

	return nil
}

func (r *InviteRepo) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	var inv domain.Invite

	err := r.pool.QueryRow(ctx,
		`SELECT id, org_id, email, role, token, invited_by, created_at, expires_at, accepted_at
		 FROM invites WHERE token = $1`,
		token,
	).Scan(&inv.ID, &inv.OrgID, &inv.Email, &inv.Role, &inv.Token,
		&inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("inviteRepo.GetByToken: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.GetByToken: %w", err)
	}

	return &inv, nil
}

func (r *InviteRepo) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invites SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("inviteRepo.MarkAccepted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inviteRepo.MarkAccepted: %w", domain.ErrConflict)
	}

	return nil
}

func (r *InviteRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Invite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, email, role, token, invited_by, created_at, expires_at, accepted_at
		 FROM invites WHERE org_id = $1 ORDER BY created_at DESC
		 LIMIT 500`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.List: %w", err)
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		var inv domain.Invite
		err = rows.Scan(&inv.ID, &inv.OrgID, &inv.Email, &inv.Role, &inv.Token,
			&inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt)
		if err != nil {
			return nil, fmt.Errorf("inviteRepo.List: scan: %w", err)
		}
		invites = append(invites, &inv)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.List: rows: %w", err)
	}

	return invites, nil
}

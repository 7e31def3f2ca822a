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

type CommitteeRepo struct {
	pool *pgxpool.Pool
}

func NewCommitteeRepo(pool *pgxpool.Pool) *CommitteeRepo {
	return &CommitteeRepo{pool: pool}
}

func (r *CommitteeRepo) Create(ctx context.Context, c *domain.Committee) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO committees (id, org_id, name, slug, description, chair_member_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.OrgID, c.Name, c.Slug, nilIfEmpty(c.Description),
		c.ChairMemberID, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("committeeRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *CommitteeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Committee, error) {
	var c domain.Committee
	var description *string

	err := r.pool.QueryRow(ctx,
		`SELECT id, org_id, name, slug, description, chair_member_id, is_active, created_at, updated_at
		 FROM committees WHERE org_id = $1 AND id = $2`,
		orgID, id,
	).Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &description, &c.ChairMemberID,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("committeeRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("committeeRepo.GetByID: %w", err)
	}

	c.Description = derefStr(description)

	return &c, nil
}

func (r *CommitteeRepo) Update(ctx context.Context, c *domain.Committee) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE committees SET name = $1, slug = $2, description = $3,
		     chair_member_id = $4, is_active = $5, updated_at = now()
		 WHERE org_id = $6 AND id = $7`,
		c.Name, c.Slug, nilIfEmpty(c.Description), c.ChairMemberID, c.IsActive, c.OrgID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("committeeRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("committeeRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CommitteeRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Committee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, name, slug, description, chair_member_id, is_active, created_at, updated_at
		 FROM committees WHERE org_id = $1 ORDER BY name, id`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("committeeRepo.List: %w", err)
	}
	defer rows.Close()

	var committees []*domain.Committee
	for rows.Next() {
		var c domain.Committee
		var description *string

		err = rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Slug, &description,
			&c.ChairMemberID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("committeeRepo.List: scan: %w", err)
		}

		c.Description = derefStr(description)
		committees = append(committees, &c)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("committeeRepo.List: rows: %w", err)
	}

	return committees, nil
}

func (r *CommitteeRepo) AddMember(ctx context.Context, cm *domain.CommitteeMember) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO committee_members (id, org_id, committee_id, member_id, role, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (committee_id, member_id) DO UPDATE SET role = EXCLUDED.role`,
		cm.ID, cm.OrgID, cm.CommitteeID, cm.MemberID, cm.Role, cm.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("committeeRepo.AddMember: %w", err)
	}

	return nil
}

func (r *CommitteeRepo) RemoveMember(ctx context.Context, committeeID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM committee_members WHERE committee_id = $1 AND member_id = $2`,
		committeeID, memberID,
	)
	if err != nil {
		return fmt.Errorf("committeeRepo.RemoveMember: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("committeeRepo.RemoveMember: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CommitteeRepo) ListMembers(ctx context.Context, orgID, committeeID uuid.UUID) ([]*domain.CommitteeMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, committee_id, member_id, role, joined_at
		 FROM committee_members WHERE org_id = $1 AND committee_id = $2 ORDER BY joined_at`,
		orgID, committeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("committeeRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []*domain.CommitteeMember
	for rows.Next() {
		var cm domain.CommitteeMember
		err = rows.Scan(&cm.ID, &cm.OrgID, &cm.CommitteeID, &cm.MemberID, &cm.Role, &cm.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("committeeRepo.ListMembers: scan: %w", err)
		}
		members = append(members, &cm)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("committeeRepo.ListMembers: rows: %w", err)
	}

	return members, nil
}

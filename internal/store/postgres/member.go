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

type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

const memberColumns = `id, org_id, email, full_name, role, phone, avatar_url,
	is_active, dues_paid_through, joined_at, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var phone, avatarURL *string

	err := row.Scan(
		&m.ID, &m.OrgID, &m.Email, &m.FullName, &m.Role, &phone, &avatarURL,
		&m.IsActive, &m.DuesPaidThrough, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Phone = derefStr(phone)
	m.AvatarURL = derefStr(avatarURL)

	return &m, nil
}

func (r *MemberRepo) Create(ctx context.Context, m *domain.Member) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO members (id, org_id, email, full_name, role, phone, avatar_url,
		     is_active, dues_paid_through, joined_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.OrgID, m.Email, m.FullName, m.Role,
		nilIfEmpty(m.Phone), nilIfEmpty(m.AvatarURL),
		m.IsActive, m.DuesPaidThrough, m.JoinedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("memberRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *MemberRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE org_id = $1 AND id = $2`,
		orgID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("memberRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("memberRepo.GetByID: %w", err)
	}

	return m, nil
}

func (r *MemberRepo) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE org_id = $1 AND email = $2`,
		orgID, email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("memberRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("memberRepo.GetByEmail: %w", err)
	}

	return m, nil
}

func (r *MemberRepo) Update(ctx context.Context, m *domain.Member) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE members SET email = $1, full_name = $2, role = $3, phone = $4,
		     avatar_url = $5, is_active = $6, updated_at = now()
		 WHERE org_id = $7 AND id = $8`,
		m.Email, m.FullName, m.Role, nilIfEmpty(m.Phone),
		nilIfEmpty(m.AvatarURL), m.IsActive,
		m.OrgID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("memberRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("memberRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// SetDuesPaidThrough advances the dues watermark. GREATEST keeps the column
// monotonic when webhook events arrive out of order (and ignores the NULL on
// first payment).
func (r *MemberRepo) SetDuesPaidThrough(ctx context.Context, id uuid.UUID, paidThrough time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE members SET dues_paid_through = GREATEST(dues_paid_through, $1), updated_at = now() WHERE id = $2`,
		paidThrough, id,
	)
	if err != nil {
		return fmt.Errorf("memberRepo.SetDuesPaidThrough: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("memberRepo.SetDuesPaidThrough: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MemberRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM members
		 WHERE org_id = $1 ORDER BY full_name, id
		 LIMIT 1000`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("memberRepo.List: %w", err)
	}
	defer rows.Close()

	return collectMembers(rows, "memberRepo.List")
}

func (r *MemberRepo) CountActive(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM members WHERE org_id = $1 AND is_active`,
		orgID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("memberRepo.CountActive: %w", err)
	}

	return n, nil
}

func (r *MemberRepo) ListDuesExpiring(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM members
		 WHERE is_active AND email <> ''
		   AND dues_paid_through BETWEEN $1 AND $2
		 ORDER BY org_id, id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("memberRepo.ListDuesExpiring: %w", err)
	}
	defer rows.Close()

	return collectMembers(rows, "memberRepo.ListDuesExpiring")
}

func collectMembers(rows pgx.Rows, op string) ([]*domain.Member, error) {
	var members []*domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		members = append(members, m)
	}
	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return members, nil
}

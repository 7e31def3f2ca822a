package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Member roles within an org.
const (
	RoleMember         = "member"
	RoleCommitteeChair = "committee_chair"
	RoleBoard          = "board"
	RoleAdmin          = "admin"
)

// ValidRole reports whether r is one of the known member roles.
func ValidRole(r string) bool {
	switch r {
	case RoleMember, RoleCommitteeChair, RoleBoard, RoleAdmin:
		return true
	}
	return false
}

// Account is the identity-store record: one login credential per email,
// shared by nothing else. A Member row in exactly one org references it by
// the same id (Member.ID == Account.ID).
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // argon2id
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Member is an org-scoped profile. DuesPaidThrough is the date through which
// the member's dues are considered paid; it only moves forward on paid
// invoices and is left in place when a subscription is canceled.
type Member struct {
	ID              uuid.UUID
	OrgID           uuid.UUID
	Email           string
	FullName        string
	Role            string
	Phone           string
	AvatarURL       string
	IsActive        bool
	DuesPaidThrough *time.Time // date precision
	JoinedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Member, error)
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*Member, error)
	Update(ctx context.Context, m *Member) error
	// SetDuesPaidThrough advances the dues watermark; it never moves the
	// date backwards, so late-delivered billing events cannot regress it.
	SetDuesPaidThrough(ctx context.Context, id uuid.UUID, paidThrough time.Time) error
	List(ctx context.Context, orgID uuid.UUID) ([]*Member, error)
	// CountActive returns the number of active members in an org. Used to
	// enforce plan headcount ceilings before issuing invites.
	CountActive(ctx context.Context, orgID uuid.UUID) (int, error)
	// ListDuesExpiring returns active members whose DuesPaidThrough falls in
	// [from, to], across all orgs. Used by the renewal reminder sweep.
	ListDuesExpiring(ctx context.Context, from, to time.Time) ([]*Member, error)
}

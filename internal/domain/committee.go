package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Committee struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	Name          string
	Slug          string
	Description   string
	ChairMemberID *uuid.UUID
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CommitteeMember struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	CommitteeID uuid.UUID
	MemberID    uuid.UUID
	Role        string // "chair" or "member"
	JoinedAt    time.Time
}

type CommitteeRepository interface {
	Create(ctx context.Context, c *Committee) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Committee, error)
	Update(ctx context.Context, c *Committee) error
	List(ctx context.Context, orgID uuid.UUID) ([]*Committee, error)
	AddMember(ctx context.Context, cm *CommitteeMember) error
	RemoveMember(ctx context.Context, committeeID, memberID uuid.UUID) error
	ListMembers(ctx context.Context, orgID, committeeID uuid.UUID) ([]*CommitteeMember, error)
}

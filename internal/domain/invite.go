package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InviteTTL is the fixed validity window of an invite, measured from issuance.
const InviteTTL = 7 * 24 * time.Hour

// Invite is a single-use join token scoped to one org and one email.
// Acceptance stamps AcceptedAt and is irreversible; expiry is derived at
// read time from ExpiresAt, never stored as a state.
type Invite struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Email      string
	Role       string
	Token      string
	InvitedBy  *uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
}

// Expired reports whether the invite's validity window has passed at now.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type InviteRepository interface {
	// Upsert replaces the live (unaccepted) invite for (org, email) with inv
	// in a single statement, so concurrent issuance cannot leave two live
	// invites behind. Accepted invites are never touched.
	Upsert(ctx context.Context, inv *Invite) error
	GetByToken(ctx context.Context, token string) (*Invite, error)
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, orgID uuid.UUID) ([]*Invite, error)
}

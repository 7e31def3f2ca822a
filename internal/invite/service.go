// Package invite implements single-use join tokens: issuance with upsert
// semantics (one live invite per org+email) and acceptance with a
// compensating rollback when member creation fails mid-way.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/entitlements"
)

var (
	ErrAlreadyMember = errors.New("invite: email is already an active member")
	ErrInviteInvalid = errors.New("invite: token not found")
	ErrInviteUsed    = errors.New("invite: already accepted")
	ErrInviteExpired = errors.New("invite: expired")
)

// Identity is the slice of the auth service the accept flow needs.
type Identity interface {
	CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	IssueSession(orgID, memberID uuid.UUID, role string) (accessToken, refreshToken string, err error)
}

// Mailer sends the invite email. A nil Mailer disables sending.
type Mailer interface {
	SendInvite(ctx context.Context, toEmail, orgName, joinURL string, expiresAt time.Time) error
}

type Service struct {
	invites  domain.InviteRepository
	members  domain.MemberRepository
	orgs     domain.OrgRepository
	identity Identity
	mailer   Mailer
	joinURL  func(orgSlug, token string) string
	now      func() time.Time
}

func NewService(invites domain.InviteRepository, members domain.MemberRepository, orgs domain.OrgRepository, identity Identity, mailer Mailer, joinURL func(orgSlug, token string) string) *Service {
	return &Service{
		invites:  invites,
		members:  members,
		orgs:     orgs,
		identity: identity,
		mailer:   mailer,
		joinURL:  joinURL,
		now:      time.Now,
	}
}

// Issue creates (or supersedes) the live invite for (org, email). An email
// that already belongs to an active member is rejected; a prior unaccepted
// invite is replaced atomically, fresh token and expiry included, no matter
// whether it had expired. The org's plan headcount ceiling is checked before
// a token is minted.
func (s *Service) Issue(ctx context.Context, orgID uuid.UUID, invitedBy uuid.UUID, email, role string) (*domain.Invite, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("invite.Issue: unknown role %q: %w", role, domain.ErrInvalidInput)
	}

	existing, err := s.members.GetByEmail(ctx, orgID, email)
	if err == nil && existing.IsActive {
		return nil, fmt.Errorf("invite.Issue: %w", ErrAlreadyMember)
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("invite.Issue: %w", err)
	}

	if ent := entitlements.ForPlan(org.Plan); ent.MaxMembers > 0 {
		active, err := s.members.CountActive(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("invite.Issue: %w", err)
		}
		if ent.MemberCapReached(active) {
			return nil, fmt.Errorf("invite.Issue: %w", entitlements.ErrMemberLimitReached)
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite.Issue: %w", err)
	}

	now := s.now()
	inv := &domain.Invite{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Role:      role,
		Token:     token,
		InvitedBy: &invitedBy,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.InviteTTL),
	}

	if err := s.invites.Upsert(ctx, inv); err != nil {
		return nil, fmt.Errorf("invite.Issue: %w", err)
	}

	s.sendInviteMail(ctx, org, inv)

	return inv, nil
}

// sendInviteMail is best-effort: the invite row is already durable and the
// token can be relayed out of band, so a mail failure only logs.
func (s *Service) sendInviteMail(ctx context.Context, org *domain.Org, inv *domain.Invite) {
	if s.mailer == nil {
		return
	}

	url := s.joinURL(org.Slug, inv.Token)
	if err := s.mailer.SendInvite(ctx, inv.Email, org.Name, url, inv.ExpiresAt); err != nil {
		log.Warn().Err(err).Str("email", inv.Email).Msg("invite: email send failed")
	}
}

// AcceptResult is what a successful acceptance hands back to the handler.
type AcceptResult struct {
	OrgSlug      string
	MemberID     uuid.UUID
	AccessToken  string
	RefreshToken string
}

// Accept redeems a token. The three failure modes are distinct so the
// caller can tell a bad link (404) from a reused one (409) from a stale
// one (410). On success the account and member are created together: if
// the member insert fails the just-created account is deleted so a retry
// with the same email can succeed.
func (s *Service) Accept(ctx context.Context, token, fullName, password string) (*AcceptResult, error) {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invite.Accept: %w", ErrInviteInvalid)
		}
		return nil, fmt.Errorf("invite.Accept: %w", err)
	}

	if inv.AcceptedAt != nil {
		return nil, fmt.Errorf("invite.Accept: %w", ErrInviteUsed)
	}

	now := s.now()
	if inv.Expired(now) {
		return nil, fmt.Errorf("invite.Accept: %w", ErrInviteExpired)
	}

	org, err := s.orgs.GetByID(ctx, inv.OrgID)
	if err != nil {
		return nil, fmt.Errorf("invite.Accept: %w", err)
	}

	account, err := s.identity.CreateAccount(ctx, inv.Email, password, fullName)
	if err != nil {
		return nil, fmt.Errorf("invite.Accept: %w", err)
	}

	member := &domain.Member{
		ID:       account.ID,
		OrgID:    inv.OrgID,
		Email:    inv.Email,
		FullName: fullName,
		Role:     inv.Role,
		IsActive: true,
		JoinedAt: &now,
	}

	if err := s.members.Create(ctx, member); err != nil {
		// Compensate: without this the email is burned and the invite can
		// never be retried.
		if delErr := s.identity.DeleteAccount(ctx, account.ID); delErr != nil {
			log.Error().Err(delErr).Str("account_id", account.ID.String()).Msg("invite: compensating account delete failed")
		}
		return nil, fmt.Errorf("invite.Accept: create member: %w", err)
	}

	if err := s.invites.MarkAccepted(ctx, inv.ID, now); err != nil {
		return nil, fmt.Errorf("invite.Accept: mark accepted: %w", err)
	}

	access, refresh, err := s.identity.IssueSession(inv.OrgID, member.ID, member.Role)
	if err != nil {
		return nil, fmt.Errorf("invite.Accept: %w", err)
	}

	return &AcceptResult{
		OrgSlug:      org.Slug,
		MemberID:     member.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// List returns an org's invites, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Invite, error) {
	invs, err := s.invites.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("invite.List: %w", err)
	}
	return invs, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

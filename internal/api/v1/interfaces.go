package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/invite"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Orgs() domain.OrgRepository
	Accounts() domain.AccountRepository
	Members() domain.MemberRepository
	Invites() domain.InviteRepository
	Subscriptions() domain.SubscriptionRepository
	Plans() domain.PlanRepository
	Orders() domain.OrderRepository
	Events() domain.EventRepository
	RSVPs() domain.RSVPRepository
	TicketTypes() domain.TicketTypeRepository
	Newsletters() domain.NewsletterRepository
	Committees() domain.CommitteeRepository
}

// AuthService abstracts identity operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	Login(ctx context.Context, orgID uuid.UUID, email, password string) (accessToken, refreshToken string, err error)
	IssueSession(orgID, memberID uuid.UUID, role string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// InviteService abstracts the invite lifecycle for handler testing.
// *invite.Service satisfies this interface.
type InviteService interface {
	Issue(ctx context.Context, orgID uuid.UUID, invitedBy uuid.UUID, email, role string) (*domain.Invite, error)
	Accept(ctx context.Context, token, fullName, password string) (*invite.AcceptResult, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*domain.Invite, error)
}

// BillingService abstracts checkout/portal session creation for handler
// testing. *billing.StripeClient satisfies this interface.
type BillingService interface {
	MembershipCheckout(ctx context.Context, org *domain.Org, member *domain.Member, plan *domain.MembershipPlan, successURL, cancelURL string) (string, error)
	TicketCheckout(ctx context.Context, org *domain.Org, event *domain.Event, tt *domain.TicketType, memberID *uuid.UUID, quantity int, successURL, cancelURL string) (string, error)
	PortalSession(ctx context.Context, org *domain.Org, memberID uuid.UUID, returnURL string) (string, error)
}

// NewsletterMailer delivers a published newsletter to one recipient.
// *email.Service satisfies this interface.
type NewsletterMailer interface {
	SendNewsletter(ctx context.Context, toEmail, orgName, title, content string) error
}

// CredentialCipher seals Stripe credentials before they are written to
// storage. *secrets.Vault satisfies this interface.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
}

// ConfigInvalidator drops cached org configs after a settings write.
// *tenant.Resolver satisfies this interface.
type ConfigInvalidator interface {
	Invalidate(ctx context.Context, slug string)
	Resolve(ctx context.Context, slug string) *domain.OrgConfig
}

// ReminderRunner runs the dues renewal sweep. *reminder.Service satisfies
// this interface.
type ReminderRunner interface {
	Run(ctx context.Context) (int, error)
}

// publicMember is the directory view of a member; no dues or contact
// details beyond what the roster page shows.
type publicMember struct {
	ID        uuid.UUID  `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
}

func toPublicMember(m *domain.Member) publicMember {
	return publicMember{
		ID:        m.ID,
		FullName:  m.FullName,
		Email:     m.Email,
		Role:      m.Role,
		AvatarURL: m.AvatarURL,
		JoinedAt:  m.JoinedAt,
	}
}

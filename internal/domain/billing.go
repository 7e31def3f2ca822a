package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subscription statuses mirror the payment processor's vocabulary verbatim;
// the reconciler stores whatever the processor reports.
const (
	SubStatusIncomplete = "incomplete"
	SubStatusTrialing   = "trialing"
	SubStatusActive     = "active"
	SubStatusPastDue    = "past_due"
	SubStatusCanceled   = "canceled"
)

// MembershipSubscription tracks one member's recurring-dues subscription.
// Rows are keyed by the processor's subscription id, which is what makes
// webhook redelivery idempotent. LastEventAt carries the timestamp of the
// most recent processor event applied, so stale out-of-order updates can be
// skipped.
type MembershipSubscription struct {
	ID                   uuid.UUID
	OrgID                uuid.UUID
	MemberID             uuid.UUID
	PlanID               uuid.UUID
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     time.Time
	LastEventAt          time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MembershipPlan is an org-defined dues tier linked to a processor price.
type MembershipPlan struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	Name          string
	Description   string
	AmountCents   int64
	Interval      string // "month" or "year"
	StripePriceID string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TicketOrder records a one-time event ticket purchase. Keyed by the
// processor checkout session id for replay safety.
type TicketOrder struct {
	ID                    uuid.UUID
	OrgID                 uuid.UUID
	EventID               uuid.UUID
	MemberID              *uuid.UUID // nil for guest purchases
	TicketTypeID          *uuid.UUID // nil once the ticket type is deleted
	Quantity              int
	AmountCents           int64
	StripeSessionID       string
	StripePaymentIntentID string
	Status                string // "paid", "refunded"
	BuyerEmail            string
	CreatedAt             time.Time
}

type SubscriptionRepository interface {
	// Upsert inserts or overwrites the row keyed by StripeSubscriptionID.
	Upsert(ctx context.Context, s *MembershipSubscription) error
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*MembershipSubscription, error)
	GetByMember(ctx context.Context, orgID, memberID uuid.UUID) (*MembershipSubscription, error)
	UpdatePeriod(ctx context.Context, id uuid.UUID, status string, periodEnd, eventAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, eventAt time.Time) error
}

type PlanRepository interface {
	Create(ctx context.Context, p *MembershipPlan) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*MembershipPlan, error)
	Update(ctx context.Context, p *MembershipPlan) error
	List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*MembershipPlan, error)
}

type OrderRepository interface {
	// Upsert inserts or overwrites the row keyed by StripeSessionID.
	Upsert(ctx context.Context, o *TicketOrder) error
	ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*TicketOrder, error)
}

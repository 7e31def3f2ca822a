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

// --- Membership subscriptions ---

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subColumns = `id, org_id, member_id, plan_id, stripe_customer_id,
	stripe_subscription_id, status, current_period_end, last_event_at,
	created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.MembershipSubscription, error) {
	var s domain.MembershipSubscription
	err := row.Scan(
		&s.ID, &s.OrgID, &s.MemberID, &s.PlanID, &s.StripeCustomerID,
		&s.StripeSubscriptionID, &s.Status, &s.CurrentPeriodEnd, &s.LastEventAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert is keyed by the processor's subscription id. Redelivered webhook
// events converge on the same row, which is the entire idempotency story.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.MembershipSubscription) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO membership_subscriptions
		     (id, org_id, member_id, plan_id, stripe_customer_id,
		      stripe_subscription_id, status, current_period_end, last_event_at,
		      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (stripe_subscription_id)
		 DO UPDATE SET status = EXCLUDED.status,
		     current_period_end = EXCLUDED.current_period_end,
		     stripe_customer_id = EXCLUDED.stripe_customer_id,
		     plan_id = EXCLUDED.plan_id,
		     last_event_at = EXCLUDED.last_event_at,
		     updated_at = now()`,
		s.ID, s.OrgID, s.MemberID, s.PlanID, s.StripeCustomerID,
		s.StripeSubscriptionID, s.Status, s.CurrentPeriodEnd, s.LastEventAt,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Upsert: %w", err)
	}

	return nil
}

func (r *SubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.MembershipSubscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subColumns+` FROM membership_subscriptions WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriptionRepo.GetByStripeID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.GetByStripeID: %w", err)
	}

	return s, nil
}

func (r *SubscriptionRepo) GetByMember(ctx context.Context, orgID, memberID uuid.UUID) (*domain.MembershipSubscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subColumns+` FROM membership_subscriptions
		 WHERE org_id = $1 AND member_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		orgID, memberID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriptionRepo.GetByMember: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.GetByMember: %w", err)
	}

	return s, nil
}

func (r *SubscriptionRepo) UpdatePeriod(ctx context.Context, id uuid.UUID, status string, periodEnd, eventAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE membership_subscriptions
		 SET status = $1, current_period_end = $2, last_event_at = $3, updated_at = now()
		 WHERE id = $4`,
		status, periodEnd, eventAt, id,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.UpdatePeriod: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriptionRepo.UpdatePeriod: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, eventAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE membership_subscriptions
		 SET status = $1, last_event_at = $2, updated_at = now()
		 WHERE id = $3`,
		status, eventAt, id,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriptionRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

// --- Membership plans ---

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

func (r *PlanRepo) Create(ctx context.Context, p *domain.MembershipPlan) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO membership_plans
		     (id, org_id, name, description, amount_cents, interval, stripe_price_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrgID, p.Name, nilIfEmpty(p.Description), p.AmountCents,
		p.Interval, nilIfEmpty(p.StripePriceID), p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("planRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *PlanRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.MembershipPlan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx,
		`SELECT id, org_id, name, description, amount_cents, interval, stripe_price_id, is_active, created_at, updated_at
		 FROM membership_plans WHERE org_id = $1 AND id = $2`,
		orgID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("planRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("planRepo.GetByID: %w", err)
	}

	return p, nil
}

func (r *PlanRepo) Update(ctx context.Context, p *domain.MembershipPlan) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE membership_plans
		 SET name = $1, description = $2, amount_cents = $3, interval = $4,
		     stripe_price_id = $5, is_active = $6, updated_at = now()
		 WHERE org_id = $7 AND id = $8`,
		p.Name, nilIfEmpty(p.Description), p.AmountCents, p.Interval,
		nilIfEmpty(p.StripePriceID), p.IsActive, p.OrgID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("planRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("planRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *PlanRepo) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*domain.MembershipPlan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, name, description, amount_cents, interval, stripe_price_id, is_active, created_at, updated_at
		 FROM membership_plans
		 WHERE org_id = $1 AND ($2 = false OR is_active)
		 ORDER BY amount_cents, id`,
		orgID, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("planRepo.List: %w", err)
	}
	defer rows.Close()

	var plans []*domain.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("planRepo.List: scan: %w", err)
		}
		plans = append(plans, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("planRepo.List: rows: %w", err)
	}

	return plans, nil
}

func scanPlan(row pgx.Row) (*domain.MembershipPlan, error) {
	var p domain.MembershipPlan
	var description, priceID *string

	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &description, &p.AmountCents,
		&p.Interval, &priceID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = derefStr(description)
	p.StripePriceID = derefStr(priceID)

	return &p, nil
}

// --- Ticket orders ---

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Upsert is keyed by the processor's checkout session id.
func (r *OrderRepo) Upsert(ctx context.Context, o *domain.TicketOrder) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ticket_orders
		     (id, org_id, event_id, member_id, ticket_type_id, quantity, amount_cents,
		      stripe_session_id, stripe_payment_intent_id, status, buyer_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (stripe_session_id)
		 DO UPDATE SET status = EXCLUDED.status,
		     stripe_payment_intent_id = EXCLUDED.stripe_payment_intent_id,
		     amount_cents = EXCLUDED.amount_cents`,
		o.ID, o.OrgID, o.EventID, o.MemberID, o.TicketTypeID, o.Quantity, o.AmountCents,
		o.StripeSessionID, nilIfEmpty(o.StripePaymentIntentID), o.Status, o.BuyerEmail, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("orderRepo.Upsert: %w", err)
	}

	return nil
}

func (r *OrderRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, event_id, member_id, ticket_type_id, quantity, amount_cents,
		     stripe_session_id, stripe_payment_intent_id, status, buyer_email, created_at
		 FROM ticket_orders WHERE org_id = $1 AND event_id = $2 ORDER BY created_at`,
		orgID, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("orderRepo.ListByEvent: %w", err)
	}
	defer rows.Close()

	var orders []*domain.TicketOrder
	for rows.Next() {
		var o domain.TicketOrder
		var paymentIntentID *string

		err = rows.Scan(&o.ID, &o.OrgID, &o.EventID, &o.MemberID, &o.TicketTypeID,
			&o.Quantity, &o.AmountCents, &o.StripeSessionID, &paymentIntentID,
			&o.Status, &o.BuyerEmail, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("orderRepo.ListByEvent: scan: %w", err)
		}

		o.StripePaymentIntentID = derefStr(paymentIntentID)
		orders = append(orders, &o)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("orderRepo.ListByEvent: rows: %w", err)
	}

	return orders, nil
}

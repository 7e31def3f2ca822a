// Package billing applies Stripe webhook events to subscription and dues
// state. Every write is an upsert keyed by a Stripe identifier, so event
// redelivery converges instead of double-applying.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"

	"github.com/orghub/orghub/internal/domain"
)

// SubscriptionRetriever fetches a subscription from Stripe with a given
// org's secret key. Split out so reconciler tests never touch the network.
type SubscriptionRetriever interface {
	GetSubscription(ctx context.Context, secretKey, subscriptionID string) (*stripe.Subscription, error)
}

type Reconciler struct {
	subs      domain.SubscriptionRepository
	orders    domain.OrderRepository
	rsvps     domain.RSVPRepository
	members   domain.MemberRepository
	retriever SubscriptionRetriever
}

func NewReconciler(subs domain.SubscriptionRepository, orders domain.OrderRepository, rsvps domain.RSVPRepository, members domain.MemberRepository, retriever SubscriptionRetriever) *Reconciler {
	return &Reconciler{
		subs:      subs,
		orders:    orders,
		rsvps:     rsvps,
		members:   members,
		retriever: retriever,
	}
}

// HandleEvent applies one verified event. Unhandled event kinds return nil:
// the processor should not retry something we deliberately ignore.
func (r *Reconciler) HandleEvent(ctx context.Context, org *domain.Org, event *stripe.Event) error {
	eventAt := time.Unix(event.Created, 0).UTC()

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("billing.HandleEvent: decode checkout session: %w", err)
		}
		return r.handleCheckoutCompleted(ctx, org, &sess, eventAt)

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("billing.HandleEvent: decode invoice: %w", err)
		}
		return r.handleInvoicePaid(ctx, &inv, eventAt)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("billing.HandleEvent: decode subscription: %w", err)
		}
		return r.handleSubscriptionUpdated(ctx, &sub, eventAt)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("billing.HandleEvent: decode subscription: %w", err)
		}
		return r.handleSubscriptionDeleted(ctx, &sub, eventAt)

	default:
		log.Debug().Str("type", string(event.Type)).Msg("billing: event type ignored")
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, org *domain.Org, sess *stripe.CheckoutSession, eventAt time.Time) error {
	switch sess.Mode {
	case stripe.CheckoutSessionModeSubscription:
		return r.handleMembershipCheckout(ctx, org, sess, eventAt)
	case stripe.CheckoutSessionModePayment:
		return r.handleTicketCheckout(ctx, org, sess)
	default:
		return nil
	}
}

func (r *Reconciler) handleMembershipCheckout(ctx context.Context, org *domain.Org, sess *stripe.CheckoutSession, eventAt time.Time) error {
	memberID, err := uuid.Parse(sess.Metadata["member_id"])
	if err != nil {
		log.Warn().Str("session", sess.ID).Msg("billing: subscription checkout without member_id metadata")
		return nil
	}
	planID, err := uuid.Parse(sess.Metadata["plan_id"])
	if err != nil {
		log.Warn().Str("session", sess.ID).Msg("billing: subscription checkout without plan_id metadata")
		return nil
	}
	if sess.Subscription == nil {
		return nil
	}

	secretKey := ""
	if org.StripeSecretKey != nil {
		secretKey = *org.StripeSecretKey
	}

	sub, err := r.retriever.GetSubscription(ctx, secretKey, sess.Subscription.ID)
	if err != nil {
		return fmt.Errorf("billing.handleMembershipCheckout: retrieve subscription: %w", err)
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	rec := &domain.MembershipSubscription{
		ID:                   uuid.New(),
		OrgID:                org.ID,
		MemberID:             memberID,
		PlanID:               planID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     periodEnd,
		LastEventAt:          eventAt,
	}

	if err := r.subs.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("billing.handleMembershipCheckout: %w", err)
	}

	if err := r.members.SetDuesPaidThrough(ctx, memberID, dateOnly(periodEnd)); err != nil {
		return fmt.Errorf("billing.handleMembershipCheckout: set dues: %w", err)
	}

	return nil
}

func (r *Reconciler) handleTicketCheckout(ctx context.Context, org *domain.Org, sess *stripe.CheckoutSession) error {
	eventID, err := uuid.Parse(sess.Metadata["event_id"])
	if err != nil {
		log.Warn().Str("session", sess.ID).Msg("billing: payment checkout without event_id metadata")
		return nil
	}
	ticketTypeID, err := uuid.Parse(sess.Metadata["ticket_type_id"])
	if err != nil {
		log.Warn().Str("session", sess.ID).Msg("billing: payment checkout without ticket_type_id metadata")
		return nil
	}

	var memberID *uuid.UUID
	if id, err := uuid.Parse(sess.Metadata["member_id"]); err == nil {
		memberID = &id
	}

	quantity := 1
	if q, err := parsePositiveInt(sess.Metadata["quantity"]); err == nil {
		quantity = q
	}

	buyerEmail := ""
	if sess.CustomerDetails != nil {
		buyerEmail = sess.CustomerDetails.Email
	}

	paymentIntentID := ""
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}

	order := &domain.TicketOrder{
		ID:                    uuid.New(),
		OrgID:                 org.ID,
		EventID:               eventID,
		MemberID:              memberID,
		TicketTypeID:          &ticketTypeID,
		Quantity:              quantity,
		AmountCents:           sess.AmountTotal,
		StripeSessionID:       sess.ID,
		StripePaymentIntentID: paymentIntentID,
		Status:                "paid",
		BuyerEmail:            buyerEmail,
	}

	if err := r.orders.Upsert(ctx, order); err != nil {
		return fmt.Errorf("billing.handleTicketCheckout: %w", err)
	}

	if memberID != nil {
		rsvp := &domain.EventRSVP{
			ID:       uuid.New(),
			OrgID:    org.ID,
			EventID:  eventID,
			MemberID: *memberID,
			Status:   domain.RSVPAttending,
		}
		if err := r.rsvps.Upsert(ctx, rsvp); err != nil {
			return fmt.Errorf("billing.handleTicketCheckout: rsvp: %w", err)
		}
	}

	return nil
}

func (r *Reconciler) handleInvoicePaid(ctx context.Context, inv *stripe.Invoice, eventAt time.Time) error {
	if inv.Subscription == nil {
		return nil
	}

	rec, err := r.subs.GetByStripeID(ctx, inv.Subscription.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// First invoice can land before checkout.session.completed has
			// created the row; that event will carry the same period end.
			log.Debug().Str("subscription", inv.Subscription.ID).Msg("billing: invoice for unknown subscription ignored")
			return nil
		}
		return fmt.Errorf("billing.handleInvoicePaid: %w", err)
	}

	periodEnd := rec.CurrentPeriodEnd
	if len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Period != nil {
		periodEnd = time.Unix(inv.Lines.Data[0].Period.End, 0).UTC()
	}

	if err := r.subs.UpdatePeriod(ctx, rec.ID, domain.SubStatusActive, periodEnd, eventAt); err != nil {
		return fmt.Errorf("billing.handleInvoicePaid: %w", err)
	}

	if err := r.members.SetDuesPaidThrough(ctx, rec.MemberID, dateOnly(periodEnd)); err != nil {
		return fmt.Errorf("billing.handleInvoicePaid: set dues: %w", err)
	}

	return nil
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	rec, err := r.subs.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("billing.handleSubscriptionUpdated: %w", err)
	}

	// Stripe does not guarantee delivery order; an update event older than
	// the last applied one must not regress status or period end.
	if !eventAt.After(rec.LastEventAt) {
		log.Debug().Str("subscription", sub.ID).Time("event_at", eventAt).Msg("billing: stale subscription update skipped")
		return nil
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	if err := r.subs.UpdatePeriod(ctx, rec.ID, string(sub.Status), periodEnd, eventAt); err != nil {
		return fmt.Errorf("billing.handleSubscriptionUpdated: %w", err)
	}

	return nil
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	rec, err := r.subs.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("billing.handleSubscriptionDeleted: %w", err)
	}

	// DuesPaidThrough stays put: the member keeps the entitlement they
	// already paid for.
	if err := r.subs.UpdateStatus(ctx, rec.ID, domain.SubStatusCanceled, eventAt); err != nil {
		return fmt.Errorf("billing.handleSubscriptionDeleted: %w", err)
	}

	return nil
}

// dateOnly truncates to midnight UTC; the dues watermark has date precision.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}

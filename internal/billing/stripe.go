package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/orghub/orghub/internal/domain"
)

// ErrBillingNotConfigured is returned when an org has no Stripe credentials.
var ErrBillingNotConfigured = errors.New("billing: org has no stripe credentials")

// CredentialOpener unseals Stripe credentials stored encrypted at rest.
// *secrets.Vault satisfies this interface.
type CredentialOpener interface {
	Decrypt(ciphertext string) (string, error)
}

// StripeClient talks to Stripe with per-org secret keys. Each org brings its
// own Stripe account, so a fresh client.API is initialized per call instead
// of using the package-global key.
type StripeClient struct {
	subs  domain.SubscriptionRepository
	creds CredentialOpener
}

func NewStripeClient(subs domain.SubscriptionRepository, creds CredentialOpener) *StripeClient {
	return &StripeClient{subs: subs, creds: creds}
}

func api(secretKey string) *client.API {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return sc
}

func (c *StripeClient) orgSecretKey(org *domain.Org) (string, error) {
	if org.StripeSecretKey == nil || *org.StripeSecretKey == "" {
		return "", ErrBillingNotConfigured
	}

	key, err := c.creds.Decrypt(*org.StripeSecretKey)
	if err != nil {
		return "", fmt.Errorf("billing: unseal secret key for org %s: %w", org.Slug, err)
	}

	return key, nil
}

// GetSubscription implements SubscriptionRetriever.
func (c *StripeClient) GetSubscription(ctx context.Context, secretKey, subscriptionID string) (*stripe.Subscription, error) {
	sub, err := api(secretKey).Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("billing.GetSubscription: %w", err)
	}
	return sub, nil
}

// MembershipCheckout creates a subscription-mode checkout session for a
// member buying a dues plan. The member/plan ids ride in the session
// metadata so the webhook can attribute the completed checkout.
func (c *StripeClient) MembershipCheckout(ctx context.Context, org *domain.Org, member *domain.Member, plan *domain.MembershipPlan, successURL, cancelURL string) (string, error) {
	key, err := c.orgSecretKey(org)
	if err != nil {
		return "", err
	}
	if plan.StripePriceID == "" {
		return "", fmt.Errorf("billing.MembershipCheckout: plan %s has no stripe price: %w", plan.ID, domain.ErrInvalidInput)
	}

	customerID, err := c.findOrCreateCustomer(ctx, key, org.ID, member)
	if err != nil {
		return "", fmt.Errorf("billing.MembershipCheckout: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Params:   stripe.Params{Context: ctx},
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(plan.StripePriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.AddMetadata("org_id", org.ID.String())
	params.AddMetadata("member_id", member.ID.String())
	params.AddMetadata("plan_id", plan.ID.String())

	sess, err := api(key).CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing.MembershipCheckout: %w", err)
	}

	return sess.URL, nil
}

// TicketCheckout creates a payment-mode session for event tickets. Ticket
// prices live in our own tables, so the line item uses inline price data.
func (c *StripeClient) TicketCheckout(ctx context.Context, org *domain.Org, event *domain.Event, tt *domain.TicketType, memberID *uuid.UUID, quantity int, successURL, cancelURL string) (string, error) {
	key, err := c.orgSecretKey(org)
	if err != nil {
		return "", err
	}
	if quantity < 1 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(tt.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s — %s", event.Title, tt.Name)),
				},
			},
			Quantity: stripe.Int64(int64(quantity)),
		}},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.AddMetadata("org_id", org.ID.String())
	params.AddMetadata("event_id", event.ID.String())
	params.AddMetadata("ticket_type_id", tt.ID.String())
	params.AddMetadata("quantity", fmt.Sprintf("%d", quantity))
	if memberID != nil {
		params.AddMetadata("member_id", memberID.String())
	}

	sess, err := api(key).CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing.TicketCheckout: %w", err)
	}

	return sess.URL, nil
}

// PortalSession opens the Stripe billing portal for a member's customer.
// A member with no subscription on file gets ErrNotFound.
func (c *StripeClient) PortalSession(ctx context.Context, org *domain.Org, memberID uuid.UUID, returnURL string) (string, error) {
	key, err := c.orgSecretKey(org)
	if err != nil {
		return "", err
	}

	sub, err := c.subs.GetByMember(ctx, org.ID, memberID)
	if err != nil {
		return "", fmt.Errorf("billing.PortalSession: %w", err)
	}

	sess, err := api(key).BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("billing.PortalSession: %w", err)
	}

	return sess.URL, nil
}

// findOrCreateCustomer reuses the customer id from any prior subscription
// row for the member, creating a Stripe customer only on first checkout.
func (c *StripeClient) findOrCreateCustomer(ctx context.Context, secretKey string, orgID uuid.UUID, member *domain.Member) (string, error) {
	existing, err := c.subs.GetByMember(ctx, orgID, member.ID)
	if err == nil && existing.StripeCustomerID != "" {
		return existing.StripeCustomerID, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	cust, err := api(secretKey).Customers.New(&stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(member.Email),
		Name:   stripe.String(member.FullName),
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}

	return cust.ID, nil
}

package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/billing"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/server/middleware"
)

type CreatePlanInput struct {
	Body struct {
		Name          string `json:"name" minLength:"1" maxLength:"255"`
		Description   string `json:"description,omitempty" maxLength:"2000"`
		AmountCents   int64  `json:"amount_cents" minimum:"0"`
		Interval      string `json:"interval" enum:"month,year"`
		StripePriceID string `json:"stripe_price_id,omitempty" maxLength:"255"`
	}
}

type PlanOutput struct {
	Body *domain.MembershipPlan
}

type ListPlansOutput struct {
	Body []*domain.MembershipPlan
}

type MembershipCheckoutInput struct {
	Body struct {
		PlanID     uuid.UUID `json:"plan_id"`
		SuccessURL string    `json:"success_url" minLength:"1" maxLength:"2048"`
		CancelURL  string    `json:"cancel_url" minLength:"1" maxLength:"2048"`
	}
}

type TicketCheckoutInput struct {
	Body struct {
		EventID      uuid.UUID `json:"event_id"`
		TicketTypeID uuid.UUID `json:"ticket_type_id"`
		Quantity     int       `json:"quantity,omitempty" minimum:"1" default:"1"`
		SuccessURL   string    `json:"success_url" minLength:"1" maxLength:"2048"`
		CancelURL    string    `json:"cancel_url" minLength:"1" maxLength:"2048"`
	}
}

// subscriptionView is the member-facing slice of a subscription; Stripe ids
// stay server-side.
type subscriptionView struct {
	ID               uuid.UUID `json:"id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	PlanID           uuid.UUID `json:"plan_id"`
	PlanName         string    `json:"plan_name,omitempty"`
	AmountCents      int64     `json:"amount_cents,omitempty"`
	Interval         string    `json:"interval,omitempty"`
}

type MySubscriptionOutput struct {
	Body struct {
		Subscription    *subscriptionView `json:"subscription"`
		DuesPaidThrough *time.Time        `json:"dues_paid_through"`
	}
}

type PortalInput struct {
	Body struct {
		ReturnURL string `json:"return_url" minLength:"1" maxLength:"2048"`
	}
}

type CheckoutOutput struct {
	Body struct {
		URL string `json:"url" doc:"Stripe-hosted page to redirect the browser to"`
	}
}

func checkoutOutput(url string) *CheckoutOutput {
	out := &CheckoutOutput{}
	out.Body.URL = url
	return out
}

func RegisterBillingRoutes(api huma.API, store DataStore, billingSvc BillingService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-plan",
		Method:      http.MethodPost,
		Path:        "/org/plans",
		Summary:     "Create a membership plan (admin only)",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *CreatePlanInput) (*PlanOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageBilling) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		now := time.Now()
		p := &domain.MembershipPlan{
			ID:            uuid.New(),
			OrgID:         orgID,
			Name:          input.Body.Name,
			Description:   input.Body.Description,
			AmountCents:   input.Body.AmountCents,
			Interval:      input.Body.Interval,
			StripePriceID: input.Body.StripePriceID,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := store.Plans().Create(ctx, p); err != nil {
			return nil, huma.Error500InternalServerError("failed to create plan", err)
		}

		return &PlanOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/org/plans",
		Summary:     "List the org's active membership plans",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		plans, err := store.Plans().List(ctx, orgID, true)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list plans", err)
		}

		return &ListPlansOutput{Body: plans}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-my-subscription",
		Method:      http.MethodGet,
		Path:        "/membership/subscription",
		Summary:     "Show the caller's dues subscription and paid-through date",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, _ *struct{}) (*MySubscriptionOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		member, err := store.Members().GetByID(ctx, orgID, memberID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load member", err)
		}

		out := &MySubscriptionOutput{}
		out.Body.DuesPaidThrough = member.DuesPaidThrough

		sub, err := store.Subscriptions().GetByMember(ctx, orgID, memberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Members who pay dues offline have a watermark but no
				// subscription row.
				return out, nil
			}
			return nil, huma.Error500InternalServerError("failed to load subscription", err)
		}

		view := &subscriptionView{
			ID:               sub.ID,
			Status:           sub.Status,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
			PlanID:           sub.PlanID,
		}
		if plan, err := store.Plans().GetByID(ctx, orgID, sub.PlanID); err == nil {
			view.PlanName = plan.Name
			view.AmountCents = plan.AmountCents
			view.Interval = plan.Interval
		}
		out.Body.Subscription = view

		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "membership-checkout",
		Method:      http.MethodPost,
		Path:        "/checkout/membership",
		Summary:     "Start a dues checkout for the caller",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *MembershipCheckoutInput) (*CheckoutOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		org, err := store.Orgs().GetByID(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load org", err)
		}

		member, err := store.Members().GetByID(ctx, orgID, memberID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load member", err)
		}

		plan, err := store.Plans().GetByID(ctx, orgID, input.Body.PlanID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("plan not found")
			}
			return nil, huma.Error500InternalServerError("failed to load plan", err)
		}

		url, err := billingSvc.MembershipCheckout(ctx, org, member, plan, input.Body.SuccessURL, input.Body.CancelURL)
		if err != nil {
			if errors.Is(err, billing.ErrBillingNotConfigured) {
				return nil, huma.Error422UnprocessableEntity("billing is not configured for this org")
			}
			return nil, huma.Error500InternalServerError("failed to create checkout session", err)
		}

		return checkoutOutput(url), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ticket-checkout",
		Method:      http.MethodPost,
		Path:        "/checkout/tickets",
		Summary:     "Start an event ticket checkout for the caller",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *TicketCheckoutInput) (*CheckoutOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		org, err := store.Orgs().GetByID(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load org", err)
		}

		event, err := store.Events().GetByID(ctx, orgID, input.Body.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to load event", err)
		}

		tt, err := store.TicketTypes().GetByID(ctx, orgID, input.Body.TicketTypeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ticket type not found")
			}
			return nil, huma.Error500InternalServerError("failed to load ticket type", err)
		}

		url, err := billingSvc.TicketCheckout(ctx, org, event, tt, &memberID, input.Body.Quantity, input.Body.SuccessURL, input.Body.CancelURL)
		if err != nil {
			if errors.Is(err, billing.ErrBillingNotConfigured) {
				return nil, huma.Error422UnprocessableEntity("billing is not configured for this org")
			}
			return nil, huma.Error500InternalServerError("failed to create checkout session", err)
		}

		return checkoutOutput(url), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "billing-portal",
		Method:      http.MethodPost,
		Path:        "/billing/portal",
		Summary:     "Open the Stripe billing portal for the caller",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *PortalInput) (*CheckoutOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		org, err := store.Orgs().GetByID(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load org", err)
		}

		url, err := billingSvc.PortalSession(ctx, org, memberID, input.Body.ReturnURL)
		if err != nil {
			switch {
			case errors.Is(err, billing.ErrBillingNotConfigured):
				return nil, huma.Error422UnprocessableEntity("billing is not configured for this org")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("no subscription on file")
			default:
				return nil, huma.Error500InternalServerError("failed to create portal session", err)
			}
		}

		return checkoutOutput(url), nil
	})
}

package v1_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/orghub/orghub/internal/api/v1"
	"github.com/orghub/orghub/internal/domain"
)

func TestMySubscription(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	memberID := uuid.New()
	planID := uuid.New()

	paidThrough := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	member := &domain.Member{ID: memberID, OrgID: orgID, Email: "m@example.com", IsActive: true, DuesPaidThrough: &paidThrough}

	memberRepo := &mockMemberRepo{
		getByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Member, error) {
			return member, nil
		},
	}

	t.Run("includes_plan_details", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		store := &mockDataStore{
			members: memberRepo,
			subs: &mockSubscriptionRepo{
				getByMemberFunc: func(_ context.Context, gotOrg, gotMember uuid.UUID) (*domain.MembershipSubscription, error) {
					require.Equal(t, orgID, gotOrg)
					require.Equal(t, memberID, gotMember)
					return &domain.MembershipSubscription{
						ID:               uuid.New(),
						OrgID:            orgID,
						MemberID:         memberID,
						PlanID:           planID,
						Status:           domain.SubStatusActive,
						CurrentPeriodEnd: paidThrough,
					}, nil
				},
			},
			plans: &mockPlanRepo{
				getByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.MembershipPlan, error) {
					return &domain.MembershipPlan{ID: planID, OrgID: orgID, Name: "Annual Dues", AmountCents: 12000, Interval: "year"}, nil
				},
			},
		}
		v1.RegisterBillingRoutes(api, store, nil)

		resp := api.GetCtx(memberCtx(orgID, memberID, domain.RoleMember), "/membership/subscription")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"active"`)
		require.Contains(t, resp.Body.String(), "Annual Dues")
		require.Contains(t, resp.Body.String(), "2027-03-01")
	})

	t.Run("offline_payer_has_watermark_only", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		store := &mockDataStore{
			members: memberRepo,
			subs: &mockSubscriptionRepo{
				getByMemberFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.MembershipSubscription, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		v1.RegisterBillingRoutes(api, store, nil)

		resp := api.GetCtx(memberCtx(orgID, memberID, domain.RoleMember), "/membership/subscription")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"subscription":null`)
		require.Contains(t, resp.Body.String(), "2027-03-01")
	})

	t.Run("requires_session", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)
		v1.RegisterBillingRoutes(api, &mockDataStore{}, nil)

		resp := api.Get("/membership/subscription")
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

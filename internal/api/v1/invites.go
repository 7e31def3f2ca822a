package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/entitlements"
	"github.com/orghub/orghub/internal/invite"
	"github.com/orghub/orghub/internal/monitoring"
	"github.com/orghub/orghub/internal/server/middleware"
)

type IssueInviteInput struct {
	Body struct {
		Email string `json:"email" minLength:"3" maxLength:"255" doc:"Invitee email"`
		Role  string `json:"role" enum:"member,committee_chair,board,admin" doc:"Role granted on acceptance"`
	}
}

type inviteView struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

type IssueInviteOutput struct {
	Body inviteView
}

type ListInvitesOutput struct {
	Body []inviteView
}

type AcceptInviteInput struct {
	Body struct {
		Token    string `json:"token" minLength:"1" maxLength:"128" doc:"Invite token from the join link"`
		FullName string `json:"full_name" minLength:"1" maxLength:"255" doc:"Display name"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
	}
}

type AcceptInviteOutput struct {
	Body struct {
		OrgSlug      string `json:"org_slug"`
		AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

func toInviteView(inv *domain.Invite) inviteView {
	return inviteView{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role,
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
	}
}

func RegisterInviteRoutes(api huma.API, invites InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "issue-invite",
		Method:      http.MethodPost,
		Path:        "/org/invites",
		Summary:     "Invite an email to join the caller's org",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, input *IssueInviteInput) (*IssueInviteOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		memberID, _ := middleware.MemberIDFromContext(ctx)
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionInviteMembers) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		inv, err := invites.Issue(ctx, orgID, memberID, input.Body.Email, input.Body.Role)
		if err != nil {
			switch {
			case errors.Is(err, invite.ErrAlreadyMember):
				return nil, huma.Error409Conflict("email is already an active member")
			case errors.Is(err, domain.ErrInvalidInput):
				return nil, huma.Error422UnprocessableEntity("unknown role")
			case errors.Is(err, entitlements.ErrMemberLimitReached):
				return nil, huma.Error422UnprocessableEntity("the org's plan member limit has been reached")
			default:
				return nil, huma.Error500InternalServerError("failed to issue invite", err)
			}
		}

		monitoring.InvitesIssued.Inc()

		return &IssueInviteOutput{Body: toInviteView(inv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invites",
		Method:      http.MethodGet,
		Path:        "/org/invites",
		Summary:     "List the caller's org invites",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, _ *struct{}) (*ListInvitesOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionInviteMembers) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		invs, err := invites.List(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invites", err)
		}

		out := &ListInvitesOutput{Body: make([]inviteView, 0, len(invs))}
		for _, inv := range invs {
			out.Body = append(out.Body, toInviteView(inv))
		}
		return out, nil
	})

}

// RegisterJoinRoutes mounts the invite acceptance endpoint. It lives outside
// the authenticated group: the caller has no session yet.
func RegisterJoinRoutes(api huma.API, invites InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "accept-invite",
		Method:      http.MethodPost,
		Path:        "/join",
		Summary:     "Accept an invite token and create the member account",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, input *AcceptInviteInput) (*AcceptInviteOutput, error) {
		res, err := invites.Accept(ctx, input.Body.Token, input.Body.FullName, input.Body.Password)
		if err != nil {
			switch {
			case errors.Is(err, invite.ErrInviteInvalid):
				return nil, huma.Error404NotFound("invite not found")
			case errors.Is(err, invite.ErrInviteUsed):
				return nil, huma.Error409Conflict("invite has already been used")
			case errors.Is(err, invite.ErrInviteExpired):
				return nil, huma.Error410Gone("invite has expired")
			case errors.Is(err, auth.ErrAccountAlreadyExists):
				return nil, huma.Error409Conflict("an account with this email already exists")
			default:
				return nil, huma.Error500InternalServerError("failed to accept invite", err)
			}
		}

		monitoring.InvitesAccepted.Inc()

		out := &AcceptInviteOutput{}
		out.Body.OrgSlug = res.OrgSlug
		out.Body.AccessToken = res.AccessToken
		out.Body.RefreshToken = res.RefreshToken
		return out, nil
	})
}

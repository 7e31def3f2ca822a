package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/orghub/orghub/internal/api/v1"
	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/entitlements"
	"github.com/orghub/orghub/internal/invite"
)

func TestIssueInvite(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("board_member_can_invite", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		inviterID := uuid.New()
		invites := &mockInviteService{
			issueFunc: func(_ context.Context, gotOrg, gotInviter uuid.UUID, email, role string) (*domain.Invite, error) {
				require.Equal(t, orgID, gotOrg)
				require.Equal(t, inviterID, gotInviter)
				return &domain.Invite{
					ID:        uuid.New(),
					OrgID:     gotOrg,
					Email:     email,
					Role:      role,
					Token:     "tok",
					CreatedAt: time.Now(),
					ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
				}, nil
			},
		}
		v1.RegisterInviteRoutes(api, invites)

		ctx := memberCtx(orgID, inviterID, domain.RoleBoard)
		resp := api.PostCtx(ctx, "/org/invites", map[string]any{
			"email": "new@lakeside.org",
			"role":  "member",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Email string `json:"email"`
			Role  string `json:"role"`
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "new@lakeside.org", body.Email)
		require.Equal(t, "member", body.Role)
		// The raw token only travels in the email, never the API response.
		require.Empty(t, body.Token)
	})

	t.Run("plain_member_forbidden", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, &mockInviteService{})

		ctx := memberCtx(orgID, uuid.New(), domain.RoleMember)
		resp := api.PostCtx(ctx, "/org/invites", map[string]any{
			"email": "new@lakeside.org",
			"role":  "member",
		})
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("missing_session", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, &mockInviteService{})

		resp := api.Post("/org/invites", map[string]any{
			"email": "new@lakeside.org",
			"role":  "member",
		})
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("already_active_member", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		invites := &mockInviteService{
			issueFunc: func(context.Context, uuid.UUID, uuid.UUID, string, string) (*domain.Invite, error) {
				return nil, invite.ErrAlreadyMember
			},
		}
		v1.RegisterInviteRoutes(api, invites)

		resp := api.PostCtx(adminCtx(orgID), "/org/invites", map[string]any{
			"email": "existing@lakeside.org",
			"role":  "member",
		})
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("unknown_role_unprocessable", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		invites := &mockInviteService{
			issueFunc: func(context.Context, uuid.UUID, uuid.UUID, string, string) (*domain.Invite, error) {
				return nil, fmt.Errorf("invite.Issue: role %q: %w", "owner", domain.ErrInvalidInput)
			},
		}
		v1.RegisterInviteRoutes(api, invites)

		resp := api.PostCtx(adminCtx(orgID), "/org/invites", map[string]any{
			"email": "new@lakeside.org",
			"role":  "admin",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("plan_member_limit_unprocessable", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		invites := &mockInviteService{
			issueFunc: func(context.Context, uuid.UUID, uuid.UUID, string, string) (*domain.Invite, error) {
				return nil, fmt.Errorf("invite.Issue: %w", entitlements.ErrMemberLimitReached)
			},
		}
		v1.RegisterInviteRoutes(api, invites)

		resp := api.PostCtx(adminCtx(orgID), "/org/invites", map[string]any{
			"email": "new@lakeside.org",
			"role":  "member",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestListInvites(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("lists_for_board", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		invites := &mockInviteService{
			listFunc: func(_ context.Context, gotOrg uuid.UUID) ([]*domain.Invite, error) {
				require.Equal(t, orgID, gotOrg)
				return []*domain.Invite{
					{ID: uuid.New(), OrgID: orgID, Email: "a@x.co", Role: "member"},
					{ID: uuid.New(), OrgID: orgID, Email: "b@x.co", Role: "board"},
				}, nil
			},
		}
		v1.RegisterInviteRoutes(api, invites)

		resp := api.GetCtx(memberCtx(orgID, uuid.New(), domain.RoleBoard), "/org/invites")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body, 2)
	})

	t.Run("plain_member_forbidden", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, &mockInviteService{})

		resp := api.GetCtx(memberCtx(orgID, uuid.New(), domain.RoleMember), "/org/invites")
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestAcceptInvite(t *testing.T) {
	t.Parallel()

	joinBody := map[string]any{
		"token":     "deadbeef",
		"full_name": "New Member",
		"password":  "correct-horse",
	}

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown_token", invite.ErrInviteInvalid, http.StatusNotFound},
		{"already_used", invite.ErrInviteUsed, http.StatusConflict},
		{"expired", invite.ErrInviteExpired, http.StatusGone},
		{"duplicate_account", auth.ErrAccountAlreadyExists, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, api := humatest.New(t)

			invites := &mockInviteService{
				acceptFunc: func(context.Context, string, string, string) (*invite.AcceptResult, error) {
					return nil, tc.err
				},
			}
			v1.RegisterJoinRoutes(api, invites)

			resp := api.Post("/join", joinBody)
			require.Equal(t, tc.code, resp.Code)
		})
	}

	t.Run("success_returns_session", func(t *testing.T) {
		t.Parallel()
		_, api := humatest.New(t)

		invites := &mockInviteService{
			acceptFunc: func(_ context.Context, token, fullName, password string) (*invite.AcceptResult, error) {
				require.Equal(t, "deadbeef", token)
				require.Equal(t, "New Member", fullName)
				require.Equal(t, "correct-horse", password)
				return &invite.AcceptResult{
					OrgSlug:      "lakeside",
					MemberID:     uuid.New(),
					AccessToken:  "access",
					RefreshToken: "refresh",
				}, nil
			},
		}
		v1.RegisterJoinRoutes(api, invites)

		resp := api.Post("/join", joinBody)
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			OrgSlug      string `json:"org_slug"`
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "lakeside", body.OrgSlug)
		require.Equal(t, "access", body.AccessToken)
		require.Equal(t, "refresh", body.RefreshToken)
	})
}

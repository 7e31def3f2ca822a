package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/server/middleware"
)

type ListMembersOutput struct {
	Body []publicMember
}

type GetMeOutput struct {
	Body struct {
		Member          publicMember `json:"member"`
		DuesPaidThrough *time.Time   `json:"dues_paid_through,omitempty"`
	}
}

type UpdateMeInput struct {
	Body struct {
		FullName  *string `json:"full_name,omitempty" maxLength:"255"`
		Phone     *string `json:"phone,omitempty" maxLength:"32"`
		AvatarURL *string `json:"avatar_url,omitempty" maxLength:"2048"`
	}
}

type UpdateMeOutput struct {
	Body publicMember
}

func RegisterMemberRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/org/members",
		Summary:     "List the org's member directory",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, _ *struct{}) (*ListMembersOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionViewMembers) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		members, err := store.Members().List(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		out := &ListMembersOutput{Body: make([]publicMember, 0, len(members))}
		for _, m := range members {
			if !m.IsActive {
				continue
			}
			out.Body = append(out.Body, toPublicMember(m))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Get the caller's member profile",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, _ *struct{}) (*GetMeOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		m, err := store.Members().GetByID(ctx, orgID, memberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("member not found")
			}
			return nil, huma.Error500InternalServerError("failed to load member", err)
		}

		out := &GetMeOutput{}
		out.Body.Member = toPublicMember(m)
		out.Body.DuesPaidThrough = m.DuesPaidThrough
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPatch,
		Path:        "/me",
		Summary:     "Update the caller's member profile",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *UpdateMeInput) (*UpdateMeOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		m, err := store.Members().GetByID(ctx, orgID, memberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("member not found")
			}
			return nil, huma.Error500InternalServerError("failed to load member", err)
		}

		if input.Body.FullName != nil {
			m.FullName = *input.Body.FullName
		}
		if input.Body.Phone != nil {
			m.Phone = *input.Body.Phone
		}
		if input.Body.AvatarURL != nil {
			m.AvatarURL = *input.Body.AvatarURL
		}
		m.UpdatedAt = time.Now()

		if err := store.Members().Update(ctx, m); err != nil {
			return nil, huma.Error500InternalServerError("failed to update member", err)
		}

		return &UpdateMeOutput{Body: toPublicMember(m)}, nil
	})
}

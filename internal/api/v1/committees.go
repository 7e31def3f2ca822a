package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/server/middleware"
)

type CreateCommitteeInput struct {
	Body struct {
		Name          string     `json:"name" minLength:"1" maxLength:"255"`
		Slug          string     `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$"`
		Description   string     `json:"description,omitempty" maxLength:"10000"`
		ChairMemberID *uuid.UUID `json:"chair_member_id,omitempty"`
	}
}

type CommitteeOutput struct {
	Body *domain.Committee
}

type ListCommitteesOutput struct {
	Body []*domain.Committee
}

type CommitteeMembersInput struct {
	ID uuid.UUID `path:"id" doc:"Committee id"`
}

type ListCommitteeMembersOutput struct {
	Body []*domain.CommitteeMember
}

type AddCommitteeMemberInput struct {
	ID   uuid.UUID `path:"id" doc:"Committee id"`
	Body struct {
		MemberID uuid.UUID `json:"member_id"`
		Role     string    `json:"role,omitempty" enum:"chair,member" default:"member"`
	}
}

type AddCommitteeMemberOutput struct {
	Body *domain.CommitteeMember
}

func RegisterCommitteeRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-committee",
		Method:      http.MethodPost,
		Path:        "/org/committees",
		Summary:     "Create a committee",
		Tags:        []string{"Committees"},
	}, func(ctx context.Context, input *CreateCommitteeInput) (*CommitteeOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageCommittees) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		now := time.Now()
		c := &domain.Committee{
			ID:            uuid.New(),
			OrgID:         orgID,
			Name:          input.Body.Name,
			Slug:          input.Body.Slug,
			Description:   input.Body.Description,
			ChairMemberID: input.Body.ChairMemberID,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := store.Committees().Create(ctx, c); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("committee slug already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create committee", err)
		}

		return &CommitteeOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-committees",
		Method:      http.MethodGet,
		Path:        "/org/committees",
		Summary:     "List the org's committees",
		Tags:        []string{"Committees"},
	}, func(ctx context.Context, _ *struct{}) (*ListCommitteesOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionViewCommittees) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		committees, err := store.Committees().List(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list committees", err)
		}

		return &ListCommitteesOutput{Body: committees}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-committee-members",
		Method:      http.MethodGet,
		Path:        "/org/committees/{id}/members",
		Summary:     "List a committee's members",
		Tags:        []string{"Committees"},
	}, func(ctx context.Context, input *CommitteeMembersInput) (*ListCommitteeMembersOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionViewCommittees) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		members, err := store.Committees().ListMembers(ctx, orgID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list committee members", err)
		}

		return &ListCommitteeMembersOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-committee-member",
		Method:      http.MethodPost,
		Path:        "/org/committees/{id}/members",
		Summary:     "Add a member to a committee",
		Tags:        []string{"Committees"},
	}, func(ctx context.Context, input *AddCommitteeMemberInput) (*AddCommitteeMemberOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageCommittees) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		memberRole := input.Body.Role
		if memberRole == "" {
			memberRole = "member"
		}

		cm := &domain.CommitteeMember{
			ID:          uuid.New(),
			OrgID:       orgID,
			CommitteeID: input.ID,
			MemberID:    input.Body.MemberID,
			Role:        memberRole,
			JoinedAt:    time.Now(),
		}

		if err := store.Committees().AddMember(ctx, cm); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("member already on committee")
			}
			return nil, huma.Error500InternalServerError("failed to add committee member", err)
		}

		return &AddCommitteeMemberOutput{Body: cm}, nil
	})
}

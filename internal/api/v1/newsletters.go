package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/authz"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/server/middleware"
)

type CreateNewsletterInput struct {
	Body struct {
		Title   string `json:"title" minLength:"1" maxLength:"255"`
		Slug    string `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$"`
		Content string `json:"content,omitempty" maxLength:"500000" doc:"HTML body"`
	}
}

type NewsletterOutput struct {
	Body *domain.Newsletter
}

type ListNewslettersInput struct {
	All bool `query:"all" doc:"Include drafts (managers only)"`
}

type ListNewslettersOutput struct {
	Body []*domain.Newsletter
}

type UpdateNewsletterInput struct {
	ID   uuid.UUID `path:"id" doc:"Newsletter id"`
	Body struct {
		Title   *string `json:"title,omitempty" maxLength:"255"`
		Content *string `json:"content,omitempty" maxLength:"500000"`
		// "sent" is not patchable; delivery goes through the send operation.
		Status *string `json:"status,omitempty" enum:"draft,published"`
	}
}

type NewsletterIDInput struct {
	ID uuid.UUID `path:"id" doc:"Newsletter id"`
}

type SendNewsletterOutput struct {
	Body struct {
		Sent int `json:"sent" doc:"Number of members the newsletter was mailed to"`
	}
}

func RegisterNewsletterRoutes(api huma.API, store DataStore, mailer NewsletterMailer) {
	huma.Register(api, huma.Operation{
		OperationID: "create-newsletter",
		Method:      http.MethodPost,
		Path:        "/org/newsletters",
		Summary:     "Create a draft newsletter",
		Tags:        []string{"Newsletters"},
	}, func(ctx context.Context, input *CreateNewsletterInput) (*NewsletterOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageNewsletters) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}
		memberID, _ := middleware.MemberIDFromContext(ctx)

		now := time.Now()
		n := &domain.Newsletter{
			ID:        uuid.New(),
			OrgID:     orgID,
			Title:     input.Body.Title,
			Slug:      input.Body.Slug,
			Content:   input.Body.Content,
			Status:    domain.NewsletterDraft,
			CreatedBy: &memberID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.Newsletters().Create(ctx, n); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("newsletter slug already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create newsletter", err)
		}

		return &NewsletterOutput{Body: n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-newsletters",
		Method:      http.MethodGet,
		Path:        "/org/newsletters",
		Summary:     "List the org's newsletters",
		Tags:        []string{"Newsletters"},
	}, func(ctx context.Context, input *ListNewslettersInput) (*ListNewslettersOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionViewNewsletters) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		publishedOnly := true
		if input.All {
			if !authz.Can(role, authz.ActionManageNewsletters) {
				return nil, huma.Error403Forbidden("insufficient permissions")
			}
			publishedOnly = false
		}

		newsletters, err := store.Newsletters().List(ctx, orgID, publishedOnly)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list newsletters", err)
		}

		return &ListNewslettersOutput{Body: newsletters}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-newsletter",
		Method:      http.MethodPatch,
		Path:        "/org/newsletters/{id}",
		Summary:     "Update a newsletter's content or status",
		Tags:        []string{"Newsletters"},
	}, func(ctx context.Context, input *UpdateNewsletterInput) (*NewsletterOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageNewsletters) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		n, err := store.Newsletters().GetByID(ctx, orgID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("newsletter not found")
			}
			return nil, huma.Error500InternalServerError("failed to load newsletter", err)
		}

		now := time.Now()
		if input.Body.Title != nil {
			n.Title = *input.Body.Title
		}
		if input.Body.Content != nil {
			n.Content = *input.Body.Content
		}
		if input.Body.Status != nil && *input.Body.Status != n.Status {
			if n.Status == domain.NewsletterSent {
				return nil, huma.Error409Conflict("a sent newsletter cannot change status")
			}
			n.Status = *input.Body.Status
			if n.Status == domain.NewsletterPublished {
				n.PublishedAt = &now
			}
		}
		n.UpdatedAt = now

		if err := store.Newsletters().Update(ctx, n); err != nil {
			return nil, huma.Error500InternalServerError("failed to update newsletter", err)
		}

		return &NewsletterOutput{Body: n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-newsletter",
		Method:      http.MethodDelete,
		Path:        "/org/newsletters/{id}",
		Summary:     "Delete a newsletter",
		Tags:        []string{"Newsletters"},
	}, func(ctx context.Context, input *NewsletterIDInput) (*struct{}, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageNewsletters) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		if err := store.Newsletters().Delete(ctx, orgID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("newsletter not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete newsletter", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "send-newsletter",
		Method:      http.MethodPost,
		Path:        "/org/newsletters/{id}/send",
		Summary:     "Email a published newsletter to every active member",
		Tags:        []string{"Newsletters"},
	}, func(ctx context.Context, input *NewsletterIDInput) (*SendNewsletterOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageNewsletters) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		n, err := store.Newsletters().GetByID(ctx, orgID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("newsletter not found")
			}
			return nil, huma.Error500InternalServerError("failed to load newsletter", err)
		}

		if n.Status == domain.NewsletterDraft {
			return nil, huma.Error400BadRequest("publish the newsletter before sending")
		}
		if n.SentAt != nil {
			return nil, huma.Error409Conflict("this newsletter has already been sent")
		}

		org, err := store.Orgs().GetByID(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load org", err)
		}

		members, err := store.Members().List(ctx, orgID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		var recipients []*domain.Member
		for _, m := range members {
			if m.IsActive {
				recipients = append(recipients, m)
			}
		}
		if len(recipients) == 0 {
			return nil, huma.Error400BadRequest("no active members to send to")
		}

		// One bounce should not stop the rest of the roster; failures are
		// logged and skipped, mirroring the renewal reminder sweep.
		sent := 0
		for _, m := range recipients {
			if err := mailer.SendNewsletter(ctx, m.Email, org.Name, n.Title, n.Content); err != nil {
				log.Error().Err(err).Str("org", org.Slug).Str("newsletter", n.ID.String()).Msg("newsletter send failed for recipient")
				continue
			}
			sent++
		}

		now := time.Now()
		n.Status = domain.NewsletterSent
		n.SentAt = &now
		n.UpdatedAt = now
		if err := store.Newsletters().Update(ctx, n); err != nil {
			return nil, huma.Error500InternalServerError("failed to mark newsletter sent", err)
		}

		out := &SendNewsletterOutput{}
		out.Body.Sent = sent
		return out, nil
	})
}

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

type CreateEventInput struct {
	Body struct {
		Title       string     `json:"title" minLength:"1" maxLength:"255"`
		Slug        string     `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$"`
		Description string     `json:"description,omitempty" maxLength:"10000"`
		Location    string     `json:"location,omitempty" maxLength:"255"`
		StartsAt    time.Time  `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at,omitempty"`
		AllDay      bool       `json:"all_day,omitempty"`
		Category    string     `json:"category,omitempty" maxLength:"63"`
		ImageURL    string     `json:"image_url,omitempty" maxLength:"2048"`
		IsPublished bool       `json:"is_published,omitempty"`
		RSVPEnabled bool       `json:"rsvp_enabled,omitempty"`
		RSVPLimit   *int       `json:"rsvp_limit,omitempty" minimum:"1"`
	}
}

type EventOutput struct {
	Body *domain.Event
}

type ListEventsInput struct {
	All bool `query:"all" doc:"Include unpublished events (managers only)"`
}

type ListEventsOutput struct {
	Body []*domain.Event
}

type EventIDInput struct {
	ID uuid.UUID `path:"id" doc:"Event id"`
}

type UpdateEventInput struct {
	ID   uuid.UUID `path:"id" doc:"Event id"`
	Body struct {
		Title       *string    `json:"title,omitempty" maxLength:"255"`
		Description *string    `json:"description,omitempty" maxLength:"10000"`
		Location    *string    `json:"location,omitempty" maxLength:"255"`
		StartsAt    *time.Time `json:"starts_at,omitempty"`
		EndsAt      *time.Time `json:"ends_at,omitempty"`
		Category    *string    `json:"category,omitempty" maxLength:"63"`
		ImageURL    *string    `json:"image_url,omitempty" maxLength:"2048"`
		IsPublished *bool      `json:"is_published,omitempty"`
		RSVPEnabled *bool      `json:"rsvp_enabled,omitempty"`
		RSVPLimit   *int       `json:"rsvp_limit,omitempty" minimum:"1"`
	}
}

type RSVPInput struct {
	ID   uuid.UUID `path:"id" doc:"Event id"`
	Body struct {
		Status string `json:"status" enum:"attending,not_attending,maybe"`
	}
}

type RSVPOutput struct {
	Body *domain.EventRSVP
}

type CreateTicketTypeInput struct {
	ID   uuid.UUID `path:"id" doc:"Event id"`
	Body struct {
		Name        string `json:"name,omitempty" maxLength:"255" default:"General Admission"`
		AmountCents int64  `json:"amount_cents" minimum:"0"`
		Quantity    *int   `json:"quantity,omitempty" minimum:"1" doc:"Tickets available; omit for unlimited"`
	}
}

type TicketTypeOutput struct {
	Body *domain.TicketType
}

type ListTicketTypesOutput struct {
	Body []*domain.TicketType
}

type ListEventRSVPsOutput struct {
	Body []*domain.EventRSVP
}

type ListTicketOrdersOutput struct {
	Body []*domain.TicketOrder
}

func RegisterEventRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-event",
		Method:      http.MethodPost,
		Path:        "/org/events",
		Summary:     "Create an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}
		memberID, _ := middleware.MemberIDFromContext(ctx)

		now := time.Now()
		e := &domain.Event{
			ID:          uuid.New(),
			OrgID:       orgID,
			Title:       input.Body.Title,
			Slug:        input.Body.Slug,
			Description: input.Body.Description,
			Location:    input.Body.Location,
			StartsAt:    input.Body.StartsAt,
			EndsAt:      input.Body.EndsAt,
			AllDay:      input.Body.AllDay,
			Category:    input.Body.Category,
			ImageURL:    input.Body.ImageURL,
			IsPublished: input.Body.IsPublished,
			RSVPEnabled: input.Body.RSVPEnabled,
			RSVPLimit:   input.Body.RSVPLimit,
			CreatedBy:   &memberID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Events().Create(ctx, e); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("event slug already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create event", err)
		}

		return &EventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/org/events",
		Summary:     "List the org's events",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		publishedOnly := true
		if input.All {
			role, _ := middleware.RoleFromContext(ctx)
			if !authz.Can(role, authz.ActionManageEvents) {
				return nil, huma.Error403Forbidden("insufficient permissions")
			}
			publishedOnly = false
		}

		events, err := store.Events().List(ctx, orgID, publishedOnly)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		return &ListEventsOutput{Body: events}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-event",
		Method:      http.MethodPatch,
		Path:        "/org/events/{id}",
		Summary:     "Update an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		e, err := store.Events().GetByID(ctx, orgID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to load event", err)
		}

		b := input.Body
		if b.Title != nil {
			e.Title = *b.Title
		}
		if b.Description != nil {
			e.Description = *b.Description
		}
		if b.Location != nil {
			e.Location = *b.Location
		}
		if b.StartsAt != nil {
			e.StartsAt = *b.StartsAt
		}
		if b.EndsAt != nil {
			e.EndsAt = b.EndsAt
		}
		if b.Category != nil {
			e.Category = *b.Category
		}
		if b.ImageURL != nil {
			e.ImageURL = *b.ImageURL
		}
		if b.IsPublished != nil {
			e.IsPublished = *b.IsPublished
		}
		if b.RSVPEnabled != nil {
			e.RSVPEnabled = *b.RSVPEnabled
		}
		if b.RSVPLimit != nil {
			e.RSVPLimit = b.RSVPLimit
		}
		e.UpdatedAt = time.Now()

		if err := store.Events().Update(ctx, e); err != nil {
			return nil, huma.Error500InternalServerError("failed to update event", err)
		}

		return &EventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-event",
		Method:      http.MethodDelete,
		Path:        "/org/events/{id}",
		Summary:     "Delete an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*struct{}, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		if err := store.Events().Delete(ctx, orgID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete event", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rsvp-event",
		Method:      http.MethodPut,
		Path:        "/org/events/{id}/rsvp",
		Summary:     "Set the caller's RSVP for an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *RSVPInput) (*RSVPOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionRSVPEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		e, err := store.Events().GetByID(ctx, orgID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to load event", err)
		}

		if !e.RSVPEnabled {
			return nil, huma.Error422UnprocessableEntity("RSVPs are not enabled for this event")
		}

		// Capacity only gates new "attending" responses; declines always go
		// through.
		if input.Body.Status == domain.RSVPAttending && e.RSVPLimit != nil {
			count, err := store.RSVPs().CountAttending(ctx, e.ID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to count RSVPs", err)
			}
			if count >= *e.RSVPLimit {
				return nil, huma.Error409Conflict("event is at capacity")
			}
		}

		rsvp := &domain.EventRSVP{
			ID:        uuid.New(),
			OrgID:     orgID,
			EventID:   e.ID,
			MemberID:  memberID,
			Status:    input.Body.Status,
			CreatedAt: time.Now(),
		}

		if err := store.RSVPs().Upsert(ctx, rsvp); err != nil {
			return nil, huma.Error500InternalServerError("failed to save RSVP", err)
		}

		return &RSVPOutput{Body: rsvp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-rsvp",
		Method:      http.MethodDelete,
		Path:        "/org/events/{id}/rsvp",
		Summary:     "Withdraw the caller's RSVP",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*struct{}, error) {
		_, ok := middleware.OrgIDFromContext(ctx)
		memberID, ok2 := middleware.MemberIDFromContext(ctx)
		if !ok || !ok2 {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		if err := store.RSVPs().Delete(ctx, input.ID, memberID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("RSVP not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete RSVP", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-ticket-type",
		Method:      http.MethodPost,
		Path:        "/org/events/{id}/ticket-types",
		Summary:     "Add a ticket tier to an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *CreateTicketTypeInput) (*TicketTypeOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		e, err := store.Events().GetByID(ctx, orgID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to load event", err)
		}

		tt := &domain.TicketType{
			ID:          uuid.New(),
			OrgID:       orgID,
			EventID:     e.ID,
			Name:        input.Body.Name,
			AmountCents: input.Body.AmountCents,
			Quantity:    input.Body.Quantity,
			IsActive:    true,
			CreatedAt:   time.Now(),
		}

		if err := store.TicketTypes().Create(ctx, tt); err != nil {
			return nil, huma.Error500InternalServerError("failed to create ticket type", err)
		}

		return &TicketTypeOutput{Body: tt}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-ticket-types",
		Method:      http.MethodGet,
		Path:        "/org/events/{id}/ticket-types",
		Summary:     "List an event's ticket tiers",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*ListTicketTypesOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		types, err := store.TicketTypes().ListByEvent(ctx, orgID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list ticket types", err)
		}

		// Retired tiers stay visible to event managers only.
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			active := types[:0]
			for _, tt := range types {
				if tt.IsActive {
					active = append(active, tt)
				}
			}
			types = active
		}

		return &ListTicketTypesOutput{Body: types}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-event-rsvps",
		Method:      http.MethodGet,
		Path:        "/org/events/{id}/rsvps",
		Summary:     "List an event's RSVPs (event managers)",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*ListEventRSVPsOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageEvents) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		rsvps, err := store.RSVPs().ListByEvent(ctx, orgID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list RSVPs", err)
		}

		return &ListEventRSVPsOutput{Body: rsvps}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-ticket-orders",
		Method:      http.MethodGet,
		Path:        "/org/events/{id}/orders",
		Summary:     "List an event's ticket orders (billing admins)",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*ListTicketOrdersOutput, error) {
		orgID, ok := middleware.OrgIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		role, _ := middleware.RoleFromContext(ctx)
		if !authz.Can(role, authz.ActionManageBilling) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		orders, err := store.Orders().ListByEvent(ctx, orgID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list ticket orders", err)
		}

		return &ListTicketOrdersOutput{Body: orders}, nil
	})
}

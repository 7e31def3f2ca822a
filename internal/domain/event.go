package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RSVP statuses.
const (
	RSVPAttending    = "attending"
	RSVPNotAttending = "not_attending"
	RSVPMaybe        = "maybe"
)

type Event struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Title       string
	Slug        string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
	AllDay      bool
	Category    string
	ImageURL    string
	IsPublished bool
	RSVPEnabled bool
	RSVPLimit   *int // nil = unlimited
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketType is a purchasable admission tier for an event.
type TicketType struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	EventID     uuid.UUID
	Name        string
	AmountCents int64
	Quantity    *int // nil = unlimited
	IsActive    bool
	CreatedAt   time.Time
}

type EventRSVP struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	EventID   uuid.UUID
	MemberID  uuid.UUID
	Status    string
	CreatedAt time.Time
}

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Event, error)
	GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*Event, error)
}

type RSVPRepository interface {
	// Upsert is keyed by (event, member); repeated RSVPs overwrite status.
	Upsert(ctx context.Context, r *EventRSVP) error
	Delete(ctx context.Context, eventID, memberID uuid.UUID) error
	CountAttending(ctx context.Context, eventID uuid.UUID) (int, error)
	ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*EventRSVP, error)
}

type TicketTypeRepository interface {
	Create(ctx context.Context, t *TicketType) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*TicketType, error)
	ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*TicketType, error)
}

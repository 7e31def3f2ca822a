package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Newsletter statuses.
const (
	NewsletterDraft     = "draft"
	NewsletterPublished = "published"
	NewsletterSent      = "sent"
)

type Newsletter struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Title       string
	Slug        string
	Content     string // HTML body
	Status      string
	PublishedAt *time.Time
	SentAt      *time.Time
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewsletterRepository interface {
	Create(ctx context.Context, n *Newsletter) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Newsletter, error)
	Update(ctx context.Context, n *Newsletter) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*Newsletter, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orghub/orghub/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `id, org_id, title, slug, description, location, starts_at, ends_at,
	all_day, category, image_url, is_published, rsvp_enabled, rsvp_limit,
	created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var description, location, category, imageURL *string

	err := row.Scan(
		&e.ID, &e.OrgID, &e.Title, &e.Slug, &description, &location, &e.StartsAt, &e.EndsAt,
		&e.AllDay, &category, &imageURL, &e.IsPublished, &e.RSVPEnabled, &e.RSVPLimit,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Description = derefStr(description)
	e.Location = derefStr(location)
	e.Category = derefStr(category)
	e.ImageURL = derefStr(imageURL)

	return &e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (id, org_id, title, slug, description, location, starts_at, ends_at,
		     all_day, category, image_url, is_published, rsvp_enabled, rsvp_limit,
		     created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.OrgID, e.Title, e.Slug, nilIfEmpty(e.Description), nilIfEmpty(e.Location),
		e.StartsAt, e.EndsAt, e.AllDay, nilIfEmpty(e.Category), nilIfEmpty(e.ImageURL),
		e.IsPublished, e.RSVPEnabled, e.RSVPLimit, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: %w", conflictErr(err))
	}

	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE org_id = $1 AND id = $2`,
		orgID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("eventRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("eventRepo.GetByID: %w", err)
	}

	return e, nil
}

func (r *EventRepo) GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE org_id = $1 AND slug = $2`,
		orgID, slug,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("eventRepo.GetBySlug: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("eventRepo.GetBySlug: %w", err)
	}

	return e, nil
}

func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET title = $1, slug = $2, description = $3, location = $4,
		     starts_at = $5, ends_at = $6, all_day = $7, category = $8, image_url = $9,
		     is_published = $10, rsvp_enabled = $11, rsvp_limit = $12, updated_at = now()
		 WHERE org_id = $13 AND id = $14`,
		e.Title, e.Slug, nilIfEmpty(e.Description), nilIfEmpty(e.Location),
		e.StartsAt, e.EndsAt, e.AllDay, nilIfEmpty(e.Category), nilIfEmpty(e.ImageURL),
		e.IsPublished, e.RSVPEnabled, e.RSVPLimit, e.OrgID, e.ID,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eventRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *EventRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM events WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("eventRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eventRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *EventRepo) List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE org_id = $1 AND ($2 = false OR is_published)
		 ORDER BY starts_at, id
		 LIMIT 500`,
		orgID, publishedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.List: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("eventRepo.List: scan: %w", err)
		}
		events = append(events, e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("eventRepo.List: rows: %w", err)
	}

	return events, nil
}

// --- RSVPs ---

type RSVPRepo struct {
	pool *pgxpool.Pool
}

func NewRSVPRepo(pool *pgxpool.Pool) *RSVPRepo {
	return &RSVPRepo{pool: pool}
}

func (r *RSVPRepo) Upsert(ctx context.Context, rv *domain.EventRSVP) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_rsvps (id, org_id, event_id, member_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (event_id, member_id)
		 DO UPDATE SET status = EXCLUDED.status`,
		rv.ID, rv.OrgID, rv.EventID, rv.MemberID, rv.Status, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("rsvpRepo.Upsert: %w", err)
	}

	return nil
}

func (r *RSVPRepo) Delete(ctx context.Context, eventID, memberID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM event_rsvps WHERE event_id = $1 AND member_id = $2`,
		eventID, memberID,
	)
	if err != nil {
		return fmt.Errorf("rsvpRepo.Delete: %w", err)
	}

	return nil
}

func (r *RSVPRepo) CountAttending(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM event_rsvps WHERE event_id = $1 AND status = 'attending'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("rsvpRepo.CountAttending: %w", err)
	}

	return n, nil
}

func (r *RSVPRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.EventRSVP, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, event_id, member_id, status, created_at
		 FROM event_rsvps WHERE org_id = $1 AND event_id = $2 ORDER BY created_at`,
		orgID, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("rsvpRepo.ListByEvent: %w", err)
	}
	defer rows.Close()

	var rsvps []*domain.EventRSVP
	for rows.Next() {
		var rv domain.EventRSVP
		err = rows.Scan(&rv.ID, &rv.OrgID, &rv.EventID, &rv.MemberID, &rv.Status, &rv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("rsvpRepo.ListByEvent: scan: %w", err)
		}
		rsvps = append(rsvps, &rv)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rsvpRepo.ListByEvent: rows: %w", err)
	}

	return rsvps, nil
}

// --- Ticket types ---

type TicketTypeRepo struct {
	pool *pgxpool.Pool
}

func NewTicketTypeRepo(pool *pgxpool.Pool) *TicketTypeRepo {
	return &TicketTypeRepo{pool: pool}
}

func (r *TicketTypeRepo) Create(ctx context.Context, t *domain.TicketType) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ticket_types (id, org_id, event_id, name, amount_cents, quantity, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.OrgID, t.EventID, t.Name, t.AmountCents, t.Quantity, t.IsActive, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ticketTypeRepo.Create: %w", err)
	}

	return nil
}

func (r *TicketTypeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.TicketType, error) {
	var t domain.TicketType

	err := r.pool.QueryRow(ctx,
		`SELECT id, org_id, event_id, name, amount_cents, quantity, is_active, created_at
		 FROM ticket_types WHERE org_id = $1 AND id = $2`,
		orgID, id,
	).Scan(&t.ID, &t.OrgID, &t.EventID, &t.Name, &t.AmountCents, &t.Quantity, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ticketTypeRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ticketTypeRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TicketTypeRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, event_id, name, amount_cents, quantity, is_active, created_at
		 FROM ticket_types WHERE org_id = $1 AND event_id = $2 ORDER BY amount_cents, id`,
		orgID, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("ticketTypeRepo.ListByEvent: %w", err)
	}
	defer rows.Close()

	var types []*domain.TicketType
	for rows.Next() {
		var t domain.TicketType
		err = rows.Scan(&t.ID, &t.OrgID, &t.EventID, &t.Name, &t.AmountCents, &t.Quantity, &t.IsActive, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ticketTypeRepo.ListByEvent: scan: %w", err)
		}
		types = append(types, &t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("ticketTypeRepo.ListByEvent: rows: %w", err)
	}

	return types, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orghub/orghub/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	orgs        *OrgRepo
	accounts    *AccountRepo
	members     *MemberRepo
	invites     *InviteRepo
	subs        *SubscriptionRepo
	plans       *PlanRepo
	orders      *OrderRepo
	events      *EventRepo
	rsvps       *RSVPRepo
	ticketTypes *TicketTypeRepo
	newsletters *NewsletterRepo
	committees  *CommitteeRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		orgs:        NewOrgRepo(pool),
		accounts:    NewAccountRepo(pool),
		members:     NewMemberRepo(pool),
		invites:     NewInviteRepo(pool),
		subs:        NewSubscriptionRepo(pool),
		plans:       NewPlanRepo(pool),
		orders:      NewOrderRepo(pool),
		events:      NewEventRepo(pool),
		rsvps:       NewRSVPRepo(pool),
		ticketTypes: NewTicketTypeRepo(pool),
		newsletters: NewNewsletterRepo(pool),
		committees:  NewCommitteeRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Orgs() domain.OrgRepository                  { return s.orgs }
func (s *Store) Accounts() domain.AccountRepository          { return s.accounts }
func (s *Store) Members() domain.MemberRepository            { return s.members }
func (s *Store) Invites() domain.InviteRepository            { return s.invites }
func (s *Store) Subscriptions() domain.SubscriptionRepository { return s.subs }
func (s *Store) Plans() domain.PlanRepository                { return s.plans }
func (s *Store) Orders() domain.OrderRepository              { return s.orders }
func (s *Store) Events() domain.EventRepository              { return s.events }
func (s *Store) RSVPs() domain.RSVPRepository                { return s.rsvps }
func (s *Store) TicketTypes() domain.TicketTypeRepository    { return s.ticketTypes }
func (s *Store) Newsletters() domain.NewsletterRepository    { return s.newsletters }
func (s *Store) Committees() domain.CommitteeRepository      { return s.committees }

// --- Helpers shared by the repos ---

// conflictErr maps a postgres unique violation onto domain.ErrConflict so
// callers can report duplicate slugs/emails without parsing SQLSTATEs.
func conflictErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package v1_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/invite"
	"github.com/orghub/orghub/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject org/member/role into context for DoCtx
// ---------------------------------------------------------------------------

func memberCtx(orgID, memberID uuid.UUID, role string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyOrgID, orgID)
	ctx = context.WithValue(ctx, middleware.ContextKeyMemberID, memberID)
	ctx = context.WithValue(ctx, middleware.ContextKeyMemberRole, role)
	return ctx
}

func adminCtx(orgID uuid.UUID) context.Context {
	return memberCtx(orgID, uuid.New(), domain.RoleAdmin)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	orgs        domain.OrgRepository
	accounts    domain.AccountRepository
	members     domain.MemberRepository
	invites     domain.InviteRepository
	subs        domain.SubscriptionRepository
	plans       domain.PlanRepository
	orders      domain.OrderRepository
	events      domain.EventRepository
	rsvps       domain.RSVPRepository
	ticketTypes domain.TicketTypeRepository
	newsletters domain.NewsletterRepository
	committees  domain.CommitteeRepository
}

func (m *mockDataStore) Orgs() domain.OrgRepository                   { return m.orgs }
func (m *mockDataStore) Accounts() domain.AccountRepository           { return m.accounts }
func (m *mockDataStore) Members() domain.MemberRepository             { return m.members }
func (m *mockDataStore) Invites() domain.InviteRepository             { return m.invites }
func (m *mockDataStore) Subscriptions() domain.SubscriptionRepository { return m.subs }
func (m *mockDataStore) Plans() domain.PlanRepository                 { return m.plans }
func (m *mockDataStore) Orders() domain.OrderRepository               { return m.orders }
func (m *mockDataStore) Events() domain.EventRepository               { return m.events }
func (m *mockDataStore) RSVPs() domain.RSVPRepository                 { return m.rsvps }
func (m *mockDataStore) TicketTypes() domain.TicketTypeRepository     { return m.ticketTypes }
func (m *mockDataStore) Newsletters() domain.NewsletterRepository     { return m.newsletters }
func (m *mockDataStore) Committees() domain.CommitteeRepository       { return m.committees }

// ---------------------------------------------------------------------------
// Mock OrgRepository
// ---------------------------------------------------------------------------

type mockOrgRepo struct {
	createFunc    func(ctx context.Context, o *domain.Org) error
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Org, error)
	getBySlugFunc func(ctx context.Context, slug string) (*domain.Org, error)
	updateFunc    func(ctx context.Context, o *domain.Org) error
	deleteFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockOrgRepo) Create(ctx context.Context, o *domain.Org) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Org, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrgRepo) GetBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockOrgRepo) Update(ctx context.Context, o *domain.Org) error {
	return m.updateFunc(ctx, o)
}

func (m *mockOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockOrgRepo) List(context.Context, int, int) ([]*domain.Org, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Mock MemberRepository
// ---------------------------------------------------------------------------

type mockMemberRepo struct {
	createFunc     func(ctx context.Context, mem *domain.Member) error
	getByIDFunc    func(ctx context.Context, orgID, id uuid.UUID) (*domain.Member, error)
	getByEmailFunc func(ctx context.Context, orgID uuid.UUID, email string) (*domain.Member, error)
	updateFunc     func(ctx context.Context, mem *domain.Member) error
	listFunc       func(ctx context.Context, orgID uuid.UUID) ([]*domain.Member, error)
}

func (m *mockMemberRepo) Create(ctx context.Context, mem *domain.Member) error {
	return m.createFunc(ctx, mem)
}

func (m *mockMemberRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Member, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

func (m *mockMemberRepo) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Member, error) {
	return m.getByEmailFunc(ctx, orgID, email)
}

func (m *mockMemberRepo) Update(ctx context.Context, mem *domain.Member) error {
	return m.updateFunc(ctx, mem)
}

func (m *mockMemberRepo) SetDuesPaidThrough(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (m *mockMemberRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Member, error) {
	return m.listFunc(ctx, orgID)
}

func (m *mockMemberRepo) ListDuesExpiring(context.Context, time.Time, time.Time) ([]*domain.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) CountActive(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

// ---------------------------------------------------------------------------
// Mock EventRepository / RSVPRepository
// ---------------------------------------------------------------------------

type mockEventRepo struct {
	createFunc  func(ctx context.Context, e *domain.Event) error
	getByIDFunc func(ctx context.Context, orgID, id uuid.UUID) (*domain.Event, error)
	updateFunc  func(ctx context.Context, e *domain.Event) error
	deleteFunc  func(ctx context.Context, orgID, id uuid.UUID) error
	listFunc    func(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Event, error)
}

func (m *mockEventRepo) Create(ctx context.Context, e *domain.Event) error {
	return m.createFunc(ctx, e)
}

func (m *mockEventRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Event, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

func (m *mockEventRepo) GetBySlug(context.Context, uuid.UUID, string) (*domain.Event, error) {
	return nil, domain.ErrNotFound
}

func (m *mockEventRepo) Update(ctx context.Context, e *domain.Event) error {
	return m.updateFunc(ctx, e)
}

func (m *mockEventRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.deleteFunc(ctx, orgID, id)
}

func (m *mockEventRepo) List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Event, error) {
	return m.listFunc(ctx, orgID, publishedOnly)
}

type mockRSVPRepo struct {
	upsertFunc         func(ctx context.Context, r *domain.EventRSVP) error
	deleteFunc         func(ctx context.Context, eventID, memberID uuid.UUID) error
	countAttendingFunc func(ctx context.Context, eventID uuid.UUID) (int, error)
	listByEventFunc    func(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.EventRSVP, error)
}

func (m *mockRSVPRepo) Upsert(ctx context.Context, r *domain.EventRSVP) error {
	return m.upsertFunc(ctx, r)
}

func (m *mockRSVPRepo) Delete(ctx context.Context, eventID, memberID uuid.UUID) error {
	return m.deleteFunc(ctx, eventID, memberID)
}

func (m *mockRSVPRepo) CountAttending(ctx context.Context, eventID uuid.UUID) (int, error) {
	return m.countAttendingFunc(ctx, eventID)
}

func (m *mockRSVPRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.EventRSVP, error) {
	if m.listByEventFunc != nil {
		return m.listByEventFunc(ctx, orgID, eventID)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Mock TicketTypeRepository / OrderRepository
// ---------------------------------------------------------------------------

type mockTicketTypeRepo struct {
	createFunc      func(ctx context.Context, t *domain.TicketType) error
	getByIDFunc     func(ctx context.Context, orgID, id uuid.UUID) (*domain.TicketType, error)
	listByEventFunc func(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketType, error)
}

func (m *mockTicketTypeRepo) Create(ctx context.Context, t *domain.TicketType) error {
	return m.createFunc(ctx, t)
}

func (m *mockTicketTypeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.TicketType, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

func (m *mockTicketTypeRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketType, error) {
	return m.listByEventFunc(ctx, orgID, eventID)
}

type mockOrderRepo struct {
	upsertFunc      func(ctx context.Context, o *domain.TicketOrder) error
	listByEventFunc func(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketOrder, error)
}

func (m *mockOrderRepo) Upsert(ctx context.Context, o *domain.TicketOrder) error {
	return m.upsertFunc(ctx, o)
}

func (m *mockOrderRepo) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]*domain.TicketOrder, error) {
	return m.listByEventFunc(ctx, orgID, eventID)
}

// ---------------------------------------------------------------------------
// Mock SubscriptionRepository / PlanRepository
// ---------------------------------------------------------------------------

type mockSubscriptionRepo struct {
	getByMemberFunc func(ctx context.Context, orgID, memberID uuid.UUID) (*domain.MembershipSubscription, error)
}

func (m *mockSubscriptionRepo) Upsert(context.Context, *domain.MembershipSubscription) error {
	return nil
}

func (m *mockSubscriptionRepo) GetByStripeID(context.Context, string) (*domain.MembershipSubscription, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSubscriptionRepo) GetByMember(ctx context.Context, orgID, memberID uuid.UUID) (*domain.MembershipSubscription, error) {
	return m.getByMemberFunc(ctx, orgID, memberID)
}

func (m *mockSubscriptionRepo) UpdatePeriod(context.Context, uuid.UUID, string, time.Time, time.Time) error {
	return nil
}

func (m *mockSubscriptionRepo) UpdateStatus(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}

type mockPlanRepo struct {
	createFunc  func(ctx context.Context, p *domain.MembershipPlan) error
	getByIDFunc func(ctx context.Context, orgID, id uuid.UUID) (*domain.MembershipPlan, error)
	listFunc    func(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*domain.MembershipPlan, error)
}

func (m *mockPlanRepo) Create(ctx context.Context, p *domain.MembershipPlan) error {
	return m.createFunc(ctx, p)
}

func (m *mockPlanRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.MembershipPlan, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

func (m *mockPlanRepo) Update(context.Context, *domain.MembershipPlan) error { return nil }

func (m *mockPlanRepo) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*domain.MembershipPlan, error) {
	return m.listFunc(ctx, orgID, activeOnly)
}

// ---------------------------------------------------------------------------
// Mock NewsletterRepository + mailer
// ---------------------------------------------------------------------------

type mockNewsletterRepo struct {
	createFunc  func(ctx context.Context, n *domain.Newsletter) error
	getByIDFunc func(ctx context.Context, orgID, id uuid.UUID) (*domain.Newsletter, error)
	updateFunc  func(ctx context.Context, n *domain.Newsletter) error
	deleteFunc  func(ctx context.Context, orgID, id uuid.UUID) error
	listFunc    func(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Newsletter, error)
}

func (m *mockNewsletterRepo) Create(ctx context.Context, n *domain.Newsletter) error {
	return m.createFunc(ctx, n)
}

func (m *mockNewsletterRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Newsletter, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

func (m *mockNewsletterRepo) Update(ctx context.Context, n *domain.Newsletter) error {
	return m.updateFunc(ctx, n)
}

func (m *mockNewsletterRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.deleteFunc(ctx, orgID, id)
}

func (m *mockNewsletterRepo) List(ctx context.Context, orgID uuid.UUID, publishedOnly bool) ([]*domain.Newsletter, error) {
	return m.listFunc(ctx, orgID, publishedOnly)
}

type newsletterDelivery struct {
	to    string
	org   string
	title string
}

type mockNewsletterMailer struct {
	sent    []newsletterDelivery
	failFor string
}

func (m *mockNewsletterMailer) SendNewsletter(_ context.Context, toEmail, orgName, title, _ string) error {
	if toEmail == m.failFor {
		return errors.New("ses: bounce")
	}
	m.sent = append(m.sent, newsletterDelivery{to: toEmail, org: orgName, title: title})
	return nil
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	createAccountFunc func(ctx context.Context, email, password, fullName string) (*domain.Account, error)
	deleteAccountFunc func(ctx context.Context, id uuid.UUID) error
	loginFunc         func(ctx context.Context, orgID uuid.UUID, email, password string) (string, string, error)
	refreshFunc       func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error) {
	return m.createAccountFunc(ctx, email, password, fullName)
}

func (m *mockAuthService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if m.deleteAccountFunc != nil {
		return m.deleteAccountFunc(ctx, id)
	}
	return nil
}

func (m *mockAuthService) Login(ctx context.Context, orgID uuid.UUID, email, password string) (string, string, error) {
	return m.loginFunc(ctx, orgID, email, password)
}

func (m *mockAuthService) IssueSession(uuid.UUID, uuid.UUID, string) (string, string, error) {
	return "access-token", "refresh-token", nil
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock InviteService
// ---------------------------------------------------------------------------

type mockInviteService struct {
	issueFunc  func(ctx context.Context, orgID, invitedBy uuid.UUID, email, role string) (*domain.Invite, error)
	acceptFunc func(ctx context.Context, token, fullName, password string) (*invite.AcceptResult, error)
	listFunc   func(ctx context.Context, orgID uuid.UUID) ([]*domain.Invite, error)
}

func (m *mockInviteService) Issue(ctx context.Context, orgID, invitedBy uuid.UUID, email, role string) (*domain.Invite, error) {
	return m.issueFunc(ctx, orgID, invitedBy, email, role)
}

func (m *mockInviteService) Accept(ctx context.Context, token, fullName, password string) (*invite.AcceptResult, error) {
	return m.acceptFunc(ctx, token, fullName, password)
}

func (m *mockInviteService) List(ctx context.Context, orgID uuid.UUID) ([]*domain.Invite, error) {
	return m.listFunc(ctx, orgID)
}

// ---------------------------------------------------------------------------
// Mock ConfigInvalidator
// ---------------------------------------------------------------------------

type mockConfigs struct {
	invalidated []string
	resolveFunc func(ctx context.Context, slug string) *domain.OrgConfig
}

func (m *mockConfigs) Invalidate(_ context.Context, slug string) {
	m.invalidated = append(m.invalidated, slug)
}

func (m *mockConfigs) Resolve(ctx context.Context, slug string) *domain.OrgConfig {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, slug)
	}
	return domain.FallbackOrgConfig()
}

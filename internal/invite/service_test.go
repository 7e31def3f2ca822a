package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/entitlements"
)

type mockInviteRepo struct {
	byToken  map[string]*domain.Invite
	upserted []*domain.Invite
	accepted []uuid.UUID
}

func newMockInviteRepo() *mockInviteRepo {
	return &mockInviteRepo{byToken: map[string]*domain.Invite{}}
}

func (m *mockInviteRepo) Upsert(_ context.Context, inv *domain.Invite) error {
	// Mirror the partial-unique-index semantics: the live invite for
	// (org, email) is replaced, accepted ones stay put.
	for tok, old := range m.byToken {
		if old.OrgID == inv.OrgID && old.Email == inv.Email && old.AcceptedAt == nil {
			delete(m.byToken, tok)
		}
	}
	m.byToken[inv.Token] = inv
	m.upserted = append(m.upserted, inv)
	return nil
}

func (m *mockInviteRepo) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	if inv, ok := m.byToken[token]; ok {
		return inv, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockInviteRepo) MarkAccepted(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, inv := range m.byToken {
		if inv.ID == id {
			if inv.AcceptedAt != nil {
				return domain.ErrConflict
			}
			inv.AcceptedAt = &at
			m.accepted = append(m.accepted, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockInviteRepo) List(_ context.Context, orgID uuid.UUID) ([]*domain.Invite, error) {
	var out []*domain.Invite
	for _, inv := range m.byToken {
		if inv.OrgID == orgID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type mockMemberRepo struct {
	byEmail     map[string]*domain.Member
	createFunc  func(ctx context.Context, m *domain.Member) error
	created     []*domain.Member
	activeCount int
}

func (m *mockMemberRepo) Create(ctx context.Context, mem *domain.Member) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, mem); err != nil {
			return err
		}
	}
	m.created = append(m.created, mem)
	return nil
}

func (m *mockMemberRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.Member, error) {
	return nil, domain.ErrNotFound
}

func (m *mockMemberRepo) GetByEmail(_ context.Context, _ uuid.UUID, email string) (*domain.Member, error) {
	if mem, ok := m.byEmail[email]; ok {
		return mem, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockMemberRepo) Update(context.Context, *domain.Member) error { return nil }
func (m *mockMemberRepo) SetDuesPaidThrough(context.Context, uuid.UUID, time.Time) error {
	return nil
}
func (m *mockMemberRepo) List(context.Context, uuid.UUID) ([]*domain.Member, error) {
	return nil, nil
}
func (m *mockMemberRepo) CountActive(context.Context, uuid.UUID) (int, error) {
	return m.activeCount, nil
}
func (m *mockMemberRepo) ListDuesExpiring(context.Context, time.Time, time.Time) ([]*domain.Member, error) {
	return nil, nil
}

type mockOrgRepo struct {
	org *domain.Org
}

func (m *mockOrgRepo) Create(context.Context, *domain.Org) error { return nil }
func (m *mockOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Org, error) {
	if m.org != nil && m.org.ID == id {
		return m.org, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockOrgRepo) GetBySlug(context.Context, string) (*domain.Org, error) {
	return nil, domain.ErrNotFound
}
func (m *mockOrgRepo) Update(context.Context, *domain.Org) error { return nil }
func (m *mockOrgRepo) Delete(context.Context, uuid.UUID) error   { return nil }
func (m *mockOrgRepo) List(context.Context, int, int) ([]*domain.Org, error) {
	return nil, nil
}

type mockIdentity struct {
	createFunc func(ctx context.Context, email, password, fullName string) (*domain.Account, error)
	deleted    []uuid.UUID
}

func (m *mockIdentity) CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, email, password, fullName)
	}
	return &domain.Account{ID: uuid.New(), Email: email, FullName: fullName}, nil
}

func (m *mockIdentity) DeleteAccount(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockIdentity) IssueSession(uuid.UUID, uuid.UUID, string) (string, string, error) {
	return "access-token", "refresh-token", nil
}

type mockMailer struct {
	sent    []string
	sendErr error
}

func (m *mockMailer) SendInvite(_ context.Context, toEmail, _, _ string, _ time.Time) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, toEmail)
	return nil
}

func testJoinURL(slug, token string) string {
	return "https://" + slug + ".example.org/join?token=" + token
}

func TestIssue(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	org := &domain.Org{ID: orgID, Slug: "elks-672", Name: "Elks Lodge 672"}
	issuer := uuid.New()

	t.Run("active_member_rejected", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{byEmail: map[string]*domain.Member{
			"taken@example.com": {OrgID: orgID, Email: "taken@example.com", IsActive: true},
		}}
		svc := NewService(newMockInviteRepo(), members, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Issue(context.Background(), orgID, issuer, "taken@example.com", domain.RoleMember)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("inactive_member_can_be_reinvited", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{byEmail: map[string]*domain.Member{
			"lapsed@example.com": {OrgID: orgID, Email: "lapsed@example.com", IsActive: false},
		}}
		svc := NewService(newMockInviteRepo(), members, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		inv, err := svc.Issue(context.Background(), orgID, issuer, "lapsed@example.com", domain.RoleMember)
		require.NoError(t, err)
		assert.NotEmpty(t, inv.Token)
	})

	t.Run("expiry_is_seven_days_from_issue", func(t *testing.T) {
		t.Parallel()

		svc := NewService(newMockInviteRepo(), &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)
		issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return issued }

		inv, err := svc.Issue(context.Background(), orgID, issuer, "new@example.com", domain.RoleBoard)
		require.NoError(t, err)
		assert.Equal(t, issued.Add(7*24*time.Hour), inv.ExpiresAt)
		assert.Equal(t, domain.RoleBoard, inv.Role)
	})

	t.Run("reissue_supersedes_prior_invite", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		svc := NewService(invites, &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		first, err := svc.Issue(context.Background(), orgID, issuer, "new@example.com", domain.RoleMember)
		require.NoError(t, err)

		second, err := svc.Issue(context.Background(), orgID, issuer, "new@example.com", domain.RoleMember)
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)

		// The first token is dead, the second one resolves.
		_, err = invites.GetByToken(context.Background(), first.Token)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		got, err := invites.GetByToken(context.Background(), second.Token)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("unknown_role_rejected", func(t *testing.T) {
		t.Parallel()

		svc := NewService(newMockInviteRepo(), &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Issue(context.Background(), orgID, issuer, "x@example.com", "owner")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("plan_member_limit_blocks_invite", func(t *testing.T) {
		t.Parallel()

		full := &domain.Org{ID: orgID, Slug: "elks-672", Name: "Elks Lodge 672", Plan: domain.PlanFree}
		members := &mockMemberRepo{byEmail: map[string]*domain.Member{}, activeCount: 50}
		svc := NewService(newMockInviteRepo(), members, &mockOrgRepo{org: full}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Issue(context.Background(), orgID, issuer, "one-too-many@example.com", domain.RoleMember)
		assert.ErrorIs(t, err, entitlements.ErrMemberLimitReached)
	})

	t.Run("uncapped_plan_ignores_headcount", func(t *testing.T) {
		t.Parallel()

		big := &domain.Org{ID: orgID, Slug: "elks-672", Name: "Elks Lodge 672", Plan: domain.PlanNetwork}
		members := &mockMemberRepo{byEmail: map[string]*domain.Member{}, activeCount: 100000}
		svc := NewService(newMockInviteRepo(), members, &mockOrgRepo{org: big}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Issue(context.Background(), orgID, issuer, "welcome@example.com", domain.RoleMember)
		assert.NoError(t, err)
	})

	t.Run("mail_failure_does_not_fail_issue", func(t *testing.T) {
		t.Parallel()

		mailer := &mockMailer{sendErr: errors.New("ses: throttled")}
		svc := NewService(newMockInviteRepo(), &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, mailer, testJoinURL)

		inv, err := svc.Issue(context.Background(), orgID, issuer, "new@example.com", domain.RoleMember)
		require.NoError(t, err)
		assert.NotEmpty(t, inv.Token)
	})

	t.Run("mail_sent_on_success", func(t *testing.T) {
		t.Parallel()

		mailer := &mockMailer{}
		svc := NewService(newMockInviteRepo(), &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, mailer, testJoinURL)

		_, err := svc.Issue(context.Background(), orgID, issuer, "new@example.com", domain.RoleMember)
		require.NoError(t, err)
		assert.Equal(t, []string{"new@example.com"}, mailer.sent)
	})
}

func TestAccept(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	org := &domain.Org{ID: orgID, Slug: "elks-672", Name: "Elks Lodge 672"}

	seedInvite := func(invites *mockInviteRepo, mutate func(*domain.Invite)) *domain.Invite {
		now := time.Now()
		inv := &domain.Invite{
			ID:        uuid.New(),
			OrgID:     orgID,
			Email:     "joiner@example.com",
			Role:      domain.RoleMember,
			Token:     "tok-" + uuid.NewString(),
			CreatedAt: now,
			ExpiresAt: now.Add(domain.InviteTTL),
		}
		if mutate != nil {
			mutate(inv)
		}
		invites.byToken[inv.Token] = inv
		return inv
	}

	t.Run("unknown_token_is_invalid", func(t *testing.T) {
		t.Parallel()

		svc := NewService(newMockInviteRepo(), &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Accept(context.Background(), "nope", "Joe", "pw")
		assert.ErrorIs(t, err, ErrInviteInvalid)
	})

	t.Run("accepted_token_is_used", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		accepted := time.Now().Add(-time.Hour)
		inv := seedInvite(invites, func(i *domain.Invite) { i.AcceptedAt = &accepted })

		svc := NewService(invites, &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Accept(context.Background(), inv.Token, "Joe", "pw")
		assert.ErrorIs(t, err, ErrInviteUsed)
	})

	t.Run("stale_token_is_expired", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		inv := seedInvite(invites, func(i *domain.Invite) {
			i.ExpiresAt = time.Now().Add(-time.Minute)
		})

		svc := NewService(invites, &mockMemberRepo{byEmail: map[string]*domain.Member{}}, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Accept(context.Background(), inv.Token, "Joe", "pw")
		assert.ErrorIs(t, err, ErrInviteExpired)
	})

	t.Run("success_creates_member_with_invite_role_and_stamps_accepted", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		inv := seedInvite(invites, func(i *domain.Invite) { i.Role = domain.RoleBoard })
		members := &mockMemberRepo{byEmail: map[string]*domain.Member{}}

		svc := NewService(invites, members, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		res, err := svc.Accept(context.Background(), inv.Token, "Joe Joiner", "hunter22")
		require.NoError(t, err)

		assert.Equal(t, "elks-672", res.OrgSlug)
		assert.Equal(t, "access-token", res.AccessToken)
		assert.Equal(t, "refresh-token", res.RefreshToken)

		require.Len(t, members.created, 1)
		created := members.created[0]
		assert.Equal(t, domain.RoleBoard, created.Role)
		assert.Equal(t, "joiner@example.com", created.Email)
		assert.Equal(t, res.MemberID, created.ID)
		assert.True(t, created.IsActive)

		assert.NotNil(t, inv.AcceptedAt, "acceptance must be stamped")
	})

	t.Run("second_accept_of_same_token_fails", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		inv := seedInvite(invites, nil)
		members := &mockMemberRepo{byEmail: map[string]*domain.Member{}}
		svc := NewService(invites, members, &mockOrgRepo{org: org}, &mockIdentity{}, nil, testJoinURL)

		_, err := svc.Accept(context.Background(), inv.Token, "Joe", "pw")
		require.NoError(t, err)

		_, err = svc.Accept(context.Background(), inv.Token, "Joe", "pw")
		assert.ErrorIs(t, err, ErrInviteUsed)
	})

	t.Run("member_create_failure_deletes_account", func(t *testing.T) {
		t.Parallel()

		invites := newMockInviteRepo()
		inv := seedInvite(invites, nil)

		accountID := uuid.New()
		identity := &mockIdentity{
			createFunc: func(_ context.Context, email, _, fullName string) (*domain.Account, error) {
				return &domain.Account{ID: accountID, Email: email, FullName: fullName}, nil
			},
		}
		members := &mockMemberRepo{
			byEmail: map[string]*domain.Member{},
			createFunc: func(context.Context, *domain.Member) error {
				return errors.New("pg: deadlock detected")
			},
		}

		svc := NewService(invites, members, &mockOrgRepo{org: org}, identity, nil, testJoinURL)

		_, err := svc.Accept(context.Background(), inv.Token, "Joe", "pw")
		require.Error(t, err)

		assert.Equal(t, []uuid.UUID{accountID}, identity.deleted, "orphaned account must be removed")
		assert.Nil(t, inv.AcceptedAt, "failed acceptance must leave the invite live")
	})
}

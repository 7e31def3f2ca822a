package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/internal/domain"
)

type mockMemberRepo struct {
	expiring map[int][]*domain.Member // keyed by days-out window start offset
	today    time.Time
}

func (m *mockMemberRepo) Create(context.Context, *domain.Member) error { return nil }
func (m *mockMemberRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.Member, error) {
	return nil, domain.ErrNotFound
}
func (m *mockMemberRepo) GetByEmail(context.Context, uuid.UUID, string) (*domain.Member, error) {
	return nil, domain.ErrNotFound
}
func (m *mockMemberRepo) Update(context.Context, *domain.Member) error { return nil }
func (m *mockMemberRepo) CountActive(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockMemberRepo) SetDuesPaidThrough(context.Context, uuid.UUID, time.Time) error {
	return nil
}
func (m *mockMemberRepo) List(context.Context, uuid.UUID) ([]*domain.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) ListDuesExpiring(_ context.Context, from, _ time.Time) ([]*domain.Member, error) {
	days := int(from.Sub(m.today).Hours() / 24)
	return m.expiring[days], nil
}

type mockOrgRepo struct {
	orgs    map[uuid.UUID]*domain.Org
	lookups int
}

func (m *mockOrgRepo) Create(context.Context, *domain.Org) error { return nil }
func (m *mockOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Org, error) {
	m.lookups++
	if o, ok := m.orgs[id]; ok {
		return o, nil
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

type sentMail struct {
	email    string
	orgName  string
	daysLeft int
}

type mockMailer struct {
	sent    []sentMail
	failFor string
}

func (m *mockMailer) SendRenewalReminder(_ context.Context, toEmail, _, orgName string, _ time.Time, daysLeft int) error {
	if toEmail == m.failFor {
		return errors.New("ses: bounce")
	}
	m.sent = append(m.sent, sentMail{email: toEmail, orgName: orgName, daysLeft: daysLeft})
	return nil
}

func expiringMember(orgID uuid.UUID, email string, paidThrough time.Time) *domain.Member {
	return &domain.Member{
		ID:              uuid.New(),
		OrgID:           orgID,
		Email:           email,
		FullName:        "Member " + email,
		IsActive:        true,
		DuesPaidThrough: &paidThrough,
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	orgID := uuid.New()
	org := &domain.Org{ID: orgID, Name: "Elks Lodge 672"}

	t.Run("sends_for_both_windows", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{
			today: today,
			expiring: map[int][]*domain.Member{
				30: {expiringMember(orgID, "thirty@example.com", today.AddDate(0, 0, 30))},
				7:  {expiringMember(orgID, "seven@example.com", today.AddDate(0, 0, 7))},
			},
		}
		mailer := &mockMailer{}
		svc := NewService(members, &mockOrgRepo{orgs: map[uuid.UUID]*domain.Org{orgID: org}}, mailer)
		svc.now = func() time.Time { return today.Add(10 * time.Hour) }

		sent, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, sent)

		require.Len(t, mailer.sent, 2)
		assert.Equal(t, sentMail{"thirty@example.com", "Elks Lodge 672", 30}, mailer.sent[0])
		assert.Equal(t, sentMail{"seven@example.com", "Elks Lodge 672", 7}, mailer.sent[1])
	})

	t.Run("send_failure_does_not_stop_sweep", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{
			today: today,
			expiring: map[int][]*domain.Member{
				7: {
					expiringMember(orgID, "bad@example.com", today.AddDate(0, 0, 7)),
					expiringMember(orgID, "good@example.com", today.AddDate(0, 0, 7)),
				},
			},
		}
		mailer := &mockMailer{failFor: "bad@example.com"}
		svc := NewService(members, &mockOrgRepo{orgs: map[uuid.UUID]*domain.Org{orgID: org}}, mailer)
		svc.now = func() time.Time { return today }

		sent, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("org_lookups_are_cached_per_sweep", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{
			today: today,
			expiring: map[int][]*domain.Member{
				7: {
					expiringMember(orgID, "a@example.com", today.AddDate(0, 0, 7)),
					expiringMember(orgID, "b@example.com", today.AddDate(0, 0, 7)),
					expiringMember(orgID, "c@example.com", today.AddDate(0, 0, 7)),
				},
			},
		}
		orgs := &mockOrgRepo{orgs: map[uuid.UUID]*domain.Org{orgID: org}}
		svc := NewService(members, orgs, &mockMailer{})
		svc.now = func() time.Time { return today }

		sent, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, sent)
		assert.Equal(t, 1, orgs.lookups)
	})

	t.Run("empty_windows_send_nothing", func(t *testing.T) {
		t.Parallel()

		members := &mockMemberRepo{today: today, expiring: map[int][]*domain.Member{}}
		svc := NewService(members, &mockOrgRepo{orgs: map[uuid.UUID]*domain.Org{}}, &mockMailer{})
		svc.now = func() time.Time { return today }

		sent, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, sent)
	})
}

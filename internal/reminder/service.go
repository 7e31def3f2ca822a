// Package reminder runs the dues renewal sweep: members whose paid-through
// date lands roughly 30 or 7 days out get a nudge email. Triggered by an
// external scheduler hitting the cron endpoint.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/domain"
)

// Reminder windows, in days before the paid-through date.
var windows = []int{30, 7}

// Mailer sends the reminder. *email.Service satisfies it.
type Mailer interface {
	SendRenewalReminder(ctx context.Context, toEmail, memberName, orgName string, paidThrough time.Time, daysLeft int) error
}

type Service struct {
	members domain.MemberRepository
	orgs    domain.OrgRepository
	mailer  Mailer
	now     func() time.Time
}

func NewService(members domain.MemberRepository, orgs domain.OrgRepository, mailer Mailer) *Service {
	return &Service{
		members: members,
		orgs:    orgs,
		mailer:  mailer,
		now:     time.Now,
	}
}

// Run executes one sweep and returns how many reminders went out. A send
// failure for one member is logged and skipped; the sweep keeps going so a
// single bad address cannot starve everyone behind it.
func (s *Service) Run(ctx context.Context) (int, error) {
	today := dateOnly(s.now())
	sent := 0
	orgNames := map[uuid.UUID]string{}

	for _, days := range windows {
		target := today.AddDate(0, 0, days)

		members, err := s.members.ListDuesExpiring(ctx, target, target.AddDate(0, 0, 1).Add(-time.Second))
		if err != nil {
			return sent, fmt.Errorf("reminder.Run: window %dd: %w", days, err)
		}

		for _, m := range members {
			if m.DuesPaidThrough == nil {
				continue
			}

			orgName, ok := orgNames[m.OrgID]
			if !ok {
				org, err := s.orgs.GetByID(ctx, m.OrgID)
				if err != nil {
					log.Warn().Err(err).Str("org_id", m.OrgID.String()).Msg("reminder: org lookup failed")
					continue
				}
				orgName = org.Name
				orgNames[m.OrgID] = orgName
			}

			if err := s.mailer.SendRenewalReminder(ctx, m.Email, m.FullName, orgName, *m.DuesPaidThrough, days); err != nil {
				log.Warn().Err(err).Str("email", m.Email).Int("days", days).Msg("reminder: send failed")
				continue
			}
			sent++
		}
	}

	log.Info().Int("sent", sent).Msg("reminder: sweep complete")
	return sent, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package email sends transactional mail through Amazon SES. When no from
// address is configured the service runs disabled and every send becomes a
// logged no-op, which keeps local development free of AWS credentials.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

type Service struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

func NewService(ctx context.Context, awsRegion, fromEmail, fromName string) (*Service, error) {
	if fromEmail == "" {
		log.Info().Msg("email: service disabled, from address not configured")
		return &Service{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("email.NewService: load aws config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("email: service enabled")

	return &Service{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

func (s *Service) Enabled() bool { return s.enabled }

// SendInvite mails a join link for an org. joinURL already carries the token.
func (s *Service) SendInvite(ctx context.Context, toEmail, orgName, joinURL string, expiresAt time.Time) error {
	subject := fmt.Sprintf("You're invited to join %s", orgName)

	htmlBody := fmt.Sprintf(`<p>You've been invited to join <strong>%s</strong>.</p>
<p><a href="%s">Accept your invitation</a></p>
<p>This invitation expires on %s.</p>
<p>If you weren't expecting this, you can ignore this email.</p>`,
		orgName, joinURL, expiresAt.Format("January 2, 2006"))

	textBody := fmt.Sprintf(`You've been invited to join %s.

Accept your invitation: %s

This invitation expires on %s.

If you weren't expecting this, you can ignore this email.`,
		orgName, joinURL, expiresAt.Format("January 2, 2006"))

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendRenewalReminder nudges a member whose dues lapse in daysLeft days.
func (s *Service) SendRenewalReminder(ctx context.Context, toEmail, memberName, orgName string, paidThrough time.Time, daysLeft int) error {
	subject := fmt.Sprintf("Your %s membership expires in %d days", orgName, daysLeft)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your membership with <strong>%s</strong> is paid through %s and will lapse in %d days.</p>
<p>Renew from your member dashboard to keep your access uninterrupted.</p>`,
		memberName, orgName, paidThrough.Format("January 2, 2006"), daysLeft)

	textBody := fmt.Sprintf(`Hi %s,

Your membership with %s is paid through %s and will lapse in %d days.

Renew from your member dashboard to keep your access uninterrupted.`,
		memberName, orgName, paidThrough.Format("January 2, 2006"), daysLeft)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendNewsletter delivers one published newsletter to one member. content is
// the newsletter's HTML body.
func (s *Service) SendNewsletter(ctx context.Context, toEmail, orgName, title, content string) error {
	htmlBody := fmt.Sprintf(`<p style="text-transform:uppercase;color:#9ca3af;font-size:0.8rem;">%s</p>
<h1>%s</h1>
%s
<hr>
<p style="color:#9ca3af;font-size:0.8rem;">You're receiving this as a member of %s.</p>`,
		orgName, title, content, orgName)

	textBody := fmt.Sprintf(`%s — %s

Read this newsletter in your member portal.

You're receiving this as a member of %s.`, orgName, title, orgName)

	return s.send(ctx, toEmail, title, htmlBody, textBody)
}

func (s *Service) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		log.Debug().Str("to", toEmail).Str("subject", subject).Msg("email: send skipped, service disabled")
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email.send: to %s: %w", toEmail, err)
	}

	log.Info().Str("to", toEmail).Str("subject", subject).Msg("email: sent")
	return nil
}

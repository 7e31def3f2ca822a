package v1

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

type RenewalRemindersInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token matching the configured cron secret"`
}

type RenewalRemindersOutput struct {
	Body struct {
		Sent int `json:"sent"`
	}
}

// RegisterCronRoutes mounts the scheduler-triggered endpoints. They sit on
// the API surface but authenticate with a shared secret, not a session.
func RegisterCronRoutes(api huma.API, cronSecret string, reminders ReminderRunner) {
	huma.Register(api, huma.Operation{
		OperationID: "renewal-reminders",
		Method:      http.MethodGet,
		Path:        "/cron/renewal-reminders",
		Summary:     "Run the dues renewal reminder sweep",
		Tags:        []string{"Cron"},
	}, func(ctx context.Context, input *RenewalRemindersInput) (*RenewalRemindersOutput, error) {
		if cronSecret == "" || !validCronAuth(input.Authorization, cronSecret) {
			return nil, huma.Error401Unauthorized("invalid cron secret")
		}

		sent, err := reminders.Run(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("reminder sweep failed", err)
		}

		out := &RenewalRemindersOutput{}
		out.Body.Sent = sent
		return out, nil
	})
}

func validCronAuth(header, secret string) bool {
	if len(header) < 8 || !strings.EqualFold(header[:7], "bearer ") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header[7:]), []byte(secret)) == 1
}

package v1

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/domain"
)

type RegisterOrgInput struct {
	Body struct {
		OrgName  string `json:"org_name" minLength:"1" maxLength:"255" doc:"Organization display name"`
		OrgSlug  string `json:"org_slug,omitempty" maxLength:"63" doc:"Desired subdomain slug; derived from the name when omitted"`
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"Admin email"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
		FullName string `json:"full_name" minLength:"1" maxLength:"255" doc:"Admin display name"`
	}
}

type RegisterOrgOutput struct {
	Body struct {
		Org          *domain.OrgConfig `json:"org"`
		AccessToken  string            `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string            `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type LoginInput struct {
	Body struct {
		OrgSlug  string `json:"org_slug" minLength:"1" maxLength:"63" doc:"Org slug"`
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"Member email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
	}
}

type LoginOutput struct {
	Body struct {
		AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	}
}

var slugScrub = regexp.MustCompile(`[^a-z0-9-]+`)

// sanitizeSlug turns a display name or requested slug into a subdomain-safe
// identifier.
func sanitizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugScrub.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}

func RegisterAuthRoutes(api huma.API, store DataStore, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "register-org",
		Method:      http.MethodPost,
		Path:        "/register",
		Summary:     "Register a new organization with its admin member",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterOrgInput) (*RegisterOrgOutput, error) {
		slug := sanitizeSlug(input.Body.OrgSlug)
		if slug == "" {
			slug = sanitizeSlug(input.Body.OrgName)
		}
		if slug == "" || slug == "www" || slug == "demo" {
			return nil, huma.Error422UnprocessableEntity("org slug is not usable")
		}

		account, err := authSvc.CreateAccount(ctx, input.Body.Email, input.Body.Password, input.Body.FullName)
		if err != nil {
			if errors.Is(err, auth.ErrAccountAlreadyExists) {
				return nil, huma.Error409Conflict("an account with this email already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create account", err)
		}

		now := time.Now()
		org := &domain.Org{
			ID:        uuid.New(),
			Slug:      slug,
			Name:      input.Body.OrgName,
			Plan:      domain.PlanFree,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.Orgs().Create(ctx, org); err != nil {
			// The slug race loses at the unique constraint; roll the account
			// back so the email stays usable.
			if delErr := authSvc.DeleteAccount(ctx, account.ID); delErr != nil {
				log.Error().Err(delErr).Str("account_id", account.ID.String()).Msg("register: compensating account delete failed")
			}
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("org slug already taken")
			}
			return nil, huma.Error500InternalServerError("failed to create org", err)
		}

		member := &domain.Member{
			ID:       account.ID,
			OrgID:    org.ID,
			Email:    account.Email,
			FullName: account.FullName,
			Role:     domain.RoleAdmin,
			IsActive: true,
			JoinedAt: &now,
		}

		if err := store.Members().Create(ctx, member); err != nil {
			if delErr := store.Orgs().Delete(ctx, org.ID); delErr != nil {
				log.Error().Err(delErr).Str("org_id", org.ID.String()).Msg("register: compensating org delete failed")
			}
			if delErr := authSvc.DeleteAccount(ctx, account.ID); delErr != nil {
				log.Error().Err(delErr).Str("account_id", account.ID.String()).Msg("register: compensating account delete failed")
			}
			return nil, huma.Error500InternalServerError("failed to create admin member", err)
		}

		access, refresh, err := authSvc.IssueSession(org.ID, member.ID, member.Role)
		if err != nil {
			return nil, huma.Error500InternalServerError("registered but failed to issue tokens", err)
		}

		out := &RegisterOrgOutput{}
		out.Body.Org = domain.BuildOrgConfig(org)
		out.Body.AccessToken = access
		out.Body.RefreshToken = refresh
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with org slug, email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		org, err := store.Orgs().GetBySlug(ctx, input.Body.OrgSlug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("org not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up org", err)
		}

		access, refresh, err := authSvc.Login(ctx, org.ID, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &LoginOutput{}
		out.Body.AccessToken = access
		out.Body.RefreshToken = refresh
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		access, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = access
		return out, nil
	})
}

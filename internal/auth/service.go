package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/orghub/orghub/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrAccountAlreadyExists = errors.New("auth: account already exists")
	ErrMemberNotFound       = errors.New("auth: member not found")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Service provides identity and session operations. Accounts are the global
// identity store; members are the org-scoped profiles that reference them.
type Service struct {
	accounts   domain.AccountRepository
	members    domain.MemberRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(accounts domain.AccountRepository, members domain.MemberRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		members:    members,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// CreateAccount creates an identity record with an argon2id password hash.
// The caller owns the follow-up member creation and any compensation.
func (s *Service) CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error) {
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.CreateAccount: %w", ErrAccountAlreadyExists)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.CreateAccount: %w", err)
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("auth.CreateAccount: %w", ErrAccountAlreadyExists)
		}
		return nil, fmt.Errorf("auth.CreateAccount: %w", err)
	}

	return account, nil
}

// DeleteAccount removes an identity record. Used as the compensating action
// when member creation fails after the account was written.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("auth.DeleteAccount: %w", err)
	}
	return nil
}

// Login validates email/password against an org's member roster and returns
// access + refresh tokens carrying the org and role claims.
func (s *Service) Login(ctx context.Context, orgID uuid.UUID, email, password string) (accessToken, refreshToken string, err error) {
	member, err := s.members.GetByEmail(ctx, orgID, email)
	if err != nil || !member.IsActive {
		return "", "", fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	account, err := s.accounts.GetByID(ctx, member.ID)
	if err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, account.PasswordHash) {
		return "", "", fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	return s.IssueSession(member.OrgID, member.ID, member.Role)
}

// IssueSession mints an access + refresh token pair for a member.
func (s *Service) IssueSession(orgID, memberID uuid.UUID, role string) (accessToken, refreshToken string, err error) {
	accessToken, err = IssueAccessToken(s.jwtSecret, orgID, memberID, role, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.IssueSession: %w", err)
	}

	refreshToken, err = IssueRefreshToken(s.jwtSecret, orgID, memberID, role, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.IssueSession: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshToken validates a refresh token and issues a new access token with
// the member's current role.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: invalid org id: %w", err)
	}

	memberID, err := uuid.Parse(claims.MemberID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: invalid member id: %w", err)
	}

	// Verify the member still exists and fetch the current role.
	member, err := s.members.GetByID(ctx, orgID, memberID)
	if err != nil || !member.IsActive {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrMemberNotFound)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, member.OrgID, member.ID, member.Role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// VerifySession validates an access token, falling back to the refresh token
// when the access token is missing or expired. When the fallback path runs,
// the returned newAccess is non-empty and must be propagated onto the final
// response by the caller.
func (s *Service) VerifySession(ctx context.Context, accessToken, refreshToken string) (claims *Claims, newAccess string, err error) {
	if accessToken != "" {
		claims, err = ValidateToken(s.jwtSecret, accessToken)
		if err == nil && claims.TokenType == tokenTypeAccess {
			return claims, "", nil
		}
	}

	if refreshToken == "" {
		return nil, "", fmt.Errorf("auth.VerifySession: %w", ErrInvalidToken)
	}

	newAccess, err = s.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, "", fmt.Errorf("auth.VerifySession: %w", err)
	}

	claims, err = ValidateToken(s.jwtSecret, newAccess)
	if err != nil {
		return nil, "", fmt.Errorf("auth.VerifySession: %w", err)
	}

	return claims, newAccess, nil
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	var saltHex, hashHex string
	for i := range len(encoded) {
		if encoded[i] == '$' {
			saltHex = encoded[:i]
			hashHex = encoded[i+1:]
			break
		}
	}

	if saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Constant-time comparison to prevent timing attacks.
	if len(computed) != len(expectedHash) {
		return false
	}

	var diff byte
	for i := range computed {
		diff |= computed[i] ^ expectedHash[i]
	}

	return diff == 0
}

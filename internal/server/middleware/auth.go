package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/auth"
)

// Auth guards API routes with a Bearer access token. Org id, member id and
// role land in the request context for downstream handlers.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extractBearer(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims, err := auth.ValidateToken(secret, tokenStr)
	if err != nil || claims.TokenType != "access" {
		return ctx, false
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return ctx, false
	}

	memberID, err := uuid.Parse(claims.MemberID)
	if err != nil {
		return ctx, false
	}

	ctx = context.WithValue(ctx, ContextKeyOrgID, orgID)
	ctx = context.WithValue(ctx, ContextKeyMemberID, memberID)
	ctx = context.WithValue(ctx, ContextKeyMemberRole, claims.Role)
	return ctx, true
}

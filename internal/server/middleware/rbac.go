package middleware

import (
	"net/http"

	"github.com/orghub/orghub/internal/authz"
)

// RequireCapability gates a route on the permission matrix. Must be chained
// after Auth, which puts the member role into the request context.
//
// Returns 401 when no role is in context (Auth not applied or failed) and
// 403 when the role lacks the capability.
func RequireCapability(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if !authz.Can(role, action) {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

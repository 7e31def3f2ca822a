package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/orghub/orghub/internal/auth"
	"github.com/orghub/orghub/internal/domain"
	"github.com/orghub/orghub/internal/monitoring"
)

// Session cookie names shared by the portal router and the auth handlers.
const (
	AccessCookie  = "orghub_access"
	RefreshCookie = "orghub_refresh"
)

// platformPrefixes bypass tenant resolution entirely.
var platformPrefixes = []string{
	"/register",
	"/healthz",
	"/metrics",
	"/api/",
	"/favicon.ico",
	"/static/",
}

// publicPaths are served under a resolved tenant without a session.
var publicPaths = []string{
	"/login",
	"/auth/callback",
	"/sign-out",
	"/join",
}

// ConfigResolver resolves a slug to a fully-defaulted org config.
type ConfigResolver interface {
	Resolve(ctx context.Context, slug string) *domain.OrgConfig
}

// SessionVerifier checks a session, optionally minting a fresh access token
// when only the refresh token is still valid. *auth.Service satisfies it.
type SessionVerifier interface {
	VerifySession(ctx context.Context, accessToken, refreshToken string) (*auth.Claims, string, error)
}

// TenantRouter rewrites portal requests to tenant-scoped paths.
//
// Slug resolution order: dev-mode ?org= param, then subdomain under the
// root domain, then the X-Org-Slug header set by the custom-domain edge.
// Unresolved requests are always redirected, never failed. Resolved
// requests outside the public allow-list need a session; a session check
// that refreshes the access token writes the new cookie onto the final
// response even when that response is a redirect.
type TenantRouter struct {
	rootDomain string
	devMode    bool
	resolver   ConfigResolver
	sessions   SessionVerifier
}

func NewTenantRouter(rootDomain string, devMode bool, resolver ConfigResolver, sessions SessionVerifier) *TenantRouter {
	return &TenantRouter{
		rootDomain: rootDomain,
		devMode:    devMode,
		resolver:   resolver,
		sessions:   sessions,
	}
}

func (t *TenantRouter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPlatformPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		slug := t.resolveSlug(r)
		if slug == "" {
			if t.devMode {
				http.Redirect(w, r, "/register", http.StatusFound)
				return
			}
			http.Redirect(w, r, "https://www."+t.rootDomain, http.StatusFound)
			return
		}

		cfg := t.resolver.Resolve(r.Context(), slug)

		ctx := r.Context()
		ctx = context.WithValue(ctx, ContextKeyOrgSlug, slug)
		ctx = context.WithValue(ctx, ContextKeyOrgConfig, cfg)

		if !isPublicPath(r.URL.Path) {
			claims, newAccess, err := t.verifySession(r)
			if err != nil {
				http.Redirect(w, r, t.loginPath(slug), http.StatusFound)
				return
			}

			// A refreshed token must reach the browser no matter what the
			// downstream handler does with the response.
			if newAccess != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     AccessCookie,
					Value:    newAccess,
					Path:     "/",
					HttpOnly: true,
					Secure:   !t.devMode,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if memberID, err := uuid.Parse(claims.MemberID); err == nil {
				ctx = context.WithValue(ctx, ContextKeyMemberID, memberID)
			}
			if orgID, err := uuid.Parse(claims.OrgID); err == nil {
				ctx = context.WithValue(ctx, ContextKeyOrgID, orgID)
			}
			ctx = context.WithValue(ctx, ContextKeyMemberRole, claims.Role)
		}

		w.Header().Set("X-Org-Slug", slug)

		r2 := r.Clone(ctx)
		r2.URL.Path = rewritePath(slug, r.URL.Path)
		r2.URL.RawQuery = stripOrgParam(r.URL.Query())

		next.ServeHTTP(w, r2)
	})
}

func (t *TenantRouter) resolveSlug(r *http.Request) string {
	if t.devMode {
		if slug := r.URL.Query().Get("org"); slug != "" {
			monitoring.TenantResolutions.WithLabelValues("query").Inc()
			return slug
		}
	}

	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if suffix := "." + t.rootDomain; strings.HasSuffix(host, suffix) {
		sub := strings.TrimSuffix(host, suffix)
		if sub != "" && sub != "www" && !strings.Contains(sub, ".") {
			monitoring.TenantResolutions.WithLabelValues("subdomain").Inc()
			return sub
		}
	}

	// Custom domains terminate at the edge, which forwards the slug.
	if slug := r.Header.Get("X-Org-Slug"); slug != "" {
		monitoring.TenantResolutions.WithLabelValues("header").Inc()
		return slug
	}

	monitoring.TenantResolutions.WithLabelValues("none").Inc()
	return ""
}

func (t *TenantRouter) verifySession(r *http.Request) (*auth.Claims, string, error) {
	var access, refresh string
	if c, err := r.Cookie(AccessCookie); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		refresh = c.Value
	}
	return t.sessions.VerifySession(r.Context(), access, refresh)
}

// loginPath keeps the dev-mode org param so the next request resolves the
// same tenant without a subdomain.
func (t *TenantRouter) loginPath(slug string) string {
	if t.devMode {
		return "/login?org=" + url.QueryEscape(slug)
	}
	return "/login"
}

func isPlatformPath(path string) bool {
	for _, p := range platformPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func rewritePath(slug, path string) string {
	if path == "/" || path == "" {
		path = "/dashboard"
	}
	return "/" + slug + path
}

func stripOrgParam(q url.Values) string {
	q.Del("org")
	return q.Encode()
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type ctxKey struct{}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (entity.Principal, error)
}

func WithPrincipal(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom reports the authenticated caller, if any.
func PrincipalFrom(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(entity.Principal)
	return p, ok
}

// Authenticate resolves the Authorization header. A request without one
// continues anonymously; a request with a bad one stops here with 401.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				next.ServeHTTP(w, r)
				return
			}
			tok, ok := bearer(h)
			if !ok {
				unauthorized(w, "Invalid authorization header")
				return
			}
			p, err := v.Verify(tok)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}
			ctx := WithPrincipal(r.Context(), p)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", entity.FormatID(p.UserID)).Str("role", string(p.Role))
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth blocks anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			unauthorized(w, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles allows the request only if the caller holds one of roles.
func RequireRoles(roles ...entity.Role) func(http.Handler) http.Handler {
	return requireRoles("Access denied", roles...)
}

// RequireAdmin is RequireRoles(entity.RoleAdmin) with the admin-specific message.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRoles("Admin access required", entity.RoleAdmin)(next)
}

func requireRoles(message string, roles ...entity.Role) func(http.Handler) http.Handler {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}
			if _, ok := allowed[p.Role]; !ok {
				deny(w, http.StatusForbidden, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(h string) (string, bool) {
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	deny(w, http.StatusUnauthorized, msg)
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

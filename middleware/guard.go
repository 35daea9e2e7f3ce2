package middleware

import (
	"context"
	"net/http"
	"strings"

	gymgate "github.com/memberly/gymgate"
	"github.com/memberly/gymgate/guard"
	"github.com/memberly/gymgate/token"
)

// SessionCookie is the cookie consulted when no Authorization header is
// present. Its value is the raw bearer token.
const SessionCookie = "token"

type claimsContextKey struct{}

// ClaimsFromContext returns the claims injected by a guard middleware.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Protect evaluates every request path against the guard's route table.
// Denied requests are redirected to the decision's destination; allowed
// requests continue with decoded claims on the context.
func Protect(g *guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw := tokenFromRequest(r)
			dec := g.CheckToken(r.Context(), r.URL.Path, raw)
			serveDecision(g, next, w, r, raw, dec)
		})
	}
}

// RequireRole restricts a handler subtree to one role, ignoring the
// route table.
func RequireRole(g *guard.Guard, role gymgate.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw := tokenFromRequest(r)
			dec := g.CheckRequirement(r.Context(), r.URL.Path, raw, guard.Requirement{Role: role})
			serveDecision(g, next, w, r, raw, dec)
		})
	}
}

// RequireAdmin restricts a subtree to the ADMIN role.
func RequireAdmin(g *guard.Guard) func(http.Handler) http.Handler {
	return RequireRole(g, gymgate.RoleAdmin)
}

// RequireClient restricts a subtree to the CLIENT role.
func RequireClient(g *guard.Guard) func(http.Handler) http.Handler {
	return RequireRole(g, gymgate.RoleClient)
}

func serveDecision(g *guard.Guard, next http.Handler, w http.ResponseWriter, r *http.Request, raw string, dec guard.Decision) {
	if !dec.Allowed() {
		if dec.Redirect != "" && dec.Redirect != r.URL.Path {
			http.Redirect(w, r, dec.Redirect, http.StatusFound)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if raw != "" {
		if claims, err := g.Claims(raw); err == nil {
			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			r = r.WithContext(ctx)
		}
	}
	next.ServeHTTP(w, r)
}

func tokenFromRequest(r *http.Request) string {
	const bearer = "Bearer "
	if value := r.Header.Get("Authorization"); strings.HasPrefix(value, bearer) {
		return value[len(bearer):]
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

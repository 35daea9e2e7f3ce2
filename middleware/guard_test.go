package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	gymgate "github.com/memberly/gymgate"
	"github.com/memberly/gymgate/guard"
)

var testPolicy = guard.Policy{
	LoginPath:  "/login",
	AdminHome:  "/tabs/admin-dashboard",
	ClientHome: "/tabs/home-membre",
}

func tokenFor(role string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"` + role + `","userId":1}`))
	return "header." + payload + ".sig"
}

func newTestHandler(t *testing.T, mw func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("X-Role", claims.Role)
		w.WriteHeader(http.StatusOK)
	}))
}

func testGuard() *guard.Guard {
	table := guard.NewTable().
		Public("/login").
		Require("/tabs/admin-dashboard", gymgate.RoleAdmin).
		Require("/tabs/home-membre", gymgate.RoleClient)

	return guard.New(guard.Options{Table: table, Policy: testPolicy})
}

func TestProtectAllowsMatchingRole(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/tabs/admin-dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor("ADMIN"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Role"); got != "ADMIN" {
		t.Fatalf("claims role = %q", got)
	}
}

func TestProtectRedirectsMissingToken(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/tabs/home-membre", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login" {
		t.Fatalf("location = %q", got)
	}
}

func TestProtectRedirectsInvalidToken(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/tabs/home-membre", nil)
	req.Header.Set("Authorization", "Bearer onlyonepart")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login" {
		t.Fatalf("location = %q", got)
	}
}

func TestProtectRedirectsWrongRoleToOwnHome(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/tabs/admin-dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor("CLIENT"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/tabs/home-membre" {
		t.Fatalf("location = %q", got)
	}
}

func TestProtectPublicRouteNeedsNoToken(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProtectReadsSessionCookie(t *testing.T) {
	h := newTestHandler(t, Protect(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/tabs/home-membre", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokenFor("CLIENT")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Role"); got != "CLIENT" {
		t.Fatalf("claims role = %q", got)
	}
}

func TestRequireRoleIgnoresTable(t *testing.T) {
	// The table knows nothing about /reports, but RequireAdmin still
	// gates it.
	h := newTestHandler(t, RequireAdmin(testGuard()))

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor("CLIENT"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/tabs/home-membre" {
		t.Fatalf("location = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor("ADMIN"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNilGuardRejects(t *testing.T) {
	h := newTestHandler(t, Protect(nil))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

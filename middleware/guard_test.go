package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/secretsafe/authsession/policy"
	"github.com/secretsafe/authsession/store"
)

func mintCookie(t *testing.T, role string, exp time.Time) *http.Cookie {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "user-1",
		"email": "alice@example.com",
		"role":  role,
		"exp":   exp.Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("minting token failed: %v", err)
	}
	return &http.Cookie{Name: store.KeyAccessToken, Value: raw}
}

func guardedHandler(t *testing.T) (http.Handler, *Session) {
	t.Helper()
	var seen Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := SessionFromContext(r.Context()); ok {
			seen = *sess
		}
		w.WriteHeader(http.StatusOK)
	})
	return Guard(policy.Default())(next), &seen
}

func TestGuardRedirectsAnonymousFromProtected(t *testing.T) {
	h, _ := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect = %q, want /login", loc)
	}
}

func TestGuardAllowsPublicRouteAnonymously(t *testing.T) {
	h, _ := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGuardAdmitsSufficientRole(t *testing.T) {
	h, seen := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.AddCookie(mintCookie(t, policy.RoleWriter, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !seen.Authenticated || seen.Role != policy.RoleWriter || seen.Email != "alice@example.com" {
		t.Fatalf("unexpected injected session: %+v", seen)
	}
}

func TestGuardRedirectsInsufficientRole(t *testing.T) {
	h, _ := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(mintCookie(t, policy.RoleWriter, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("redirect = %q, want /dashboard", loc)
	}
}

func TestGuardTreatsExpiredTokenAsAnonymous(t *testing.T) {
	h, _ := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(mintCookie(t, policy.RoleAdmin, time.Now().Add(-time.Minute)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRole(policy.RoleWriter)(next)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.AddCookie(mintCookie(t, policy.RoleReader, time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("reader status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.AddCookie(mintCookie(t, policy.RoleAdmin, time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}

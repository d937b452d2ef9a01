package authsession

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginEstablishesSession(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	user, err := engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Email != "alice@example.com" || user.Role != "writer" {
		t.Fatalf("unexpected user: %+v", user)
	}

	snap := engine.Snapshot()
	if !snap.Authenticated || snap.Loading || snap.Err != "" {
		t.Fatalf("unexpected post-login snapshot: %+v", snap)
	}
	if !engine.IsAuthenticated() {
		t.Fatal("tokens not persisted by login")
	}
	if engine.MetricsSnapshot().Counters[MetricLoginSuccess] != 1 {
		t.Fatal("login success metric not incremented")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	backend.loginStatus = 401
	engine := newTestEngine(t, backend)

	_, err := engine.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("authenticated after rejected login")
	}
	if engine.MetricsSnapshot().Counters[MetricLoginFailure] != 1 {
		t.Fatal("login failure metric not incremented")
	}
}

func TestLogoutClearsLocalStateDespiteBackendFailure(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	backend.logoutStatus = 500
	engine := newTestEngine(t, backend)

	if _, err := engine.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not fail on backend error: %v", err)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("still authenticated after logout")
	}
	if _, ok := engine.tokens.AccessToken(); ok {
		t.Fatal("tokens survived logout")
	}
	if backend.logoutCalls.Load() != 1 {
		t.Fatal("backend logout notification never attempted")
	}
}

// The canonical mid-session flow: login, work until the access token nears
// expiry, silently refresh, keep working.
func TestLoginThenSilentRefresh(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	if _, err := engine.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := engine.TokenHealth(); got != HealthExcellent {
		t.Fatalf("health after login = %v, want excellent", got)
	}
	if engine.tokens.ShouldRefresh() {
		t.Fatal("refresh due immediately after login")
	}

	// 4 minutes to expiry: refresh due, health critical.
	clock.Advance(26 * time.Minute)
	if !engine.tokens.ShouldRefresh() {
		t.Fatal("refresh not due inside the threshold")
	}
	if got := engine.TokenHealth(); got != HealthCritical {
		t.Fatalf("health near expiry = %v, want critical", got)
	}

	if _, err := engine.Refresh(context.Background()); err != nil {
		t.Fatalf("silent refresh failed: %v", err)
	}
	if got := engine.TokenHealth(); got != HealthExcellent {
		t.Fatalf("health after refresh = %v, want excellent", got)
	}
	if !engine.Snapshot().Authenticated {
		t.Fatal("session lost across silent refresh")
	}
	if engine.tokens.ShouldRefresh() {
		t.Fatal("refresh still due after refreshing")
	}
}

func TestRouteAccessFollowsSessionRole(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	if d := engine.CheckRouteAccess("/messages"); d.Allowed {
		t.Fatal("anonymous engine allowed into /messages")
	}

	if _, err := engine.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if d := engine.CheckRouteAccess("/messages"); !d.Allowed {
		t.Fatalf("writer denied /messages: %q", d.Reason)
	}
	if d := engine.CheckRouteAccess("/admin"); d.Allowed {
		t.Fatal("writer allowed into /admin")
	}
	if d := engine.CheckFeatureAccess("messages.create"); !d.Allowed {
		t.Fatalf("writer denied messages.create: %q", d.Reason)
	}
}

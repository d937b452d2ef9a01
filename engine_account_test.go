package authsession

import (
	"context"
	"testing"

	"github.com/secretsafe/authsession/api"
)

func TestPasswordResetFlowHitsBackend(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	if err := engine.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("requesting reset failed: %v", err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), "reset-token", "new-password"); err != nil {
		t.Fatalf("confirming reset failed: %v", err)
	}

	if backend.resetRequestCalls.Load() != 1 || backend.resetConfirmCalls.Load() != 1 {
		t.Fatalf("reset endpoints called %d/%d times, want 1/1",
			backend.resetRequestCalls.Load(), backend.resetConfirmCalls.Load())
	}
}

func TestVerifyEmailMarksCurrentUserVerified(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)
	engine.state.adopt(UserRecord{ID: "u1", Verified: false})

	if err := engine.VerifyEmail(context.Background(), "verify-token"); err != nil {
		t.Fatalf("verifying email failed: %v", err)
	}

	if backend.verifyCalls.Load() != 1 {
		t.Fatal("verification endpoint never called")
	}
	if user := engine.Snapshot().User; user == nil || !user.Verified {
		t.Fatal("current user not marked verified")
	}
}

func TestResendVerification(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	if err := engine.ResendVerification(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("resending verification failed: %v", err)
	}
	if backend.resendCalls.Load() != 1 {
		t.Fatal("resend endpoint never called")
	}
}

func TestRegisterDoesNotEstablishSession(t *testing.T) {
	clock := newFakeClock()
	setTestClock(t, clock)
	backend := newFakeBackend(t, clock)
	engine := newTestEngine(t, backend)

	// Registration returns a profile but no tokens; the account must
	// verify its email and log in explicitly.
	user, err := engine.Register(context.Background(), api.RegisterRequest{
		Email:       "bob@example.com",
		Password:    "pw",
		DisplayName: "Bob",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "bob@example.com" {
		t.Fatalf("unexpected registered user: %+v", user)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("register established a session")
	}
	if engine.IsAuthenticated() {
		t.Fatal("register stored tokens")
	}
}

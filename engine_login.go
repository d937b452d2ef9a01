package authsession

import (
	"context"
	"fmt"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
)

// Login exchanges credentials for a token pair, persists it, and sets the
// session to authenticated with the returned user.
func (e *Engine) Login(ctx context.Context, username, password string) (*UserRecord, error) {
	e.state.SetLoading(true)
	defer e.state.SetLoading(false)

	resp, err := e.client.Login(ctx, username, password)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, Event{EventType: events.TypeLogin, Success: false, Email: username})
		if api.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	user := userFromProfile(&resp.User)
	if err := e.state.Login(resp.AccessToken, resp.RefreshToken, user); err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emit(ctx, Event{EventType: events.TypeLogin, Success: true, UserID: user.ID, Email: user.Email})
	return &user, nil
}

// Register creates an account. No session is established: the backend
// requires email verification before the first login.
func (e *Engine) Register(ctx context.Context, req api.RegisterRequest) (*UserRecord, error) {
	profile, err := e.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	user := userFromProfile(profile)
	return &user, nil
}

// Logout notifies the backend and clears all local session state. The
// backend call is best effort: local state is cleared regardless of its
// outcome, and a logout never fails from the caller's point of view because
// the network did.
func (e *Engine) Logout(ctx context.Context) error {
	if accessToken, ok := e.tokens.AccessToken(); ok {
		if err := e.client.Logout(ctx, accessToken); err != nil {
			e.logger.Info("backend logout notification failed", "error", err)
		}
	}

	err := e.state.Logout()
	e.metrics.Inc(MetricLogout)
	e.emit(ctx, Event{EventType: events.TypeLogout, Success: true})
	return err
}

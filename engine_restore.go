package authsession

import (
	"context"
	"errors"
	"time"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
)

// Restore rebuilds the in-memory session from stored token material.
//
// With no stored tokens it reaches the initialized state immediately with a
// logged-out session and issues zero HTTP calls. With tokens present it
// validates them against the backend by fetching the current user, after
// first letting a due silent refresh settle. Three outcomes:
//
//   - success: authenticated with the fetched user
//   - 401: tokens cleared, logged out — an expired session is expected, not
//     an error, so the state is still initialized
//   - transient failure: authenticated with a placeholder user and a
//     recorded error, keeping the user in rather than bouncing them to
//     login over a backend outage
//
// A restore cut short by ctx cancellation returns the context error and
// leaves the engine in the failed state; a later Restore starts over.
//
// Restore is idempotent once initialized and rejects re-entry while a
// restore is in flight.
func (e *Engine) Restore(ctx context.Context) error {
	e.restoreMu.Lock()
	switch e.restoreState {
	case RestoreRestoring:
		e.restoreMu.Unlock()
		return ErrRestoreInProgress
	case RestoreInitialized:
		e.restoreMu.Unlock()
		return nil
	}
	e.restoreState = RestoreRestoring
	e.restoreMu.Unlock()

	e.state.SetLoading(true)
	err := e.restore(ctx)
	e.state.SetLoading(false)

	e.restoreMu.Lock()
	if err != nil {
		e.restoreState = RestoreFailed
	} else {
		e.restoreState = RestoreInitialized
		close(e.initialized)
	}
	e.restoreMu.Unlock()

	return err
}

func (e *Engine) restore(ctx context.Context) error {
	if _, ok := e.tokens.AccessToken(); !ok {
		if _, hasRefresh := e.tokens.RefreshToken(); !hasRefresh {
			e.metrics.Inc(MetricRestoreLoggedOut)
			e.emit(ctx, Event{EventType: events.TypeRestore, Success: true, Reason: "no session"})
			e.state.forceLogout()
			return nil
		}
	}

	// Let a due refresh settle before validating; the current-user fetch
	// must run against the freshest access token.
	if e.tokens.ShouldRefresh() {
		if _, err := e.Refresh(ctx); err != nil {
			e.logger.Info("restore-time refresh did not complete", "error", err)
		}
	}

	accessToken, ok := e.tokens.AccessToken()
	if !ok {
		// The refresh was rejected or the token lapsed; the session is over.
		e.metrics.Inc(MetricRestoreLoggedOut)
		e.emit(ctx, Event{EventType: events.TypeRestore, Success: true, Reason: "session expired"})
		e.state.forceLogout()
		return nil
	}

	profile, err := e.client.Me(ctx, accessToken)
	switch {
	case err == nil:
		e.state.adopt(userFromProfile(profile))
		e.metrics.Inc(MetricRestoreAuthenticated)
		e.emit(ctx, Event{EventType: events.TypeRestore, Success: true, UserID: profile.ID, Email: profile.Email})
		return nil

	case ctx.Err() != nil:
		// The caller's context ended before validation produced a verdict.
		// The restore did not complete; a later Restore may retry.
		return ctx.Err()

	case api.IsUnauthorized(err):
		if clearErr := e.tokens.Clear(); clearErr != nil {
			e.logger.Warn("clearing rejected session failed", "error", clearErr)
		}
		e.state.forceLogout()
		e.metrics.Inc(MetricRestoreLoggedOut)
		e.emit(ctx, Event{EventType: events.TypeRestore, Success: true, Reason: "rejected"})
		return nil

	default:
		// Transient backend trouble. Stay authenticated behind a placeholder
		// user and surface the error; the next revalidation pass or refresh
		// will reconcile.
		e.state.adopt(UserRecord{Placeholder: true})
		e.state.SetError(err.Error())
		e.metrics.Inc(MetricRestoreDegraded)
		e.emit(ctx, Event{EventType: events.TypeRestore, Success: false, Reason: err.Error()})
		return nil
	}
}

// revalidateLoop re-checks the session against the backend on a fixed
// interval while it is live. Only an authoritative 401 clears tokens;
// transient failures record an error and leave the session alone.
func (e *Engine) revalidateLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.Revalidate.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.closed:
			return
		case <-ticker.C:
			e.revalidate(ctx)
		}
	}
}

func (e *Engine) revalidate(ctx context.Context) {
	accessToken, ok := e.tokens.AccessToken()
	if !ok {
		return
	}

	profile, err := e.client.Me(ctx, accessToken)
	switch {
	case err == nil:
		e.state.adopt(userFromProfile(profile))

	case api.IsUnauthorized(err):
		e.metrics.Inc(MetricRevalidateFailure)
		if clearErr := e.tokens.Clear(); clearErr != nil {
			e.logger.Warn("clearing invalid session failed", "error", clearErr)
		}
		e.state.forceLogout()
		e.logger.Info("session invalidated by backend during revalidation")

	case errors.Is(err, context.Canceled):
		// shutting down

	default:
		e.metrics.Inc(MetricRevalidateFailure)
		e.state.SetError(err.Error())
	}
}

// onExternalClear handles a cross-process logout: another process of the
// same origin cleared the access-token key. The local session is reset
// without any network call.
func (e *Engine) onExternalClear() {
	e.metrics.Inc(MetricExternalInvalidation)
	e.emit(context.Background(), Event{EventType: events.TypeExternalInvalidation, Success: true})

	if err := e.tokens.Clear(); err != nil {
		e.logger.Warn("clearing session after external invalidation failed", "error", err)
	}
	e.state.forceLogout()
}

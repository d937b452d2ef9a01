package authsession

import (
	"context"
	"fmt"
	"time"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
)

// refreshKey is the singleflight key: one logical refresh per engine.
const refreshKey = "refresh"

// Refresh performs the token-refresh exchange with the backend.
//
// Concurrent callers are collapsed onto a single in-flight exchange: at most
// one backend refresh call is ever in flight, and every caller receives the
// same settled result. This is the engine's sole synchronization primitive
// for the expiring-token race, so late joiners must never start a second
// call.
//
// A missing refresh token fails immediately with [ErrNoRefreshToken]. A
// 401-class reply means the refresh token itself is invalid: all tokens are
// cleared and the error wraps [ErrRefreshRejected]. Any other failure wraps
// [ErrRefreshUnavailable] and preserves tokens — a network blip must not log
// the user out.
func (e *Engine) Refresh(ctx context.Context) (string, error) {
	result, err, shared := e.refreshGroup.Do(refreshKey, func() (interface{}, error) {
		return e.doRefresh(ctx)
	})
	if shared {
		e.metrics.Inc(MetricRefreshCoalesced)
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// ForceRefresh discards any in-flight refresh state and starts a fresh
// attempt. Used for manual "refresh now" actions.
func (e *Engine) ForceRefresh(ctx context.Context) (string, error) {
	e.refreshGroup.Forget(refreshKey)
	return e.Refresh(ctx)
}

func (e *Engine) doRefresh(ctx context.Context) (string, error) {
	started := e.now()

	accessToken, err := e.refreshExchange(ctx)
	e.metrics.Observe(MetricRefreshLatency, time.Since(started))

	e.notifyRefreshSubs(accessToken, err)
	return accessToken, err
}

func (e *Engine) refreshExchange(ctx context.Context) (string, error) {
	refreshToken, ok := e.tokens.RefreshToken()
	if !ok {
		e.metrics.Inc(MetricRefreshTransientFailure)
		return "", ErrNoRefreshToken
	}

	resp, err := e.client.Refresh(ctx, refreshToken)
	if err != nil {
		if api.IsUnauthorized(err) {
			// The server authoritatively rejected the credential; keeping it
			// would only replay the rejection forever.
			if clearErr := e.tokens.Clear(); clearErr != nil {
				e.logger.Warn("clearing tokens after refresh rejection failed", "error", clearErr)
			}
			e.state.forceLogout()
			e.metrics.Inc(MetricRefreshRejected)
			e.emit(ctx, Event{EventType: events.TypeRefresh, Success: false, Reason: "rejected"})
			return "", fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}

		e.metrics.Inc(MetricRefreshTransientFailure)
		e.emit(ctx, Event{EventType: events.TypeRefresh, Success: false, Reason: "transient"})
		return "", fmt.Errorf("%w: %v", ErrRefreshUnavailable, err)
	}

	// The backend issues a new access token only; the refresh token stays
	// in force and is re-stored alongside it.
	if err := e.tokens.Store(resp.AccessToken, refreshToken); err != nil {
		e.metrics.Inc(MetricRefreshTransientFailure)
		return "", fmt.Errorf("storing refreshed tokens: %w", err)
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, Event{EventType: events.TypeRefresh, Success: true})
	e.onStateChange()
	return resp.AccessToken, nil
}

// SubscribeRefresh registers fn to be called after every refresh settles,
// success or failure. The returned function unsubscribes.
func (e *Engine) SubscribeRefresh(fn func(accessToken string, err error)) func() {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	e.refreshSubID++
	id := e.refreshSubID
	e.refreshSubs[id] = fn

	return func() {
		e.refreshMu.Lock()
		defer e.refreshMu.Unlock()
		delete(e.refreshSubs, id)
	}
}

func (e *Engine) notifyRefreshSubs(accessToken string, err error) {
	e.refreshMu.Lock()
	subs := make([]func(string, error), 0, len(e.refreshSubs))
	for _, fn := range e.refreshSubs {
		subs = append(subs, fn)
	}
	e.refreshMu.Unlock()

	for _, fn := range subs {
		fn(accessToken, err)
	}
}

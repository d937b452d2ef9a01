package authsession

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/secretsafe/authsession/api"
	"github.com/secretsafe/authsession/internal/events"
	"github.com/secretsafe/authsession/policy"
	"github.com/secretsafe/authsession/store"
)

// Engine defines a public type used by authsession APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	logger   *slog.Logger
	tokens   *store.Store
	client   *api.Client
	state    *SessionState
	policies *policy.Evaluator
	watcher  *store.Watcher
	events   *events.Dispatcher
	metrics  *Metrics

	refreshGroup singleflight.Group
	refreshMu    sync.Mutex
	refreshSubs  map[int]func(accessToken string, err error)
	refreshSubID int

	restoreMu    sync.Mutex
	restoreState RestoreState
	initialized  chan struct{}

	healthMu   sync.Mutex
	healthSubs map[int]func(TokenHealth)
	healthSub  int
	lastHealth TokenHealth

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup

	now func() time.Time
}

// State returns the session state container. Its actions are the only way to
// mutate the in-memory session.
func (e *Engine) State() *SessionState {
	return e.state
}

// Tokens returns the token store.
func (e *Engine) Tokens() *store.Store {
	return e.tokens
}

// Policy returns the access policy evaluator.
func (e *Engine) Policy() *policy.Evaluator {
	return e.policies
}

// Snapshot returns a copy of the current session state.
func (e *Engine) Snapshot() SessionSnapshot {
	return e.state.Snapshot()
}

// IsAuthenticated reports whether both tokens are present and unexpired.
func (e *Engine) IsAuthenticated() bool {
	return e.tokens.IsAuthenticated()
}

// AccessToken returns the current access token for callers that attach it
// to product API requests. It returns ErrNotAuthenticated when no usable
// token is stored.
func (e *Engine) AccessToken() (string, error) {
	accessToken, ok := e.tokens.AccessToken()
	if !ok {
		return "", ErrNotAuthenticated
	}
	return accessToken, nil
}

// CheckRouteAccess evaluates route access for the current session.
func (e *Engine) CheckRouteAccess(path string) policy.Decision {
	role, authed := e.currentRole()
	return e.policies.CheckRouteAccess(path, role, authed)
}

// CheckFeatureAccess evaluates feature access for the current session.
func (e *Engine) CheckFeatureAccess(feature string) policy.Decision {
	role, authed := e.currentRole()
	return e.policies.CheckFeatureAccess(feature, role, authed)
}

// AccessibleRoutes lists the routes the current session may visit. UI
// affordance only, not enforcement.
func (e *Engine) AccessibleRoutes() []string {
	role, authed := e.currentRole()
	return e.policies.AccessibleRoutes(role, authed)
}

func (e *Engine) currentRole() (string, bool) {
	snap := e.state.Snapshot()
	role := ""
	if snap.User != nil {
		role = snap.User.Role
	}
	return role, snap.Authenticated && e.tokens.IsAuthenticated()
}

// Run starts the engine's background loops — restoration, the mirror
// watcher, periodic revalidation, and the token-health ticker — and blocks
// until ctx is cancelled. Route guards should wait on [Engine.Initialized]
// before rendering protected content.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Restore(ctx); err != nil {
		return err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.watcher.Watch(ctx); err != nil && ctx.Err() == nil {
			e.logger.Warn("mirror watcher stopped", "error", err)
		}
	}()

	if e.config.Revalidate.Interval > 0 {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.revalidateLoop(ctx)
		}()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.healthLoop(ctx)
	}()

	<-ctx.Done()
	e.wg.Wait()
	return ctx.Err()
}

// Initialized returns a channel closed once restoration has reached its
// restore-or-fail decision. Protected content must block on it.
func (e *Engine) Initialized() <-chan struct{} {
	return e.initialized
}

// RestoreState reports the restoration state machine's current state.
func (e *Engine) RestoreState() RestoreState {
	e.restoreMu.Lock()
	defer e.restoreMu.Unlock()
	return e.restoreState
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or storage checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// EventsDropped describes the eventsdropped operation and its observable behavior.
//
// EventsDropped may return an error when input validation, dependency calls, or storage checks fail.
// EventsDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EventsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.events.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or storage checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		close(e.closed)
		e.events.Close()
		if err := e.tokens.Close(); err != nil {
			e.logger.Warn("closing token store failed", "error", err)
		}
	})
}

func (e *Engine) emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	e.events.Emit(ctx, event)
}

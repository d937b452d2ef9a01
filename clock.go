package authsession

import (
	"context"
	"time"
)

// tokensNow is the engine wall clock, swappable in tests.
var tokensNow = time.Now

// TokenHealth is a coarse classification of the access token's remaining
// lifetime, for status widgets and refresh nudges.
type TokenHealth string

const (
	// HealthExcellent means more than 25 minutes remain.
	HealthExcellent TokenHealth = "excellent"
	// HealthGood means more than 15 minutes remain.
	HealthGood TokenHealth = "good"
	// HealthWarning means more than 5 minutes remain.
	HealthWarning TokenHealth = "warning"
	// HealthCritical means the token expires within 5 minutes.
	HealthCritical TokenHealth = "critical"
	// HealthExpired means the token is expired or absent.
	HealthExpired TokenHealth = "expired"
)

// TokenHealth derives the current health classification from the token
// store. Pure derivation: no side effects beyond what the store's own
// expiry-gated reads already do.
func (e *Engine) TokenHealth() TokenHealth {
	expiry, ok := e.tokens.Expiry()
	if !ok {
		return HealthExpired
	}
	return healthForRemaining(expiry.Sub(e.now()))
}

func healthForRemaining(remaining time.Duration) TokenHealth {
	switch {
	case remaining > 25*time.Minute:
		return HealthExcellent
	case remaining > 15*time.Minute:
		return HealthGood
	case remaining > 5*time.Minute:
		return HealthWarning
	case remaining > 0:
		return HealthCritical
	default:
		return HealthExpired
	}
}

// SubscribeHealth registers fn for token-health transitions. fn fires only
// when the classification changes, not on every recomputation. The returned
// function unsubscribes.
func (e *Engine) SubscribeHealth(fn func(TokenHealth)) func() {
	e.healthMu.Lock()
	defer e.healthMu.Unlock()

	e.healthSub++
	id := e.healthSub
	e.healthSubs[id] = fn

	return func() {
		e.healthMu.Lock()
		defer e.healthMu.Unlock()
		delete(e.healthSubs, id)
	}
}

// healthLoop recomputes token health on a fixed interval while the engine
// runs. Authentication-state changes trigger an immediate recompute through
// onStateChange.
func (e *Engine) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.Clock.HealthInterval)
	defer ticker.Stop()

	e.recomputeHealth()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.closed:
			return
		case <-ticker.C:
			e.recomputeHealth()
		}
	}
}

func (e *Engine) recomputeHealth() {
	health := e.TokenHealth()

	e.healthMu.Lock()
	changed := health != e.lastHealth
	e.lastHealth = health
	var subs []func(TokenHealth)
	if changed {
		subs = make([]func(TokenHealth), 0, len(e.healthSubs))
		for _, fn := range e.healthSubs {
			subs = append(subs, fn)
		}
	}
	e.healthMu.Unlock()

	for _, fn := range subs {
		fn(health)
	}
}

// onStateChange runs after every session state action.
func (e *Engine) onStateChange() {
	e.recomputeHealth()
}

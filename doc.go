// Package authsession provides the client-side authenticated-session
// lifecycle for Secret Safe surfaces: durable token storage with fallback and
// cookie mirroring, expiry tracking, single-flight silent refresh, session
// restoration across process starts, and cross-process logout propagation.
//
// The package is the session counterpart of the Secret Safe backend API. It
// never verifies token signatures and never holds signing keys; token payloads
// are decoded only as a non-authoritative convenience for expiry countdowns
// and role-gated rendering. Authorization is always re-checked server-side.
//
// # Architecture boundaries
//
// authsession is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (SessionSnapshot, MetricsSnapshot, etc.). Token persistence
// lives in [github.com/secretsafe/authsession/store], payload decoding in
// [github.com/secretsafe/authsession/token], access policy in
// [github.com/secretsafe/authsession/policy], and the backend HTTP contract in
// [github.com/secretsafe/authsession/api]. Lifecycle event dispatch and metric
// counters live under internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Verify token signatures or treat decoded claims as an access-control
//     boundary.
//   - Persist user records; only token material is durable, user data is
//     always re-fetched with the access token as bearer credential.
//   - Start a second backend refresh call while one is in flight.
//
// # Concurrency contract
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Session state mutations are applied
// in call order under a single container lock. The refresh coordinator
// collapses concurrent callers onto one in-flight backend exchange and hands
// every caller the same settled result.
package authsession

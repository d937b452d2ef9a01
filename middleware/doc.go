// Package middleware exposes HTTP middleware adapters for route guarding in
// server-rendered Secret Safe deployments, built on top of the authsession
// policy evaluator.
//
// # Guards
//
//   - [Guard] — evaluates the request path against the route policy using the
//     session mirrored into request cookies, and redirects or rejects per the
//     policy decision.
//   - [RequireRole] — shortcut guard that demands a minimum role regardless of
//     the route table.
//
// Each guard reads the mirrored session cookies, decodes the access token
// claims without verification, and injects the resulting session view into
// the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into policy calls. It does NOT
// implement authentication itself — token validity is the backend's job, and
// the guards only gate navigation the way the client session layer does.
//
// # What this package must NOT do
//
//   - Verify JWT signatures (the backend is the authority).
//   - Call the authentication backend (guards are local and synchronous).
//   - Make authorization decisions beyond what the policy evaluator returns.
package middleware

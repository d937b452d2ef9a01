// Package token implements decode-without-verify reading of Secret Safe
// session token payloads.
//
// # Token format
//
// Three dot-separated base64url segments. The payload carries the subject id,
// email, role, issued-at and expiry epoch seconds, and a unique token id.
// Signatures are never checked here; verification is the backend's job.
//
// # Architecture boundaries
//
// This package owns structural validation and payload decoding only. Decoded
// claims are a non-authoritative convenience for UI display (expiry
// countdowns, role-gated rendering) and must never be used as an
// access-control boundary.
//
// # What this package must NOT do
//
//   - Hold or accept signing keys.
//   - Perform any I/O.
//   - Import authsession, store, or api.
package token

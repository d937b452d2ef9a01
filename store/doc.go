// Package store persists Secret Safe session token material across process
// restarts.
//
// # Layout
//
// Four keys are durable: the access token string, the refresh token string,
// and the derived expiry/issued-at epoch seconds. Writes go to a primary
// [Backend] (bbolt file database by default, redis optionally), fall back to
// a secondary in-memory backend when the primary fails, and are mirrored into
// a cookie file so request-time middleware in other processes can check
// session presence without executing library code.
//
// # Fail-closed reads
//
// Read errors from either backend are swallowed and treated as "absent"; a
// stored token whose expiry has passed is cleared on read and never returned.
// The store fails closed to logged-out, never open to an expired credential.
//
// # Architecture boundaries
//
// Only this package writes the session-prefixed keys, and every write keeps
// the backend chain and the cookie mirror consistent. Refresh scheduling,
// restoration, and state fan-out live in the root package.
package store

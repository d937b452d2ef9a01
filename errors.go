package authsession

import "errors"

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshRejected is returned when the backend authoritatively rejected
	// the refresh token. Local tokens are cleared as a side effect.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrRefreshUnavailable is returned for transient refresh failures.
	// Local tokens are preserved.
	ErrRefreshUnavailable = errors.New("refresh backend unavailable")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRestoreInProgress is an exported constant or variable used by the session engine.
	ErrRestoreInProgress = errors.New("session restore in progress")
	// ErrNotAuthenticated is an exported constant or variable used by the session engine.
	ErrNotAuthenticated = errors.New("not authenticated")
)

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/secretsafe/authsession/token"
)

// Session key names, shared with the cookie mirror and request middleware.
const (
	KeyAccessToken  = "ss_access_token"
	KeyRefreshToken = "ss_refresh_token"
	KeyExpiry       = "ss_token_expiry"
	KeyIssuedAt     = "ss_token_issued_at"
)

var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyExpiry, KeyIssuedAt}

const (
	// DefaultRefreshThreshold is the time-to-expiry at or under which
	// ShouldRefresh reports true.
	DefaultRefreshThreshold = 5 * time.Minute

	// DefaultCleanupGrace is how long after expiry the deferred cleanup
	// fires. A safety net for sessions no normal flow ever cleaned up.
	DefaultCleanupGrace = 24 * time.Hour
)

// ErrStorageUnavailable is returned when both the primary and the fallback
// backend reject a write.
var ErrStorageUnavailable = errors.New("session storage unavailable")

// Config configures a Store.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	Primary  Backend
	Fallback Backend
	Mirror   *CookieMirror
	Logger   *slog.Logger

	RefreshThreshold time.Duration
	CleanupGrace     time.Duration

	// OnFallback, when set, is invoked each time a write lands on the
	// fallback backend because the primary rejected it.
	OnFallback func()

	// Now overrides the wall clock. Tests only.
	Now func() time.Time
}

// Store owns the four durable session keys. All reads and writes of token
// material go through it so the backend chain and the cookie mirror stay
// consistent.
type Store struct {
	primary  Backend
	fallback Backend
	mirror   *CookieMirror
	logger   *slog.Logger

	refreshThreshold time.Duration
	cleanupGrace     time.Duration
	onFallback       func()
	now              func() time.Time

	mu      sync.Mutex
	cleanup *time.Timer
}

// New creates a Store. Primary is required; Fallback defaults to an
// in-memory backend and Mirror may be nil for mirror-less deployments.
func New(cfg Config) (*Store, error) {
	if cfg.Primary == nil {
		return nil, errors.New("primary backend required")
	}
	if cfg.Fallback == nil {
		cfg.Fallback = NewMemoryBackend()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	if cfg.CleanupGrace <= 0 {
		cfg.CleanupGrace = DefaultCleanupGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		primary:          cfg.Primary,
		fallback:         cfg.Fallback,
		mirror:           cfg.Mirror,
		logger:           cfg.Logger,
		refreshThreshold: cfg.RefreshThreshold,
		cleanupGrace:     cfg.CleanupGrace,
		onFallback:       cfg.OnFallback,
		now:              cfg.Now,
	}, nil
}

// Store decodes the access token, persists both raw token strings plus the
// derived expiry/issued-at, mirrors every key, and arms the deferred cleanup.
//
// An undecodable access token is a hard failure: any partial token state is
// cleared and the error wraps [token.ErrMalformed]. An undecodable refresh
// token is downgraded to a warning and the access token is stored alone.
func (s *Store) Store(accessToken, refreshToken string) error {
	claims, err := token.Decode(accessToken)
	if err != nil {
		if clearErr := s.Clear(); clearErr != nil {
			s.logger.Warn("clearing partial token state failed", "error", clearErr)
		}
		return fmt.Errorf("decode access token: %w", err)
	}

	if refreshToken != "" {
		if _, err := token.Decode(refreshToken); err != nil {
			s.logger.Warn("refresh token undecodable, storing access token alone", "error", err)
			refreshToken = ""
		}
	}

	pairs := [][2]string{
		{KeyAccessToken, accessToken},
		{KeyExpiry, strconv.FormatInt(claims.ExpiresAt.Unix(), 10)},
	}
	if refreshToken != "" {
		pairs = append(pairs, [2]string{KeyRefreshToken, refreshToken})
	}
	if !claims.IssuedAt.IsZero() {
		pairs = append(pairs, [2]string{KeyIssuedAt, strconv.FormatInt(claims.IssuedAt.Unix(), 10)})
	}

	for _, kv := range pairs {
		if err := s.setKey(kv[0], kv[1]); err != nil {
			return err
		}
	}

	// A pair stored without a refresh token must not inherit one from a
	// previous session.
	if refreshToken == "" {
		s.deleteKey(KeyRefreshToken)
	}

	s.ScheduleCleanup(claims.ExpiresAt)
	return nil
}

// deleteKey removes the key from both backends and the mirror. Failures are
// logged, not returned: a delete that cannot land leaves the same state a
// later Clear will retry.
func (s *Store) deleteKey(key string) {
	if err := s.primary.Delete(key); err != nil {
		s.logger.Warn("primary storage delete failed", "key", key, "error", err)
	}
	if err := s.fallback.Delete(key); err != nil {
		s.logger.Warn("fallback storage delete failed", "key", key, "error", err)
	}
	if s.mirror != nil {
		if err := s.mirror.Delete(key); err != nil {
			s.logger.Warn("cookie mirror delete failed", "key", key, "error", err)
		}
	}
}

// setKey writes to the primary backend, falling back to the secondary, and
// mirrors the key regardless of which tier took the write.
func (s *Store) setKey(key, value string) error {
	if err := s.primary.Set(key, value); err != nil {
		s.logger.Warn("primary storage write failed, using fallback", "key", key, "error", err)
		if fbErr := s.fallback.Set(key, value); fbErr != nil {
			return fmt.Errorf("%w: primary: %v, fallback: %v", ErrStorageUnavailable, err, fbErr)
		}
		if s.onFallback != nil {
			s.onFallback()
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Set(key, value); err != nil {
			s.logger.Warn("cookie mirror write failed", "key", key, "error", err)
		}
	}
	return nil
}

// getKey reads the key from the primary, then the fallback. Read errors are
// swallowed to "absent": a broken backend must fail closed to logged-out.
func (s *Store) getKey(key string) (string, bool) {
	if v, err := s.primary.Get(key); err == nil {
		return v, true
	} else if !errors.Is(err, ErrKeyNotFound) {
		s.logger.Debug("primary storage read failed", "key", key, "error", err)
	}

	if v, err := s.fallback.Get(key); err == nil {
		return v, true
	}
	return "", false
}

// AccessToken returns the stored access token. An expired token is never
// returned: when the stored expiry is at or before now, all token state is
// cleared as a side effect and the token is reported absent.
func (s *Store) AccessToken() (string, bool) {
	raw, ok := s.getKey(KeyAccessToken)
	if !ok {
		return "", false
	}

	if expiry, ok := s.Expiry(); !ok || !expiry.After(s.now()) {
		if err := s.Clear(); err != nil {
			s.logger.Warn("clearing expired token state failed", "error", err)
		}
		return "", false
	}

	return raw, true
}

// RefreshToken returns the stored refresh token, subject to the same
// expired-clears-state rule as AccessToken: refresh material from a cleared
// session must not outlive it.
func (s *Store) RefreshToken() (string, bool) {
	raw, ok := s.getKey(KeyRefreshToken)
	if !ok {
		return "", false
	}

	claims, err := token.Decode(raw)
	if err == nil && claims.Expired(s.now()) {
		if err := s.Clear(); err != nil {
			s.logger.Warn("clearing expired token state failed", "error", err)
		}
		return "", false
	}

	return raw, true
}

// Expiry returns the stored access-token expiry.
func (s *Store) Expiry() (time.Time, bool) {
	return s.timeKey(KeyExpiry)
}

// IssuedAt returns the stored access-token issue time.
func (s *Store) IssuedAt() (time.Time, bool) {
	return s.timeKey(KeyIssuedAt)
}

func (s *Store) timeKey(key string) (time.Time, bool) {
	raw, ok := s.getKey(key)
	if !ok {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// ShouldRefresh reports whether a silent refresh is due: the access token is
// within the refresh threshold of expiry, or absent while a refresh token is
// still held.
func (s *Store) ShouldRefresh() bool {
	expiry, ok := s.Expiry()
	if !ok {
		_, hasRefresh := s.getKey(KeyRefreshToken)
		return hasRefresh
	}
	return expiry.Sub(s.now()) <= s.refreshThreshold
}

// IsAuthenticated reports whether both tokens are present and unexpired.
func (s *Store) IsAuthenticated() bool {
	if _, ok := s.AccessToken(); !ok {
		return false
	}
	_, ok := s.RefreshToken()
	return ok
}

// Clear removes every session key from both backends and the mirror, and
// cancels any armed cleanup. Idempotent: clearing an already-empty store
// succeeds and leaves identical state.
func (s *Store) Clear() error {
	var firstErr error
	for _, key := range sessionKeys {
		if err := s.primary.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.fallback.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Clear(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.mu.Lock()
	if s.cleanup != nil {
		s.cleanup.Stop()
		s.cleanup = nil
	}
	s.mu.Unlock()

	return firstErr
}

// ScheduleCleanup arms a deferred Clear firing at expiry plus the cleanup
// grace. At most one cleanup is armed per store; a new call replaces the
// previous timer. The handle lives in memory only, never in storage.
func (s *Store) ScheduleCleanup(expiry time.Time) {
	delay := expiry.Add(s.cleanupGrace).Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	s.cleanup = time.AfterFunc(delay, func() {
		if err := s.Clear(); err != nil {
			s.logger.Warn("scheduled session cleanup failed", "error", err)
		}
	})
}

// Close cancels any armed cleanup and closes both backends.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.cleanup != nil {
		s.cleanup.Stop()
		s.cleanup = nil
	}
	s.mu.Unlock()

	err := s.primary.Close()
	if fbErr := s.fallback.Close(); err == nil {
		err = fbErr
	}
	return err
}

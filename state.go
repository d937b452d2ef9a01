package authsession

import (
	"sync"

	"github.com/secretsafe/authsession/store"
)

// SessionState is the canonical in-memory session for one engine instance.
// All mutations go through its actions; each action is atomic under the
// container lock, so mutations are applied in call order and never observed
// mid-execution.
type SessionState struct {
	tokens *store.Store

	mu            sync.Mutex
	authenticated bool
	user          *UserRecord
	loading       bool
	err           string
	onChange      func()
}

func newSessionState(tokens *store.Store) *SessionState {
	return &SessionState{tokens: tokens}
}

// setOnChange registers a single change hook, invoked outside the lock after
// every completed action.
func (s *SessionState) setOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *SessionState) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Login persists the token pair and sets the session to authenticated with
// the given user. Error and loading flags are reset.
func (s *SessionState) Login(accessToken, refreshToken string, user UserRecord) error {
	if err := s.tokens.Store(accessToken, refreshToken); err != nil {
		return err
	}

	s.mu.Lock()
	s.authenticated = true
	s.user = &user
	s.err = ""
	s.loading = false
	s.mu.Unlock()

	s.notify()
	return nil
}

// Logout clears all token state and resets the session to the logged-out
// default.
func (s *SessionState) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.authenticated = false
	s.user = nil
	s.err = ""
	s.loading = false
	s.mu.Unlock()

	s.notify()
	return err
}

// RefreshAuth is Login without resetting the error and loading flags, used
// mid-session after a silent refresh so an unrelated recorded error is not
// silently dismissed.
func (s *SessionState) RefreshAuth(accessToken, refreshToken string, user UserRecord) error {
	if err := s.tokens.Store(accessToken, refreshToken); err != nil {
		return err
	}

	s.mu.Lock()
	s.authenticated = true
	s.user = &user
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateUser shallow-merges the partial update into the current user record.
// No-op when no user is set.
func (s *SessionState) UpdateUser(update UserUpdate) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}

	if update.DisplayName != nil {
		s.user.DisplayName = *update.DisplayName
	}
	if update.FirstName != nil {
		s.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		s.user.LastName = *update.LastName
	}
	if update.AvatarURL != nil {
		s.user.AvatarURL = *update.AvatarURL
	}
	if update.Bio != nil {
		s.user.Bio = *update.Bio
	}
	if update.Role != nil {
		s.user.Role = *update.Role
	}
	if update.Verified != nil {
		s.user.Verified = *update.Verified
	}
	if update.SubscriptionTier != nil {
		s.user.SubscriptionTier = *update.SubscriptionTier
	}
	if update.LastCheckIn != nil {
		s.user.LastCheckIn = update.LastCheckIn
	}
	s.mu.Unlock()

	s.notify()
}

// SetError records an error string on the session.
func (s *SessionState) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	s.notify()
}

// ClearError removes any recorded error.
func (s *SessionState) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// SetLoading sets the loading flag.
func (s *SessionState) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// adopt sets the authenticated session without touching token storage.
// Restoration uses it after validating stored tokens against the backend.
func (s *SessionState) adopt(user UserRecord) {
	s.mu.Lock()
	s.authenticated = true
	s.user = &user
	s.mu.Unlock()
	s.notify()
}

// forceLogout resets the in-memory session without touching token storage.
// Used when another process already cleared the stored tokens.
func (s *SessionState) forceLogout() {
	s.mu.Lock()
	s.authenticated = false
	s.user = nil
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current session state.
func (s *SessionState) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		Authenticated: s.authenticated,
		Loading:       s.loading,
		Err:           s.err,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

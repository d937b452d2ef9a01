package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/secretsafe/authsession/policy"
	"github.com/secretsafe/authsession/store"
	"github.com/secretsafe/authsession/token"
)

// Session is the request-scoped view of the mirrored session that guards
// inject into the request context.
type Session struct {
	Authenticated bool
	UserID        string
	Email         string
	Role          string
}

type sessionContextKey struct{}

// SessionFromContext returns the session injected by a guard, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}

// Guard evaluates each request path against the route policy using the
// session mirrored into request cookies. Denied requests are redirected per
// the policy decision, or rejected with 403 when no redirect applies.
func Guard(policies *policy.Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policies == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			sess := sessionFromCookies(r)
			decision := policies.CheckRouteAccess(r.URL.Path, sess.Role, sess.Authenticated)
			if !decision.Allowed {
				if decision.RedirectTo != "" {
					http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole demands a minimum role for everything behind it, regardless of
// the route table. Unauthenticated requests get 401, under-privileged ones
// get 403.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromCookies(r)
			if !sess.Authenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if policy.RoleRank(sess.Role) < policy.RoleRank(minRole) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromCookies rebuilds a session view from the mirrored cookies. A
// missing, malformed, or expired access token yields an anonymous session.
func sessionFromCookies(r *http.Request) *Session {
	cookie, err := r.Cookie(store.KeyAccessToken)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	claims, err := token.Decode(cookie.Value)
	if err != nil || claims.Expired(time.Now()) {
		return &Session{}
	}

	return &Session{
		Authenticated: true,
		UserID:        claims.Subject,
		Email:         claims.Email,
		Role:          claims.Role,
	}
}

package policy

import "strings"

// Role names, fixed by the Secret Safe user model.
const (
	RoleReader = "reader"
	RoleWriter = "writer"
	RoleAdmin  = "admin"
)

// roleRank orders the role hierarchy. Unknown roles rank 0 and satisfy no
// requirement.
var roleRank = map[string]int{
	RoleReader: 1,
	RoleWriter: 2,
	RoleAdmin:  3,
}

// RoleRank returns the hierarchy rank of role, 0 for unknown roles.
func RoleRank(role string) int {
	return roleRank[role]
}

// Rule is one entry in the access table. Exactly one of Public, MinRole, or
// RequiredRoles should be set; RequiredRoles wins when both are present.
type Rule struct {
	// Path is an exact path or a pattern. Segments of the form [name] match
	// any single segment; a trailing * matches any remainder.
	Path string

	Public        bool
	MinRole       string
	RequiredRoles []string

	// RedirectTo overrides the default denial redirect target.
	RedirectTo string
}

// Decision is the outcome of an access check. Denial is data, not an error.
type Decision struct {
	Allowed      bool
	RedirectTo   string
	Reason       string
	RequiredRole string
	UserRole     string
}

// Evaluator checks route and feature access against a static table. The
// zero value is unusable; construct with New or Default.
type Evaluator struct {
	routes   []Rule
	features map[string]Rule
}

// New creates an evaluator over the given tables. The route order is
// significant for pattern matching: earlier rules win ties.
func New(routes []Rule, features map[string]Rule) *Evaluator {
	return &Evaluator{routes: routes, features: features}
}

// Default returns an evaluator over the product route and feature tables.
func Default() *Evaluator {
	return New(defaultRoutes, defaultFeatures)
}

// CheckRouteAccess evaluates path for the given role and authentication
// state. Matching order: exact path first, then pattern rules in table
// order, else default-deny-unless-authenticated.
func (e *Evaluator) CheckRouteAccess(path, role string, authenticated bool) Decision {
	for _, r := range e.routes {
		if r.Path == path {
			return e.apply(r, role, authenticated)
		}
	}
	for _, r := range e.routes {
		if matchPattern(r.Path, path) {
			return e.apply(r, role, authenticated)
		}
	}

	if authenticated {
		return Decision{Allowed: true, UserRole: role}
	}
	return Decision{
		Allowed:    false,
		RedirectTo: "/login",
		Reason:     "authentication required",
		UserRole:   role,
	}
}

// CheckFeatureAccess evaluates a named feature (for example
// "messages.create") for the given role and authentication state. Unknown
// features are denied unless authenticated, mirroring route defaults.
func (e *Evaluator) CheckFeatureAccess(feature, role string, authenticated bool) Decision {
	if r, ok := e.features[feature]; ok {
		return e.apply(r, role, authenticated)
	}
	if authenticated {
		return Decision{Allowed: true, UserRole: role}
	}
	return Decision{
		Allowed:    false,
		RedirectTo: "/login",
		Reason:     "authentication required",
		UserRole:   role,
	}
}

// AccessibleRoutes filters the route table down to the paths the given role
// may visit. UI affordance only, not enforcement.
func (e *Evaluator) AccessibleRoutes(role string, authenticated bool) []string {
	var out []string
	for _, r := range e.routes {
		if e.apply(r, role, authenticated).Allowed {
			out = append(out, r.Path)
		}
	}
	return out
}

func (e *Evaluator) apply(r Rule, role string, authenticated bool) Decision {
	d := Decision{UserRole: role}

	if r.Public {
		d.Allowed = true
		return d
	}

	if !authenticated {
		d.RedirectTo = redirectOr(r, "/login")
		d.Reason = "authentication required"
		return d
	}

	if len(r.RequiredRoles) > 0 {
		for _, required := range r.RequiredRoles {
			if role == required {
				d.Allowed = true
				return d
			}
		}
		d.RedirectTo = redirectOr(r, "/dashboard")
		d.Reason = "role not permitted"
		d.RequiredRole = strings.Join(r.RequiredRoles, ",")
		return d
	}

	if r.MinRole != "" {
		if RoleRank(role) >= RoleRank(r.MinRole) {
			d.Allowed = true
			return d
		}
		d.RedirectTo = redirectOr(r, "/dashboard")
		d.Reason = "insufficient role"
		d.RequiredRole = r.MinRole
		return d
	}

	d.Allowed = true
	return d
}

func redirectOr(r Rule, fallback string) string {
	if r.RedirectTo != "" {
		return r.RedirectTo
	}
	return fallback
}

// matchPattern reports whether path matches pattern. [name] segments match
// exactly one segment; a trailing * matches one or more remaining segments.
func matchPattern(pattern, path string) bool {
	if !strings.ContainsAny(pattern, "[*") {
		return pattern == path
	}

	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	ts := strings.Split(strings.Trim(path, "/"), "/")

	for i, seg := range ps {
		if seg == "*" && i == len(ps)-1 {
			return len(ts) > i
		}
		if i >= len(ts) {
			return false
		}
		if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
			continue
		}
		if seg != ts[i] {
			return false
		}
	}

	return len(ts) == len(ps)
}

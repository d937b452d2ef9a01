package policy

import (
	"slices"
	"testing"
)

func TestRouteAccessTable(t *testing.T) {
	e := Default()

	cases := []struct {
		name     string
		path     string
		role     string
		authed   bool
		allowed  bool
		redirect string
	}{
		{"public route anonymous", "/", "", false, true, ""},
		{"login page anonymous", "/login", "", false, true, ""},
		{"shared link anonymous", "/shared/abc123", "", false, true, ""},
		{"dashboard anonymous", "/dashboard", "", false, false, "/login"},
		{"dashboard reader", "/dashboard", RoleReader, true, true, ""},
		{"messages reader", "/messages", RoleReader, true, false, "/dashboard"},
		{"messages writer", "/messages", RoleWriter, true, true, ""},
		{"message detail writer", "/messages/42", RoleWriter, true, true, ""},
		{"check-in writer", "/check-in", RoleWriter, true, true, ""},
		{"check-in reader", "/check-in", RoleReader, true, false, "/dashboard"},
		{"admin as writer", "/admin", RoleWriter, true, false, "/dashboard"},
		{"admin as admin", "/admin", RoleAdmin, true, true, ""},
		{"admin subpage as admin", "/admin/users", RoleAdmin, true, true, ""},
		{"admin subpage as writer", "/admin/users", RoleWriter, true, false, "/dashboard"},
		{"unknown route authed", "/anything-else", RoleReader, true, true, ""},
		{"unknown route anonymous", "/anything-else", "", false, false, "/login"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := e.CheckRouteAccess(tc.path, tc.role, tc.authed)
			if d.Allowed != tc.allowed {
				t.Fatalf("allowed=%v, want %v (reason %q)", d.Allowed, tc.allowed, d.Reason)
			}
			if d.RedirectTo != tc.redirect {
				t.Fatalf("redirect=%q, want %q", d.RedirectTo, tc.redirect)
			}
		})
	}
}

func TestRoleHierarchyCoversMinRole(t *testing.T) {
	e := Default()

	// Higher roles inherit everything below them.
	for _, role := range []string{RoleWriter, RoleAdmin} {
		if d := e.CheckRouteAccess("/dashboard", role, true); !d.Allowed {
			t.Fatalf("role %s denied reader-level route: %q", role, d.Reason)
		}
	}
	if d := e.CheckRouteAccess("/messages", RoleAdmin, true); !d.Allowed {
		t.Fatalf("admin denied writer-level route: %q", d.Reason)
	}
}

func TestRequiredRolesIgnoreHierarchy(t *testing.T) {
	e := New([]Rule{
		{Path: "/ops", RequiredRoles: []string{RoleReader}},
	}, nil)

	// RequiredRoles is an exact set: an admin does not satisfy a
	// reader-only rule through rank.
	if d := e.CheckRouteAccess("/ops", RoleAdmin, true); d.Allowed {
		t.Fatal("exact-set rule satisfied through hierarchy")
	}
	if d := e.CheckRouteAccess("/ops", RoleReader, true); !d.Allowed {
		t.Fatalf("listed role denied: %q", d.Reason)
	}
}

func TestUnknownRoleSatisfiesNothing(t *testing.T) {
	e := Default()

	if d := e.CheckRouteAccess("/dashboard", "superuser", true); d.Allowed {
		t.Fatal("unknown role passed a MinRole gate")
	}
	if RoleRank("superuser") != 0 {
		t.Fatal("unknown role must rank 0")
	}
}

func TestFeatureAccess(t *testing.T) {
	e := Default()

	if d := e.CheckFeatureAccess("messages.create", RoleReader, true); d.Allowed {
		t.Fatal("reader allowed to create messages")
	}
	if d := e.CheckFeatureAccess("messages.create", RoleWriter, true); !d.Allowed {
		t.Fatalf("writer denied message creation: %q", d.Reason)
	}
	if d := e.CheckFeatureAccess("admin.role_change", RoleWriter, true); d.Allowed {
		t.Fatal("writer allowed admin feature")
	}
	if d := e.CheckFeatureAccess("unknown.feature", RoleReader, true); !d.Allowed {
		t.Fatal("unknown feature denied for authenticated user")
	}
	if d := e.CheckFeatureAccess("unknown.feature", "", false); d.Allowed {
		t.Fatal("unknown feature allowed anonymously")
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/shared/[id]", "/shared/abc", true},
		{"/shared/[id]", "/shared/abc/extra", false},
		{"/shared/[id]", "/shared", false},
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin/users/42", true},
		{"/admin/*", "/admin", false},
		{"/messages/[id]", "/messages/7", true},
		{"/exact", "/exact", true},
		{"/exact", "/other", false},
	}

	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.path); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestAccessibleRoutes(t *testing.T) {
	e := Default()

	reader := e.AccessibleRoutes(RoleReader, true)
	if !slices.Contains(reader, "/dashboard") {
		t.Fatal("reader missing /dashboard")
	}
	if slices.Contains(reader, "/messages") {
		t.Fatal("reader should not see /messages")
	}

	admin := e.AccessibleRoutes(RoleAdmin, true)
	if !slices.Contains(admin, "/admin") {
		t.Fatal("admin missing /admin")
	}

	anon := e.AccessibleRoutes("", false)
	if !slices.Contains(anon, "/login") || slices.Contains(anon, "/dashboard") {
		t.Fatalf("unexpected anonymous routes: %v", anon)
	}
}

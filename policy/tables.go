package policy

// defaultRoutes is the product route table. Order matters: exact paths are
// tried first by the evaluator, then patterns in this order.
var defaultRoutes = []Rule{
	// Marketing and auth surfaces, open to everyone.
	{Path: "/", Public: true},
	{Path: "/about", Public: true},
	{Path: "/pricing", Public: true},
	{Path: "/security", Public: true},
	{Path: "/how-it-works", Public: true},
	{Path: "/login", Public: true},
	{Path: "/register", Public: true},
	{Path: "/forgot-password", Public: true},
	{Path: "/reset-password", Public: true},
	{Path: "/verify-email", Public: true},

	// Authenticated app surfaces.
	{Path: "/dashboard", MinRole: RoleReader},
	{Path: "/profile", MinRole: RoleReader},
	{Path: "/settings", MinRole: RoleReader},
	{Path: "/shared/[id]", Public: true},

	// Message authoring requires writer or above.
	{Path: "/messages", MinRole: RoleWriter},
	{Path: "/messages/new", MinRole: RoleWriter},
	{Path: "/messages/[id]", MinRole: RoleWriter},
	{Path: "/check-in", MinRole: RoleWriter},

	// Admin area is exact-set: only admin, hierarchy does not apply.
	{Path: "/admin", RequiredRoles: []string{RoleAdmin}},
	{Path: "/admin/*", RequiredRoles: []string{RoleAdmin}},
}

// defaultFeatures gates in-page actions by name.
var defaultFeatures = map[string]Rule{
	"messages.view":     {MinRole: RoleReader},
	"messages.create":   {MinRole: RoleWriter},
	"messages.delete":   {MinRole: RoleWriter},
	"checkin.perform":   {MinRole: RoleWriter},
	"profile.edit":      {MinRole: RoleReader},
	"admin.users":       {RequiredRoles: []string{RoleAdmin}},
	"admin.role_change": {RequiredRoles: []string{RoleAdmin}},
}

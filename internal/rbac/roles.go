package rbac

// Operator role names. Keep these stable; they are embedded in issued tokens.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool { return role == RoleAdmin || role == RoleViewer }

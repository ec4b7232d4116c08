package auth

import "strings"

// Base navigation paths per role. Every valid role has an entry;
// DefaultBasePath is used before resolution completes or when no role is set.
const (
	SuperAdminBasePath = "/super-admin"
	AdminBasePath      = "/admin"
	SubAdminBasePath   = "/sub-admin"

	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"

	DefaultBasePath = AdminBasePath
)

// BasePath returns the base navigation path for a role. An empty or unknown
// role falls back to the admin base path.
func BasePath(r Role) string {
	switch r {
	case RoleSuperAdmin:
		return SuperAdminBasePath
	case RoleAdmin:
		return AdminBasePath
	case RoleSubAdmin:
		return SubAdminBasePath
	}
	return DefaultBasePath
}

var adminRoutePrefixes = []string{
	SuperAdminBasePath,
	AdminBasePath,
	SubAdminBasePath,
	LoginPath,
	UnauthorizedPath,
}

// IsAdminRoute reports whether path belongs to the admin surface: anything
// under the role base paths, plus the login and unauthorized pages.
// Idle enforcement applies only to these routes.
func IsAdminRoute(path string) bool {
	for _, prefix := range adminRoutePrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

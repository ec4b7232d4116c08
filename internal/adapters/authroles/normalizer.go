package authroles

import (
	"strings"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
)

// StaticNormalizer maps raw stored role strings onto the closed role set,
// tolerating whitespace, case, and synonym variation. It never fails: an
// unrecognized role degrades to sub_admin rather than blocking sign-in.
type StaticNormalizer struct{}

// synonyms covers historical spellings found in stored profile documents.
var synonyms = map[string]domainauth.Role{
	"superadmin":    domainauth.RoleSuperAdmin,
	"super admin":   domainauth.RoleSuperAdmin,
	"super-admin":   domainauth.RoleSuperAdmin,
	"subadmin":      domainauth.RoleSubAdmin,
	"sub admin":     domainauth.RoleSubAdmin,
	"sub-admin":     domainauth.RoleSubAdmin,
	"administrator": domainauth.RoleAdmin,
}

// Normalize resolves raw to a valid Role. Empty input yields the
// least-privileged default.
func (StaticNormalizer) Normalize(raw string) domainauth.Role {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return domainauth.RoleSubAdmin
	}

	if r := domainauth.Role(cleaned); r.IsValid() {
		return r
	}

	if r, ok := synonyms[cleaned]; ok {
		return r
	}

	for _, r := range domainauth.Roles {
		if strings.EqualFold(cleaned, string(r)) {
			return r
		}
	}

	return domainauth.RoleSubAdmin
}

// Recognized reports whether raw would normalize without falling back to the
// default. The resolver uses this to log data-quality issues in stored roles.
func (StaticNormalizer) Recognized(raw string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return false
	}
	if domainauth.Role(cleaned).IsValid() {
		return true
	}
	_, ok := synonyms[cleaned]
	return ok
}

// BasePath returns the base navigation path for role.
func (StaticNormalizer) BasePath(role domainauth.Role) string {
	return domainauth.BasePath(role)
}

package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
)

func TestNormalize(t *testing.T) {
	n := StaticNormalizer{}

	cases := []struct {
		raw  string
		want domainauth.Role
	}{
		{"super_admin", domainauth.RoleSuperAdmin},
		{"admin", domainauth.RoleAdmin},
		{"sub_admin", domainauth.RoleSubAdmin},

		// Whitespace and case tolerance.
		{"Super Admin ", domainauth.RoleSuperAdmin},
		{"  ADMIN", domainauth.RoleAdmin},
		{"SUPER_ADMIN", domainauth.RoleSuperAdmin},
		{"\tSub_Admin\n", domainauth.RoleSubAdmin},

		// Historical synonyms.
		{"superadmin", domainauth.RoleSuperAdmin},
		{"super-admin", domainauth.RoleSuperAdmin},
		{"subadmin", domainauth.RoleSubAdmin},
		{"sub-admin", domainauth.RoleSubAdmin},
		{"administrator", domainauth.RoleAdmin},

		// Unknown or empty degrade to the least-privileged role.
		{"", domainauth.RoleSubAdmin},
		{"   ", domainauth.RoleSubAdmin},
		{"owner", domainauth.RoleSubAdmin},
		{"root", domainauth.RoleSubAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.raw))
		})
	}
}

func TestNormalize_AlwaysValid(t *testing.T) {
	n := StaticNormalizer{}
	for _, raw := range []string{"", "garbage", "ADMIN", " super admin ", "administrator", "??", "sub_admin"} {
		assert.True(t, n.Normalize(raw).IsValid(), "raw=%q", raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := StaticNormalizer{}
	for _, raw := range []string{"Super Admin ", "administrator", "garbage", "admin"} {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(string(once)), "raw=%q", raw)
	}
}

func TestRecognized(t *testing.T) {
	n := StaticNormalizer{}

	assert.True(t, n.Recognized("admin"))
	assert.True(t, n.Recognized(" Super Admin "))
	assert.True(t, n.Recognized("administrator"))

	assert.False(t, n.Recognized(""))
	assert.False(t, n.Recognized("owner"))
	assert.False(t, n.Recognized("moderator"))
}

func TestBasePath(t *testing.T) {
	n := StaticNormalizer{}

	assert.Equal(t, domainauth.SuperAdminBasePath, n.BasePath(domainauth.RoleSuperAdmin))
	assert.Equal(t, domainauth.AdminBasePath, n.BasePath(domainauth.RoleAdmin))
	assert.Equal(t, domainauth.SubAdminBasePath, n.BasePath(domainauth.RoleSubAdmin))
	assert.Equal(t, domainauth.DefaultBasePath, n.BasePath(domainauth.Role("")))
}

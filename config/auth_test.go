package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthModeUnmarshalText(t *testing.T) {
	var m AuthMode
	require.NoError(t, m.UnmarshalText([]byte("password")))
	assert.Equal(t, AuthModePassword, m)

	require.NoError(t, m.UnmarshalText([]byte("OIDC")))
	assert.Equal(t, AuthModeOIDC, m)

	assert.Error(t, m.UnmarshalText([]byte("saml")))
}

func TestAuthConfigSanitize(t *testing.T) {
	a := AuthConfig{}
	a.Sanitize()
	assert.Equal(t, 30*time.Minute, a.IdleTimeout)
	assert.Equal(t, time.Second, a.RoutePollInterval)
	assert.Equal(t, time.Hour, a.ProfileCacheTTL)

	a = AuthConfig{IdleTimeout: 5 * time.Minute, RoutePollInterval: 2 * time.Second, ProfileCacheTTL: 10 * time.Minute}
	a.Sanitize()
	assert.Equal(t, 5*time.Minute, a.IdleTimeout)
	assert.Equal(t, 2*time.Second, a.RoutePollInterval)
	assert.Equal(t, 10*time.Minute, a.ProfileCacheTTL)
}

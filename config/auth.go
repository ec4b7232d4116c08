package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity-provider mode for the application.
type AuthMode string

const (
	// AuthModePassword uses the built-in email/password roster.
	AuthModePassword AuthMode = "password"
	// AuthModeOIDC uses an external OIDC issuer via the password grant.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oidc)", v)
	}
}

// OIDCConfig contains OIDC issuer configuration (used when Mode=oidc).
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// Claim expressions (JMESPath) evaluated against ID-token claims.
	SubjectClaim string `env:"SUBJECT_CLAIM" envDefault:"sub"`
	EmailClaim   string `env:"EMAIL_CLAIM"   envDefault:"email"`
	NameClaim    string `env:"NAME_CLAIM"    envDefault:"name"`
}

// PasswordAuthConfig contains the static user roster (used when
// Mode=password). Users are "email:bcrypt-hash" or
// "email:bcrypt-hash:display name" entries separated by semicolons.
type PasswordAuthConfig struct {
	Users         []string      `env:"USERS"          envSeparator:";"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS"   envDefault:"5"`
	AttemptWindow time.Duration `env:"ATTEMPT_WINDOW" envDefault:"15m"`
}

// AuthConfig groups all authentication and session configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// Password roster configuration (used when Mode=password).
	Password PasswordAuthConfig `envPrefix:"PASSWORD_AUTH_"`

	// PrivilegedEmail is auto-provisioned as super_admin on first sign-in
	// when no profile document exists; every other email gets sub_admin.
	PrivilegedEmail string `env:"PRIVILEGED_EMAIL" envDefault:"superadmin@theubc.com"`

	// IdleTimeout forces logout after this much inactivity on admin routes.
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`

	// RoutePollInterval is the fallback poll interval for detecting
	// client-side route changes.
	RoutePollInterval time.Duration `env:"ROUTE_POLL_INTERVAL" envDefault:"1s"`

	// ProfileCacheTTL bounds staleness of the cache-fallback profile copy.
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.IdleTimeout <= 0 {
		a.IdleTimeout = 30 * time.Minute
	}
	if a.RoutePollInterval <= 0 {
		a.RoutePollInterval = time.Second
	}
	if a.ProfileCacheTTL <= 0 {
		a.ProfileCacheTTL = time.Hour
	}
}

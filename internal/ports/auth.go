package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
)

// IdentityCallback receives the new identity on every identity-change event.
// A nil identity means the principal signed out.
type IdentityCallback func(identity *domainauth.Identity)

// IdentitySource is the external identity provider: it owns sign-in and
// sign-out and emits identity-change events to registered listeners.
type IdentitySource interface {
	// OnIdentityChange registers a listener and returns an unsubscribe func.
	// The listener is invoked with the current identity immediately on
	// registration, then on every subsequent change.
	OnIdentityChange(fn IdentityCallback) (unsubscribe func())

	// SignInWithPassword authenticates with email/password credentials.
	// Credential failures must not reveal whether the email or the password
	// was wrong; callers surface a uniform message.
	SignInWithPassword(ctx context.Context, email, password string) error

	// SignOut terminates the provider-side session.
	SignOut(ctx context.Context) error
}

// ReadSource selects where a profile read is served from.
type ReadSource string

const (
	// FromServer bypasses any local cache and reads the authoritative copy.
	FromServer ReadSource = "server"
	// FromCache reads a possibly stale local copy; used as a one-shot
	// fallback when the server is unreachable.
	FromCache ReadSource = "cache"
)

// ProfileStore persists and retrieves user profile documents keyed by
// identity id.
type ProfileStore interface {
	// Get retrieves the profile for id. Implementations surface errors
	// classifiable by internal/observability/errors: not-found,
	// permission-denied, unavailable, deadline-exceeded.
	Get(ctx context.Context, id string, src ReadSource) (domainauth.UserProfile, error)

	// Create writes a new profile document. It must not overwrite an
	// existing document; a conflict surfaces as an already-exists error.
	Create(ctx context.Context, profile domainauth.UserProfile) error
}

// AuditLog records authentication lifecycle events. Writes are
// fire-and-forget from the caller's perspective; failures never propagate
// to login/logout outcomes.
type AuditLog interface {
	Record(ctx context.Context, event domainauth.AuditEvent) error
}

// RoleNormalizer maps raw stored role strings onto the closed Role set and
// resolves base navigation paths. Normalize never fails: unrecognized input
// degrades to the least-privileged role.
type RoleNormalizer interface {
	Normalize(raw string) domainauth.Role
	BasePath(role domainauth.Role) string
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// roleRecognizer is optionally implemented by role normalizers that can
// report whether a raw role string was recognized (vs. silently degraded).
type roleRecognizer interface {
	Recognized(raw string) bool
}

// SessionResolverOptions groups dependencies for SessionResolver.
type SessionResolverOptions struct {
	Profiles ports.ProfileStore
	Identity ports.IdentitySource
	Roles    ports.RoleNormalizer

	// PrivilegedEmail receives super_admin on first-ever sign-in when no
	// profile document exists; every other email receives sub_admin.
	PrivilegedEmail string

	Logger *slog.Logger
}

// SessionResolver turns an identity-change event into an authenticated user
// or a signed-out state. Every failure branch terminates in a well-defined
// transition; it never returns an error to application code.
type SessionResolver struct {
	profiles        ports.ProfileStore
	identity        ports.IdentitySource
	roles           ports.RoleNormalizer
	privilegedEmail string
	logger          *slog.Logger
}

// NewSessionResolver constructs a SessionResolver.
func NewSessionResolver(opts SessionResolverOptions) *SessionResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionResolver{
		profiles:        opts.Profiles,
		identity:        opts.Identity,
		roles:           opts.Roles,
		privilegedEmail: strings.ToLower(opts.PrivilegedEmail),
		logger:          logger,
	}
}

// Resolution is the terminal state of one resolution attempt. A nil User
// means signed out.
type Resolution struct {
	User *domainauth.AuthenticatedUser

	// Stale is set when the user was built from the cache fallback after a
	// transient server failure.
	Stale bool
}

// Resolve runs the resolution state machine for one identity-change event.
//
// On a nil identity it resolves directly to signed out. Otherwise it fetches
// the profile from the server, auto-provisions a default profile when none
// exists, validates the active flag, normalizes the role, and constructs the
// authenticated user. Permission errors are fatal with no retry; transient
// errors get exactly one cache-fallback read.
func (r *SessionResolver) Resolve(ctx context.Context, identity *domainauth.Identity) Resolution {
	if identity == nil {
		return Resolution{}
	}

	profile, err := r.profiles.Get(ctx, identity.ID, ports.FromServer)
	if err != nil {
		switch kind := obserrors.KindOf(err); {
		case kind == obserrors.KindNotFound:
			return r.provision(ctx, identity)

		case kind == obserrors.KindPermissionDenied:
			// Retrying cannot help: the profile is inaccessible under the
			// current security rules. No cache fallback on this branch.
			r.logger.WarnContext(ctx, "profile fetch permission denied, signing out",
				"user_id", identity.ID, "error", err)
			return r.signOut(ctx)

		case obserrors.Transient(err):
			return r.resolveFromCache(ctx, identity, err)

		default:
			r.logger.ErrorContext(ctx, "profile fetch failed, signing out",
				"user_id", identity.ID, "error", err, "error_class", obserrors.Classify(err))
			return r.signOut(ctx)
		}
	}

	user, ok := r.evaluate(ctx, identity, profile)
	if !ok {
		return r.signOut(ctx)
	}
	return Resolution{User: user}
}

// evaluate validates a fetched profile and derives the authenticated user.
// ok is false when the profile is inactive.
func (r *SessionResolver) evaluate(ctx context.Context, identity *domainauth.Identity, profile domainauth.UserProfile) (*domainauth.AuthenticatedUser, bool) {
	if !profile.IsActive {
		r.logger.WarnContext(ctx, "inactive account, signing out", "user_id", identity.ID)
		return nil, false
	}

	role := r.roles.Normalize(profile.Role)
	if rec, ok := r.roles.(roleRecognizer); ok && !rec.Recognized(profile.Role) {
		r.logger.WarnContext(ctx, "unrecognized role in profile, degraded to default",
			"user_id", identity.ID, "raw_role", profile.Role, "role", string(role))
	}

	email := profile.Email
	if email == "" {
		email = identity.Email
	}

	return &domainauth.AuthenticatedUser{
		ID:    identity.ID,
		Email: email,
		Name:  profile.Name,
		Role:  role,
	}, true
}

// provision creates a default profile on first sign-in and re-fetches the
// canonical copy. A concurrent creator winning the insert race is tolerated:
// the re-fetch proceeds either way.
func (r *SessionResolver) provision(ctx context.Context, identity *domainauth.Identity) Resolution {
	profile := domainauth.UserProfile{
		ID:          identity.ID,
		Email:       identity.Email,
		Role:        string(r.defaultRole(identity.Email)),
		Name:        displayName(identity),
		IsActive:    true,
		AutoCreated: true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.profiles.Create(ctx, profile); err != nil {
		if obserrors.KindOf(err) != obserrors.KindAlreadyExists {
			r.logger.ErrorContext(ctx, "profile auto-provisioning failed, signing out",
				"user_id", identity.ID, "error", err)
			return r.signOut(ctx)
		}
		r.logger.InfoContext(ctx, "profile already created concurrently", "user_id", identity.ID)
	} else {
		r.logger.InfoContext(ctx, "auto-provisioned profile",
			"user_id", identity.ID, "role", profile.Role)
	}

	canonical, err := r.profiles.Get(ctx, identity.ID, ports.FromServer)
	if err != nil {
		r.logger.ErrorContext(ctx, "re-fetch after provisioning failed, signing out",
			"user_id", identity.ID, "error", err)
		return r.signOut(ctx)
	}

	user, ok := r.evaluate(ctx, identity, canonical)
	if !ok {
		return r.signOut(ctx)
	}
	return Resolution{User: user}
}

// resolveFromCache performs the single cache-fallback read allowed after a
// transient server failure. Any cache miss, read failure, or inactive cached
// profile falls through to the generic failure path; there are no further
// retries.
func (r *SessionResolver) resolveFromCache(ctx context.Context, identity *domainauth.Identity, serverErr error) Resolution {
	r.logger.WarnContext(ctx, "profile server fetch unavailable, trying cache",
		"user_id", identity.ID, "error", serverErr)

	cached, err := r.profiles.Get(ctx, identity.ID, ports.FromCache)
	if err != nil {
		r.logger.WarnContext(ctx, "cache fallback failed, signing out",
			"user_id", identity.ID, "error", err)
		return r.signOut(ctx)
	}

	user, ok := r.evaluate(ctx, identity, cached)
	if !ok {
		return r.signOut(ctx)
	}
	return Resolution{User: user, Stale: true}
}

// signOut terminates the provider-side session best-effort and resolves to
// signed out.
func (r *SessionResolver) signOut(ctx context.Context) Resolution {
	if err := r.identity.SignOut(ctx); err != nil {
		r.logger.WarnContext(ctx, "provider sign-out failed", "error", err)
	}
	return Resolution{}
}

func (r *SessionResolver) defaultRole(email string) domainauth.Role {
	if r.privilegedEmail != "" && strings.ToLower(email) == r.privilegedEmail {
		return domainauth.RoleSuperAdmin
	}
	return domainauth.RoleSubAdmin
}

// displayName derives a profile display name: provider-supplied name, else
// the local part of the email, else "User".
func displayName(identity *domainauth.Identity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return "User"
}

// String implements fmt.Stringer for log-friendly resolution summaries.
func (res Resolution) String() string {
	if res.User == nil {
		return "unauthenticated"
	}
	return fmt.Sprintf("authenticated(%s, role=%s, stale=%t)", res.User.ID, res.User.Role, res.Stale)
}

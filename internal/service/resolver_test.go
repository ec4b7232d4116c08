package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vrnd369/theubc-admin-api/internal/adapters/authroles"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	"github.com/vrnd369/theubc-admin-api/internal/mocks"
	authmocks "github.com/vrnd369/theubc-admin-api/internal/mocks/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

const privilegedEmail = "superadmin@theubc.com"

func newTestResolver(profiles ports.ProfileStore, identity ports.IdentitySource) *SessionResolver {
	return NewSessionResolver(SessionResolverOptions{
		Profiles:        profiles,
		Identity:        identity,
		Roles:           authroles.StaticNormalizer{},
		PrivilegedEmail: privilegedEmail,
	})
}

func TestResolve_NilIdentity_Unauthenticated(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), nil)

	assert.Nil(t, res.User)
	assert.Equal(t, 0, store.ServerGets)
}

func TestResolve_ActiveProfile_Authenticated(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.SeedServer(domainauth.UserProfile{
		ID: "u1", Email: "admin@theubc.com", Role: "admin", Name: "Admin", IsActive: true,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "admin@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, domainauth.RoleAdmin, res.User.Role)
	assert.Equal(t, "admin@theubc.com", res.User.Email)
	assert.Equal(t, "Admin", res.User.Name)
	assert.False(t, res.Stale)
}

func TestResolve_MessyRoleString_Normalized(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.SeedServer(domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "Super Admin ", IsActive: true,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, domainauth.RoleSuperAdmin, res.User.Role)
}

func TestResolve_InactiveProfile_FailsClosed(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.SeedServer(domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "super_admin", IsActive: false,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 1, idp.SignOutCalls)
}

func TestResolve_PermissionDenied_NoCacheFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	idp := authmocks.NewFakeIdentitySource()

	// Exactly one server read; a cache read after permission-denied would
	// fail the expectation.
	profiles.EXPECT().
		Get(gomock.Any(), "u1", ports.FromServer).
		Return(domainauth.UserProfile{}, obserrors.ErrPermissionDenied).
		Times(1)

	res := newTestResolver(profiles, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 1, idp.SignOutCalls)
}

func TestResolve_Unavailable_CacheFallbackSucceeds(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.ServerErr = obserrors.ErrUnavailable
	store.SeedCache(domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "sub_admin", IsActive: true,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.True(t, res.Stale)
	assert.Equal(t, domainauth.RoleSubAdmin, res.User.Role)
	assert.Equal(t, 1, store.CacheGets)
}

func TestResolve_Unavailable_CacheFallbackBounded(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.ServerErr = obserrors.ErrUnavailable
	store.CacheErr = errors.New("cache down")
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 1, store.ServerGets, "no server retries")
	assert.Equal(t, 1, store.CacheGets, "exactly one cache attempt")
	assert.Equal(t, 1, idp.SignOutCalls)
}

func TestResolve_DeadlineExceeded_CacheFallback(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.ServerErr = context.DeadlineExceeded
	store.SeedCache(domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "admin", IsActive: true,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.True(t, res.Stale)
	assert.Equal(t, domainauth.RoleAdmin, res.User.Role)
}

func TestResolve_Unavailable_CachedInactive_FailsClosed(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.ServerErr = obserrors.ErrUnavailable
	store.SeedCache(domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "admin", IsActive: false,
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 1, idp.SignOutCalls)
}

func TestResolve_GenericFetchError_Unauthenticated(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.ServerErr = errors.New("boom")
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 0, store.CacheGets, "generic errors get no cache fallback")
}

func TestResolve_AutoProvision_PrivilegedEmail_SuperAdmin(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "superadmin@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, domainauth.RoleSuperAdmin, res.User.Role)

	created, ok := store.ServerProfile("u1")
	require.True(t, ok)
	assert.Equal(t, "super_admin", created.Role)
	assert.True(t, created.AutoCreated)
	assert.True(t, created.IsActive)
}

func TestResolve_AutoProvision_OtherEmail_SubAdmin(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u2", Email: "editor@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, domainauth.RoleSubAdmin, res.User.Role)

	created, ok := store.ServerProfile("u2")
	require.True(t, ok)
	assert.Equal(t, "sub_admin", created.Role)
	assert.Equal(t, "editor", created.Name, "display name from email local part")
}

func TestResolve_AutoProvision_ProviderName_Preferred(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u3", Email: "a@b.com", DisplayName: "Ana",
	})

	require.NotNil(t, res.User)
	created, _ := store.ServerProfile("u3")
	assert.Equal(t, "Ana", created.Name)
}

func TestResolve_AutoProvision_CreateFails_Unauthenticated(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.CreateErr = errors.New("write denied")
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	assert.Nil(t, res.User)
	assert.Equal(t, 1, idp.SignOutCalls)
}

func TestResolve_AutoProvision_ConcurrentCreator_Tolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	idp := authmocks.NewFakeIdentitySource()

	winner := domainauth.UserProfile{
		ID: "u1", Email: "x@theubc.com", Role: "admin", IsActive: true,
	}

	gomock.InOrder(
		profiles.EXPECT().
			Get(gomock.Any(), "u1", ports.FromServer).
			Return(domainauth.UserProfile{}, obserrors.ErrNotFound),
		profiles.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(obserrors.ErrAlreadyExists),
		profiles.EXPECT().
			Get(gomock.Any(), "u1", ports.FromServer).
			Return(winner, nil),
	)

	res := newTestResolver(profiles, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "x@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, domainauth.RoleAdmin, res.User.Role, "concurrent creator's document wins")
	assert.Equal(t, 0, idp.SignOutCalls)
}

func TestResolve_EmailFallsBackToIdentity(t *testing.T) {
	store := authmocks.NewMemoryProfileStore()
	store.SeedServer(domainauth.UserProfile{
		ID: "u1", Role: "admin", IsActive: true, // no email in document
	})
	idp := authmocks.NewFakeIdentitySource()

	res := newTestResolver(store, idp).Resolve(context.Background(), &domainauth.Identity{
		ID: "u1", Email: "from-identity@theubc.com",
	})

	require.NotNil(t, res.User)
	assert.Equal(t, "from-identity@theubc.com", res.User.Email)
}

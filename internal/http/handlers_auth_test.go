package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrnd369/theubc-admin-api/internal/adapters/authroles"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	authmocks "github.com/vrnd369/theubc-admin-api/internal/mocks/auth"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
	"github.com/vrnd369/theubc-admin-api/internal/service"
)

type handlerFixture struct {
	router http.Handler
	idp    *authmocks.FakeIdentitySource
	store  *authmocks.MemoryProfileStore
	svc    *service.AuthService
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	idp := authmocks.NewFakeIdentitySource()
	store := authmocks.NewMemoryProfileStore()
	resolver := service.NewSessionResolver(service.SessionResolverOptions{
		Profiles: store,
		Identity: idp,
		Roles:    authroles.StaticNormalizer{},
	})
	svc := service.NewAuthService(service.AuthServiceOptions{
		Identity: idp,
		Resolver: resolver,
		Roles:    authroles.StaticNormalizer{},
		Audit:    authmocks.NewRecordingAuditLog(),
	})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	return &handlerFixture{
		router: NewRouter(RouterServices{Auth: svc, Identity: idp}),
		idp:    idp,
		store:  store,
		svc:    svc,
	}
}

func (f *handlerFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", `{"email":"a@theubc.com","password":"pw"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLogin_CredentialFailuresIndistinguishable(t *testing.T) {
	f := newHandlerFixture(t)
	f.idp.SignInFunc = func(ctx context.Context, email, password string) error {
		if email == "known@theubc.com" {
			return ports.ErrInvalidCredentials // wrong password
		}
		return ports.ErrInvalidEmail // no such account
	}

	wrongPassword := f.do(t, http.MethodPost, "/auth/login", `{"email":"known@theubc.com","password":"bad"}`)
	unknownUser := f.do(t, http.MethodPost, "/auth/login", `{"email":"nobody@theubc.com","password":"bad"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String(),
		"responses must not reveal whether the account exists")
	assert.Contains(t, wrongPassword.Body.String(), "Invalid email or password.")
}

func TestLogin_TooManyRequests(t *testing.T) {
	f := newHandlerFixture(t)
	f.idp.SignInFunc = func(ctx context.Context, email, password string) error {
		return ports.ErrTooManyRequests
	}

	rec := f.do(t, http.MethodPost, "/auth/login", `{"email":"a@theubc.com","password":"pw"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLogin_NetworkError(t *testing.T) {
	f := newHandlerFixture(t)
	f.idp.SignInFunc = func(ctx context.Context, email, password string) error {
		return ports.ErrNetwork
	}

	rec := f.do(t, http.MethodPost, "/auth/login", `{"email":"a@theubc.com","password":"pw"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Network error")
}

func TestLogin_MalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_SignedOutShape(t *testing.T) {
	f := newHandlerFixture(t)
	require.Eventually(t, func() bool { return !f.svc.Loading() }, time.Second, 5*time.Millisecond)

	rec := f.do(t, http.MethodGet, "/auth/session", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User            *domainauth.AuthenticatedUser `json:"user"`
		IsAuthenticated bool                          `json:"isAuthenticated"`
		Loading         bool                          `json:"loading"`
		BasePath        string                        `json:"basePath"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.User)
	assert.False(t, body.IsAuthenticated)
	assert.False(t, body.Loading)
	assert.Equal(t, domainauth.DefaultBasePath, body.BasePath)
}

func TestSession_AuthenticatedShape(t *testing.T) {
	f := newHandlerFixture(t)
	f.store.SeedServer(domainauth.UserProfile{
		ID: "u1", Email: "admin@theubc.com", Role: "admin", Name: "Admin", IsActive: true,
	})
	f.idp.Emit(&domainauth.Identity{ID: "u1", Email: "admin@theubc.com"})
	require.Eventually(t, func() bool { return f.svc.IsAuthenticated() }, time.Second, 5*time.Millisecond)

	rec := f.do(t, http.MethodGet, "/auth/session", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User            *domainauth.AuthenticatedUser `json:"user"`
		IsAuthenticated bool                          `json:"isAuthenticated"`
		BasePath        string                        `json:"basePath"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.User)
	assert.Equal(t, domainauth.RoleAdmin, body.User.Role)
	assert.True(t, body.IsAuthenticated)
	assert.Equal(t, domainauth.AdminBasePath, body.BasePath)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.idp.SignOutCalls)
}

func TestActivityAndRoute_NoContent(t *testing.T) {
	f := newHandlerFixture(t)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/auth/activity", `{"path":"/admin"}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/auth/route", `{"path":"/admin/users"}`).Code)
}

func TestHealthz(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

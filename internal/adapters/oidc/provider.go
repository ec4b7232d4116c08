package oidc

// Package oidc provides an IdentitySource backed by an OIDC provider using
// the resource-owner password grant. The admin panel posts credentials to
// us; we never see provider cookies or redirects.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // optional, defaults to a 30s-timeout client

	// SubjectClaim, EmailClaim and NameClaim are JMESPath expressions
	// evaluated against the ID-token claims. Defaults: "sub", "email",
	// "name". Deployments with nested or provider-specific claim layouts
	// override these (e.g. `"https://theubc.com/claims".display_name`).
	SubjectClaim string
	EmailClaim   string
	NameClaim    string
}

// Provider implements ports.IdentitySource against an OIDC issuer.
type Provider struct {
	config   *oauth2.Config
	verifier *gooidc.IDTokenVerifier

	subjectExpr string
	emailExpr   string
	nameExpr    string

	mu        sync.Mutex
	current   *domainauth.Identity
	listeners map[int]ports.IdentityCallback
	nextID    int
}

var _ ports.IdentitySource = (*Provider)(nil)

// NewProvider creates a new OIDC provider. It performs a single discovery
// fetch against DiscoveryURL.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = "openid profile email"
	}

	p := &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		verifier:    op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		subjectExpr: defaultExpr(cfg.SubjectClaim, "sub"),
		emailExpr:   defaultExpr(cfg.EmailClaim, "email"),
		nameExpr:    defaultExpr(cfg.NameClaim, "name"),
		listeners:   make(map[int]ports.IdentityCallback),
	}
	return p, nil
}

func defaultExpr(expr, fallback string) string {
	if expr == "" {
		return fallback
	}
	return expr
}

// OnIdentityChange registers fn and invokes it immediately with the current
// identity.
func (p *Provider) OnIdentityChange(fn ports.IdentityCallback) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignInWithPassword runs the resource-owner password grant and verifies the
// returned ID token. Provider rejections surface as the uniform
// invalid-credentials error regardless of which credential was wrong.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ports.ErrInvalidEmail
	}

	token, err := p.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return classifyTokenError(err)
	}

	identity, err := p.identityFromToken(ctx, token, email)
	if err != nil {
		return fmt.Errorf("resolve identity from token: %w", err)
	}

	p.mu.Lock()
	p.current = identity
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
	return nil
}

// SignOut clears the current identity and notifies listeners with nil.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}

func (p *Provider) snapshotLocked() []ports.IdentityCallback {
	out := make([]ports.IdentityCallback, 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

func (p *Provider) identityFromToken(ctx context.Context, token *oauth2.Token, fallbackEmail string) (*domainauth.Identity, error) {
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, errors.New("token response missing id_token")
	}

	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims map[string]any
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("decode claims: %w", claimsErr)
	}

	subject := searchString(p.subjectExpr, claims)
	if subject == "" {
		subject = idTok.Subject
	}
	emailClaim := searchString(p.emailExpr, claims)
	if emailClaim == "" {
		emailClaim = fallbackEmail
	}

	return &domainauth.Identity{
		ID:          subject,
		Email:       emailClaim,
		DisplayName: searchString(p.nameExpr, claims),
	}, nil
}

// searchString evaluates a JMESPath expression against the claims map and
// returns the result when it is a non-empty string.
func searchString(expr string, claims map[string]any) string {
	result, err := jmespath.Search(expr, claims)
	if err != nil {
		return ""
	}
	if s, ok := result.(string); ok {
		return s
	}
	return ""
}

// classifyTokenError maps token-endpoint failures onto the IdentitySource
// error kinds.
func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.Response.StatusCode {
		case http.StatusTooManyRequests:
			return ports.ErrTooManyRequests
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return ports.ErrInvalidCredentials
		}
		return fmt.Errorf("token endpoint: %w", err)
	}
	return fmt.Errorf("%w: %v", ports.ErrNetwork, err)
}

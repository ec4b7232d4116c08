package passwordauth

// Package passwordauth provides an email/password IdentitySource backed by a
// static user roster. It is the default provider for self-hosted deployments
// and local development; production deployments typically use the oidc
// adapter instead.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// User is one roster entry. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
}

// Config controls the password provider behavior.
type Config struct {
	Users []User

	// MaxAttempts failed sign-ins per email within AttemptWindow trip the
	// too-many-requests error. Zero values default to 5 attempts per 15m.
	MaxAttempts   int
	AttemptWindow time.Duration
}

// Provider implements ports.IdentitySource with local credential checks.
// Listener bookkeeping is process-scoped state with explicit registration
// and teardown; there are no ambient singletons.
type Provider struct {
	mu        sync.Mutex
	users     map[string]User // keyed by lowercased email
	current   *domainauth.Identity
	listeners map[int]ports.IdentityCallback
	nextID    int

	maxAttempts   int
	attemptWindow time.Duration
	attempts      map[string][]time.Time

	now func() time.Time
}

var _ ports.IdentitySource = (*Provider)(nil)

// NewProvider constructs a password provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("password auth: at least one user is required")
	}

	users := make(map[string]User, len(cfg.Users))
	for _, u := range cfg.Users {
		if u.Email == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("password auth: user %q missing email or password hash", u.ID)
		}
		if u.ID == "" {
			u.ID = strings.ToLower(u.Email)
		}
		users[strings.ToLower(u.Email)] = u
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	window := cfg.AttemptWindow
	if window <= 0 {
		window = 15 * time.Minute
	}

	return &Provider{
		users:         users,
		listeners:     make(map[int]ports.IdentityCallback),
		maxAttempts:   maxAttempts,
		attemptWindow: window,
		attempts:      make(map[string][]time.Time),
		now:           time.Now,
	}, nil
}

// OnIdentityChange registers fn and invokes it immediately with the current
// identity, mirroring the provider's change-listener contract.
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

// SignInWithPassword checks credentials against the roster. Unknown emails
// and wrong passwords return the same error so callers cannot enumerate
// accounts.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ports.ErrInvalidEmail
	}

	if p.throttled(email) {
		return ports.ErrTooManyRequests
	}

	user, ok := p.users[email]
	if !ok {
		// Burn a comparison anyway to keep timing uniform across
		// unknown-user and wrong-password failures.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGZLH0yfjAVFCYFqvyOAuR0krbu0Cqu"), []byte(password))
		p.recordFailure(email)
		return ports.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		p.recordFailure(email)
		return ports.ErrInvalidCredentials
	}

	identity := &domainauth.Identity{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}

	p.mu.Lock()
	delete(p.attempts, email)
	p.current = identity
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	notify(listeners, identity)
	return nil
}

// SignOut clears the current identity and notifies listeners with nil.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	notify(listeners, nil)
	return nil
}

func (p *Provider) snapshotLocked() []ports.IdentityCallback {
	out := make([]ports.IdentityCallback, 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []ports.IdentityCallback, identity *domainauth.Identity) {
	for _, fn := range listeners {
		fn(identity)
	}
}

func (p *Provider) throttled(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-p.attemptWindow)
	recent := p.attempts[email][:0]
	for _, t := range p.attempts[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	p.attempts[email] = recent
	return len(recent) >= p.maxAttempts
}

func (p *Provider) recordFailure(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[email] = append(p.attempts[email], p.now())
}

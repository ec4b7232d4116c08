package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	obserrors "github.com/vrnd369/theubc-admin-api/internal/observability/errors"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentitySource = (*FakeIdentitySource)(nil)
	_ ports.ProfileStore   = (*MemoryProfileStore)(nil)
	_ ports.AuditLog       = (*RecordingAuditLog)(nil)
)

// FakeIdentitySource simulates the identity provider for tests: sign-in and
// sign-out outcomes are scriptable, and Emit drives identity-change events
// directly.
type FakeIdentitySource struct {
	SignInFunc  func(ctx context.Context, email, password string) error
	SignOutFunc func(ctx context.Context) error

	mu           sync.Mutex
	current      *domainauth.Identity
	listeners    map[int]ports.IdentityCallback
	nextID       int
	SignOutCalls int
}

// NewFakeIdentitySource creates a FakeIdentitySource with no identity set.
func NewFakeIdentitySource() *FakeIdentitySource {
	return &FakeIdentitySource{listeners: map[int]ports.IdentityCallback{}}
}

func (f *FakeIdentitySource) OnIdentityChange(fn ports.IdentityCallback) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	current := f.current
	f.mu.Unlock()

	fn(current)

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *FakeIdentitySource) SignInWithPassword(ctx context.Context, email, password string) error {
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, email, password)
	}
	return nil
}

func (f *FakeIdentitySource) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	f.mu.Unlock()
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	return nil
}

// Emit publishes an identity-change event to all listeners.
func (f *FakeIdentitySource) Emit(identity *domainauth.Identity) {
	f.mu.Lock()
	f.current = identity
	fns := make([]ports.IdentityCallback, 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(identity)
	}
}

// MemoryProfileStore is an in-memory ports.ProfileStore with separately
// populated server and cache tiers, plus scriptable per-tier errors for
// driving the resolver's failure branches.
type MemoryProfileStore struct {
	mu     sync.Mutex
	server map[string]domainauth.UserProfile
	cache  map[string]domainauth.UserProfile

	// ServerErr/CacheErr/CreateErr, when set, are returned by the matching
	// operation instead of touching the maps.
	ServerErr error
	CacheErr  error
	CreateErr error

	ServerGets int
	CacheGets  int
	Creates    int
}

// NewMemoryProfileStore creates an empty MemoryProfileStore.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		server: map[string]domainauth.UserProfile{},
		cache:  map[string]domainauth.UserProfile{},
	}
}

// SeedServer stores a profile in the server tier.
func (m *MemoryProfileStore) SeedServer(p domainauth.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.server[p.ID] = p
}

// SeedCache stores a profile in the cache tier.
func (m *MemoryProfileStore) SeedCache(p domainauth.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[p.ID] = p
}

func (m *MemoryProfileStore) Get(ctx context.Context, id string, src ports.ReadSource) (domainauth.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if src == ports.FromCache {
		m.CacheGets++
		if m.CacheErr != nil {
			return domainauth.UserProfile{}, m.CacheErr
		}
		p, ok := m.cache[id]
		if !ok {
			return domainauth.UserProfile{}, obserrors.ErrNotFound
		}
		return p, nil
	}

	m.ServerGets++
	if m.ServerErr != nil {
		return domainauth.UserProfile{}, m.ServerErr
	}
	p, ok := m.server[id]
	if !ok {
		return domainauth.UserProfile{}, obserrors.ErrNotFound
	}
	return p, nil
}

func (m *MemoryProfileStore) Create(ctx context.Context, profile domainauth.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Creates++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.server[profile.ID]; exists {
		return obserrors.ErrAlreadyExists
	}
	m.server[profile.ID] = profile
	return nil
}

// ServerProfile returns the server-tier profile for id, if present.
func (m *MemoryProfileStore) ServerProfile(id string) (domainauth.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.server[id]
	return p, ok
}

// RecordingAuditLog captures recorded events; RecordErr scripts failures.
type RecordingAuditLog struct {
	mu        sync.Mutex
	events    []domainauth.AuditEvent
	RecordErr error
}

// NewRecordingAuditLog creates an empty RecordingAuditLog.
func NewRecordingAuditLog() *RecordingAuditLog {
	return &RecordingAuditLog{}
}

func (l *RecordingAuditLog) Record(ctx context.Context, ev domainauth.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.RecordErr != nil {
		return l.RecordErr
	}
	l.events = append(l.events, ev)
	return nil
}

// Events returns a copy of all recorded events.
func (l *RecordingAuditLog) Events() []domainauth.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domainauth.AuditEvent(nil), l.events...)
}

package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
	"github.com/vrnd369/theubc-admin-api/internal/ports"
)

// defaultAuditSettleDelay is how long the Login shim waits before recording
// its audit event, letting the published state settle first.
const defaultAuditSettleDelay = 500 * time.Millisecond

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Identity ports.IdentitySource
	Resolver *SessionResolver
	Roles    ports.RoleNormalizer
	Audit    ports.AuditLog

	// Guard configuration. IdleTimeout/PollInterval zero values take the
	// package defaults; OnSessionExpired receives the user-facing notice
	// when the guard forces a logout.
	IdleTimeout      time.Duration
	PollInterval     time.Duration
	OnSessionExpired func(message string)

	AuditSettleDelay time.Duration
	Logger           *slog.Logger
}

// AuthService is the composition root for authentication state. It owns the
// identity-change subscription, the lifecycle of the session resolver and
// the inactivity guard, and the published {user, loading} state consumed by
// the rest of the application.
//
// The published state has exactly three writers: resolver terminal
// transitions, the guard's forced-logout path, and explicit Logout.
type AuthService struct {
	identity ports.IdentitySource
	resolver *SessionResolver
	roles    ports.RoleNormalizer
	audit    ports.AuditLog
	logger   *slog.Logger

	idleTimeout      time.Duration
	pollInterval     time.Duration
	onSessionExpired func(string)
	auditSettleDelay time.Duration

	mu          sync.Mutex
	user        *domainauth.AuthenticatedUser
	loading     bool
	generation  uint64
	guard       *InactivityGuard
	unsubscribe func()
	baseCtx     context.Context

	// route is read by the guard's poller without holding mu.
	route atomic.Value
}

// NewAuthService constructs an AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := opts.AuditSettleDelay
	if settle <= 0 {
		settle = defaultAuditSettleDelay
	}
	return &AuthService{
		identity:         opts.Identity,
		resolver:         opts.Resolver,
		roles:            opts.Roles,
		audit:            opts.Audit,
		logger:           logger,
		idleTimeout:      opts.IdleTimeout,
		pollInterval:     opts.PollInterval,
		onSessionExpired: opts.OnSessionExpired,
		auditSettleDelay: settle,
		loading:          true,
	}
}

// Start subscribes to identity-change events. Each event kicks off an
// independent resolution tagged with a monotonic generation; completions
// whose generation is no longer the latest are discarded so a slow early
// resolution can never overwrite a later one.
func (s *AuthService) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	unsubscribe := s.identity.OnIdentityChange(func(identity *domainauth.Identity) {
		s.mu.Lock()
		s.generation++
		gen := s.generation
		s.loading = true
		s.mu.Unlock()

		go func() {
			res := s.resolver.Resolve(ctx, identity)
			s.publish(gen, res)
		}()
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Stop unsubscribes from identity events and tears down the guard.
func (s *AuthService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	guard := s.guard
	s.guard = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if guard != nil {
		guard.Stop()
	}
}

// publish applies a resolver terminal transition, unless it has been
// superseded by a later identity-change event.
func (s *AuthService) publish(gen uint64, res Resolution) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale resolution", "generation", gen, "result", res.String())
		return
	}
	s.user = res.User
	s.loading = false
	s.syncGuardLocked()
	s.mu.Unlock()

	s.logger.Info("auth state resolved", "result", res.String())
}

// syncGuardLocked ties the guard lifecycle to user presence: started when a
// session exists, stopped when it ends.
func (s *AuthService) syncGuardLocked() {
	if s.user != nil {
		if s.guard == nil {
			s.guard = NewInactivityGuard(InactivityGuardOptions{
				Route:        s.currentRoute,
				OnTimeout:    s.handleIdleTimeout,
				IdleTimeout:  s.idleTimeout,
				PollInterval: s.pollInterval,
				Logger:       s.logger,
			})
			s.guard.Start()
		}
		return
	}
	if s.guard != nil {
		s.guard.Stop()
		s.guard = nil
	}
}

// handleIdleTimeout is the guard's forced-logout path.
func (s *AuthService) handleIdleTimeout(idle time.Duration) {
	s.mu.Lock()
	user := s.user
	ctx := s.baseCtx
	s.mu.Unlock()
	if user == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.recordAudit(ctx, domainauth.AuditActionSessionTimeout, user)

	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign-out on idle timeout failed", "error", err)
	}

	s.mu.Lock()
	s.generation++
	s.user = nil
	s.loading = false
	s.syncGuardLocked()
	s.mu.Unlock()

	if s.onSessionExpired != nil {
		s.onSessionExpired("Your session has expired due to inactivity. Please log in again.")
	}
}

// User returns the current authenticated user, or nil when signed out.
func (s *AuthService) User() *domainauth.AuthenticatedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a resolved user with a role is present.
func (s *AuthService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.Role != ""
}

// Loading reports whether a resolution is in flight with no terminal
// transition applied yet.
func (s *AuthService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// BasePath returns the base navigation path for the current user's role, or
// the default admin path when no user is set.
func (s *AuthService) BasePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domainauth.DefaultBasePath
	}
	return s.roles.BasePath(s.user.Role)
}

// Login is a compatibility shim for flows that manage identity outside the
// standard listener: it sets local user state directly (normalizing the role
// first) and records a login audit event asynchronously after a short settle
// delay. Audit failures never propagate to the caller.
func (s *AuthService) Login(role string, profile domainauth.AuthenticatedUser) {
	profile.Role = s.roles.Normalize(role)

	s.mu.Lock()
	s.generation++
	s.user = &profile
	s.loading = false
	s.syncGuardLocked()
	ctx := s.baseCtx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	user := profile
	time.AfterFunc(s.auditSettleDelay, func() {
		s.recordAudit(ctx, domainauth.AuditActionLogin, &user)
	})
}

// Logout records a logout audit event (failure ignored), signs out of the
// identity provider (failure ignored), then clears local state. Local state
// is cleared regardless of either failure.
func (s *AuthService) Logout(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user != nil {
		s.recordAudit(ctx, domainauth.AuditActionLogout, user)
	}

	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign-out failed, clearing local state anyway", "error", err)
	}

	s.mu.Lock()
	s.generation++
	s.user = nil
	s.loading = false
	s.syncGuardLocked()
	s.mu.Unlock()
}

// ReportRoute records the client's current route for idle enforcement.
func (s *AuthService) ReportRoute(path string) {
	s.route.Store(path)
	s.mu.Lock()
	guard := s.guard
	s.mu.Unlock()
	if guard != nil {
		guard.RouteChanged(path)
	}
}

// ReportActivity records a user interaction event on the given route.
func (s *AuthService) ReportActivity(path string) {
	if path != "" {
		s.route.Store(path)
	}
	s.mu.Lock()
	guard := s.guard
	s.mu.Unlock()
	if guard != nil {
		if path != "" {
			guard.RouteChanged(path)
		}
		guard.Activity()
	}
}

func (s *AuthService) currentRoute() string {
	if v, ok := s.route.Load().(string); ok {
		return v
	}
	return ""
}

// recordAudit writes an audit event, swallowing failures.
func (s *AuthService) recordAudit(ctx context.Context, action string, user *domainauth.AuthenticatedUser) {
	if s.audit == nil || user == nil {
		return
	}
	ev := domainauth.AuditEvent{
		ID:     uuid.NewString(),
		Action: action,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		At:     time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Warn("audit write failed", "action", action, "error", err)
	}
}

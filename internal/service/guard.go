package service

import (
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/vrnd369/theubc-admin-api/internal/domain/auth"
)

// Idle-enforcement defaults.
const (
	DefaultIdleTimeout       = 30 * time.Minute
	DefaultRoutePollInterval = time.Second
)

// InactivityGuardOptions groups dependencies for InactivityGuard.
type InactivityGuardOptions struct {
	// Route returns the current client route. Polled as a fallback because
	// client-side navigation does not necessarily produce an event;
	// RouteChanged is the direct hook for environments that have one.
	Route func() string

	// OnTimeout is invoked when the idle threshold is met on an admin
	// route. It runs on the timer goroutine.
	OnTimeout func(idle time.Duration)

	IdleTimeout  time.Duration // default 30m
	PollInterval time.Duration // default 1s
	Now          func() time.Time
	Logger       *slog.Logger
}

// InactivityGuard forces logout after a fixed idle period, but only while
// the current route is within the admin surface. It keeps a single pending
// timer with clear-before-set discipline; timers are never stacked.
type InactivityGuard struct {
	route        func() string
	onTimeout    func(idle time.Duration)
	idleTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu           sync.Mutex
	running      bool
	lastActivity time.Time
	lastRoute    string
	timer        *time.Timer
	stopPoll     chan struct{}
}

// NewInactivityGuard constructs a guard. Zero durations take the defaults.
func NewInactivityGuard(opts InactivityGuardOptions) *InactivityGuard {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultRoutePollInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	route := opts.Route
	if route == nil {
		route = func() string { return "" }
	}
	return &InactivityGuard{
		route:        route,
		onTimeout:    opts.OnTimeout,
		idleTimeout:  idle,
		pollInterval: poll,
		now:          now,
		logger:       logger,
	}
}

// Start activates the guard: records the activity baseline, arms the idle
// timer when on an admin route, and starts the route poller. Calling Start
// on a running guard is a no-op.
func (g *InactivityGuard) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.running = true
	g.lastActivity = g.now()
	g.lastRoute = g.route()
	if domainauth.IsAdminRoute(g.lastRoute) {
		g.rescheduleLocked()
	}
	g.stopPoll = make(chan struct{})
	go g.pollRoutes(g.stopPoll)
}

// Stop deactivates the guard, clearing the pending timer and stopping the
// route poller. Safe to call multiple times.
func (g *InactivityGuard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.running = false
	g.cancelTimerLocked()
	close(g.stopPoll)
	g.stopPoll = nil
}

// Activity records a user interaction. It resets the idle window only when
// the current route is an admin route.
func (g *InactivityGuard) Activity() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	if !domainauth.IsAdminRoute(g.route()) {
		return
	}
	g.lastActivity = g.now()
	g.rescheduleLocked()
}

// RouteChanged reports a client-side navigation. Navigating onto an admin
// route re-arms the timer; navigating off cancels it entirely.
func (g *InactivityGuard) RouteChanged(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routeChangedLocked(path)
}

func (g *InactivityGuard) routeChangedLocked(path string) {
	if !g.running || path == g.lastRoute {
		return
	}
	g.lastRoute = path
	if domainauth.IsAdminRoute(path) {
		g.rescheduleLocked()
	} else {
		g.cancelTimerLocked()
	}
}

// pollRoutes watches for route changes the platform never reported. The
// poll interval is coarse; RouteChanged remains the precise path.
func (g *InactivityGuard) pollRoutes(stop chan struct{}) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.mu.Lock()
			g.routeChangedLocked(g.route())
			g.mu.Unlock()
		}
	}
}

// rescheduleLocked arms the idle timer, clearing any pending one first.
func (g *InactivityGuard) rescheduleLocked() {
	g.cancelTimerLocked()
	g.timer = time.AfterFunc(g.idleTimeout, g.fire)
}

func (g *InactivityGuard) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// fire runs when the idle timer elapses. It re-validates that the route is
// still an admin route and that the idle threshold was truly met, guarding
// against a timer firing across a navigation or an activity reset race.
func (g *InactivityGuard) fire() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	if !domainauth.IsAdminRoute(g.route()) {
		g.cancelTimerLocked()
		g.mu.Unlock()
		return
	}
	idle := g.now().Sub(g.lastActivity)
	if idle < g.idleTimeout {
		// An activity reset raced this firing; the reset already armed a
		// fresh timer.
		g.mu.Unlock()
		return
	}
	onTimeout := g.onTimeout
	g.mu.Unlock()

	g.logger.Info("session idle threshold reached, forcing logout", "idle", idle)
	if onTimeout != nil {
		onTimeout(idle)
	}
}

// Package navigation decides the initial screen and keeps it in step with the session.
package navigation

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/session"
)

// Route is a screen path the app can be sent to.
type Route string

const (
	RouteNone       Route = ""
	RouteOnboarding Route = "/first"
	RouteLogin      Route = "/login"
	RouteTermsCheck Route = "/terms-check"
	RouteHome       Route = "/"
)

// State is where the controller is in the startup state machine.
type State int

const (
	StateUnknown State = iota
	StateRestoring
	StateAuthenticated
	StateNeedsCompliance
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateNeedsCompliance:
		return "needs_compliance"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Sessions is the part of the session store the controller drives.
type Sessions interface {
	CheckAuth(ctx context.Context) (*session.Restore, error)
	Snapshot() session.Session
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

var _ Sessions = (*session.Store)(nil)

// OnboardingFlag reports whether the first-run screens were completed.
type OnboardingFlag interface {
	HasSeen(ctx context.Context) (bool, error)
}

// Navigator performs a history-replacing navigation.
type Navigator interface {
	Replace(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Replace(route Route) { f(route) }

// Controller is the root navigation state machine.
type Controller struct {
	sessions   Sessions
	onboarding OnboardingFlag
	nav        Navigator
	logger     zerolog.Logger

	mu    sync.Mutex
	state State
	route Route
}

// Option defines a function type to modify the Controller instance.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller in StateUnknown. Call Start to restore and route.
func New(sessions Sessions, onboarding OnboardingFlag, nav Navigator, options ...Option) (*Controller, error) {
	if sessions == nil {
		return nil, errors.New("[navigation New] sessions is required")
	}
	if onboarding == nil {
		return nil, errors.New("[navigation New] onboarding flag is required")
	}
	if nav == nil {
		return nil, errors.New("[navigation New] navigator is required")
	}
	c := &Controller{
		sessions:   sessions,
		onboarding: onboarding,
		nav:        nav,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Decide maps a session to the state and screen it belongs on. An unknown session has no
// route. An authenticated session without a loaded profile goes home: compliance can only
// be judged once a profile exists.
func Decide(s session.Session, seenOnboarding bool) (State, Route) {
	switch s.Status {
	case session.StatusAuthenticated:
		if s.Profile != nil && !s.Profile.ComplianceAccepted() {
			return StateNeedsCompliance, RouteTermsCheck
		}
		return StateAuthenticated, RouteHome
	case session.StatusUnauthenticated:
		if seenOnboarding {
			return StateUnauthenticated, RouteLogin
		}
		return StateUnauthenticated, RouteOnboarding
	default:
		return StateUnknown, RouteNone
	}
}

// Route decides the screen for s, reading the onboarding flag when it matters.
func (c *Controller) Route(ctx context.Context, s session.Session) Route {
	_, route := Decide(s, c.seenOnboarding(ctx, s))
	return route
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the last route navigated to, or RouteNone before Start.
func (c *Controller) Current() Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// Start restores the session and navigates to the first screen. For an authenticated
// restore it waits, bounded by ctx, for the profile refresh so compliance is judged on
// fresh data. A failed restore routes to login. If another session operation is already
// in flight, Start routes nowhere and returns ErrOperationInProgress; Watch routes once that
// operation commits. Otherwise a route is always chosen and any error is for logging only.
func (c *Controller) Start(ctx context.Context) (Route, error) {
	c.mu.Lock()
	c.state = StateRestoring
	c.mu.Unlock()

	r, err := c.sessions.CheckAuth(ctx)
	if errors.Is(err, session.ErrOperationInProgress) {
		// a login is already deciding the session; Watch routes once it commits
		c.logger.Info().Msg("session operation in flight; deferring first route")
		c.mu.Lock()
		c.state = StateUnknown
		c.mu.Unlock()
		// a commit Watch skipped while restoring is already in the snapshot
		snap := c.sessions.Snapshot()
		if state, route := Decide(snap, c.seenOnboarding(ctx, snap)); route != RouteNone {
			return c.commit(state, route), errors.Wrap(err, "[Start]")
		}
		return RouteNone, errors.Wrap(err, "[Start]")
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("session restore failed")
		return c.commit(StateUnauthenticated, RouteLogin), errors.Wrap(err, "[Start]")
	}

	if r.Status() == session.StatusAuthenticated {
		if werr := r.Wait(ctx); werr != nil {
			c.logger.Warn().Err(werr).Msg("stopped waiting for profile refresh")
		} else if rerr := r.Err(); rerr != nil {
			c.logger.Warn().Err(rerr).Msg("profile refresh failed; routing on cached profile")
		}
	}

	snap := c.sessions.Snapshot()
	state, route := Decide(snap, c.seenOnboarding(ctx, snap))
	if state == StateUnknown {
		// a concurrent Logout can only move the session forward; unknown means a bug upstream
		state, route = StateUnauthenticated, RouteLogin
	}
	return c.commit(state, route), nil
}

// Watch re-enters the state machine on every later session change and navigates when the
// route changes. Changes during Start are ignored; Start routes on the settled session.
func (c *Controller) Watch() (unsubscribe func()) {
	return c.sessions.Subscribe(func(s session.Session) {
		if c.State() == StateRestoring {
			return
		}
		state, route := Decide(s, c.seenOnboarding(context.Background(), s))
		if route == RouteNone {
			return
		}
		c.commit(state, route)
	})
}

func (c *Controller) commit(state State, route Route) Route {
	c.mu.Lock()
	changed := c.route != route
	c.state = state
	c.route = route
	c.mu.Unlock()

	c.logger.Debug().Stringer("state", state).Str("route", string(route)).Bool("changed", changed).Msg("navigation decided")
	if changed {
		c.nav.Replace(route)
	}
	return route
}

// seenOnboarding is only consulted for signed-out sessions. Read failures count as seen.
func (c *Controller) seenOnboarding(ctx context.Context, s session.Session) bool {
	if s.Status != session.StatusUnauthenticated {
		return true
	}
	seen, err := c.onboarding.HasSeen(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read onboarding flag")
		return true
	}
	return seen
}

package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/users"
)

// AuthAPI is the part of the backend the session store talks to.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	SocialLogin(ctx context.Context, req api.SocialLoginRequest) (*api.LoginResponse, error)
	Me(ctx context.Context, token string) (*users.Profile, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	UpdateProfile(ctx context.Context, token string, update api.ProfileUpdate) error
	Deactivate(ctx context.Context, token, password string) error
}

var _ AuthAPI = (*api.Client)(nil)

// Store owns the current session. It mirrors every token and profile change into
// durable storage before publishing it in memory.
//
// Network-bound mutations are single-flight: a second one started while the first is
// still running fails with ErrOperationInProgress. Logout and local profile edits are
// never rejected; they serialize with other commits on commitMu. Every identity change
// advances the epoch, and work started under an older epoch is discarded at commit time.
type Store struct {
	api         AuthAPI
	persist     storage.Store
	logger      zerolog.Logger
	nowTime     func() time.Time
	checkExpiry bool

	inFlight atomic.Bool
	commitMu sync.Mutex

	mu    sync.RWMutex
	state Session
	epoch uint64

	subMu   sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithTokenExpiryCheck makes restore discard JWT tokens whose exp has passed. Off by default:
// a stored token restores the session until the backend rejects it.
func WithTokenExpiryCheck(enabled bool) Option {
	return func(s *Store) {
		s.checkExpiry = enabled
	}
}

// New creates a session store in the StatusUnknown state. Call CheckAuth to restore.
func New(authAPI AuthAPI, persist storage.Store, options ...Option) (*Store, error) {
	if authAPI == nil {
		return nil, errors.New("[session New] auth API is required")
	}
	if persist == nil {
		return nil, errors.New("[session New] storage is required")
	}

	s := &Store{
		api:         authAPI,
		persist:     persist,
		logger:      log.Logger,
		nowTime:     time.Now,
		subs:        make(map[int]func(Session)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Status returns the current authentication status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

// Token returns the current bearer token, or "" when none is held.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Profile returns a copy of the loaded profile, or nil.
func (s *Store) Profile() *users.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Profile.Clone()
}

// Subscribe registers fn to be called with the new session after every change.
// Callbacks run on the goroutine that made the change and must not block.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.subMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// begin acquires the single-flight guard for a network-bound operation.
func (s *Store) begin(op string) (end func(), err error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn().Str("op", op).Msg("rejected: another session operation is in flight")
		return nil, ErrOperationInProgress
	}
	return func() { s.inFlight.Store(false) }, nil
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// replaceSession installs a new identity and advances the epoch. Callers hold commitMu.
func (s *Store) replaceSession(next Session) {
	s.mu.Lock()
	s.state = next
	s.epoch++
	s.mu.Unlock()
}

// replaceProfile swaps the profile within the current identity. Callers hold commitMu.
func (s *Store) replaceProfile(p *users.Profile) {
	s.mu.Lock()
	s.state.Profile = p
	s.mu.Unlock()
}

func (s *Store) writeProfile(ctx context.Context, p *users.Profile) error {
	if p == nil {
		return s.persist.Remove(ctx, storage.KeyUserInfo)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode profile")
	}
	return s.persist.Set(ctx, storage.KeyUserInfo, string(data))
}

// readProfile loads the last persisted profile snapshot. Missing or unreadable
// snapshots are reported as nil.
func (s *Store) readProfile(ctx context.Context) *users.Profile {
	raw, ok, err := s.persist.Get(ctx, storage.KeyUserInfo)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cached profile")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var p users.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable cached profile")
		return nil
	}
	return &p
}

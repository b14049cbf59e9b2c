// Package apifake is an in-memory implementation of the community backend's auth and
// user endpoints. Tests run it behind httptest; cmd/devbackend serves it for local work.
package apifake

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-session-client/users"
)

const (
	issuer          = "apifake"
	defaultTokenTTL = 24 * time.Hour
)

// Server is the fake backend. It is safe for concurrent use.
type Server struct {
	router     chi.Router
	secret     []byte
	tokenTTL   time.Duration
	nowTime    func() time.Time
	bcryptCost int
	autoVerify bool

	mu        sync.RWMutex
	accounts  *accountTable
	countries []users.Country
	failures  map[string]int
	blocks    map[string]chan struct{}
	calls     map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HMAC key used to sign access tokens.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) { s.nowTime = nowFunc }
}

// WithAutoVerify marks newly registered accounts as email-verified.
func WithAutoVerify(v bool) Option {
	return func(s *Server) { s.autoVerify = v }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// New builds a fake backend seeded with a small country list.
func New(options ...Option) *Server {
	s := &Server{
		secret:     []byte(uuid.New().String()),
		tokenTTL:   defaultTokenTTL,
		nowTime:    time.Now,
		bcryptCost: bcrypt.MinCost,
		accounts:   newAccountTable(),
		countries:  defaultCountries(),
		failures:   make(map[string]int),
		blocks:     make(map[string]chan struct{}),
		calls:      make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func defaultCountries() []users.Country {
	return []users.Country{
		{ID: 1, Code: "KR", Name: "South Korea", FlagIcon: "🇰🇷"},
		{ID: 2, Code: "US", Name: "United States", FlagIcon: "🇺🇸"},
		{ID: 3, Code: "JP", Name: "Japan", FlagIcon: "🇯🇵"},
		{ID: 4, Code: "VN", Name: "Vietnam", FlagIcon: "🇻🇳"},
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Post(PathLogin, s.handleLogin)
	r.Post(PathSocialLogin, s.handleSocialLogin)
	r.Post(PathRegister, s.handleRegister)
	r.Post(PathCheckEmail, s.handleCheckEmail)
	r.Post(PathCheckName, s.handleCheckName)
	r.Get(PathCountries, s.handleCountries)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get(PathMe, s.handleMe)
		r.Post(PathUpdateProfile, s.handleUpdateProfile)
		r.Post(PathDeactivate, s.handleDeactivate)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// instrument counts calls, holds blocked routes and applies injected failures.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.calls[route]++
		status := s.failures[route]
		block := s.blocks[route]
		s.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddAccount preloads an account and returns its profile.
func (s *Server) AddAccount(seed AccountSeed) (users.Profile, error) {
	hash, err := hashPassword(seed.Password, s.bcryptCost)
	if err != nil {
		return users.Profile{}, fmt.Errorf("[AddAccount] hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &Account{
		Profile:      s.newProfile(seed.Username, seed.Email, seed.CountryID),
		PasswordHash: hash,
		Verified:     seed.Verified,
	}
	a.Profile.TermsAgreed = seed.TermsAgreed
	a.Profile.PrivacyAgreed = seed.PrivacyAgreed
	a.Profile.Points = seed.Points
	if err := s.accounts.insert(a); err != nil {
		return users.Profile{}, fmt.Errorf("[AddAccount] %w", err)
	}
	return a.Profile, nil
}

// Account returns a copy of the stored account.
func (s *Server) Account(id int) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts.byID[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// SetProfile replaces the profile fields of an existing account, keeping its id.
func (s *Server) SetProfile(p users.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts.byID[p.ID]
	if !ok {
		return false
	}
	a.Profile = p
	return true
}

// Fail makes every call to route answer with status until cleared with status 0.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Block holds calls to route until the returned release func is called.
func (s *Server) Block(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.blocks[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.blocks, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[route]
}

// IssueToken signs an access token for userID valid for ttl from now.
// A negative ttl yields an already expired token.
func (s *Server) IssueToken(userID int, ttl time.Duration) (string, error) {
	now := s.nowTime()
	claims := jwtlib.MapClaims{
		"iss": issuer,
		"sub": strconv.Itoa(userID),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

func (s *Server) newProfile(username, email string, countryID int) users.Profile {
	now := s.nowTime().UTC().Format(time.RFC3339)
	p := users.Profile{
		Username:      username,
		Email:         email,
		Role:          "USER",
		AccountStatus: "ACTIVE",
		Level:         1,
		CreatedAt:     now,
	}
	for _, c := range s.countries {
		if c.ID == countryID {
			p.Country = c
		}
	}
	return p
}

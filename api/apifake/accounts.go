package apifake

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-session-client/identity"
	"github.com/jrsteele09/go-session-client/users"
)

var (
	errEmailTaken = errors.New("email already taken")
	errNameTaken  = errors.New("name already taken")
	errNotFound   = errors.New("not found")
)

// Account is a backend user record.
type Account struct {
	Profile        users.Profile
	PasswordHash   string
	Verified       bool
	Deactivated    bool
	Provider       identity.Provider
	ProviderUserID string
}

// AccountSeed describes an account to preload with AddAccount.
type AccountSeed struct {
	Username      string
	Email         string
	Password      string
	Verified      bool
	TermsAgreed   bool
	PrivacyAgreed bool
	CountryID     int
	Points        int
}

func hashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func socialKey(p identity.Provider, id string) string {
	return string(p) + ":" + id
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// accountTable is the in-memory user repository. Callers hold Server.mu.
type accountTable struct {
	byID    map[int]*Account
	emails  map[string]int
	names   map[string]int
	socials map[string]int
	nextID  int
}

func newAccountTable() *accountTable {
	return &accountTable{
		byID:    make(map[int]*Account),
		emails:  make(map[string]int),
		names:   make(map[string]int),
		socials: make(map[string]int),
		nextID:  1,
	}
}

func (t *accountTable) insert(a *Account) error {
	if a.Profile.Email != "" {
		if _, ok := t.emails[normEmail(a.Profile.Email)]; ok {
			return errEmailTaken
		}
	}
	if _, ok := t.names[normName(a.Profile.Username)]; ok {
		return errNameTaken
	}
	a.Profile.ID = t.nextID
	t.nextID++
	t.byID[a.Profile.ID] = a
	if a.Profile.Email != "" {
		t.emails[normEmail(a.Profile.Email)] = a.Profile.ID
	}
	t.names[normName(a.Profile.Username)] = a.Profile.ID
	if a.Provider != "" {
		t.socials[socialKey(a.Provider, a.ProviderUserID)] = a.Profile.ID
	}
	return nil
}

func (t *accountTable) byEmail(email string) (*Account, error) {
	id, ok := t.emails[normEmail(email)]
	if !ok {
		return nil, errNotFound
	}
	return t.active(id)
}

func (t *accountTable) bySocial(p identity.Provider, providerUserID string) (*Account, error) {
	id, ok := t.socials[socialKey(p, providerUserID)]
	if !ok {
		return nil, errNotFound
	}
	return t.active(id)
}

func (t *accountTable) active(id int) (*Account, error) {
	a, ok := t.byID[id]
	if !ok || a.Deactivated {
		return nil, errNotFound
	}
	return a, nil
}

func (t *accountTable) emailTaken(email string) bool {
	_, ok := t.emails[normEmail(email)]
	return ok
}

func (t *accountTable) nameTaken(name string, exceptID int) bool {
	id, ok := t.names[normName(name)]
	return ok && id != exceptID
}

func (t *accountTable) rename(a *Account, name string) error {
	if t.nameTaken(name, a.Profile.ID) {
		return errNameTaken
	}
	delete(t.names, normName(a.Profile.Username))
	a.Profile.Username = name
	t.names[normName(name)] = a.Profile.ID
	return nil
}

package session

import (
	"github.com/jrsteele09/go-session-client/users"
)

// Status is the tri-state authentication flag. The zero value is StatusUnknown,
// which holds from process start until a restore completes.
type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the client's current identity.
// Status == StatusAuthenticated implies Token != "".
type Session struct {
	Status  Status
	Token   string
	Profile *users.Profile
}

// Authenticated reports whether the snapshot carries a usable session.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s Session) clone() Session {
	s.Profile = s.Profile.Clone()
	return s
}

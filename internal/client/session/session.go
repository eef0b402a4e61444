package session

import (
	"fmt"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
)

// Status is the coarse authentication status of the session.
type Status int

const (
	StatusBootstrapping Status = iota
	StatusUnauthenticated
	StatusAuthenticating
	StatusAuthenticated
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusBootstrapping:
		return "bootstrapping"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Op identifies one identity operation (login, register, logout, fetch).
type Op uint64

// Session is the value held by Store. Token and User are set together and
// only while Status is StatusAuthenticated.
type Session struct {
	Status  Status
	Token   string
	User    *models.User
	Error   string
	Loading bool

	// op is the most recently started operation, settled reports whether it
	// already received its terminal transition.
	op      Op
	settled bool
}

// Initial is the session every process starts with.
func Initial() Session {
	return Session{Status: StatusBootstrapping}
}

func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// Pending is the operation currently owning Loading, or zero.
func (s Session) Pending() Op {
	if s.settled || !s.Loading {
		return 0
	}
	return s.op
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}

func (s Session) String() string {
	uid := int64(0)
	if s.User != nil {
		uid = s.User.ID
	}
	return fmt.Sprintf("session{status=%s user=%d loading=%t error=%q}", s.Status, uid, s.Loading, s.Error)
}

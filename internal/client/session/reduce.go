package session

import "github.com/dmitrijs2005/shopdash/internal/client/models"

const reasonIncompleteCredentials = "missing token or user in response"

// Reduce computes the session that follows s after t. It never mutates s and
// reads nothing but its arguments.
func Reduce(s Session, t Transition) Session {
	switch t := t.(type) {
	case BootstrapRehydrated:
		if s.Status != StatusBootstrapping {
			return s
		}
		if t.Token != "" && t.User != nil {
			return authenticate(s, t.Token, t.User)
		}
		return unauthenticate(s)

	case LoginStarted:
		return start(s, t.Op)
	case RegisterStarted:
		return start(s, t.Op)
	case LogoutStarted:
		return start(s, t.Op)
	case FetchUserStarted:
		return start(s, t.Op)

	case LoginSucceeded:
		return credentialsReceived(s, t.Op, t.Token, t.User)
	case RegisterSucceeded:
		return credentialsReceived(s, t.Op, t.Token, t.User)

	case LoginFailed:
		return fail(s, t.Op, t.Reason)
	case RegisterFailed:
		return fail(s, t.Op, t.Reason)
	case FetchUserFailed:
		return fail(s, t.Op, t.Reason)

	case LogoutSucceeded:
		if !accepts(s, t.Op) {
			return s
		}
		s = settle(s, t.Op)
		s.Error = ""
		return unauthenticate(s)

	case LogoutFailed:
		// the session always ends locally, even if the server call failed
		return fail(s, t.Op, t.Reason)

	case FetchUserSucceeded:
		if !accepts(s, t.Op) {
			return s
		}
		s = settle(s, t.Op)
		if s.Token == "" || t.User == nil {
			return unauthenticate(s)
		}
		s.Error = ""
		return authenticate(s, s.Token, t.User)

	case ProfileUpdated:
		if s.Status != StatusAuthenticated || t.User == nil {
			return s
		}
		s.User = t.User.Clone()
		return s

	case ErrorCleared:
		s.Error = ""
		return s

	case OperationSettled:
		if !accepts(s, t.Op) {
			return s
		}
		s = settle(s, t.Op)
		if s.Status == StatusBootstrapping {
			return unauthenticate(s)
		}
		return s

	case SessionInvalidated:
		if t.Token != "" && t.Token != s.Token {
			return s
		}
		s.Error = ""
		return unauthenticate(s)
	}

	return s
}

func start(s Session, op Op) Session {
	if op != 0 {
		if op < s.op {
			return s
		}
		s.op = op
		s.settled = false
	}
	s.Loading = true
	s.Error = ""
	return s
}

// accepts reports whether a terminal transition for op may apply to s.
func accepts(s Session, op Op) bool {
	if op == 0 {
		return true
	}
	return op == s.op && !s.settled
}

func settle(s Session, op Op) Session {
	if op != 0 {
		s.settled = true
	}
	s.Loading = false
	return s
}

func credentialsReceived(s Session, op Op, token string, user *models.User) Session {
	if !accepts(s, op) {
		return s
	}
	s = settle(s, op)
	if token == "" || user == nil {
		s.Error = reasonIncompleteCredentials
		return unauthenticate(s)
	}
	s.Error = ""
	return authenticate(s, token, user)
}

func fail(s Session, op Op, reason string) Session {
	if !accepts(s, op) {
		return s
	}
	s = settle(s, op)
	s.Error = reason
	return unauthenticate(s)
}

func authenticate(s Session, token string, user *models.User) Session {
	s.Status = StatusAuthenticated
	s.Token = token
	s.User = user.Clone()
	return s
}

func unauthenticate(s Session) Session {
	s.Status = StatusUnauthenticated
	s.Token = ""
	s.User = nil
	return s
}

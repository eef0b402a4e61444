package session

import "github.com/dmitrijs2005/shopdash/internal/client/models"

// Transition is one of the tagged session transitions declared below.
type Transition interface {
	transitionName() string
}

type BootstrapRehydrated struct {
	Token string
	User  *models.User
}

type LoginStarted struct{ Op Op }

type LoginSucceeded struct {
	Op    Op
	Token string
	User  *models.User
}

type LoginFailed struct {
	Op     Op
	Reason string
}

type RegisterStarted struct{ Op Op }

type RegisterSucceeded struct {
	Op    Op
	Token string
	User  *models.User
}

type RegisterFailed struct {
	Op     Op
	Reason string
}

type LogoutStarted struct{ Op Op }

type LogoutSucceeded struct{ Op Op }

type LogoutFailed struct {
	Op     Op
	Reason string
}

type FetchUserStarted struct{ Op Op }

type FetchUserSucceeded struct {
	Op   Op
	User *models.User
}

type FetchUserFailed struct {
	Op     Op
	Reason string
}

// ProfileUpdated replaces the user of an authenticated session.
type ProfileUpdated struct{ User *models.User }

type ErrorCleared struct{}

// OperationSettled ends an operation without touching status, credentials
// or error. It is used when the caller stopped waiting for the result and
// for failures that say nothing about the validity of the session.
type OperationSettled struct{ Op Op }

// SessionInvalidated drops the credentials after the server rejected them
// on an unrelated request. When Token is set, only a session still holding
// that token is dropped. Loading of an in-flight operation is kept.
type SessionInvalidated struct{ Token string }

func (BootstrapRehydrated) transitionName() string { return "bootstrap_rehydrated" }
func (LoginStarted) transitionName() string        { return "login_started" }
func (LoginSucceeded) transitionName() string      { return "login_succeeded" }
func (LoginFailed) transitionName() string         { return "login_failed" }
func (RegisterStarted) transitionName() string     { return "register_started" }
func (RegisterSucceeded) transitionName() string   { return "register_succeeded" }
func (RegisterFailed) transitionName() string      { return "register_failed" }
func (LogoutStarted) transitionName() string       { return "logout_started" }
func (LogoutSucceeded) transitionName() string     { return "logout_succeeded" }
func (LogoutFailed) transitionName() string        { return "logout_failed" }
func (FetchUserStarted) transitionName() string    { return "fetch_user_started" }
func (FetchUserSucceeded) transitionName() string  { return "fetch_user_succeeded" }
func (FetchUserFailed) transitionName() string     { return "fetch_user_failed" }
func (ProfileUpdated) transitionName() string      { return "profile_updated" }
func (ErrorCleared) transitionName() string        { return "error_cleared" }
func (OperationSettled) transitionName() string    { return "operation_settled" }
func (SessionInvalidated) transitionName() string  { return "session_invalidated" }

// Name returns the stable identifier of t, used in logs.
func Name(t Transition) string {
	if t == nil {
		return "<nil>"
	}
	return t.transitionName()
}

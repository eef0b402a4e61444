package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/logging"
)

const (
	msgLoginFailed     = "Login failed"
	msgRegisterFailed  = "Registration failed"
	msgLogoutFailed    = "Logout failed"
	msgFetchUserFailed = "Failed to fetch user"
	msgProfileFailed   = "Failed to update profile"
	msgVerifyFailed    = "Email verification failed"
)

// Gateway issues the identity operations against the remote API. Each
// session-affecting call dispatches one *Started transition and exactly one
// terminal transition to the store. Failures are returned as *Error.
//
// The network call is not cancelled with ctx; ctx only tells the gateway
// whether the caller still wants the result. A result that arrives after ctx
// is done settles the operation without touching the session.
type Gateway struct {
	baseURL *url.URL
	http    *http.Client
	store   *session.Store
	timeout time.Duration
	logger  logging.Logger
}

type GatewayOption func(*Gateway)

func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

func WithGatewayLogger(l logging.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway builds a gateway for baseURL. httpClient should route through
// an Interceptor so credentials are attached.
func NewGateway(baseURL string, httpClient *http.Client, store *session.Store, opts ...GatewayOption) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	g := &Gateway{
		baseURL: u,
		http:    httpClient,
		store:   store,
		timeout: 10 * time.Second,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Login authenticates with email and password.
func (g *Gateway) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	op := g.store.NextOp()
	g.store.Dispatch(session.LoginStarted{Op: op})

	payload, err := doJSON[AuthPayload](g, ctx, http.MethodPost, PathLogin, req)
	if ctxErr := g.abandoned(ctx, op, "login"); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		err = checkCredentials(payload)
	}
	if err != nil {
		g.logger.Info(ctx, "login failed", "op", op, "kind", KindOf(err).String())
		g.store.Dispatch(session.LoginFailed{Op: op, Reason: messageOr(err, msgLoginFailed)})
		return nil, err
	}

	g.logger.Info(ctx, "login succeeded", "op", op, "user_id", payload.User.ID)
	g.store.Dispatch(session.LoginSucceeded{Op: op, Token: payload.Token, User: payload.User})
	return payload.User.Clone(), nil
}

// Register creates an account and, on success, authenticates with it.
// Validation failures stay with the form and do not set the session error.
func (g *Gateway) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	op := g.store.NextOp()
	g.store.Dispatch(session.RegisterStarted{Op: op})

	payload, err := doJSON[AuthPayload](g, ctx, http.MethodPost, PathRegister, req)
	if ctxErr := g.abandoned(ctx, op, "register"); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		err = checkCredentials(payload)
	}
	if err != nil {
		g.logger.Info(ctx, "register failed", "op", op, "kind", KindOf(err).String())
		if KindOf(err) == KindValidation {
			g.store.Dispatch(session.OperationSettled{Op: op})
		} else {
			g.store.Dispatch(session.RegisterFailed{Op: op, Reason: messageOr(err, msgRegisterFailed)})
		}
		return nil, err
	}

	g.logger.Info(ctx, "register succeeded", "op", op, "user_id", payload.User.ID)
	g.store.Dispatch(session.RegisterSucceeded{Op: op, Token: payload.Token, User: payload.User})
	return payload.User.Clone(), nil
}

// Logout ends the session on the server. The local session ends whatever
// the outcome; a 401 means the server already forgot it and counts as success.
func (g *Gateway) Logout(ctx context.Context) error {
	op := g.store.NextOp()
	g.store.Dispatch(session.LogoutStarted{Op: op})

	_, err := doJSON[json.RawMessage](g, ctx, http.MethodPost, PathLogout, nil)
	if ctxErr := g.abandoned(ctx, op, "logout"); ctxErr != nil {
		return ctxErr
	}
	if err != nil && KindOf(err) != KindUnauthorized {
		g.logger.Warn(ctx, "logout failed on server, ending session locally", "op", op, "kind", KindOf(err).String())
		g.store.Dispatch(session.LogoutFailed{Op: op, Reason: messageOr(err, msgLogoutFailed)})
		return err
	}

	g.logger.Info(ctx, "logout succeeded", "op", op)
	g.store.Dispatch(session.LogoutSucceeded{Op: op})
	return nil
}

// FetchCurrentUser resolves the identity behind the current token.
// Forbidden, server and network failures say nothing about the token and
// leave the session as it is.
func (g *Gateway) FetchCurrentUser(ctx context.Context) (*models.User, error) {
	op := g.store.NextOp()
	g.store.Dispatch(session.FetchUserStarted{Op: op})
	return g.fetchCurrentUser(ctx, op)
}

// RestoreSession installs persisted credentials and verifies them with one
// identity fetch. The fetch is started before the credentials are installed
// so the session never looks settled and authenticated before the server has
// answered.
func (g *Gateway) RestoreSession(ctx context.Context, token string, user *models.User) (*models.User, error) {
	op := g.store.NextOp()
	g.store.Dispatch(session.FetchUserStarted{Op: op})
	g.store.Dispatch(session.BootstrapRehydrated{Token: token, User: user})
	return g.fetchCurrentUser(ctx, op)
}

func (g *Gateway) fetchCurrentUser(ctx context.Context, op session.Op) (*models.User, error) {
	user, err := doJSON[*models.User](g, ctx, http.MethodGet, PathUser, nil)
	if ctxErr := g.abandoned(ctx, op, "fetch user"); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil && user == nil {
		err = &Error{Kind: KindUnknown, Message: "empty user in response"}
	}
	if err != nil {
		switch KindOf(err) {
		case KindForbidden, KindServerError, KindNetworkError:
			g.logger.Warn(ctx, "fetch user failed, session kept", "op", op, "kind", KindOf(err).String())
			g.store.Dispatch(session.OperationSettled{Op: op})
		default:
			g.logger.Info(ctx, "fetch user rejected", "op", op, "kind", KindOf(err).String())
			g.store.Dispatch(session.FetchUserFailed{Op: op, Reason: messageOr(err, msgFetchUserFailed)})
		}
		return nil, err
	}

	g.store.Dispatch(session.FetchUserSucceeded{Op: op, User: user})
	return user.Clone(), nil
}

// FetchProfile reloads the profile and replaces the session user with it.
func (g *Gateway) FetchProfile(ctx context.Context) (*models.User, error) {
	user, err := doJSON[*models.User](g, ctx, http.MethodGet, PathProfile, nil)
	return g.profileResult(ctx, user, err)
}

// UpdateProfile sends the changed fields. It never changes the
// authentication status, only the user.
func (g *Gateway) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	user, err := doJSON[*models.User](g, ctx, http.MethodPatch, PathProfile, update)
	return g.profileResult(ctx, user, err)
}

// VerifyEmail confirms an address with the signed link the server mailed.
// The confirmation itself changes no session state. When signed in, the
// profile is reloaded so the session user carries the verification date;
// the reloaded user is returned, nil when signed out.
func (g *Gateway) VerifyEmail(ctx context.Context, v models.EmailVerification) (*models.User, error) {
	q := url.Values{}
	q.Set("expires", v.Expires)
	q.Set("signature", v.Signature)
	path := PathVerifyEmail + "/" + url.PathEscape(v.ID) + "/" + url.PathEscape(v.Hash) + "?" + q.Encode()

	if _, err := doJSON[json.RawMessage](g, ctx, http.MethodGet, path, nil); err != nil {
		if apiErr, ok := err.(*Error); ok && apiErr.Message == "" {
			apiErr.Message = msgVerifyFailed
		}
		g.logger.Info(ctx, "email verification failed", "id", v.ID, "kind", KindOf(err).String())
		return nil, err
	}
	g.logger.Info(ctx, "email verified", "id", v.ID)

	if !g.store.GetState().IsAuthenticated() {
		return nil, nil
	}
	return g.FetchProfile(ctx)
}

func (g *Gateway) profileResult(ctx context.Context, user *models.User, err error) (*models.User, error) {
	if err == nil && user == nil {
		err = &Error{Kind: KindUnknown, Message: msgProfileFailed}
	}
	if err != nil {
		if apiErr, ok := err.(*Error); ok && apiErr.Message == "" {
			apiErr.Message = msgProfileFailed
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("profile request abandoned: %w", ctx.Err())
	}
	g.store.Dispatch(session.ProfileUpdated{User: user})
	return user.Clone(), nil
}

// abandoned settles op when the caller stopped waiting for it.
func (g *Gateway) abandoned(ctx context.Context, op session.Op, name string) error {
	if ctx.Err() == nil {
		return nil
	}
	g.logger.Debug(ctx, "result arrived after caller left", "op", op, "operation", name)
	g.store.Dispatch(session.OperationSettled{Op: op})
	return fmt.Errorf("%s abandoned: %w", name, ctx.Err())
}

func checkCredentials(p AuthPayload) error {
	if p.Token == "" || p.User == nil {
		return &Error{Kind: KindUnknown, Message: errMissingCredentials.Error(), Err: errMissingCredentials}
	}
	return nil
}

// doJSON performs one request and decodes the envelope. The returned error
// is nil or an *Error.
func doJSON[T any](g *Gateway, ctx context.Context, method, path string, body any) (T, error) {
	var zero T

	netCtx := context.WithoutCancel(ctx)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		netCtx, cancel = context.WithTimeout(netCtx, g.timeout)
		defer cancel()
	}

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, &Error{Kind: KindUnknown, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(netCtx, method, g.baseURL.String()+path, reader)
	if err != nil {
		return zero, &Error{Kind: KindUnknown, Message: "failed to build request", Err: err}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return zero, &Error{Kind: KindNetworkError, Message: "server unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, apiErr := decodeEnvelope[T](resp)
	if apiErr != nil {
		return zero, apiErr
	}
	return data, nil
}

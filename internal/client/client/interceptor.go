package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/common"
	"github.com/dmitrijs2005/shopdash/internal/logging"
	"github.com/google/uuid"
)

const (
	PathLogin    = "/api/login"
	PathRegister = "/api/register"
	PathLogout   = "/api/logout"
	PathUser     = "/api/user"
	PathProfile  = "/api/profile"

	PathVerifyEmail = "/email/verify"
)

// Interceptor wraps every outgoing HTTP exchange. It attaches the current
// bearer token and, when the server answers 401 to anything but a login or
// register call, invalidates the session and asks the router to show the
// login boundary once.
type Interceptor struct {
	next      http.RoundTripper
	store     *session.Store
	bus       *navigation.Bus
	loginPath string
	authPaths []string
	logger    logging.Logger

	// armed is set while a confirmed session exists that has not yet
	// produced a redirect.
	armed       atomic.Bool
	unsubscribe func()
	closeOnce   sync.Once
}

type InterceptorOption func(*Interceptor)

func WithTransport(rt http.RoundTripper) InterceptorOption {
	return func(i *Interceptor) {
		if rt != nil {
			i.next = rt
		}
	}
}

func WithLoginPath(p string) InterceptorOption {
	return func(i *Interceptor) {
		if p != "" {
			i.loginPath = p
		}
	}
}

func WithInterceptorLogger(l logging.Logger) InterceptorOption {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

func NewInterceptor(store *session.Store, bus *navigation.Bus, opts ...InterceptorOption) *Interceptor {
	i := &Interceptor{
		next:      http.DefaultTransport,
		store:     store,
		bus:       bus,
		loginPath: "/login",
		authPaths: []string{PathLogin, PathRegister},
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}

	i.armed.Store(confirmed(store.GetState()))
	i.unsubscribe = store.Subscribe(func(s session.Session) {
		if confirmed(s) {
			i.armed.Store(true)
		}
	})
	return i
}

// confirmed reports a session with no identity operation in flight. A
// restored session being verified at boot is not confirmed yet; if the
// server rejects it, the route guard does the redirect.
func confirmed(s session.Session) bool {
	return s.IsAuthenticated() && !s.Loading
}

// Close detaches the interceptor from the store.
func (i *Interceptor) Close() {
	i.closeOnce.Do(i.unsubscribe)
}

// Client returns an *http.Client whose transport is i.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i}
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}

	if out.Header.Get("Accept") == "" {
		out.Header.Set("Accept", "application/json")
	}
	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	if out.Header.Get(common.RequestIDHeaderName) == "" {
		out.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}

	// read synchronously; a request sent before the session is known goes out
	// without credentials
	token := i.store.Token()
	if token != "" {
		out.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	} else {
		out.Header.Del(common.AuthorizationHeaderName)
	}

	resp, err := i.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" && !i.isAuthEndpoint(out) {
		i.handleUnauthorized(out, token)
	}
	return resp, nil
}

func (i *Interceptor) isAuthEndpoint(req *http.Request) bool {
	if req.Method != http.MethodPost {
		return false
	}
	p := strings.TrimRight(req.URL.Path, "/")
	for _, ap := range i.authPaths {
		if strings.HasSuffix(p, ap) {
			return true
		}
	}
	return false
}

// handleUnauthorized drops the session that sent token. A 401 for a token
// that was already replaced by a newer login is ignored by the store.
func (i *Interceptor) handleUnauthorized(req *http.Request, token string) {
	ctx := context.WithoutCancel(req.Context())
	reqID := req.Header.Get(common.RequestIDHeaderName)

	next := i.store.Dispatch(session.SessionInvalidated{Token: token})
	if next.IsAuthenticated() {
		i.logger.Debug(ctx, "401 for a replaced token ignored", "request_id", reqID, "path", req.URL.Path)
		return
	}

	if !i.armed.CompareAndSwap(true, false) {
		i.logger.Debug(ctx, "401 received, no confirmed session to redirect from", "request_id", reqID, "path", req.URL.Path)
		return
	}

	i.logger.Warn(ctx, "server rejected credentials, session invalidated", "request_id", reqID, "path", req.URL.Path)
	if i.bus != nil {
		i.bus.Publish(navigation.Event{To: i.loginPath, Reason: navigation.ReasonSessionExpired})
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/shopdash/internal/client/client"
	"github.com/dmitrijs2005/shopdash/internal/client/config"
	"github.com/dmitrijs2005/shopdash/internal/client/guard"
	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/services"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth drives a real store the way the gateway would.
type fakeAuth struct {
	store *session.Store

	user        *models.User
	loginErr    error
	registerErr error
	logoutErr   error
	profile     *models.User
	lastUpdate  models.ProfileUpdate
	verifyErr   error

	calls []string
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	f.calls = append(f.calls, "login:"+req.Email)
	op := f.store.NextOp()
	f.store.Dispatch(session.LoginStarted{Op: op})
	if f.loginErr != nil {
		f.store.Dispatch(session.LoginFailed{Op: op, Reason: "Invalid credentials"})
		return nil, f.loginErr
	}
	f.store.Dispatch(session.LoginSucceeded{Op: op, Token: "tX", User: f.user})
	return f.user, nil
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.calls = append(f.calls, "register:"+req.Email)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	op := f.store.NextOp()
	f.store.Dispatch(session.RegisterStarted{Op: op})
	f.store.Dispatch(session.RegisterSucceeded{Op: op, Token: "tR", User: f.user})
	return f.user, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	op := f.store.NextOp()
	f.store.Dispatch(session.LogoutStarted{Op: op})
	if f.logoutErr != nil {
		f.store.Dispatch(session.LogoutFailed{Op: op, Reason: "Logout failed"})
		return f.logoutErr
	}
	f.store.Dispatch(session.LogoutSucceeded{Op: op})
	return nil
}

func (f *fakeAuth) CurrentUser() *models.User {
	s := f.store.GetState()
	if !s.IsAuthenticated() {
		return nil
	}
	return s.User
}

func (f *fakeAuth) Profile(ctx context.Context) (*models.User, error) {
	f.calls = append(f.calls, "profile")
	if f.profile == nil {
		return f.CurrentUser(), nil
	}
	return f.profile, nil
}

func (f *fakeAuth) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	f.calls = append(f.calls, "update_profile")
	f.lastUpdate = update
	u := f.CurrentUser().Clone()
	if update.City != nil {
		u.City = *update.City
	}
	f.store.Dispatch(session.ProfileUpdated{User: u})
	return u, nil
}

func (f *fakeAuth) VerifyEmail(ctx context.Context, link string) (*models.User, error) {
	f.calls = append(f.calls, "verify_email")
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	u := f.CurrentUser()
	if u == nil {
		return nil, nil
	}
	u = u.Clone()
	u.EmailVerifiedAt = "2026-10-18T09:00:00Z"
	f.store.Dispatch(session.ProfileUpdated{User: u})
	return u, nil
}

var _ services.AuthService = (*fakeAuth)(nil)

type testApp struct {
	*App
	auth  *fakeAuth
	lines *[]string
}

func newTestApp(t *testing.T, initial session.Session, boot guard.BootFunc) *testApp {
	t.Helper()
	store := session.NewStore(session.WithInitial(initial))
	bus := navigation.NewBus()
	g := guard.New(store, bus, boot)
	t.Cleanup(g.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	auth := &fakeAuth{store: store, user: &models.User{ID: 1, Name: "Ann", LastName: "Lee", Email: "a@b.com", Role: models.RoleUser}}
	app := newApp(cfg, store, bus, g, auth, nil)
	app.out = io.Discard
	app.reader = bufio.NewReader(strings.NewReader(""))
	t.Cleanup(app.Close)

	return &testApp{App: app, auth: auth, lines: silence(t)}
}

func signedOutSession() session.Session {
	return session.Session{Status: session.StatusUnauthenticated}
}

func signedInSession() session.Session {
	return session.Session{Status: session.StatusAuthenticated, Token: "t1", User: &models.User{ID: 1, Name: "Ann", Email: "a@b.com"}}
}

func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origOT, origGP := getSimpleText, getOptionalText, getPassword
	t.Cleanup(func() {
		getSimpleText, getOptionalText, getPassword = origST, origOT, origGP
	})

	next := func(src *[]string) string {
		if len(*src) == 0 {
			return ""
		}
		v := (*src)[0]
		*src = (*src)[1:]
		return v
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(&texts), nil }
	getOptionalText = func(_ *bufio.Reader, _, _ string, _ io.Writer) (*string, error) {
		v := next(&texts)
		if v == "" {
			return nil, nil
		}
		return &v, nil
	}
	getPassword = func(_ string, _ io.Writer) (string, error) { return next(&passwords), nil }
}

func TestApp_ProtectedPageRedirectsAndReturnsAfterLogin(t *testing.T) {
	app := newTestApp(t, signedOutSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/orders/42"))
	app.Navigate(ctx)

	assert.Equal(t, "/login", app.location)
	assert.Equal(t, "/orders/42", app.returnTo)
	assert.Contains(t, *app.lines, "/orders/42 requires signing in.")

	stubInputs(t, []string{"a@b.com"}, []string{"secret1"})
	require.NoError(t, app.Login(ctx))
	app.Navigate(ctx)

	assert.Equal(t, "/orders/42", app.location)
	assert.Equal(t, guard.Granted, app.guard.Decision())
	assert.Empty(t, app.returnTo)
	assert.Equal(t, []string{"login:a@b.com"}, app.auth.calls)
}

func TestApp_ReturnAfterLoginKeepsQuery(t *testing.T) {
	app := newTestApp(t, signedOutSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/orders?page=2"))
	app.Navigate(ctx)
	require.Equal(t, "/orders?page=2", app.returnTo)

	stubInputs(t, []string{"a@b.com"}, []string{"secret1"})
	require.NoError(t, app.Login(ctx))
	app.Navigate(ctx)

	assert.Equal(t, "/orders?page=2", app.location)
}

func TestApp_LoginFailureShowsSessionError(t *testing.T) {
	app := newTestApp(t, signedOutSession(), nil)
	app.auth.loginErr = &client.Error{Kind: client.KindUnauthorized, Status: 401}
	ctx := context.Background()

	stubInputs(t, []string{"a@b.com"}, []string{"wrong!"})
	err := app.Login(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	app.Navigate(ctx)

	assert.Contains(t, *app.lines, "Error: Invalid credentials")
	assert.Empty(t, app.location, "a failed login does not navigate")
}

func TestApp_LoginBoundaryClearsStaleError(t *testing.T) {
	s := signedOutSession()
	s.Error = "Invalid credentials"
	app := newTestApp(t, s, nil)

	require.NoError(t, app.Open(context.Background(), "/login"))
	assert.Empty(t, app.store.GetState().Error)
	assert.Equal(t, "/login", app.location)
}

func TestApp_LoginBoundaryRedirectsSignedInUser(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/login"))
	app.Navigate(ctx)
	assert.Equal(t, "/", app.location)
}

func TestApp_SessionExpiryReturnsToLogin(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/profile"))
	require.Equal(t, "/profile", app.location)

	// what the interceptor does on a 401
	app.store.Dispatch(session.SessionInvalidated{Token: "t1"})
	app.bus.Publish(navigation.Event{To: "/login", Reason: navigation.ReasonSessionExpired})
	app.Navigate(ctx)

	assert.Equal(t, "/login", app.location)
	assert.Equal(t, "/profile", app.returnTo)
	assert.Contains(t, *app.lines, "Your session has expired. Please log in again.")
}

func TestApp_BootstrapThroughGuard(t *testing.T) {
	var app *testApp
	app = newTestApp(t, session.Initial(), func(ctx context.Context) error {
		op := app.store.NextOp()
		app.store.Dispatch(session.FetchUserStarted{Op: op})
		app.store.Dispatch(session.BootstrapRehydrated{Token: "t1", User: &models.User{ID: 1, Email: "a@b.com"}})
		app.store.Dispatch(session.FetchUserSucceeded{Op: op, User: &models.User{ID: 1, Name: "Ann", Email: "a@b.com"}})
		return nil
	})
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/"))
	app.Navigate(ctx)

	assert.Equal(t, "/", app.location)
	assert.Equal(t, guard.Granted, app.guard.Decision())
	assert.Contains(t, *app.lines, "Dashboard. Signed in as Ann <a@b.com>.")
}

func TestApp_LogoutShowsLoginWithoutReturn(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "/orders"))
	require.NoError(t, app.Logout(ctx))
	app.Navigate(ctx)

	assert.Equal(t, "/login", app.location)
	assert.Empty(t, app.returnTo)
	assert.False(t, app.isLoggedIn())
}

func TestApp_LogoutServerFailureStillSignsOut(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)
	app.auth.logoutErr = errors.New("502")

	err := app.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, *app.lines, "Signed out.")
}

func TestApp_RegisterValidationShowsFields(t *testing.T) {
	app := newTestApp(t, signedOutSession(), nil)
	app.auth.registerErr = client.NewValidationError("The given data was invalid.", map[string][]string{
		"email":         {"The email has already been taken."},
		"mobile_number": {"must be a valid phone number"},
	})

	stubInputs(t, []string{"Ann", "Lee", "a@b.com", "123", "", "", "", "", ""}, []string{"secret1", "secret1"})
	err := app.Register(context.Background())
	require.ErrorIs(t, err, client.ErrValidation)

	assert.Contains(t, *app.lines, "The given data was invalid.")
	assert.Contains(t, *app.lines, "email: The email has already been taken.")
	assert.Contains(t, *app.lines, "mobile_number: must be a valid phone number")
	assert.Empty(t, app.store.GetState().Error)
}

func TestApp_RegisterSignsInAndReturns(t *testing.T) {
	app := newTestApp(t, signedOutSession(), nil)
	ctx := context.Background()

	stubInputs(t, []string{"Ann", "Lee", "new@b.com", "+1 650 253 0000", "admin", "LV", "", "Riga", ""}, []string{"secret1", "secret1"})
	require.NoError(t, app.Register(ctx))
	app.Navigate(ctx)

	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "/", app.location)
	assert.Equal(t, []string{"register:new@b.com"}, app.auth.calls)
}

func TestApp_EditProfile(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)

	stubInputs(t, []string{"", "", "", "", "", "", "Tallinn", ""}, nil)
	require.NoError(t, app.EditProfile(context.Background()))

	require.NotNil(t, app.auth.lastUpdate.City)
	assert.Equal(t, "Tallinn", *app.auth.lastUpdate.City)
	assert.Nil(t, app.auth.lastUpdate.Name)
	assert.Equal(t, "Tallinn", app.store.GetState().User.City)
}

func TestApp_EditProfileNothingToDo(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)

	stubInputs(t, nil, nil)
	require.NoError(t, app.EditProfile(context.Background()))
	assert.Empty(t, app.auth.calls)
	assert.Contains(t, *app.lines, "Nothing to update.")
}

func TestApp_OpenUnknownPage(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)

	err := app.Open(context.Background(), "/nope")
	require.ErrorIs(t, err, ErrPageNotFound)
	assert.Empty(t, app.location)
}

func TestApp_StatusAndWhoAmI(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)
	ctx := context.Background()

	require.NoError(t, app.WhoAmI(ctx))
	require.NoError(t, app.Status(ctx))
	assert.Contains(t, *app.lines, "Session: authenticated")
	assert.Equal(t, "(a@b.com -)", app.getStatus())
}

func TestNewApp_PreparesStorageAndCloses(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoragePath = filepath.Join(t.TempDir(), "nested", "shopdash.db")

	app, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, app.guard)
	assert.Equal(t, session.StatusBootstrapping, app.store.GetState().Status)

	app.Close()
	assert.FileExists(t, cfg.StoragePath)
}

func TestApp_VerifyEmail(t *testing.T) {
	app := newTestApp(t, signedInSession(), nil)

	require.NoError(t, app.VerifyEmail(context.Background(), "/email/verify/1/h?expires=1&signature=s"))
	assert.Contains(t, *app.lines, "Email verified.")
	assert.Contains(t, *app.lines, "Verified at: 2026-10-18T09:00:00Z")
	assert.Equal(t, "2026-10-18T09:00:00Z", app.store.GetState().User.EmailVerifiedAt)
}

func TestApp_VerifyEmailFailureIgnoresStaleSessionError(t *testing.T) {
	s := signedOutSession()
	s.Error = "Invalid credentials"
	app := newTestApp(t, s, nil)
	app.auth.verifyErr = &client.Error{Kind: client.KindForbidden, Status: 403, Message: "Invalid signature."}

	err := app.VerifyEmail(context.Background(), "/email/verify/1/h?expires=1&signature=x")
	require.ErrorIs(t, err, client.ErrForbidden)
	assert.Contains(t, *app.lines, "Error: Invalid signature.")
	assert.NotContains(t, *app.lines, "Error: Invalid credentials")
}

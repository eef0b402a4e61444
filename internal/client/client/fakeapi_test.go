package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/gorilla/mux"
)

// fakeAPI is an in-process ShopDash API. Tokens map to users; handlers can be
// overridden per route.
type fakeAPI struct {
	t      *testing.T
	srv    *httptest.Server
	router *mux.Router

	mu        sync.Mutex
	users     map[string]*models.User // token -> user
	passwords map[string]string       // email -> password
	byEmail   map[string]*models.User
	nextToken string
	requests  []*http.Request
	overrides map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		t:         t,
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
		byEmail:   make(map[string]*models.User),
		nextToken: "tX",
		overrides: make(map[string]http.HandlerFunc),
	}

	r := mux.NewRouter()
	r.Use(api.record)
	r.HandleFunc(PathLogin, api.route("login", api.login)).Methods(http.MethodPost)
	r.HandleFunc(PathRegister, api.route("register", api.register)).Methods(http.MethodPost)
	r.HandleFunc(PathLogout, api.route("logout", api.logout)).Methods(http.MethodPost)
	r.HandleFunc(PathUser, api.route("user", api.currentUser)).Methods(http.MethodGet)
	r.HandleFunc(PathProfile, api.route("profile", api.currentUser)).Methods(http.MethodGet)
	r.HandleFunc(PathProfile, api.route("update_profile", api.updateProfile)).Methods(http.MethodPatch)
	r.HandleFunc("/api/orders", api.route("orders", api.orders)).Methods(http.MethodGet)
	r.HandleFunc(PathVerifyEmail+"/{id}/{hash}", api.route("verify_email", api.verifyEmail)).Methods(http.MethodGet)
	api.router = r

	api.srv = httptest.NewServer(r)
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) URL() string { return a.srv.URL }

func (a *fakeAPI) addUser(u *models.User, password, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byEmail[u.Email] = u
	a.passwords[u.Email] = password
	if token != "" {
		a.users[token] = u
	}
}

func (a *fakeAPI) revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.users, token)
}

func (a *fakeAPI) override(name string, h http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrides[name] = h
}

func (a *fakeAPI) recorded() []*http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*http.Request(nil), a.requests...)
}

func (a *fakeAPI) last() *http.Request {
	reqs := a.recorded()
	if len(reqs) == 0 {
		a.t.Fatal("no request recorded")
	}
	return reqs[len(reqs)-1]
}

func (a *fakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, r.Clone(r.Context()))
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (a *fakeAPI) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		o := a.overrides[name]
		a.mu.Unlock()
		if o != nil {
			o(w, r)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"data": nil, "message": msg, "status": "error"})
}

func (a *fakeAPI) bearer(r *http.Request) *models.User {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users[token]
}

func (a *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	a.mu.Lock()
	u := a.byEmail[req.Email]
	ok := u != nil && a.passwords[req.Email] == req.Password
	token := a.nextToken
	if ok {
		a.users[token] = u
	}
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": u, "token": token}, "status": "success"})
}

func (a *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	a.mu.Lock()
	_, taken := a.byEmail[req.Email]
	a.mu.Unlock()
	if taken {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"email": {"The email has already been taken."}},
			"status":  "error",
		})
		return
	}

	u := &models.User{ID: 100, Name: req.Name, LastName: req.LastName, Email: req.Email, MobileNumber: req.MobileNumber, Role: req.Role}
	a.addUser(u, req.Password, a.nextToken)
	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"user": u, "token": a.nextToken}, "status": "success"})
}

func (a *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	if a.bearer(r) == nil {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	a.revoke(token)
	writeJSON(w, http.StatusOK, map[string]any{"data": nil, "status": "success"})
}

func (a *fakeAPI) currentUser(w http.ResponseWriter, r *http.Request) {
	u := a.bearer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u, "status": "success"})
}

func (a *fakeAPI) updateProfile(w http.ResponseWriter, r *http.Request) {
	u := a.bearer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	var upd models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	a.mu.Lock()
	next := *u
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.City != nil {
		next.City = *upd.City
	}
	*u = next
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": next, "status": "success"})
}

// verifyEmail accepts links whose signature is "sig-" + hash.
func (a *fakeAPI) verifyEmail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q := r.URL.Query()
	if q.Get("expires") == "" || q.Get("signature") != "sig-"+vars["hash"] {
		writeError(w, http.StatusForbidden, "Invalid signature.")
		return
	}

	a.mu.Lock()
	var found *models.User
	for _, u := range a.byEmail {
		if strconv.FormatInt(u.ID, 10) == vars["id"] {
			found = u
		}
	}
	if found != nil {
		found.EmailVerifiedAt = "2026-10-18T09:00:00Z"
	}
	a.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": nil, "status": "success"})
}

func (a *fakeAPI) orders(w http.ResponseWriter, r *http.Request) {
	if a.bearer(r) == nil {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": []any{}, "status": "success"})
}

// harness wires a store, bus, interceptor and gateway against api.
type harness struct {
	api   *fakeAPI
	store *session.Store
	bus   *navigation.Bus
	rec   *navigation.Recorder
	ic    *Interceptor
	gw    *Gateway
	http  *http.Client
}

func newHarness(t *testing.T, initial *session.Session) *harness {
	t.Helper()
	api := newFakeAPI(t)

	var opts []session.Option
	if initial != nil {
		opts = append(opts, session.WithInitial(*initial))
	}
	store := session.NewStore(opts...)
	bus := navigation.NewBus()
	rec := &navigation.Recorder{}
	bus.Subscribe(rec.Record)

	ic := NewInterceptor(store, bus)
	t.Cleanup(ic.Close)

	httpClient := ic.Client()
	gw, err := NewGateway(api.URL(), httpClient, store)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return &harness{api: api, store: store, bus: bus, rec: rec, ic: ic, gw: gw, http: httpClient}
}

func authenticated(token string, u *models.User) *session.Session {
	return &session.Session{Status: session.StatusAuthenticated, Token: token, User: u}
}

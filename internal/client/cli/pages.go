package cli

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Page names.
const (
	PageDashboard = "dashboard"
	PageLogin     = "login"
	PageRegister  = "register"
	PageProfile   = "profile"
	PageOrders    = "orders"
	PageOrder     = "order"
	PageProducts  = "products"
	PageProduct   = "product"
	PageCustomers = "customers"
)

var ErrPageNotFound = errors.New("page not found")

// Page is a location the user can open.
type Page struct {
	Name      string
	Protected bool
	Vars      map[string]string
	Location  string
}

// Router resolves locations such as "/orders/42" to pages. Locations are
// matched with the same patterns the dashboard uses for its routes.
type Router struct {
	mux       *mux.Router
	protected map[string]bool
}

// NewRouter registers the dashboard pages; loginPath overrides where the
// login boundary lives.
func NewRouter(loginPath string) *Router {
	if loginPath == "" {
		loginPath = "/login"
	}
	r := &Router{mux: mux.NewRouter(), protected: make(map[string]bool)}

	r.add(PageLogin, loginPath, false)
	r.add(PageRegister, "/register", false)
	r.add(PageDashboard, "/", true)
	r.add(PageProfile, "/profile", true)
	r.add(PageOrders, "/orders", true)
	r.add(PageOrder, "/orders/{id:[0-9]+}", true)
	r.add(PageProducts, "/products", true)
	r.add(PageProduct, "/products/{id:[0-9]+}", true)
	r.add(PageCustomers, "/customers", true)
	return r
}

func (r *Router) add(name, path string, protected bool) {
	r.mux.NewRoute().Name(name).Path(path).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	r.protected[name] = protected
}

// Resolve matches location, which may carry a query string.
func (r *Router) Resolve(location string) (Page, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		location = "/"
	}
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	u, err := url.Parse(location)
	if err != nil {
		return Page{}, ErrPageNotFound
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, ErrPageNotFound
	}

	var m mux.RouteMatch
	if !r.mux.Match(req, &m) || m.Route == nil {
		return Page{}, ErrPageNotFound
	}
	name := m.Route.GetName()
	return Page{Name: name, Protected: r.protected[name], Vars: m.Vars, Location: u.RequestURI()}, nil
}

// Path builds the location of a named page.
func (r *Router) Path(name string, pairs ...string) (string, error) {
	route := r.mux.Get(name)
	if route == nil {
		return "", ErrPageNotFound
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

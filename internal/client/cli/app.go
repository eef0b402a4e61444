package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/shopdash/internal/client/client"
	"github.com/dmitrijs2005/shopdash/internal/client/config"
	"github.com/dmitrijs2005/shopdash/internal/client/guard"
	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/services"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/filex"
	"github.com/dmitrijs2005/shopdash/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *session.Store
	bus    *navigation.Bus
	guard  *guard.Guard
	auth   services.AuthService
	router *Router
	reader *bufio.Reader
	out    io.Writer

	navMu    sync.Mutex
	navQueue []navigation.Event

	// location is the page currently shown, returnTo where the login
	// boundary sends the user after signing in.
	location string
	returnTo string

	closers []func()
}

// NewApp wires local storage, the session store, the HTTP stack, the boot
// sequence and the route guard.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	models.DefaultPhoneRegion = c.PhoneRegion

	if err := filex.EnsureParentDir(c.StoragePath); err != nil {
		logger.Error(ctx, "error preparing storage directory", "path", c.StoragePath, "error", err)
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.StoragePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.StoragePath, "error", err)
		return nil, err
	}

	store := session.NewStore(session.WithLogger(logger.With("component", "session")))
	bus := navigation.NewBus()

	persistence := services.NewPersistence(db, c.StorageKey, services.WithPersistenceLogger(logger.With("component", "persistence")))
	writer := services.NewWriter(persistence, store)

	interceptor := client.NewInterceptor(store, bus,
		client.WithLoginPath(c.LoginPath),
		client.WithInterceptorLogger(logger.With("component", "http")),
	)
	gateway, err := client.NewGateway(c.BaseURL, interceptor.Client(), store,
		client.WithTimeout(c.RequestTimeout),
		client.WithGatewayLogger(logger.With("component", "gateway")),
	)
	if err != nil {
		interceptor.Close()
		writer.Close()
		_ = db.Close()
		return nil, err
	}

	boot := services.NewBootstrapper(store, persistence, gateway,
		services.WithVerification(c.VerifyOnBoot),
		services.WithBootstrapLogger(logger.With("component", "bootstrap")),
	)
	g := guard.New(store, bus, boot.Run,
		guard.WithLoginPath(c.LoginPath),
		guard.WithLogger(logger.With("component", "guard")),
	)

	app := newApp(c, store, bus, g, services.NewAuthService(gateway, store), logger)
	app.closers = append(app.closers,
		g.Close,
		interceptor.Close,
		writer.Close,
		func() { closeDB(ctx, logger, db) },
	)
	return app, nil
}

func newApp(c *config.Config, store *session.Store, bus *navigation.Bus, g *guard.Guard, auth services.AuthService, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	a := &App{
		config: c,
		logger: logger,
		store:  store,
		bus:    bus,
		guard:  g,
		auth:   auth,
		router: NewRouter(c.LoginPath),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	unsubscribe := bus.Subscribe(a.enqueueNavigation)
	unwatch := g.Subscribe(func(d guard.Decision) {
		logger.Debug(context.Background(), "route decision", "decision", d.String(), "location", g.Location())
	})
	a.closers = append(a.closers, unwatch, unsubscribe)
	return a
}

func closeDB(ctx context.Context, logger logging.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn(ctx, "failed to close database", "error", err)
	}
}

// Close releases everything NewApp opened, pending session writes included.
func (a *App) Close() {
	for _, fn := range a.closers {
		fn()
	}
	a.closers = nil
}

// Run opens the dashboard and serves commands until the user exits or
// stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to ShopDash CLI (type 'help' for commands)")
	_ = a.Open(ctx, a.home())
	a.Navigate(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.store.GetState().IsAuthenticated()
}

func (a *App) getStatus() string {
	who := "guest"
	if s := a.store.GetState(); s.IsAuthenticated() && s.User != nil {
		who = s.User.Email
	}
	loc := a.location
	if loc == "" {
		loc = "-"
	}
	return fmt.Sprintf("(%s %s)", who, loc)
}

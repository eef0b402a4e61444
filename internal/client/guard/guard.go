// Package guard decides whether a protected location may be shown.
//
// A Guard starts Pending and resolves once the session has left
// bootstrapping. It triggers the bootstrap itself on first evaluation, never
// reports a decision before the bootstrap has resolved, and afterwards
// follows the session: losing the session moves Granted to Denied and
// publishes a redirect to the login path carrying the requested location.
package guard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/logging"
	"golang.org/x/sync/singleflight"
)

type Decision int

const (
	Pending Decision = iota
	Granted
	Denied
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// BootFunc resolves the initial session, typically services.Bootstrapper.Run.
type BootFunc func(ctx context.Context) error

const bootKey = "bootstrap"

// Guard is safe for concurrent use.
type Guard struct {
	store     *session.Store
	bus       *navigation.Bus
	boot      BootFunc
	loginPath string
	logger    logging.Logger

	sf     singleflight.Group
	booted atomic.Bool

	mu       sync.Mutex
	decision Decision
	resolved bool
	location string
	changed  chan struct{}
	nextID   uint64
	subs     map[uint64]func(Decision)

	// redirected is the location a redirect was last published for;
	// publishing counts redirects decided but not yet delivered.
	redirected string
	publishing int

	unsubscribe func()
	closeOnce   sync.Once
}

type Option func(*Guard)

func WithLoginPath(p string) Option {
	return func(g *Guard) {
		if p != "" {
			g.loginPath = p
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func New(store *session.Store, bus *navigation.Bus, boot BootFunc, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		bus:       bus,
		boot:      boot,
		loginPath: "/login",
		logger:    logging.Nop(),
		changed:   make(chan struct{}),
		subs:      make(map[uint64]func(Decision)),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.unsubscribe = store.Subscribe(g.observe)
	return g
}

// Close detaches the guard from the store.
func (g *Guard) Close() {
	g.closeOnce.Do(g.unsubscribe)
}

// Decision returns the decision for the current location.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Location is the protected location currently being evaluated.
func (g *Guard) Location() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.location
}

// Evaluate asks for location and returns the decision as it stands. While
// the session is still bootstrapping the answer is Pending and the bootstrap
// is started in the background; use Wait to block for the outcome.
func (g *Guard) Evaluate(ctx context.Context, location string) Decision {
	s := g.store.GetState()

	g.mu.Lock()
	g.location = location
	g.mu.Unlock()

	if s.Status == session.StatusBootstrapping && s.Pending() == 0 {
		g.triggerBoot(ctx)
	}

	return g.apply()
}

// Wait blocks until the decision for the current location is no longer
// Pending. A Denied result is returned only after its redirect has been
// published.
func (g *Guard) Wait(ctx context.Context) (Decision, error) {
	for {
		g.mu.Lock()
		d, ch, busy := g.decision, g.changed, g.publishing > 0
		g.mu.Unlock()
		if d != Pending && !busy {
			return d, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return Pending, ctx.Err()
		}
	}
}

// Release stops guarding; the current location is public from now on and
// session changes no longer redirect.
func (g *Guard) Release() {
	g.mu.Lock()
	g.location = ""
	g.redirected = ""
	g.mu.Unlock()
}

// Subscribe registers fn for every decision change. fn runs synchronously on
// the goroutine that caused the change.
func (g *Guard) Subscribe(fn func(Decision)) func() {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// triggerBoot runs the bootstrap at most once per guard. Concurrent
// evaluations share the same run.
func (g *Guard) triggerBoot(ctx context.Context) {
	if g.booted.Load() || g.boot == nil {
		return
	}
	bootCtx := context.WithoutCancel(ctx)
	go g.sf.Do(bootKey, func() (any, error) {
		if !g.booted.CompareAndSwap(false, true) {
			return nil, nil
		}
		g.logger.Debug(bootCtx, "route guard starting bootstrap")
		if err := g.boot(bootCtx); err != nil {
			g.logger.Warn(bootCtx, "bootstrap finished with error", "error", err)
			return nil, err
		}
		return nil, nil
	})
}

// observe ignores the delivered snapshot: listeners can run out of commit
// order, so apply always reads the committed session.
func (g *Guard) observe(session.Session) {
	g.apply()
}

// apply recomputes the decision from the committed session. The read happens
// under g.mu, so the last apply to take the lock sees the latest commit. A
// Denied decision publishes one redirect per guarded location.
func (g *Guard) apply() Decision {
	g.mu.Lock()
	s := g.store.GetState()
	prev := g.decision
	next := g.decide(s)
	g.decision = next
	location := g.location

	redirect := false
	switch {
	case next != Denied:
		g.redirected = ""
	case location != "" && g.redirected != location:
		g.redirected = location
		redirect = true
		g.publishing++
	}

	var fns []func(Decision)
	if next != prev {
		g.wakeLocked()
		fns = make([]func(Decision), 0, len(g.subs))
		for id := uint64(1); id <= g.nextID; id++ {
			if fn, ok := g.subs[id]; ok {
				fns = append(fns, fn)
			}
		}
	}
	g.mu.Unlock()

	if next != prev {
		g.logger.Debug(context.Background(), "route decision changed", "from", prev.String(), "to", next.String(), "location", location)
		for _, fn := range fns {
			fn(next)
		}
	}
	if redirect {
		if g.bus != nil {
			g.bus.Publish(navigation.Event{To: g.loginPath, From: location, Reason: navigation.ReasonAccessDenied})
		}
		g.mu.Lock()
		g.publishing--
		g.wakeLocked()
		g.mu.Unlock()
	}
	return next
}

// wakeLocked releases every Wait blocked on the current change channel.
func (g *Guard) wakeLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}

// decide must be called with g.mu held.
func (g *Guard) decide(s session.Session) Decision {
	if !g.resolved {
		if s.Status == session.StatusBootstrapping || s.Loading {
			return Pending
		}
		g.resolved = true
	}
	if s.IsAuthenticated() {
		return Granted
	}
	return Denied
}

package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopdash/internal/client/guard"
	"github.com/dmitrijs2005/shopdash/internal/client/navigation"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
)

// maxRedirects bounds one Navigate call.
const maxRedirects = 8

// enqueueNavigation runs on the publisher's goroutine, possibly inside a
// session dispatch, so it only records the event.
func (a *App) enqueueNavigation(e navigation.Event) {
	a.navMu.Lock()
	a.navQueue = append(a.navQueue, e)
	a.navMu.Unlock()
}

func (a *App) nextNavigation() (navigation.Event, bool) {
	a.navMu.Lock()
	defer a.navMu.Unlock()
	if len(a.navQueue) == 0 {
		return navigation.Event{}, false
	}
	e := a.navQueue[0]
	a.navQueue = a.navQueue[1:]
	return e, true
}

// Navigate follows the redirects published since the last call.
func (a *App) Navigate(ctx context.Context) {
	for i := 0; i < maxRedirects; i++ {
		e, ok := a.nextNavigation()
		if !ok {
			return
		}
		a.logger.Debug(ctx, "navigation event", "to", e.To, "from", e.From, "reason", string(e.Reason))

		switch e.Reason {
		case navigation.ReasonSessionExpired:
			printlnFn("Your session has expired. Please log in again.")
		case navigation.ReasonAccessDenied:
			printlnFn(fmt.Sprintf("%s requires signing in.", e.From))
		}
		if e.From != "" {
			a.returnTo = e.From
		}
		if e.To == a.location {
			continue
		}
		if err := a.Open(ctx, e.To); err != nil {
			a.logger.Warn(ctx, "redirect failed", "to", e.To, "error", err)
		}
	}
	a.logger.Warn(ctx, "too many redirects, staying on current page", "location", a.location)
}

// Open shows location. Protected pages go through the route guard; a denied
// page is replaced by the guard's redirect on the next Navigate.
func (a *App) Open(ctx context.Context, location string) error {
	page, err := a.router.Resolve(location)
	if err != nil {
		printlnFn("Page not found:", location)
		return err
	}

	if !page.Protected {
		a.guard.Release()
		a.location = page.Location
		return a.render(ctx, page)
	}

	d := a.guard.Evaluate(ctx, page.Location)
	if d == guard.Pending {
		printlnFn("Checking your session...")
		if d, err = a.guard.Wait(ctx); err != nil {
			return fmt.Errorf("session check interrupted: %w", err)
		}
	}
	if d != guard.Granted {
		return nil
	}

	a.location = page.Location
	return a.render(ctx, page)
}

func (a *App) render(ctx context.Context, page Page) error {
	switch page.Name {
	case PageLogin:
		return a.showLogin(ctx)
	case PageRegister:
		printlnFn("Create an account with 'register', or 'open " + a.config.LoginPath + "' to sign in.")
	case PageDashboard:
		u := a.auth.CurrentUser()
		if u == nil {
			return nil
		}
		printlnFn(fmt.Sprintf("Dashboard. Signed in as %s <%s>.", u.FullName(), u.Email))
		printlnFn("Pages: /profile, /orders, /products, /customers")
	case PageProfile:
		return a.Profile(ctx)
	default:
		printlnFn(fmt.Sprintf("[%s] %s", page.Name, page.Location))
	}
	return nil
}

// showLogin is the login boundary: it drops errors left over from an earlier
// attempt and sends a signed-in user straight back.
func (a *App) showLogin(ctx context.Context) error {
	a.store.Dispatch(session.ErrorCleared{})
	if a.isLoggedIn() {
		a.returnAfterLogin()
		return nil
	}
	printlnFn("Sign in with 'login' or create an account with 'register'.")
	return nil
}

// returnAfterLogin asks the router for the page the user wanted before the
// login boundary, defaulting to the dashboard.
func (a *App) returnAfterLogin() {
	target := a.returnTo
	if target == "" || target == a.config.LoginPath {
		target = a.home()
	}
	a.returnTo = ""
	a.bus.Publish(navigation.Event{To: target, Reason: navigation.ReasonReturn})
}

func (a *App) home() string {
	if p, err := a.router.Path(PageDashboard); err == nil {
		return p
	}
	return "/"
}

package cli

import (
	"context"
	"fmt"
)

// Status prints the session and the route decision for the current page.
func (a *App) Status(ctx context.Context) error {
	s := a.store.GetState()
	printlnFn("Session:", s.Status.String())
	if s.User != nil {
		printlnFn("User:", s.User.Email)
	}
	if s.Loading {
		printlnFn("An operation is in progress.")
	}
	if s.Error != "" {
		printlnFn("Last error:", s.Error)
	}
	printlnFn(fmt.Sprintf("Page: %s (%s)", a.location, a.guard.Decision()))
	return nil
}

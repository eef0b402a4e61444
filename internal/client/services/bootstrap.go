package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/logging"
)

// SnapshotLoader is the read side of Persistence.
type SnapshotLoader interface {
	Load(ctx context.Context) *Snapshot
}

// SessionRestorer verifies persisted credentials with the server.
type SessionRestorer interface {
	RestoreSession(ctx context.Context, token string, user *models.User) (*models.User, error)
}

// Bootstrapper moves the store out of StatusBootstrapping exactly once per
// process: it rehydrates the persisted snapshot and, when enabled, verifies
// it with the server.
type Bootstrapper struct {
	store    *session.Store
	loader   SnapshotLoader
	restorer SessionRestorer
	verify   bool
	logger   logging.Logger

	once sync.Once
	err  error
}

type BootstrapOption func(*Bootstrapper)

// WithVerification controls whether a rehydrated session is checked against
// the server before it is trusted.
func WithVerification(v bool) BootstrapOption {
	return func(b *Bootstrapper) {
		b.verify = v
	}
}

func WithBootstrapLogger(l logging.Logger) BootstrapOption {
	return func(b *Bootstrapper) {
		if l != nil {
			b.logger = l
		}
	}
}

func NewBootstrapper(store *session.Store, loader SnapshotLoader, restorer SessionRestorer, opts ...BootstrapOption) *Bootstrapper {
	b := &Bootstrapper{
		store:    store,
		loader:   loader,
		restorer: restorer,
		verify:   true,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run performs the bootstrap on its first call; later calls return the first
// result without doing anything. A failed verification is not an error of
// Run: it is reflected in the session.
func (b *Bootstrapper) Run(ctx context.Context) error {
	b.once.Do(func() {
		b.err = b.run(ctx)
	})
	return b.err
}

func (b *Bootstrapper) run(ctx context.Context) error {
	if b.store.GetState().Status != session.StatusBootstrapping {
		return nil
	}

	snap := b.loader.Load(ctx)
	if snap == nil {
		b.logger.Debug(ctx, "no persisted session")
		b.store.Dispatch(session.BootstrapRehydrated{})
		return nil
	}

	if !b.verify || b.restorer == nil {
		b.logger.Debug(ctx, "persisted session rehydrated without verification", "user_id", snap.User.ID)
		b.store.Dispatch(session.BootstrapRehydrated{Token: snap.Token, User: snap.User})
		return nil
	}

	if _, err := b.restorer.RestoreSession(ctx, snap.Token, snap.User); err != nil {
		b.logger.Info(ctx, "persisted session not confirmed", "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
	"github.com/dmitrijs2005/shopdash/internal/common"
	"github.com/dmitrijs2005/shopdash/internal/dbx"
	"github.com/dmitrijs2005/shopdash/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const writeTimeout = 5 * time.Second

// Snapshot is the durable subset of a session. Loading and Error never leave
// memory.
type Snapshot struct {
	Token           string       `json:"token,omitempty"`
	User            *models.User `json:"user,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// SnapshotOf copies the allow-listed fields of s.
func SnapshotOf(s session.Session) Snapshot {
	if !s.IsAuthenticated() {
		return Snapshot{}
	}
	return Snapshot{Token: s.Token, User: s.User.Clone(), IsAuthenticated: true}
}

func (s Snapshot) equal(o Snapshot) bool {
	if s.Token != o.Token || s.IsAuthenticated != o.IsAuthenticated {
		return false
	}
	if s.User == nil || o.User == nil {
		return s.User == o.User
	}
	return *s.User == *o.User
}

// Persistence stores the session snapshot under a single key of the
// metadata table.
type Persistence struct {
	db     *sql.DB
	key    string
	logger logging.Logger
	now    func() time.Time
}

type PersistenceOption func(*Persistence)

func WithPersistenceLogger(l logging.Logger) PersistenceOption {
	return func(p *Persistence) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPersistence(db *sql.DB, key string, opts ...PersistenceOption) *Persistence {
	if key == "" {
		key = common.DefaultStorageKey
	}
	p := &Persistence{db: db, key: key, logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Persistence) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Load returns the persisted snapshot, or nil when there is no usable prior
// session. It never fails: unreadable, malformed, incomplete or expired data
// is logged and treated as absent.
func (p *Persistence) Load(ctx context.Context) *Snapshot {
	rec, err := p.repo(p.db).Get(ctx, p.key)
	if err != nil {
		p.logger.Warn(ctx, "persisted session unreadable", "key", p.key, "error", err)
		return nil
	}
	if rec == nil || len(rec.Value) == 0 {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(rec.Value, &snap); err != nil {
		p.logger.Warn(ctx, "persisted session malformed", "key", p.key, "error", err)
		p.discard(ctx)
		return nil
	}
	if !snap.IsAuthenticated || snap.Token == "" || snap.User == nil {
		return nil
	}
	if err := checkTokenExpiry(snap.Token, p.now()); err != nil {
		p.logger.Info(ctx, "persisted session discarded", "key", p.key, "reason", err.Error())
		p.discard(ctx)
		return nil
	}
	return &snap
}

// discard removes a record Load refused, so the next boot does not parse it
// again.
func (p *Persistence) discard(ctx context.Context) {
	if err := p.Clear(ctx); err != nil {
		p.logger.Warn(ctx, "failed to remove discarded session", "key", p.key, "error", err)
	}
}

// Save writes the allow-listed part of s.
func (p *Persistence) Save(ctx context.Context, s session.Session) error {
	return p.write(ctx, SnapshotOf(s))
}

func (p *Persistence) write(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return p.repo(tx).Set(ctx, p.key, data)
	})
}

// Clear removes the persisted snapshot.
func (p *Persistence) Clear(ctx context.Context) error {
	return p.repo(p.db).Delete(ctx, p.key)
}

// checkTokenExpiry rejects JWTs whose exp claim has passed. Tokens that are
// not JWTs are opaque to the client and always pass.
func checkTokenExpiry(token string, now time.Time) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if exp != nil && !exp.After(now) {
		return common.ErrTokenExpired
	}
	return nil
}

// Writer persists every committed session in commit order. Writes happen
// off the dispatch path; pending snapshots are coalesced so only the newest
// is written when the writer falls behind. Failures are logged and dropped.
type Writer struct {
	p      *Persistence
	logger logging.Logger

	mu      sync.Mutex
	pending *Snapshot
	last    Snapshot
	hasLast bool
	queued  uint64
	written uint64
	changed chan struct{}

	wake        chan struct{}
	stop        chan struct{}
	finished    chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// NewWriter subscribes to store and starts the background writer. The
// current state is taken as already persisted.
func NewWriter(p *Persistence, store *session.Store) *Writer {
	w := &Writer{
		p:        p,
		logger:   p.logger,
		last:     SnapshotOf(store.GetState()),
		hasLast:  true,
		changed:  make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	w.unsubscribe = store.Subscribe(w.enqueue)
	go w.run()
	return w
}

func (w *Writer) enqueue(s session.Session) {
	snap := SnapshotOf(s)

	w.mu.Lock()
	if w.hasLast && snap.equal(w.last) {
		w.mu.Unlock()
		return
	}
	w.last, w.hasLast = snap, true
	w.pending = &snap
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.finished)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		snap, seq := w.pending, w.queued
		w.pending = nil
		w.mu.Unlock()
		if snap == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := w.p.write(ctx, *snap); err != nil {
			w.logger.Warn(ctx, "failed to persist session", "error", err)
		}
		cancel()

		w.mu.Lock()
		w.written = seq
		close(w.changed)
		w.changed = make(chan struct{})
		w.mu.Unlock()
	}
}

// Flush waits until every snapshot queued before the call has been written.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.written >= target {
			w.mu.Unlock()
			return nil
		}
		ch := w.changed
		w.mu.Unlock()

		select {
		case <-ch:
		case <-w.finished:
			return errors.New("session writer closed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops listening, writes what is still pending and stops the
// background goroutine.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		w.unsubscribe()
		close(w.stop)
		<-w.finished
	})
}

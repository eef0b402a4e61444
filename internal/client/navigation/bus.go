// Package navigation carries redirect requests from the session layers to
// whatever owns the router. Producers never navigate themselves.
package navigation

import (
	"slices"
	"sync"
)

// Reason says why a redirect was requested.
type Reason string

const (
	// ReasonAccessDenied is published by the route guard.
	ReasonAccessDenied Reason = "access_denied"
	// ReasonSessionExpired is published when the server rejects the credentials.
	ReasonSessionExpired Reason = "session_expired"
	// ReasonReturn sends the user back after a successful login.
	ReasonReturn Reason = "return"
)

// Event asks the router to show To. From is the location the user originally
// asked for, so the login boundary can send them back there.
type Event struct {
	To     string
	From   string
	Reason Reason
}

// Bus is a synchronous publish/subscribe hub, safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]func(Event)
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Event))}
}

func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers e to every subscriber in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Recorder is a subscriber that keeps every event; tests and the CLI use it
// to inspect pending redirects.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Drain returns the recorded events and forgets them.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

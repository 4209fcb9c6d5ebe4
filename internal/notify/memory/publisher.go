// Package memory contains an in-memory publisher implementation for tests.
package memory

import (
	"context"
	"sync"

	"github.com/fic-tools/rentafic-bot/internal/notify"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []notify.Event
	closed bool
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event.
func (p *Publisher) Publish(_ context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Events returns the recorded events.
func (p *Publisher) Events() []notify.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]notify.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Closed reports whether Close was called.
func (p *Publisher) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Package events fans issue changes out to live subscribers such as the
// SSE stream.
package events

import (
	"context"
	"sync"
	"time"

	"nivaran-be/logger"
)

type Kind string

const (
	IssuesReplaced    Kind = "IssuesReplaced"
	IssueCreated      Kind = "IssueCreated"
	IssueUpdated      Kind = "IssueUpdated"
	SupervisorUpdated Kind = "SupervisorUpdated"
)

type Event struct {
	Kind    Kind      `json:"kind"`
	IssueID string    `json:"issueId,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a buffered channel of events and a func that
	// unsubscribes and closes it.
	Subscribe() (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 16

// LocalBus delivers events to subscribers in this process only. A slow
// subscriber loses events instead of blocking publishers.
type LocalBus struct {
	mu     sync.RWMutex
	log    *logger.Logger
	subs   map[chan Event]struct{}
	closed bool
}

func NewLocalBus(log *logger.Logger) *LocalBus {
	return &LocalBus{
		log:  log.With("component", "LocalBus"),
		subs: make(map[chan Event]struct{}),
	}
}

func (b *LocalBus) Publish(_ context.Context, e Event) error {
	b.broadcast(e)
	return nil
}

func (b *LocalBus) broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Warn("dropping event; subscriber buffer full", "kind", e.Kind)
		}
	}
}

func (b *LocalBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends every subscription.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}

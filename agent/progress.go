package agent

import (
	"sync"
	"time"

	"github.com/BaSui01/webextract/internal/channel"
	"github.com/BaSui01/webextract/types"
)

// EventType labels orchestrator progress events.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventSiteStarted  EventType = "site_started"
	EventSiteFinished EventType = "site_finished"
	EventRunFinished  EventType = "run_finished"
)

// Event is one progress notification from a running extraction.
type Event struct {
	Type      EventType              `json:"type"`
	Website   string                 `json:"website,omitempty"`
	Status    types.SiteResultStatus `json:"status,omitempty"`
	Items     int                    `json:"items,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Subscription is a live feed of progress events. Slow consumers drop
// events rather than stalling the orchestrator.
type Subscription struct {
	ch *channel.TunableChannel[Event]
}

// Events returns the receive side of the subscription.
func (s *Subscription) Events() <-chan Event { return s.ch.Chan() }

// Broadcaster fans progress events out to subscribers.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new event consumer.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{ch: channel.NewTunableChannel[Event](channel.DefaultTunableConfig())}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		sub.ch.Close()
	}
	b.mu.Unlock()
}

// Publish delivers an event to every subscriber without blocking.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		sub.ch.TrySend(ev)
	}
}

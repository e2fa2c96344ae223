// Package notify fans match and lobby events out to connected players.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/model"
)

// Publisher accepts events for delivery. Publish must not block.
type Publisher interface {
	Publish(event model.Event)
}

const (
	// Buffer size for each subscriber's outgoing events
	sendBufferSize = 256

	// Buffer size for events waiting to be routed
	publishBufferSize = 1024
)

// Subscription is one connection's view of the event stream
type Subscription struct {
	playerID    model.PlayerID
	send        chan model.Event
	connectedAt time.Time
}

// PlayerID returns the player the subscription belongs to
func (s *Subscription) PlayerID() model.PlayerID {
	return s.playerID
}

// Events returns the channel of delivered events. It is closed on unsubscribe.
func (s *Subscription) Events() <-chan model.Event {
	return s.send
}

// Hub routes published events to subscriptions by recipient
type Hub struct {
	subs   map[*Subscription]bool
	mu     sync.RWMutex
	clock  clock.Clock
	logger *slog.Logger

	register   chan *Subscription
	unregister chan *Subscription
	publish    chan model.Event
	done       chan struct{}
	closeOnce  sync.Once
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a new Hub. Call Run to start routing.
func NewHub(clk clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		subs:       make(map[*Subscription]bool),
		clock:      clk,
		logger:     logger.With(slog.String("component", "notify")),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		publish:    make(chan model.Event, publishBufferSize),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns once the hub is closed
func (h *Hub) Run() {
	h.logger.Info("notify hub started")
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subs[sub] = true
			count := len(h.subs)
			h.mu.Unlock()
			h.logger.Info("subscriber registered",
				slog.Int64("player_id", int64(sub.playerID)),
				slog.Int("total_subscribers", count))

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.send)
				count := len(h.subs)
				h.mu.Unlock()
				h.logger.Info("subscriber unregistered",
					slog.Int64("player_id", int64(sub.playerID)),
					slog.Duration("connection_duration", h.clock.Now().Sub(sub.connectedAt)),
					slog.Int("total_subscribers", count))
			} else {
				h.mu.Unlock()
			}

		case event := <-h.publish:
			h.route(event)

		case <-h.done:
			h.mu.Lock()
			count := len(h.subs)
			for sub := range h.subs {
				close(sub.send)
				delete(h.subs, sub)
			}
			h.mu.Unlock()
			h.logger.Info("notify hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

func (h *Hub) route(event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for sub := range h.subs {
		if !wants(event, sub.playerID) {
			continue
		}
		select {
		case sub.send <- event:
		default:
			dropped++
			h.logger.Warn("event dropped - subscriber buffer full",
				slog.Int64("player_id", int64(sub.playerID)),
				slog.String("event", string(event.Type)))
		}
	}
	if dropped > 0 {
		h.logger.Warn("event partially delivered",
			slog.String("event", string(event.Type)),
			slog.Int("dropped", dropped))
	}
}

func wants(event model.Event, playerID model.PlayerID) bool {
	if event.Broadcast() {
		return true
	}
	for _, id := range event.Recipients {
		if id == playerID {
			return true
		}
	}
	return false
}

// Subscribe registers a new subscription for the player.
// A player may hold several subscriptions; each receives its own copy of events.
func (h *Hub) Subscribe(playerID model.PlayerID) *Subscription {
	sub := &Subscription{
		playerID:    playerID,
		send:        make(chan model.Event, sendBufferSize),
		connectedAt: h.clock.Now(),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.send)
	}
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish queues an event for delivery without blocking
func (h *Hub) Publish(event model.Event) {
	select {
	case h.publish <- event:
	default:
		h.logger.Warn("event dropped - hub buffer full", slog.String("event", string(event.Type)))
	}
}

// Close shuts down the hub, closing every subscription
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of live subscriptions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

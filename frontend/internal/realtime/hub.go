// Package realtime carries reply events between the pages that show a forum.
// Hub fans events out inside the process; Client bridges the hub to the
// shared broadcast channel so that pages served by other instances see them
// too.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foro_realtime_events_total",
			Help: "Reply events published to local subscribers, by tipo",
		},
		[]string{"tipo"},
	)
	droppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foro_realtime_dropped_total",
			Help: "Events not delivered because a subscriber's queue was full",
		},
	)
	subscribersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foro_realtime_subscribers",
			Help: "Open realtime subscriptions",
		},
	)
)

// Broadcaster announces a reply change to every open page.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev domain.ReplyEvent) error
}

// Subscriber hands out event subscriptions.
type Subscriber interface {
	Subscribe() *Subscription
}

type Subscription struct {
	id     string
	events chan domain.ReplyEvent
	hub    *Hub
	once   sync.Once
	// overflowed is set when an event could not be queued.
	overflowed atomic.Bool
}

func (s *Subscription) ID() string {
	return s.id
}

// Events is closed by Close.
func (s *Subscription) Events() <-chan domain.ReplyEvent {
	return s.events
}

// TakeOverflow reports whether an event was dropped for this subscription
// since the last call, and clears the flag. A consumer that sees true must
// assume it missed an event it cared about.
func (s *Subscription) TakeOverflow() bool {
	return s.overflowed.Swap(false)
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
}

// NewHub returns a hub whose subscriptions queue up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[string]*Subscription), buffer: buffer}
}

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		id:     uuid.NewString(),
		events: make(chan domain.ReplyEvent, h.buffer),
		hub:    h,
	}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	subscribersGauge.Inc()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.events)
	subscribersGauge.Dec()
}

// Publish delivers ev to every subscriber without blocking. When a
// subscriber's queue is full the event is dropped and the subscription is
// marked overflowed; see TakeOverflow.
func (h *Hub) Publish(ev domain.ReplyEvent) {
	eventsTotal.WithLabelValues(ev.Type).Inc()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.events <- ev:
		default:
			s.overflowed.Store(true)
			droppedTotal.Inc()
		}
	}
}

// Broadcast publishes locally. Used when no shared channel is configured.
func (h *Hub) Broadcast(_ context.Context, ev domain.ReplyEvent) error {
	h.Publish(ev)
	return nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/obs"
	"main/pkg/exception"
)

// Hub fans a single ordered event stream out to independent subscribers.
// The handle set is guarded separately from queue contents; Publish only
// takes the read lock and never blocks on a full queue.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*Subscriber
	closed  bool
	metrics *obs.Metrics
}

// New creates a hub. metrics may be nil.
func New(metrics *obs.Metrics) *Hub {
	return &Hub{
		subs:    make(map[uuid.UUID]*Subscriber),
		metrics: metrics,
	}
}

// Subscribe creates an independent delivery queue of the given capacity.
// The subscriber sees only events published after this call.
func (h *Hub) Subscribe(capacity int) (*Subscriber, error) {
	if capacity <= 0 {
		return nil, exception.ErrBadCapacity
	}
	sub := &Subscriber{
		id:    uuid.New(),
		queue: newEventQueue(capacity),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, exception.ErrHubClosed
	}
	h.subs[sub.id] = sub
	return sub, nil
}

// Unsubscribe removes the handle and discards its undelivered events.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	existing, ok := h.subs[sub.id]
	if ok && existing == sub {
		delete(h.subs, sub.id)
	}
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish appends the event to every active subscriber queue. A full queue
// drops its oldest event; other subscribers and the publisher are never
// delayed.
func (h *Hub) Publish(event model.Event) {
	if event == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		before := sub.Overflow()
		sub.enqueue(event)
		if after := sub.Overflow(); after > before {
			h.metrics.IncQueueOverflow()
			logs.Debugf("hub: subscriber %s overflow, dropped total %d", sub.id, after)
		}
	}
	h.metrics.ObserveEvent(event.Kind())
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close stops delivery. Queued events remain readable; subscribers observe
// the closed state once drained.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.closeDrain()
	}
}

package hub

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"main/internal/model"
)

// Subscriber is an independent consumption handle. Events are delivered in
// publish order; when the queue is full the oldest undelivered event is
// dropped and counted, so a stalled reader never slows the publisher.
type Subscriber struct {
	id    uuid.UUID
	queue *eventQueue
}

// ID returns the handle identifier used in diagnostics.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Next blocks until an event is available or the subscription is closed.
func (s *Subscriber) Next() (model.Event, bool) {
	if s == nil || s.queue == nil {
		return nil, false
	}
	return s.queue.pop()
}

// Overflow returns the number of events dropped for this subscriber.
func (s *Subscriber) Overflow() uint64 {
	if s == nil || s.queue == nil {
		return 0
	}
	return atomic.LoadUint64(&s.queue.dropped)
}

// Len returns the number of queued undelivered events.
func (s *Subscriber) Len() int {
	if s == nil || s.queue == nil {
		return 0
	}
	return s.queue.len()
}

func (s *Subscriber) enqueue(event model.Event) bool {
	if s == nil || s.queue == nil {
		return false
	}
	return s.queue.push(event)
}

func (s *Subscriber) close() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.close()
}

func (s *Subscriber) closeDrain() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.closeDrain()
}

// eventQueue is a bounded single-producer ring buffer with a drop-oldest
// overflow policy.
type eventQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []model.Event
	head     int
	tail     int
	size     int
	closed   bool
	dropped  uint64
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &eventQueue{buf: make([]model.Event, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(event model.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if q.size == len(q.buf) {
		q.buf[q.head] = nil
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		atomic.AddUint64(&q.dropped, 1)
	}
	q.buf[q.tail] = event
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	q.notEmpty.Signal()
	return true
}

func (q *eventQueue) pop() (model.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			event := q.buf[q.head]
			q.buf[q.head] = nil
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			return event, true
		}
		if q.closed {
			return nil, false
		}
		q.notEmpty.Wait()
	}
}

// close discards queued events and wakes blocked readers. Used on
// unsubscribe, where in-flight deliveries are dropped atomically with the
// handle removal.
func (q *eventQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for i := 0; i < q.size; i++ {
		q.buf[(q.head+i)%len(q.buf)] = nil
	}
	q.size = 0
	q.head = 0
	q.tail = 0
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

// closeDrain stops new deliveries but lets readers drain what is already
// queued before they observe the closed state.
func (q *eventQueue) closeDrain() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.notEmpty.Broadcast()
	}
	q.mu.Unlock()
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	size := q.size
	q.mu.Unlock()
	return size
}

package obs

import (
	"sync/atomic"

	"main/internal/model/enum"
)

const maxEventKind = int(enum.EventKindDisconnected)

// Metrics collects lightweight pipeline counters. All methods are safe for
// concurrent use and never block the publish path.
type Metrics struct {
	eventCounts      [maxEventKind + 1]uint64
	messagesReceived uint64
	bytesReceived    uint64
	decodeFailures   uint64
	queueOverflows   uint64
	connects         uint64
	disconnects      uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	EventCounts      map[enum.EventKind]uint64
	MessagesReceived uint64
	BytesReceived    uint64
	DecodeFailures   uint64
	QueueOverflows   uint64
	Connects         uint64
	Disconnects      uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts one decoded event by kind.
func (m *Metrics) ObserveEvent(kind enum.EventKind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// ObserveRawMessage counts one inbound transport frame.
func (m *Metrics) ObserveRawMessage(bytes int) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.messagesReceived, 1)
	if bytes > 0 {
		atomic.AddUint64(&m.bytesReceived, uint64(bytes))
	}
}

// IncDecodeFailure records a dropped undecodable message.
func (m *Metrics) IncDecodeFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decodeFailures, 1)
}

// IncQueueOverflow records one dropped-oldest event on a subscriber queue.
func (m *Metrics) IncQueueOverflow() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueOverflows, 1)
}

// IncConnect records a successful session establishment.
func (m *Metrics) IncConnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.connects, 1)
}

// IncDisconnect records a session drop.
func (m *Metrics) IncDisconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.disconnects, 1)
}

// Snapshot returns a copy of the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[enum.EventKind]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[enum.EventKind(i)] = v
		}
	}
	return Snapshot{
		EventCounts:      eventCounts,
		MessagesReceived: atomic.LoadUint64(&m.messagesReceived),
		BytesReceived:    atomic.LoadUint64(&m.bytesReceived),
		DecodeFailures:   atomic.LoadUint64(&m.decodeFailures),
		QueueOverflows:   atomic.LoadUint64(&m.queueOverflows),
		Connects:         atomic.LoadUint64(&m.connects),
		Disconnects:      atomic.LoadUint64(&m.disconnects),
	}
}

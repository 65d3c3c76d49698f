package enum

// EventKind describes the meaning of a market event payload.
type EventKind uint8

const (
	_event_kind_beg EventKind = iota
	EventKindTrade
	EventKindQuote
	EventKindBookSnapshot
	EventKindBookDelta
	EventKindHeartbeat
	EventKindDisconnected
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}

func (k EventKind) String() string {
	switch k {
	case EventKindTrade:
		return "trade"
	case EventKindQuote:
		return "quote"
	case EventKindBookSnapshot:
		return "book_snapshot"
	case EventKindBookDelta:
		return "book_delta"
	case EventKindHeartbeat:
		return "heartbeat"
	case EventKindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

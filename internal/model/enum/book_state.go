package enum

// BookState awaiting snapshot, ready, stale
type BookState uint8

const (
	_book_state_beg BookState = iota
	BookStateAwaitingSnapshot
	BookStateReady
	BookStateStale
	_book_state_end
)

func (s BookState) IsAvailable() bool {
	return s > _book_state_beg && s < _book_state_end
}

func (s BookState) String() string {
	switch s {
	case BookStateAwaitingSnapshot:
		return "awaiting_snapshot"
	case BookStateReady:
		return "ready"
	case BookStateStale:
		return "stale"
	default:
		return "unknown"
	}
}

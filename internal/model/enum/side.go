package enum

// Side buy, sell
type Side uint8

const (
	_side_beg Side = iota
	SideBuy
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// BookSide bid, ask
type BookSide uint8

const (
	_book_side_beg BookSide = iota
	BookSideBid
	BookSideAsk
	_book_side_end
)

func (s BookSide) IsAvailable() bool {
	return s > _book_side_beg && s < _book_side_end
}

func (s BookSide) String() string {
	switch s {
	case BookSideBid:
		return "bid"
	case BookSideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

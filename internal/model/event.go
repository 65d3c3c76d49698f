package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Event is the closed set of decoded market events flowing through the
// pipeline. Consumers dispatch with a type switch; adding a new kind is a
// compile-time change, never a runtime type probe.
type Event interface {
	Kind() enum.EventKind
	EventSymbol() string
	EventTime() time.Time

	marketEvent()
}

var (
	_ Event = Trade{}
	_ Event = Quote{}
	_ Event = BookSnapshot{}
	_ Event = BookDelta{}
	_ Event = Heartbeat{}
	_ Event = Disconnected{}
)

// PriceLevel is a (price, size) pair of resting interest. Size zero is the
// removal sentinel when carried inside a BookDelta.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Trade is a single executed trade tick.
type Trade struct {
	Symbol   string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Side     enum.Side
	TradeID  string
	Time     time.Time
}

func (t Trade) Kind() enum.EventKind { return enum.EventKindTrade }
func (t Trade) EventSymbol() string { return t.Symbol }
func (t Trade) EventTime() time.Time { return t.Time }
func (t Trade) marketEvent() {}

// Quote is a best-bid/offer update. Crossed quotes are a valid transient
// venue state and are not rejected here.
type Quote struct {
	Symbol   string
	BidPrice decimal.Decimal
	BidSize  decimal.Decimal
	AskPrice decimal.Decimal
	AskSize  decimal.Decimal
	Time     time.Time
}

func (q Quote) Kind() enum.EventKind { return enum.EventKindQuote }
func (q Quote) EventSymbol() string { return q.Symbol }
func (q Quote) EventTime() time.Time { return q.Time }
func (q Quote) marketEvent() {}

// Spread returns ask minus bid.
func (q Quote) Spread() decimal.Decimal {
	return q.AskPrice.Sub(q.BidPrice)
}

// Mid returns the midpoint between bid and ask.
func (q Quote) Mid() decimal.Decimal {
	return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2))
}

// BookSnapshot replaces the whole book for a symbol. Bids are ordered
// descending by price, asks ascending.
type BookSnapshot struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
	Time   time.Time
}

func (s BookSnapshot) Kind() enum.EventKind { return enum.EventKindBookSnapshot }
func (s BookSnapshot) EventSymbol() string { return s.Symbol }
func (s BookSnapshot) EventTime() time.Time { return s.Time }
func (s BookSnapshot) marketEvent() {}

// BookDelta mutates a single price level on one side.
type BookDelta struct {
	Symbol string
	Side   enum.BookSide
	Level  PriceLevel
	Time   time.Time
}

func (d BookDelta) Kind() enum.EventKind { return enum.EventKindBookDelta }
func (d BookDelta) EventSymbol() string { return d.Symbol }
func (d BookDelta) EventTime() time.Time { return d.Time }
func (d BookDelta) marketEvent() {}

// Heartbeat is the venue liveness signal.
type Heartbeat struct {
	Symbol string
	Time   time.Time
}

func (h Heartbeat) Kind() enum.EventKind { return enum.EventKindHeartbeat }
func (h Heartbeat) EventSymbol() string { return h.Symbol }
func (h Heartbeat) EventTime() time.Time { return h.Time }
func (h Heartbeat) marketEvent() {}

// Disconnected is published by the connection manager when the session
// drops, before any reconnect attempt. An empty symbol means all symbols.
type Disconnected struct {
	Symbol string
	Time   time.Time
}

func (d Disconnected) Kind() enum.EventKind { return enum.EventKindDisconnected }
func (d Disconnected) EventSymbol() string { return d.Symbol }
func (d Disconnected) EventTime() time.Time { return d.Time }
func (d Disconnected) marketEvent() {}

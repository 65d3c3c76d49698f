package book

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"main/internal/model"
	"main/internal/model/enum"
)

// DefaultPendingLimit bounds the per-symbol buffer of deltas received
// before a snapshot establishes the book.
const DefaultPendingLimit = 256

// Book is the per-symbol derived order book: one sorted side per
// direction, no duplicate prices. All methods are safe for concurrent use.
type Book struct {
	mu           sync.RWMutex
	symbol       string
	bids         *btree.BTreeG[model.PriceLevel]
	asks         *btree.BTreeG[model.PriceLevel]
	state        enum.BookState
	pending      []model.BookDelta
	pendingLimit int
	snapshotTime int64
}

func newSide() *btree.BTreeG[model.PriceLevel] {
	return btree.NewBTreeG(func(a, b model.PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
}

// NewBook creates an empty book awaiting its first snapshot.
func NewBook(symbol string, pendingLimit int) *Book {
	if pendingLimit <= 0 {
		pendingLimit = DefaultPendingLimit
	}
	return &Book{
		symbol:       symbol,
		bids:         newSide(),
		asks:         newSide(),
		state:        enum.BookStateAwaitingSnapshot,
		pendingLimit: pendingLimit,
	}
}

// Symbol returns the symbol this book tracks.
func (b *Book) Symbol() string {
	return b.symbol
}

// State reports whether the book is established, stale, or still waiting
// for its first snapshot.
func (b *Book) State() enum.BookState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// ApplySnapshot replaces both sides wholesale and replays buffered deltas
// that are not older than the snapshot, in timestamp order.
func (b *Book) ApplySnapshot(snap model.BookSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bids := newSide()
	for _, level := range snap.Bids {
		if level.Size.IsPositive() {
			bids.Set(level)
		}
	}
	asks := newSide()
	for _, level := range snap.Asks {
		if level.Size.IsPositive() {
			asks.Set(level)
		}
	}
	b.bids = bids
	b.asks = asks
	b.state = enum.BookStateReady
	b.snapshotTime = snap.Time.UnixNano()

	pending := b.pending
	b.pending = nil
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Time.Before(pending[j].Time)
	})
	for _, delta := range pending {
		if delta.Time.UnixNano() < b.snapshotTime {
			continue
		}
		b.applyDeltaLocked(delta)
	}
}

// ApplyDelta upserts or removes one price level while the book is ready.
// Deltas arriving before a snapshot, or after the book went stale, are
// buffered; the buffer drops its oldest entry when full.
func (b *Book) ApplyDelta(delta model.BookDelta) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != enum.BookStateReady {
		if len(b.pending) == b.pendingLimit {
			b.pending = b.pending[1:]
			b.state = enum.BookStateStale
		}
		b.pending = append(b.pending, delta)
		return
	}
	b.applyDeltaLocked(delta)
}

func (b *Book) applyDeltaLocked(delta model.BookDelta) {
	side := b.bids
	if delta.Side == enum.BookSideAsk {
		side = b.asks
	}
	if delta.Level.Size.IsZero() {
		// removing an absent level is a no-op
		side.Delete(model.PriceLevel{Price: delta.Level.Price})
		return
	}
	side.Set(delta.Level)
}

// MarkStale flags the book after a disconnect. Subsequent deltas are
// buffered until a fresh snapshot re-establishes the book.
func (b *Book) MarkStale() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = enum.BookStateStale
}

// BestBid returns the highest bid level.
func (b *Book) BestBid() (model.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Max()
}

// BestAsk returns the lowest ask level.
func (b *Book) BestAsk() (model.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.Min()
}

// Depth returns up to max levels per side, bids descending and asks
// ascending. max <= 0 returns all levels.
func (b *Book) Depth(max int) (bids, asks []model.PriceLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.bids.Reverse(func(level model.PriceLevel) bool {
		bids = append(bids, level)
		return max <= 0 || len(bids) < max
	})
	b.asks.Scan(func(level model.PriceLevel) bool {
		asks = append(asks, level)
		return max <= 0 || len(asks) < max
	})
	return bids, asks
}

// Spread returns best ask minus best bid when both sides have levels.
func (b *Book) Spread() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}

// Mid returns the midpoint between best bid and best ask.
func (b *Book) Mid() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Decimal{}, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Levels returns the number of levels per side.
func (b *Book) Levels() (bidLevels, askLevels int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Len(), b.asks.Len()
}

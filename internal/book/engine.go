package book

import (
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/hub"
	"main/internal/model"
)

// Engine maintains one book per symbol by consuming its own hub
// subscription. It is an ordinary subscriber with no privileged access to
// the distribution layer.
type Engine struct {
	mu           sync.RWMutex
	books        map[string]*Book
	pendingLimit int
	sub          *hub.Subscriber
}

// NewEngine creates a book engine. pendingLimit bounds the pre-snapshot
// delta buffer per symbol; zero selects the default.
func NewEngine(pendingLimit int) *Engine {
	return &Engine{
		books:        make(map[string]*Book),
		pendingLimit: pendingLimit,
	}
}

// Attach subscribes the engine to the hub with the given queue capacity.
func (e *Engine) Attach(h *hub.Hub, capacity int) error {
	sub, err := h.Subscribe(capacity)
	if err != nil {
		return err
	}
	e.sub = sub
	return nil
}

// Run consumes events until the subscription closes.
func (e *Engine) Run() {
	if e.sub == nil {
		return
	}
	for {
		event, ok := e.sub.Next()
		if !ok {
			return
		}
		e.Apply(event)
	}
}

// Apply folds one event into the per-symbol books.
func (e *Engine) Apply(event model.Event) {
	switch ev := event.(type) {
	case model.BookSnapshot:
		e.bookFor(ev.Symbol).ApplySnapshot(ev)
	case model.BookDelta:
		e.bookFor(ev.Symbol).ApplyDelta(ev)
	case model.Disconnected:
		e.markStale(ev.Symbol)
	case model.Trade, model.Quote, model.Heartbeat:
		// not book-affecting
	}
}

// Book returns the tracked book for a symbol, if any.
func (e *Engine) Book(symbol string) (*Book, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[symbol]
	return b, ok
}

// Symbols returns the symbols with a tracked book.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	symbols := make([]string, 0, len(e.books))
	for symbol := range e.books {
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (e *Engine) bookFor(symbol string) *Book {
	e.mu.RLock()
	b, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.books[symbol]; ok {
		return b
	}
	b = NewBook(symbol, e.pendingLimit)
	e.books[symbol] = b
	return b
}

func (e *Engine) markStale(symbol string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if symbol != "" {
		if b, ok := e.books[symbol]; ok {
			b.MarkStale()
		}
		return
	}
	for _, b := range e.books {
		b.MarkStale()
	}
	logs.Debug("book: all symbols marked stale")
}

package stats

import (
	"sync"

	"main/internal/hub"
	"main/internal/model"
)

// Engine maintains per-symbol statistics by consuming Trade events from
// its own hub subscription.
type Engine struct {
	mu    sync.RWMutex
	stats map[string]*MarketStats
	sub   *hub.Subscriber
}

// NewEngine creates a statistics engine with no tracked symbols.
func NewEngine() *Engine {
	return &Engine{stats: make(map[string]*MarketStats)}
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

// Apply folds one event into the aggregates. Only trades matter here.
func (e *Engine) Apply(event model.Event) {
	trade, ok := event.(model.Trade)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stats[trade.Symbol]
	if !ok {
		s = NewMarketStats(trade.Symbol)
		e.stats[trade.Symbol] = s
	}
	s.UpdateWithTrade(trade)
}

// Snapshot returns a copy of the aggregate for a symbol.
func (e *Engine) Snapshot(symbol string) (MarketStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.stats[symbol]
	if !ok {
		return MarketStats{}, false
	}
	return *s, true
}

// Reset drops the aggregate for a symbol; the next trade starts fresh.
func (e *Engine) Reset(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.stats, symbol)
}

// Symbols returns the symbols with a tracked aggregate.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	symbols := make([]string, 0, len(e.stats))
	for symbol := range e.stats {
		symbols = append(symbols, symbol)
	}
	return symbols
}

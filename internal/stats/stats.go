package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// MarketStats is the per-symbol running aggregate over observed trades.
// VWAP always equals TotalNotional / TotalVolume while TotalVolume > 0;
// High/Low only widen until an explicit re-initialization.
type MarketStats struct {
	Symbol        string
	TradeCount    uint64
	TotalVolume   decimal.Decimal
	TotalNotional decimal.Decimal
	VWAP          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	LastPrice     decimal.Decimal
	LastUpdate    time.Time
}

// NewMarketStats creates an empty aggregate for a symbol.
func NewMarketStats(symbol string) *MarketStats {
	return &MarketStats{Symbol: symbol}
}

// UpdateWithTrade folds one trade into the aggregate. The first trade
// initializes High and Low to its price.
func (s *MarketStats) UpdateWithTrade(trade model.Trade) {
	notional := trade.Price.Mul(trade.Quantity)
	s.TotalVolume = s.TotalVolume.Add(trade.Quantity)
	s.TotalNotional = s.TotalNotional.Add(notional)
	if s.TotalVolume.IsPositive() {
		s.VWAP = s.TotalNotional.Div(s.TotalVolume)
	}

	if s.TradeCount == 0 {
		s.High = trade.Price
		s.Low = trade.Price
	} else {
		if trade.Price.GreaterThan(s.High) {
			s.High = trade.Price
		}
		if trade.Price.LessThan(s.Low) {
			s.Low = trade.Price
		}
	}

	s.TradeCount++
	s.LastPrice = trade.Price
	s.LastUpdate = trade.Time
}

package codec

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

// Wire discriminator values. The venue tags every frame with a "type"
// field; everything else in the frame depends on that tag.
const (
	typeTrade     = "trade"
	typeQuote     = "quote"
	typeSnapshot  = "book_snapshot"
	typeDelta     = "book_delta"
	typeHeartbeat = "heartbeat"
)

type wireEnvelope struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Timestamp int64  `json:"timestamp"`
}

type wireTrade struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Side     string `json:"side"`
	TradeID  string `json:"trade_id"`
}

type wireQuote struct {
	BidPrice string `json:"bid_price"`
	BidSize  string `json:"bid_size"`
	AskPrice string `json:"ask_price"`
	AskSize  string `json:"ask_size"`
}

type wireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wireSnapshot struct {
	Bids []wireLevel `json:"bids"`
	Asks []wireLevel `json:"asks"`
}

type wireDelta struct {
	Side  string `json:"side"`
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Decode maps one raw venue frame onto a typed market event. It is pure
// and message-local: no ordering assumptions, no shared state. A failure
// returns a *DecodeError and never an event.
func Decode(raw []byte) (model.Event, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errTruncated(err.Error())
	}
	if env.Type == "" {
		return nil, errTruncated("missing type tag")
	}
	if env.Symbol == "" {
		return nil, errInvalidField("symbol", "empty")
	}
	if env.Timestamp <= 0 {
		return nil, errInvalidField("timestamp", "missing or non-positive")
	}
	ts := time.UnixMilli(env.Timestamp)

	switch env.Type {
	case typeTrade:
		return decodeTrade(raw, env.Symbol, ts)
	case typeQuote:
		return decodeQuote(raw, env.Symbol, ts)
	case typeSnapshot:
		return decodeSnapshot(raw, env.Symbol, ts)
	case typeDelta:
		return decodeDelta(raw, env.Symbol, ts)
	case typeHeartbeat:
		return model.Heartbeat{Symbol: env.Symbol, Time: ts}, nil
	default:
		return nil, errUnknownType(env.Type)
	}
}

func decodeTrade(raw []byte, symbol string, ts time.Time) (model.Event, error) {
	var w wireTrade
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errTruncated(err.Error())
	}
	price, err := parsePositive("price", w.Price)
	if err != nil {
		return nil, err
	}
	qty, err := parsePositive("quantity", w.Quantity)
	if err != nil {
		return nil, err
	}
	side, err := parseSide(w.Side)
	if err != nil {
		return nil, err
	}
	if w.TradeID == "" {
		return nil, errInvalidField("trade_id", "empty")
	}
	return model.Trade{
		Symbol:   symbol,
		Price:    price,
		Quantity: qty,
		Side:     side,
		TradeID:  w.TradeID,
		Time:     ts,
	}, nil
}

func decodeQuote(raw []byte, symbol string, ts time.Time) (model.Event, error) {
	var w wireQuote
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errTruncated(err.Error())
	}
	bidPrice, err := parsePositive("bid_price", w.BidPrice)
	if err != nil {
		return nil, err
	}
	bidSize, err := parseNonNegative("bid_size", w.BidSize)
	if err != nil {
		return nil, err
	}
	askPrice, err := parsePositive("ask_price", w.AskPrice)
	if err != nil {
		return nil, err
	}
	askSize, err := parseNonNegative("ask_size", w.AskSize)
	if err != nil {
		return nil, err
	}
	return model.Quote{
		Symbol:   symbol,
		BidPrice: bidPrice,
		BidSize:  bidSize,
		AskPrice: askPrice,
		AskSize:  askSize,
		Time:     ts,
	}, nil
}

func decodeSnapshot(raw []byte, symbol string, ts time.Time) (model.Event, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errTruncated(err.Error())
	}
	bids, err := parseLevels("bids", w.Bids)
	if err != nil {
		return nil, err
	}
	asks, err := parseLevels("asks", w.Asks)
	if err != nil {
		return nil, err
	}
	return model.BookSnapshot{
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
		Time:   ts,
	}, nil
}

func decodeDelta(raw []byte, symbol string, ts time.Time) (model.Event, error) {
	var w wireDelta
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errTruncated(err.Error())
	}
	side, err := parseBookSide(w.Side)
	if err != nil {
		return nil, err
	}
	price, err := parsePositive("price", w.Price)
	if err != nil {
		return nil, err
	}
	size, err := parseNonNegative("size", w.Size)
	if err != nil {
		return nil, err
	}
	return model.BookDelta{
		Symbol: symbol,
		Side:   side,
		Level:  model.PriceLevel{Price: price, Size: size},
		Time:   ts,
	}, nil
}

func parseLevels(field string, rows []wireLevel) ([]model.PriceLevel, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	levels := make([]model.PriceLevel, 0, len(rows))
	for _, row := range rows {
		price, err := parsePositive(field+".price", row.Price)
		if err != nil {
			return nil, err
		}
		size, err := parseNonNegative(field+".size", row.Size)
		if err != nil {
			return nil, err
		}
		levels = append(levels, model.PriceLevel{Price: price, Size: size})
	}
	return levels, nil
}

func parsePositive(field, value string) (decimal.Decimal, error) {
	d, err := parseNonNegative(field, value)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, errInvalidField(field, "must be positive")
	}
	return d, nil
}

func parseNonNegative(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, errInvalidField(field, "empty")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, errInvalidField(field, err.Error())
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errInvalidField(field, "negative")
	}
	return d, nil
}

func parseSide(value string) (enum.Side, error) {
	switch value {
	case "buy":
		return enum.SideBuy, nil
	case "sell":
		return enum.SideSell, nil
	default:
		return 0, errInvalidField("side", value)
	}
}

func parseBookSide(value string) (enum.BookSide, error) {
	switch value {
	case "bid":
		return enum.BookSideBid, nil
	case "ask":
		return enum.BookSideAsk, nil
	default:
		return 0, errInvalidField("side", value)
	}
}

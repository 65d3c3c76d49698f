package codec

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestDecodeTrade(t *testing.T) {
	raw := []byte(`{"type":"trade","symbol":"BTCUSD","timestamp":1700000000123,` +
		`"price":"50000.5","quantity":"1.25","side":"buy","trade_id":"t-1"}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	trade, ok := event.(model.Trade)
	require.True(t, ok, "expected Trade, got %T", event)
	assert.Equal(t, "BTCUSD", trade.Symbol)
	assert.Equal(t, enum.SideBuy, trade.Side)
	assert.Equal(t, "t-1", trade.TradeID)
	assert.True(t, trade.Price.Equal(decimal.RequireFromString("50000.5")))
	assert.True(t, trade.Quantity.Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, int64(1700000000123), trade.Time.UnixMilli())
}

func TestDecodeQuote(t *testing.T) {
	raw := []byte(`{"type":"quote","symbol":"ETHUSD","timestamp":1700000000500,` +
		`"bid_price":"3000","bid_size":"2","ask_price":"3001","ask_size":"1.5"}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	quote, ok := event.(model.Quote)
	require.True(t, ok, "expected Quote, got %T", event)
	assert.True(t, quote.Spread().Equal(decimal.NewFromInt(1)))
	assert.True(t, quote.Mid().Equal(decimal.RequireFromString("3000.5")))
}

func TestDecodeCrossedQuoteAccepted(t *testing.T) {
	// crossed quotes are a valid transient venue state
	raw := []byte(`{"type":"quote","symbol":"ETHUSD","timestamp":1700000000500,` +
		`"bid_price":"3002","bid_size":"2","ask_price":"3001","ask_size":"1"}`)

	event, err := Decode(raw)
	require.NoError(t, err)
	quote := event.(model.Quote)
	assert.True(t, quote.Spread().IsNegative())
}

func TestDecodeSnapshot(t *testing.T) {
	raw := []byte(`{"type":"book_snapshot","symbol":"BTCUSD","timestamp":1700000001000,` +
		`"bids":[{"price":"100","size":"5"},{"price":"99","size":"2"}],` +
		`"asks":[{"price":"101","size":"3"}]}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	snap, ok := event.(model.BookSnapshot)
	require.True(t, ok, "expected BookSnapshot, got %T", event)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Bids[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, snap.Asks[0].Size.Equal(decimal.NewFromInt(3)))
}

func TestDecodeDelta(t *testing.T) {
	raw := []byte(`{"type":"book_delta","symbol":"BTCUSD","timestamp":1700000002000,` +
		`"side":"ask","price":"101.5","size":"0"}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	delta, ok := event.(model.BookDelta)
	require.True(t, ok, "expected BookDelta, got %T", event)
	assert.Equal(t, enum.BookSideAsk, delta.Side)
	assert.True(t, delta.Level.Size.IsZero())
}

func TestDecodeHeartbeat(t *testing.T) {
	raw := []byte(`{"type":"heartbeat","symbol":"BTCUSD","timestamp":1700000003000}`)

	event, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, enum.EventKindHeartbeat, event.Kind())
}

func TestDecodeFailures(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		sentinel error
	}{
		{"not json", `{"type":`, exception.ErrTruncated},
		{"missing type", `{"symbol":"BTCUSD","timestamp":1}`, exception.ErrTruncated},
		{"unknown type", `{"type":"candle","symbol":"BTCUSD","timestamp":1}`, exception.ErrUnknownType},
		{"empty symbol", `{"type":"trade","symbol":"","timestamp":1}`, exception.ErrInvalidField},
		{"missing timestamp", `{"type":"trade","symbol":"BTCUSD"}`, exception.ErrInvalidField},
		{"negative price", `{"type":"trade","symbol":"BTCUSD","timestamp":1,"price":"-1","quantity":"1","side":"buy","trade_id":"t"}`, exception.ErrInvalidField},
		{"zero quantity", `{"type":"trade","symbol":"BTCUSD","timestamp":1,"price":"1","quantity":"0","side":"buy","trade_id":"t"}`, exception.ErrInvalidField},
		{"unparsable number", `{"type":"trade","symbol":"BTCUSD","timestamp":1,"price":"abc","quantity":"1","side":"buy","trade_id":"t"}`, exception.ErrInvalidField},
		{"bad side", `{"type":"trade","symbol":"BTCUSD","timestamp":1,"price":"1","quantity":"1","side":"hold","trade_id":"t"}`, exception.ErrInvalidField},
		{"empty trade id", `{"type":"trade","symbol":"BTCUSD","timestamp":1,"price":"1","quantity":"1","side":"buy","trade_id":""}`, exception.ErrInvalidField},
		{"negative delta size", `{"type":"book_delta","symbol":"BTCUSD","timestamp":1,"side":"bid","price":"1","size":"-2"}`, exception.ErrInvalidField},
		{"bad delta side", `{"type":"book_delta","symbol":"BTCUSD","timestamp":1,"side":"mid","price":"1","size":"2"}`, exception.ErrInvalidField},
		{"negative snapshot level", `{"type":"book_snapshot","symbol":"BTCUSD","timestamp":1,"bids":[{"price":"1","size":"-1"}],"asks":[]}`, exception.ErrInvalidField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := Decode([]byte(tc.raw))
			if event != nil {
				t.Fatalf("expected no event, got %T", event)
			}
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
		})
	}
}

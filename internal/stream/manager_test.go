package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"main/internal/hub"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/pkg/exception"
	"main/pkg/transport"
)

// fakeSession is a scripted transport session. Messages pushed with push
// come out of Receive; fail ends the session with the given error.
type fakeSession struct {
	mu   sync.Mutex
	sent [][]byte

	msgs chan []byte
	errs chan error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		msgs: make(chan []byte, 64),
		errs: make(chan error, 1),
	}
}

func (s *fakeSession) push(payload string) {
	s.msgs <- []byte(payload)
}

func (s *fakeSession) fail(err error) {
	s.errs <- err
}

func (s *fakeSession) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-s.msgs:
		return payload, nil
	case err := <-s.errs:
		return nil, err
	}
}

func (s *fakeSession) Send(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, payload)
	return nil
}

func (s *fakeSession) sentOps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, 0, len(s.sent))
	for _, payload := range s.sent {
		ops = append(ops, string(payload))
	}
	return ops
}

func (s *fakeSession) Close() error { return nil }

// fakeDialer hands out scripted sessions, one per dial, and signals each
// dial on dialed.
type fakeDialer struct {
	mu       sync.Mutex
	sessions []*fakeSession
	errs     []error
	calls    int
	dialed   chan *fakeSession
}

func newFakeDialer(sessions ...*fakeSession) *fakeDialer {
	return &fakeDialer{
		sessions: sessions,
		dialed:   make(chan *fakeSession, 8),
	}
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (transport.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.calls
	d.calls++
	if idx < len(d.errs) && d.errs[idx] != nil {
		return nil, d.errs[idx]
	}
	if idx >= len(d.sessions) {
		return nil, exception.ErrDialFailed
	}
	sess := d.sessions[idx]
	d.dialed <- sess
	return sess, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func testBackoff() Backoff {
	return Backoff{Min: time.Millisecond, Max: 2 * time.Millisecond, Factor: 2}
}

func nextEvent(t *testing.T, sub *hub.Subscriber) model.Event {
	t.Helper()
	ch := make(chan model.Event, 1)
	go func() {
		if event, ok := sub.Next(); ok {
			ch <- event
		}
	}()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func waitDial(t *testing.T, d *fakeDialer) *fakeSession {
	t.Helper()
	select {
	case sess := <-d.dialed:
		return sess
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

func TestStartRejectsBadConfig(t *testing.T) {
	h := hub.New(nil)
	dialer := newFakeDialer()

	_, err := Start(context.Background(), Config{Dialer: dialer, Hub: h})
	assert.ErrorIs(t, err, exception.ErrEmptyEndpoint)

	_, err = Start(context.Background(), Config{Endpoint: "ws://x", Hub: h})
	assert.ErrorIs(t, err, exception.ErrNilDialer)

	_, err = Start(context.Background(), Config{Endpoint: "ws://x", Dialer: dialer})
	assert.ErrorIs(t, err, exception.ErrNilHub)
}

func TestSubscribesThenStreamsEvents(t *testing.T) {
	h := hub.New(nil)
	sub, err := h.Subscribe(16)
	require.NoError(t, err)

	sess := newFakeSession()
	dialer := newFakeDialer(sess)

	m, err := Start(context.Background(), Config{
		Endpoint: "ws://feed",
		Dialer:   dialer,
		Hub:      h,
		Symbols:  []string{"BTCUSD"},
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)
	defer m.Stop()

	waitDial(t, dialer)
	sess.push(`{"type":"trade","symbol":"BTCUSD","timestamp":1700000000000,"price":"100.5","quantity":"0.25","side":"buy","trade_id":"T1"}`)

	event := nextEvent(t, sub)
	trade, ok := event.(model.Trade)
	require.True(t, ok, "got %T", event)
	assert.Equal(t, "BTCUSD", trade.Symbol)
	assert.Equal(t, "T1", trade.TradeID)

	ops := sess.sentOps()
	require.Len(t, ops, 2, "subscribe then snapshot request")
	assert.JSONEq(t, `{"op":"subscribe","symbols":["BTCUSD"]}`, ops[0])
	assert.JSONEq(t, `{"op":"snapshot","symbols":["BTCUSD"]}`, ops[1])
}

func TestDecodeFailureKeepsSessionAlive(t *testing.T) {
	metrics := obs.NewMetrics()
	h := hub.New(metrics)
	sub, err := h.Subscribe(16)
	require.NoError(t, err)
	sess := newFakeSession()
	dialer := newFakeDialer(sess)

	m, err := Start(context.Background(), Config{
		Endpoint: "ws://feed",
		Dialer:   dialer,
		Hub:      h,
		Metrics:  metrics,
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)
	defer m.Stop()

	waitDial(t, dialer)
	sess.push(`{"type":"trade","symbol":"BTCUSD"}`) // missing required fields
	sess.push(`not json at all`)
	sess.push(`{"type":"heartbeat","symbol":"BTCUSD","timestamp":1700000000000}`)

	event := nextEvent(t, sub)
	assert.Equal(t, enum.EventKindHeartbeat, event.Kind())

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.DecodeFailures)
	assert.Equal(t, uint64(3), snap.MessagesReceived)
	assert.Equal(t, uint64(1), snap.EventCounts[enum.EventKindHeartbeat])
}

func TestReconnectPublishesDisconnectedAndResubscribes(t *testing.T) {
	h := hub.New(nil)
	sub, err := h.Subscribe(16)
	require.NoError(t, err)

	metrics := obs.NewMetrics()
	first := newFakeSession()
	second := newFakeSession()
	dialer := newFakeDialer(first, second)

	m, err := Start(context.Background(), Config{
		Endpoint: "ws://feed",
		Dialer:   dialer,
		Hub:      h,
		Metrics:  metrics,
		Symbols:  []string{"BTCUSD"},
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)
	defer m.Stop()

	waitDial(t, dialer)
	first.fail(errors.New("connection reset"))

	event := nextEvent(t, sub)
	disc, ok := event.(model.Disconnected)
	require.True(t, ok, "got %T", event)
	assert.Equal(t, "", disc.Symbol, "gap covers every symbol")

	waitDial(t, dialer)
	second.push(`{"type":"heartbeat","symbol":"BTCUSD","timestamp":1700000000000}`)
	event = nextEvent(t, sub)
	assert.Equal(t, enum.EventKindHeartbeat, event.Kind())

	ops := second.sentOps()
	require.Len(t, ops, 2, "fresh session re-subscribes and re-requests snapshots")
	assert.JSONEq(t, `{"op":"subscribe","symbols":["BTCUSD"]}`, ops[0])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.Connects)
	assert.Equal(t, uint64(1), snap.Disconnects)
}

func TestRetryCeilingSurfacesFatal(t *testing.T) {
	h := hub.New(nil)
	sub, err := h.Subscribe(16)
	require.NoError(t, err)

	dialer := newFakeDialer() // every dial fails

	m, err := Start(context.Background(), Config{
		Endpoint:     "ws://feed",
		Dialer:       dialer,
		Hub:          h,
		Backoff:      testBackoff(),
		RetryCeiling: 2,
	})
	require.NoError(t, err)

	err = m.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrRetryExhausted)
	assert.Equal(t, StateClosed, m.State())
	assert.Equal(t, 3, dialer.dialCount())

	event := nextEvent(t, sub)
	_, ok := event.(model.Disconnected)
	assert.True(t, ok, "fatal exit still notifies subscribers, got %T", event)
}

func TestGracefulStop(t *testing.T) {
	h := hub.New(nil)
	sub, err := h.Subscribe(16)
	require.NoError(t, err)

	sess := newFakeSession()
	dialer := newFakeDialer(sess)

	m, err := Start(context.Background(), Config{
		Endpoint: "ws://feed",
		Dialer:   dialer,
		Hub:      h,
		Backoff:  testBackoff(),
	})
	require.NoError(t, err)
	waitDial(t, dialer)

	m.Stop()
	assert.NoError(t, m.Err(), "graceful shutdown is not a fatal error")
	assert.Equal(t, StateClosed, m.State())

	event := nextEvent(t, sub)
	_, ok := event.(model.Disconnected)
	require.True(t, ok, "got %T", event)

	// idempotent
	m.Stop()
}

func TestHeartbeatTimeoutForcesReconnect(t *testing.T) {
	h := hub.New(nil)

	first := newFakeSession()
	second := newFakeSession()
	dialer := newFakeDialer(first, second)

	m, err := Start(context.Background(), Config{
		Endpoint:         "ws://feed",
		Dialer:           dialer,
		Hub:              h,
		Backoff:          testBackoff(),
		HeartbeatTimeout: 40 * time.Millisecond,
	})
	require.NoError(t, err)
	defer m.Stop()

	waitDial(t, dialer)
	// first session goes silent; the watchdog must tear it down
	waitDial(t, dialer)
	assert.GreaterOrEqual(t, dialer.dialCount(), 2)
}

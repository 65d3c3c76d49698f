package stream

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/hub"
	"main/internal/model"
	"main/internal/obs"
	"main/pkg/exception"
	"main/pkg/transport"
)

const defaultHeartbeatTimeout = 30 * time.Second

// Config defines the manager runtime configuration.
type Config struct {
	Endpoint         string
	Dialer           transport.Dialer
	Hub              *hub.Hub
	Metrics          *obs.Metrics
	Symbols          []string
	Backoff          Backoff
	RetryCeiling     int
	HeartbeatTimeout time.Duration
}

// Manager owns the session lifecycle: connect, receive, reconnect with
// backoff, shutdown. It is the only component doing network I/O; decoded
// events are republished to the hub.
type Manager struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Uint32
	err    error

	// touched only by the run goroutine: ensures exactly one
	// Disconnected notification per delivery gap
	disconnectNotified bool

	lastInbound atomic.Int64
}

// Start validates the configuration and begins the lifecycle
// asynchronously. It fails only on malformed configuration.
func Start(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Endpoint == "" {
		return nil, exception.ErrEmptyEndpoint
	}
	if cfg.Dialer == nil {
		return nil, exception.ErrNilDialer
	}
	if cfg.Hub == nil {
		return nil, exception.ErrNilHub
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = defaultHeartbeatTimeout
	}

	runCtx, cancel := context.WithCancel(ctx)
	m := &Manager{
		cfg:    cfg,
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.state.Store(uint32(StateIdle))
	go m.run()
	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Stop requests graceful shutdown and waits for the session to close. The
// hub is notified with a Disconnected event; subscriptions stay valid.
func (m *Manager) Stop() {
	if m == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Done is closed once the manager reaches Closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err reports the fatal connection error after Done is closed, or nil on
// graceful shutdown.
func (m *Manager) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// Wait blocks until the manager closes and returns its fatal error, if
// any.
func (m *Manager) Wait() error {
	<-m.done
	return m.err
}

func (m *Manager) setState(s State) {
	m.state.Store(uint32(s))
}

func (m *Manager) run() {
	defer close(m.done)
	attempt := 0
	for {
		if m.ctx.Err() != nil {
			m.shutdown()
			return
		}

		m.setState(StateConnecting)
		sess, err := m.cfg.Dialer.Dial(m.ctx, m.cfg.Endpoint)
		if err != nil {
			if m.ctx.Err() != nil {
				m.shutdown()
				return
			}
			attempt++
			logs.Warnf("stream: dial %s failed (attempt %d), err: %+v", m.cfg.Endpoint, attempt, err)
			if m.exhausted(attempt) {
				m.fatal(err)
				return
			}
			m.setState(StateReconnecting)
			m.sleepBackoff(attempt)
			continue
		}

		attempt = 0
		m.setState(StateConnected)
		m.disconnectNotified = false
		m.cfg.Metrics.IncConnect()
		logs.Infof("stream: connected to %s", m.cfg.Endpoint)

		sessionErr := m.runSession(sess)
		_ = sess.Close()

		// downstream books must learn about the gap before any
		// reconnect re-establishes deltas
		m.notifyDisconnected()
		m.cfg.Metrics.IncDisconnect()

		if m.ctx.Err() != nil {
			m.shutdown()
			return
		}

		attempt++
		logs.Warnf("stream: session ended, reconnecting (attempt %d), err: %+v", attempt, sessionErr)
		if m.exhausted(attempt) {
			m.fatal(sessionErr)
			return
		}
		m.setState(StateReconnecting)
		m.sleepBackoff(attempt)
	}
}

func (m *Manager) shutdown() {
	m.setState(StateClosing)
	m.notifyDisconnected()
	m.setState(StateClosed)
	logs.Infof("stream: closed")
}

func (m *Manager) fatal(cause error) {
	m.notifyDisconnected()
	m.setState(StateClosed)
	m.err = errors.Wrap(exception.ErrRetryExhausted, cause.Error())
	logs.Errorf("stream: giving up after retry ceiling, err: %+v", cause)
}

func (m *Manager) exhausted(attempt int) bool {
	return m.cfg.RetryCeiling > 0 && attempt > m.cfg.RetryCeiling
}

// runSession drives one established session until it fails, misses its
// heartbeat window, or the manager is stopped.
func (m *Manager) runSession(sess transport.Session) error {
	if err := m.requestSnapshots(sess); err != nil {
		return err
	}

	m.lastInbound.Store(time.Now().UnixNano())
	errCh := make(chan error, 1)
	go m.readLoop(sess, errCh)

	watchdog := time.NewTicker(m.cfg.HeartbeatTimeout / 4)
	defer watchdog.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case err := <-errCh:
			return err
		case <-watchdog.C:
			idle := time.Since(time.Unix(0, m.lastInbound.Load()))
			if idle > m.cfg.HeartbeatTimeout {
				return exception.ErrHeartbeatMissed
			}
		}
	}
}

func (m *Manager) readLoop(sess transport.Session, errCh chan<- error) {
	for {
		payload, err := sess.Receive(m.ctx)
		if err != nil {
			errCh <- err
			return
		}
		m.lastInbound.Store(time.Now().UnixNano())
		m.cfg.Metrics.ObserveRawMessage(len(payload))

		event, err := codec.Decode(payload)
		if err != nil {
			// message-local: log, count, keep the stream flowing
			m.cfg.Metrics.IncDecodeFailure()
			logs.Warnf("stream: dropped undecodable message, err: %+v", err)
			continue
		}
		m.cfg.Hub.Publish(event)
	}
}

type controlMessage struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// requestSnapshots subscribes the configured symbols and asks for fresh
// snapshots so books can re-establish after a (re)connect.
func (m *Manager) requestSnapshots(sess transport.Session) error {
	if len(m.cfg.Symbols) == 0 {
		return nil
	}
	for _, op := range []string{"subscribe", "snapshot"} {
		payload, err := json.Marshal(controlMessage{Op: op, Symbols: m.cfg.Symbols})
		if err != nil {
			return errors.Wrap(err, "marshal control message")
		}
		if err := sess.Send(m.ctx, payload); err != nil {
			return errors.Wrap(err, "send "+op)
		}
	}
	return nil
}

func (m *Manager) notifyDisconnected() {
	if m.disconnectNotified {
		return
	}
	m.disconnectNotified = true
	m.cfg.Hub.Publish(model.Disconnected{Symbol: "", Time: time.Now()})
}

func (m *Manager) sleepBackoff(attempt int) {
	wait := m.cfg.Backoff.Next(attempt)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-m.ctx.Done():
	case <-timer.C:
	}
}

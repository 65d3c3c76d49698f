package exception

import "errors"

// Stream errors
var (
	ErrEmptyEndpoint   = errors.New("stream: empty endpoint")
	ErrNilDialer       = errors.New("stream: nil dialer")
	ErrNilHub          = errors.New("stream: nil hub")
	ErrAlreadyStarted  = errors.New("stream: already started")
	ErrNotStarted      = errors.New("stream: not started")
	ErrRetryExhausted  = errors.New("stream: retry ceiling exceeded")
	ErrSessionClosed   = errors.New("stream: session closed")
	ErrHeartbeatMissed = errors.New("stream: heartbeat missed")
	ErrManagerClosed   = errors.New("stream: manager closed")
)

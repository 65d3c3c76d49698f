package transport

import "context"

// Dialer establishes one duplex session to a venue endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Session, error)
}

// Session is an established framed connection. Receive returns whole
// payloads; an error means the session is unusable and must be redialed.
type Session interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(ctx context.Context, payload []byte) error
	Close() error
}

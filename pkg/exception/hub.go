package exception

import "errors"

// Hub errors
var (
	ErrHubClosed     = errors.New("hub: closed")
	ErrNilSubscriber = errors.New("hub: nil subscriber")
	ErrQueueClosed   = errors.New("hub: subscriber queue closed")
	ErrUnknownHandle = errors.New("hub: unknown subscriber handle")
	ErrBadCapacity   = errors.New("hub: capacity must be positive")
)

package exception

import "errors"

// Transport errors
var (
	ErrTransportClosed = errors.New("transport: connection closed")
	ErrDialFailed      = errors.New("transport: dial failed")
)

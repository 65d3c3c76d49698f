package exception

import "errors"

// Decode errors
var (
	ErrUnknownType  = errors.New("codec: unknown message type")
	ErrInvalidField = errors.New("codec: invalid field")
	ErrTruncated    = errors.New("codec: truncated message")
)

package codec

import "main/pkg/exception"

// DecodeError is a message-local decoding failure. It wraps one of the
// codec sentinels so callers can branch with errors.Is while logging the
// offending field.
type DecodeError struct {
	Sentinel error
	Field    string
	Detail   string
}

func (e *DecodeError) Error() string {
	msg := e.Sentinel.Error()
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Sentinel
}

func errUnknownType(detail string) error {
	return &DecodeError{Sentinel: exception.ErrUnknownType, Detail: detail}
}

func errInvalidField(field, detail string) error {
	return &DecodeError{Sentinel: exception.ErrInvalidField, Field: field, Detail: detail}
}

func errTruncated(detail string) error {
	return &DecodeError{Sentinel: exception.ErrTruncated, Detail: detail}
}

package exception

import "errors"

// Book errors
var (
	ErrUnknownSymbol = errors.New("book: unknown symbol")
	ErrEmptySide     = errors.New("book: side has no levels")
)

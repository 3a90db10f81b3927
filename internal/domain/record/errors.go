package record

import "errors"

var (
	// ErrRecordNotFound indicates the record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrUnknownTable indicates a table the data API does not serve.
	ErrUnknownTable = errors.New("unknown table")
	// ErrInvalidInput indicates invalid record input.
	ErrInvalidInput = errors.New("invalid record input")
)

package project

import "errors"

var (
	// ErrProjectNotFound indicates a reference to a project missing from the store.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectUnconfirmed indicates a reference to a project the backend has
	// not yet assigned an id.
	ErrProjectUnconfirmed = errors.New("project not saved yet")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)

package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable covers transport-level failures: no response arrived, so
	// no state change may be assumed.
	ErrUnavailable = errors.New("backend unavailable")
)

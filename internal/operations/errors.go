package operations

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid operation request")
	ErrRunnerClosed   = errors.New("operation runner closed")
	ErrPanicked       = errors.New("operation panicked")
	ErrNotFound       = errors.New("operation not found")
)

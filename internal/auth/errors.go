package auth

import "errors"

var (
	ErrTokenMissing = errors.New("missing token")
	ErrTokenInvalid = errors.New("invalid token")
	ErrDisabled     = errors.New("authentication disabled")
)

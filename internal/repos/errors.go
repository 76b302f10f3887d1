package repos

import (
	"errors"

	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
)

// ErrorKind classifies facade errors for callers.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindRepositoryUnavailable ErrorKind = "repository_unavailable"
	KindEngine                ErrorKind = "engine"
	KindValidation            ErrorKind = "validation"
	KindConfigPersist         ErrorKind = "config_persist"
)

// KindOf returns the kind of err. Errors of unknown origin are engine errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, git.ErrValidation), errors.Is(err, operations.ErrInvalidRequest):
		return KindValidation
	case errors.Is(err, git.ErrRepositoryUnavailable), errors.Is(err, operations.ErrNotFound):
		return KindRepositoryUnavailable
	case errors.Is(err, git.ErrConfigPersist):
		return KindConfigPersist
	default:
		return KindEngine
	}
}

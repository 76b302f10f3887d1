package git

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrRepositoryUnavailable = errors.New("repository unavailable")
	ErrEngine                = errors.New("engine error")
	ErrValidation            = errors.New("validation failed")
	ErrConfigPersist         = errors.New("failed to persist configuration")
)

var (
	ErrNotARepository    = fmt.Errorf("%w: not a repository", ErrRepositoryUnavailable)
	ErrDestinationExists = fmt.Errorf("%w: destination already exists", ErrValidation)
	ErrInvalidName       = fmt.Errorf("%w: invalid name", ErrValidation)
	ErrEmptyMessage      = fmt.Errorf("%w: empty commit message", ErrValidation)
	ErrBranchExists      = fmt.Errorf("%w: branch already exists", ErrEngine)
	ErrBranchNotFound    = fmt.Errorf("%w: branch not found", ErrEngine)
	ErrRemoteNotFound    = fmt.Errorf("%w: remote not found", ErrEngine)
	ErrCurrentBranch     = fmt.Errorf("%w: cannot delete the checked out branch", ErrEngine)
	ErrStateForbids      = fmt.Errorf("%w: repository state does not allow this operation", ErrEngine)
)

func engineError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEngine, op, err)
}

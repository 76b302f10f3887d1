package repos

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/status"
	"go.uber.org/zap"
)

// Service is the entry point for repository work. Every call re-opens the
// repository from its path; nothing is cached between calls.
//
// Failures are logged and reported once to the owner's notifier. Synchronous
// calls then return the zero value with the error; asynchronous calls deliver
// a failed result. Synchronous writes run in the runner's lane of the path.
type Service struct {
	git     *git.Service
	runner  *operations.Runner
	history *operations.History

	validator *validator.Validate
	logger    *zap.Logger
}

func NewService(
	gitSvc *git.Service,
	runner *operations.Runner,
	history *operations.History,
	validator *validator.Validate,
	logger *zap.Logger,
) *Service {
	return &Service{
		git:     gitSvc,
		runner:  runner,
		history: history,

		validator: validator,
		logger:    logger,
	}
}

func (s *Service) Status(owner *operations.Owner, path string) (git.StatusSnapshot, error) {
	return withHandle(s, owner, path, "read status", func(h *git.Handle) (git.StatusSnapshot, error) {
		return h.Status()
	})
}

// StatusDisplay renders the nine status categories.
func (s *Service) StatusDisplay(owner *operations.Owner, path string) (status.Display, error) {
	snapshot, err := s.Status(owner, path)
	if err != nil {
		return status.Display{}, err
	}

	return status.Render(snapshot), nil
}

// BindStatus renders the status into slots. Slots are left untouched on failure.
func (s *Service) BindStatus(owner *operations.Owner, path string, slots []status.Slot) error {
	display, err := s.StatusDisplay(owner, path)
	if err != nil {
		return err
	}

	if bindErr := status.Bind(display, slots); bindErr != nil {
		return s.fail(owner, path, "show status", bindErr)
	}

	return nil
}

// Commits returns the history reachable from HEAD, newest first.
func (s *Service) Commits(owner *operations.Owner, path string) ([]git.Commit, error) {
	return withHandle(s, owner, path, "read history", func(h *git.Handle) ([]git.Commit, error) {
		return h.Log()
	})
}

func (s *Service) Branches(owner *operations.Owner, path string) ([]git.Branch, error) {
	return withHandle(s, owner, path, "list branches", func(h *git.Handle) ([]git.Branch, error) {
		return h.Branches()
	})
}

// CurrentBranch returns the full ref of the checked out branch, or the commit
// hash when HEAD is detached.
func (s *Service) CurrentBranch(owner *operations.Owner, path string) (string, error) {
	return withHandle(s, owner, path, "read current branch", func(h *git.Handle) (string, error) {
		return h.CurrentBranchRef()
	})
}

func (s *Service) DeleteBranches(owner *operations.Owner, path string, names ...string) error {
	return s.write(owner, path, "delete branches", func(h *git.Handle) error {
		return h.DeleteBranches(names...)
	})
}

func (s *Service) RemoteURL(owner *operations.Owner, path, name string) (string, error) {
	return withHandle(s, owner, path, "read remote", func(h *git.Handle) (string, error) {
		return h.RemoteURL(name)
	})
}

func (s *Service) Remotes(owner *operations.Owner, path string) (git.RemoteConfig, error) {
	return withHandle(s, owner, path, "list remotes", func(h *git.Handle) (git.RemoteConfig, error) {
		return h.Remotes()
	})
}

// AddRemote sets remote.<name>.url, replacing the URL of an existing remote.
func (s *Service) AddRemote(owner *operations.Owner, path, name, url string) error {
	if err := s.validate(remoteRequest{Name: name, URL: url}); err != nil {
		return s.fail(owner, path, "add remote", err)
	}

	return s.write(owner, path, "add remote", func(h *git.Handle) error {
		return h.SetRemote(name, url)
	})
}

func (s *Service) RemoveRemote(owner *operations.Owner, path, name string) error {
	return s.write(owner, path, "remove remote", func(h *git.Handle) error {
		return h.UnsetRemote(name)
	})
}

// CanCommit reports whether the repository state allows a commit and the
// working tree has uncommitted changes.
func (s *Service) CanCommit(owner *operations.Owner, path string) (bool, error) {
	return withHandle(s, owner, path, "check commit", func(h *git.Handle) (bool, error) {
		return h.CanCommit()
	})
}

func (s *Service) CanCheckout(owner *operations.Owner, path string) (bool, error) {
	return withHandle(s, owner, path, "check checkout", func(h *git.Handle) (bool, error) {
		return h.CanCheckout()
	})
}

// Diff returns the unified patch between two revisions.
func (s *Service) Diff(owner *operations.Owner, path, from, to string) (string, error) {
	return withHandle(s, owner, path, "diff", func(h *git.Handle) (string, error) {
		return h.Diff(from, to)
	})
}

func (s *Service) StageAll(owner *operations.Owner, path string) error {
	return s.write(owner, path, "stage changes", func(h *git.Handle) error {
		return h.StageAll()
	})
}

// History returns the journaled operations of a repository, newest first.
func (s *Service) History(ctx context.Context, path string, limit int) ([]operations.Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", git.ErrValidation, err)
	}

	return s.history.ListByPath(ctx, abs, limit)
}

// Operation returns a journaled operation.
func (s *Service) Operation(ctx context.Context, id uuid.UUID) (*operations.Record, error) {
	return s.history.Get(ctx, id)
}

// withHandle opens path and runs fn, reporting any failure. The zero value of
// T is returned on error.
func withHandle[T any](
	s *Service,
	owner *operations.Owner,
	path, action string,
	fn func(h *git.Handle) (T, error),
) (T, error) {
	var zero T

	h, err := s.git.Open(path)
	if err != nil {
		return zero, s.fail(owner, path, action, err)
	}

	v, err := fn(h)
	if err != nil {
		return zero, s.fail(owner, path, action, err)
	}

	return v, nil
}

// write runs fn against a fresh handle inside the path's lane, so it never
// overlaps an operation or another write on the same repository.
func (s *Service) write(owner *operations.Owner, path, action string, fn func(h *git.Handle) error) error {
	err := s.runner.Exclusive(path, func() error {
		h, err := s.git.Open(path)
		if err != nil {
			return err
		}
		return fn(h)
	})
	if err != nil {
		return s.fail(owner, path, action, err)
	}

	return nil
}

func (s *Service) fail(owner *operations.Owner, path, action string, err error) error {
	kind := KindOf(err)

	s.logger.Error("repository call failed",
		zap.String("path", path),
		zap.String("action", action),
		zap.String("error_kind", string(kind)),
		zap.Error(err))

	s.runner.Notify(owner, operations.Notice{
		Path:   path,
		Level:  operations.LevelFailure,
		Text:   "Unable to " + action + ".",
		Detail: err.Error(),
	})

	return err
}

func (s *Service) validate(v any) error {
	if err := s.validator.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", git.ErrValidation, err)
	}
	return nil
}

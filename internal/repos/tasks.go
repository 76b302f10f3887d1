package repos

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"go.uber.org/zap"
)

// Init creates a repository at path in the background. An existing
// repository is reopened.
func (s *Service) Init(owner *operations.Owner, path string, done func(operations.Result)) (uuid.UUID, error) {
	return s.submit(owner, path, operations.KindInit,
		operations.Messages{
			Start:   "Initializing repository",
			Success: "Initialized repository in " + path + ".",
			Failure: "Unable to initialize repository.",
		},
		func(context.Context, io.Writer) (operations.Directive, error) {
			_, err := s.git.Init(path)
			return operations.DirectiveNone, err
		},
		done,
	)
}

// Clone clones into req.Directory in the background. An existing destination
// fails immediately and nothing is submitted.
func (s *Service) Clone(owner *operations.Owner, req CloneRequest, done func(operations.Result)) (uuid.UUID, error) {
	if err := s.validate(req); err != nil {
		return uuid.Nil, s.fail(owner, req.Directory, "clone", err)
	}

	if _, err := os.Stat(req.Directory); err == nil {
		return uuid.Nil, s.fail(owner, req.Directory, "clone",
			fmt.Errorf("%w: %s", git.ErrDestinationExists, req.Directory))
	}

	return s.submit(owner, req.Directory, operations.KindClone,
		operations.Messages{
			Start:   "Cloning repository",
			Success: "Cloned successfully.",
			Failure: "There was a problem while cloning the repository.",
		},
		func(ctx context.Context, progress io.Writer) (operations.Directive, error) {
			_, err := s.git.Clone(ctx, git.CloneRequest{
				URL:         req.URL,
				Branch:      req.Branch,
				Directory:   req.Directory,
				Credentials: req.Credentials,
				Progress:    progress,
			})
			return operations.DirectiveNone, err
		},
		done,
	)
}

// Push sends the current branch to a remote name or URL.
func (s *Service) Push(
	owner *operations.Owner,
	path string,
	req PushRequest,
	done func(operations.Result),
) (uuid.UUID, error) {
	if err := s.validate(req); err != nil {
		return uuid.Nil, s.fail(owner, path, "push", err)
	}

	return s.submitWithHandle(owner, path, operations.KindPush,
		operations.Messages{
			Start:   "Pushing changes",
			Success: "Successfully pushed commits to remote.",
			Failure: "There was a problem while pushing commits.",
		},
		func(ctx context.Context, h *git.Handle, progress io.Writer) error {
			return h.Push(ctx, git.TransportRequest{
				Remote:      req.Remote,
				Credentials: req.Credentials,
				Progress:    progress,
				Push: git.PushOptions{
					Force:      req.Force,
					FollowTags: req.FollowTags,
				},
			})
		},
		done,
	)
}

// Pull fetches from a remote and merges into the current branch.
func (s *Service) Pull(
	owner *operations.Owner,
	path string,
	req TransportRequest,
	done func(operations.Result),
) (uuid.UUID, error) {
	if err := s.validate(req); err != nil {
		return uuid.Nil, s.fail(owner, path, "pull", err)
	}

	return s.submitWithHandle(owner, path, operations.KindPull,
		operations.Messages{
			Start:   "Pulling changes",
			Success: "Successfully pulled commits from remote.",
			Failure: "There was a problem while pulling commits.",
		},
		func(ctx context.Context, h *git.Handle, progress io.Writer) error {
			return h.Pull(ctx, git.TransportRequest{
				Remote:      req.Remote,
				Credentials: req.Credentials,
				Progress:    progress,
			})
		},
		done,
	)
}

// Fetch downloads objects and refs from a remote.
func (s *Service) Fetch(
	owner *operations.Owner,
	path string,
	req TransportRequest,
	done func(operations.Result),
) (uuid.UUID, error) {
	if err := s.validate(req); err != nil {
		return uuid.Nil, s.fail(owner, path, "fetch", err)
	}

	remote := req.Remote
	if remote == "" {
		remote = git.DefaultRemote
	}

	return s.submitWithHandle(owner, path, operations.KindFetch,
		operations.Messages{
			Start:   "Fetching remote " + remote,
			Success: "Successfully fetched from " + remote + ".",
			Failure: "There was a problem while fetching from " + remote + ".",
		},
		func(ctx context.Context, h *git.Handle, progress io.Writer) error {
			return h.Fetch(ctx, git.TransportRequest{
				Remote:      remote,
				Credentials: req.Credentials,
				Progress:    progress,
			})
		},
		done,
	)
}

// Commit records the index, staging everything first when req.StageAll is set.
func (s *Service) Commit(
	owner *operations.Owner,
	path string,
	req CommitRequest,
	done func(operations.Result),
) (uuid.UUID, error) {
	if err := s.validate(req); err != nil {
		return uuid.Nil, s.fail(owner, path, "commit", fmt.Errorf("%w: %w", git.ErrEmptyMessage, err))
	}

	return s.submitWithHandle(owner, path, operations.KindCommit,
		operations.Messages{
			Start:   "Committing changes",
			Success: "Committed successfully.",
			Failure: "Unable to commit files.",
		},
		func(_ context.Context, h *git.Handle, _ io.Writer) error {
			if req.StageAll {
				if err := h.StageAll(); err != nil {
					return err
				}
			}

			hash, err := h.Commit(req.Message)
			if err != nil {
				return err
			}

			s.logger.Info("committed", zap.String("path", path), zap.String("hash", hash))
			return nil
		},
		done,
	)
}

// Checkout switches to an existing branch in the background.
func (s *Service) Checkout(owner *operations.Owner, path, name string, done func(operations.Result)) (uuid.UUID, error) {
	return s.Branch(owner, path, CheckoutExisting(name), done)
}

// Branch applies action. CreateOnly runs synchronously and returns uuid.Nil;
// the checkout variants are submitted and ask the caller to dismiss its view
// on success.
func (s *Service) Branch(
	owner *operations.Owner,
	path string,
	action BranchAction,
	done func(operations.Result),
) (uuid.UUID, error) {
	if err := s.validate(action); err != nil {
		return uuid.Nil, s.fail(owner, path, "create branch", fmt.Errorf("%w: %w", git.ErrInvalidName, err))
	}

	if action.Mode == BranchCreateOnly {
		return uuid.Nil, s.write(owner, path, "create branch", func(h *git.Handle) error {
			return h.CreateBranch(action.Name)
		})
	}

	create := action.Mode == BranchCreateAndCheckout
	start := "Checking out"
	if create {
		start = "Creating new branch"
	}

	return s.submit(owner, path, operations.KindCheckout,
		operations.Messages{
			Start:   start,
			Success: "Checked out successfully.",
			Failure: "Unable to checkout.",
		},
		func(context.Context, io.Writer) (operations.Directive, error) {
			h, err := s.git.Open(path)
			if err != nil {
				return operations.DirectiveNone, err
			}

			if coErr := h.Checkout(action.Name, create); coErr != nil {
				return operations.DirectiveNone, coErr
			}

			return operations.DirectiveDismissView, nil
		},
		done,
	)
}

// submitWithHandle submits a procedure that re-opens path when it runs.
func (s *Service) submitWithHandle(
	owner *operations.Owner,
	path string,
	kind operations.Kind,
	messages operations.Messages,
	fn func(ctx context.Context, h *git.Handle, progress io.Writer) error,
	done func(operations.Result),
) (uuid.UUID, error) {
	return s.submit(owner, path, kind, messages,
		func(ctx context.Context, progress io.Writer) (operations.Directive, error) {
			h, err := s.git.Open(path)
			if err != nil {
				return operations.DirectiveNone, err
			}

			return operations.DirectiveNone, fn(ctx, h, progress)
		},
		done,
	)
}

func (s *Service) submit(
	owner *operations.Owner,
	path string,
	kind operations.Kind,
	messages operations.Messages,
	procedure operations.Procedure,
	done func(operations.Result),
) (uuid.UUID, error) {
	id, err := s.runner.Submit(operations.Request{
		Owner:      owner,
		Path:       path,
		Kind:       kind,
		Messages:   messages,
		Procedure:  procedure,
		OnComplete: done,
	})
	if err != nil {
		return uuid.Nil, s.fail(owner, path, string(kind), err)
	}

	return id, nil
}

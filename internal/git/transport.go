package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
)

// DefaultRemote is used by fetch and pull when no remote is named.
const DefaultRemote = "origin"

const anonymousRemote = "anonymous"

// Fetch downloads objects and refs from a configured remote.
func (h *Handle) Fetch(ctx context.Context, req TransportRequest) error {
	name, url, err := h.namedRemote(req.Remote)
	if err != nil {
		return err
	}

	err = h.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: name,
		Auth:       h.config.authFor(url, req.Credentials),
		Progress:   req.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return engineError("fetch", err)
	}

	return nil
}

// Pull fetches from a configured remote and fast-forwards the current branch.
func (h *Handle) Pull(ctx context.Context, req TransportRequest) error {
	name, url, err := h.namedRemote(req.Remote)
	if err != nil {
		return err
	}

	wt, err := h.worktree()
	if err != nil {
		return err
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: name,
		Auth:       h.config.authFor(url, req.Credentials),
		Progress:   req.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return engineError("pull", err)
	}

	return nil
}

// Push sends the current branch to a configured remote, or to req.Remote
// taken as a URL when no remote has that name.
func (h *Handle) Push(ctx context.Context, req TransportRequest) error {
	if req.Remote == "" {
		return fmt.Errorf("%w: empty remote", ErrValidation)
	}

	head, err := h.repo.Head()
	if err != nil {
		return engineError("push", err)
	}
	if !head.Name().IsBranch() {
		return fmt.Errorf("%w: %s", ErrStateForbids, StateDetachedHead)
	}

	remotes, err := h.Remotes()
	if err != nil {
		return err
	}

	opts := &git.PushOptions{
		RefSpecs:   []gitconfig.RefSpec{refSpecFor(head.Name())},
		Progress:   req.Progress,
		Force:      req.Push.Force,
		FollowTags: req.Push.FollowTags,
	}

	if url, ok := remotes[req.Remote]; ok {
		opts.RemoteName = req.Remote
		opts.Auth = h.config.authFor(url, req.Credentials)
		err = h.repo.PushContext(ctx, opts)
	} else {
		remote := git.NewRemote(h.repo.Storer, &gitconfig.RemoteConfig{
			Name: anonymousRemote,
			URLs: []string{req.Remote},
		})
		opts.RemoteName = anonymousRemote
		opts.Auth = h.config.authFor(req.Remote, req.Credentials)
		err = remote.PushContext(ctx, opts)
	}

	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return engineError("push", err)
	}

	return nil
}

func (h *Handle) namedRemote(name string) (string, string, error) {
	if name == "" {
		name = DefaultRemote
	}

	url, err := h.RemoteURL(name)
	if err != nil {
		return "", "", err
	}

	return name, url, nil
}

func refSpecFor(branch plumbing.ReferenceName) gitconfig.RefSpec {
	return gitconfig.RefSpec(branch.String() + ":" + branch.String())
}

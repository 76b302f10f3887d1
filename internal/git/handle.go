package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/samber/lo"
)

// Handle is a transient reference to an opened repository. It holds no locks
// and must not be shared between concurrent callers.
type Handle struct {
	path   string
	repo   *git.Repository
	config Config
}

func newHandle(path string, repo *git.Repository, config Config) *Handle {
	return &Handle{
		path:   path,
		repo:   repo,
		config: config,
	}
}

func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) worktree() (*git.Worktree, error) {
	wt, err := h.repo.Worktree()
	if err != nil {
		return nil, engineError("worktree", err)
	}
	return wt, nil
}

// StageAll stages every change in the working tree, deletions included.
func (h *Handle) StageAll() error {
	wt, err := h.worktree()
	if err != nil {
		return err
	}

	if addErr := wt.AddWithOptions(&git.AddOptions{All: true}); addErr != nil {
		return engineError("add", addErr)
	}

	return nil
}

// Commit records the index and returns the new commit hash.
func (h *Handle) Commit(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	state, err := h.State()
	if err != nil {
		return "", err
	}
	if !state.CanCommit() {
		return "", fmt.Errorf("%w: %s", ErrStateForbids, state)
	}

	wt, err := h.worktree()
	if err != nil {
		return "", err
	}

	opts := &git.CommitOptions{}
	if h.config.Author.Name != "" {
		opts.Author = &object.Signature{
			Name:  h.config.Author.Name,
			Email: h.config.Author.Email,
			When:  time.Now(),
		}
	}

	hash, err := wt.Commit(message, opts)
	if err != nil {
		return "", engineError("commit", err)
	}

	return hash.String(), nil
}

// Status compares the working tree with the index and HEAD.
func (h *Handle) Status() (StatusSnapshot, error) {
	wt, err := h.worktree()
	if err != nil {
		return StatusSnapshot{}, err
	}

	st, err := wt.Status()
	if err != nil {
		return StatusSnapshot{}, engineError("status", err)
	}

	tracked, err := h.trackedDirectories()
	if err != nil {
		return StatusSnapshot{}, err
	}

	return newStatusSnapshot(st, tracked), nil
}

func (h *Handle) trackedDirectories() (map[string]struct{}, error) {
	idx, err := h.repo.Storer.Index()
	if err != nil {
		return nil, engineError("index", err)
	}

	dirs := make(map[string]struct{})
	for _, entry := range idx.Entries {
		for dir := parentDir(entry.Name); dir != ""; dir = parentDir(dir) {
			dirs[dir] = struct{}{}
		}
	}

	return dirs, nil
}

// Log returns the history reachable from HEAD, newest first.
// An unborn branch has an empty history.
func (h *Handle) Log() ([]Commit, error) {
	iter, err := h.repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []Commit{}, nil
	}
	if err != nil {
		return nil, engineError("log", err)
	}
	defer iter.Close()

	commits := []Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			When:    c.Author.When,
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, engineError("log", err)
	}

	return commits, nil
}

// Branches lists local branches sorted by name.
func (h *Handle) Branches() ([]Branch, error) {
	current, err := h.CurrentBranchRef()
	if err != nil {
		return nil, err
	}

	refs, err := h.repo.Branches()
	if err != nil {
		return nil, engineError("branch list", err)
	}

	var branches []Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, Branch{
			Name:    ref.Name().Short(),
			Ref:     ref.Name().String(),
			Hash:    ref.Hash().String(),
			Current: ref.Name().String() == current,
		})
		return nil
	})
	if err != nil {
		return nil, engineError("branch list", err)
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })

	return branches, nil
}

// CreateBranch creates a branch at HEAD without checking it out.
func (h *Handle) CreateBranch(name string) error {
	ref, err := branchRef(name)
	if err != nil {
		return err
	}

	if _, refErr := h.repo.Storer.Reference(ref); refErr == nil {
		return fmt.Errorf("%w: %s", ErrBranchExists, name)
	} else if !errors.Is(refErr, plumbing.ErrReferenceNotFound) {
		return engineError("branch create", refErr)
	}

	head, err := h.repo.Head()
	if err != nil {
		return engineError("branch create", err)
	}

	if setErr := h.repo.Storer.SetReference(plumbing.NewHashReference(ref, head.Hash())); setErr != nil {
		return engineError("branch create", setErr)
	}

	return nil
}

// DeleteBranches removes the named branches. It stops at the first failure.
func (h *Handle) DeleteBranches(names ...string) error {
	current, err := h.CurrentBranchRef()
	if err != nil {
		return err
	}

	for _, name := range names {
		ref, refErr := branchRef(name)
		if refErr != nil {
			return refErr
		}

		if ref.String() == current {
			return fmt.Errorf("%w: %s", ErrCurrentBranch, name)
		}

		if _, getErr := h.repo.Storer.Reference(ref); errors.Is(getErr, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
		} else if getErr != nil {
			return engineError("branch delete", getErr)
		}

		if rmErr := h.repo.Storer.RemoveReference(ref); rmErr != nil {
			return engineError("branch delete", rmErr)
		}

		if cfgErr := h.repo.DeleteBranch(name); cfgErr != nil && !errors.Is(cfgErr, git.ErrBranchNotFound) {
			return fmt.Errorf("%w: %w", ErrConfigPersist, cfgErr)
		}
	}

	return nil
}

// Checkout switches the working tree to name, creating the branch at HEAD first when create is set.
func (h *Handle) Checkout(name string, create bool) error {
	ref, err := branchRef(name)
	if err != nil {
		return err
	}

	state, err := h.State()
	if err != nil {
		return err
	}
	if !state.CanCheckout() {
		return fmt.Errorf("%w: %s", ErrStateForbids, state)
	}

	wt, err := h.worktree()
	if err != nil {
		return err
	}

	err = wt.Checkout(&git.CheckoutOptions{
		Branch: ref,
		Create: create,
	})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	if err != nil {
		return engineError("checkout", err)
	}

	return nil
}

// CurrentBranchRef returns the full name of the checked out branch, or the
// commit hash when HEAD is detached. Unborn branches are reported by name.
func (h *Handle) CurrentBranchRef() (string, error) {
	head, err := h.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", engineError("head", err)
	}

	if head.Type() == plumbing.SymbolicReference {
		return head.Target().String(), nil
	}

	return head.Hash().String(), nil
}

// Remotes returns every configured remote with its first URL.
func (h *Handle) Remotes() (RemoteConfig, error) {
	cfg, err := h.repo.Config()
	if err != nil {
		return nil, engineError("config", err)
	}

	remotes := make(RemoteConfig, len(cfg.Remotes))
	for name, remote := range cfg.Remotes {
		remotes[name] = lo.FirstOrEmpty(remote.URLs)
	}

	return remotes, nil
}

// RemoteURL returns the URL stored at remote.<name>.url.
func (h *Handle) RemoteURL(name string) (string, error) {
	remotes, err := h.Remotes()
	if err != nil {
		return "", err
	}

	url, ok := remotes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRemoteNotFound, name)
	}

	return url, nil
}

// SetRemote writes remote.<name>.url, keeping existing fetch refspecs, and saves the config.
func (h *Handle) SetRemote(name, url string) error {
	if err := validateRemoteName(name); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: empty remote url", ErrValidation)
	}

	cfg, err := h.repo.Config()
	if err != nil {
		return engineError("config", err)
	}

	if remote, ok := cfg.Remotes[name]; ok {
		remote.URLs = []string{url}
	} else {
		cfg.Remotes[name] = &gitconfig.RemoteConfig{
			Name: name,
			URLs: []string{url},
		}
	}

	if setErr := h.repo.SetConfig(cfg); setErr != nil {
		return fmt.Errorf("%w: %w", ErrConfigPersist, setErr)
	}

	return nil
}

// UnsetRemote removes the remote.<name> section. Removing an unknown remote is a no-op.
func (h *Handle) UnsetRemote(name string) error {
	cfg, err := h.repo.Config()
	if err != nil {
		return engineError("config", err)
	}

	if _, ok := cfg.Remotes[name]; !ok {
		return nil
	}
	delete(cfg.Remotes, name)

	if setErr := h.repo.SetConfig(cfg); setErr != nil {
		return fmt.Errorf("%w: %w", ErrConfigPersist, setErr)
	}

	return nil
}

// CanCommit reports whether the state permits a commit and there is something to commit.
func (h *Handle) CanCommit() (bool, error) {
	state, err := h.State()
	if err != nil {
		return false, err
	}
	if !state.CanCommit() {
		return false, nil
	}

	status, err := h.Status()
	if err != nil {
		return false, err
	}

	return status.HasUncommittedChanges(), nil
}

func (h *Handle) CanCheckout() (bool, error) {
	state, err := h.State()
	if err != nil {
		return false, err
	}

	return state.CanCheckout(), nil
}

// Diff renders the unified patch from revA to revB.
func (h *Handle) Diff(revA, revB string) (string, error) {
	from, err := h.commit(revA)
	if err != nil {
		return "", err
	}

	to, err := h.commit(revB)
	if err != nil {
		return "", err
	}

	patch, err := from.Patch(to)
	if err != nil {
		return "", engineError("diff", err)
	}

	return patch.String(), nil
}

func (h *Handle) commit(rev string) (*object.Commit, error) {
	if strings.TrimSpace(rev) == "" {
		return nil, fmt.Errorf("%w: empty revision", ErrValidation)
	}

	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, engineError("resolve "+rev, err)
	}

	c, err := h.repo.CommitObject(*hash)
	if err != nil {
		return nil, engineError("resolve "+rev, err)
	}

	return c, nil
}

func branchRef(name string) (plumbing.ReferenceName, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty branch name", ErrInvalidName)
	}

	ref := plumbing.NewBranchReferenceName(name)
	if err := ref.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
	}

	return ref, nil
}

func validateRemoteName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " /\\\t\n") {
		return fmt.Errorf("%w: remote %q", ErrInvalidName, name)
	}
	return nil
}

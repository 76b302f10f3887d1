package git

import (
	"errors"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/storage/filesystem"
)

// State derives the repository state tag from the metadata store.
func (h *Handle) State() (State, error) {
	if _, err := h.repo.Worktree(); errors.Is(err, git.ErrIsBareRepository) {
		return StateBare, nil
	}

	if storage, ok := h.repo.Storer.(*filesystem.Storage); ok {
		if state, found := probeState(storage.Filesystem()); found {
			return state, nil
		}
	}

	head, err := h.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", engineError("head", err)
	}
	if head.Type() == plumbing.HashReference {
		return StateDetachedHead, nil
	}

	return StateNormal, nil
}

func probeState(fs billy.Filesystem) (State, bool) {
	markers := []struct {
		name  string
		state State
	}{
		{"rebase-merge", StateRebasing},
		{"rebase-apply", StateRebasing},
		{"MERGE_HEAD", StateMerging},
		{"CHERRY_PICK_HEAD", StateCherryPicking},
		{"REVERT_HEAD", StateReverting},
		{"BISECT_LOG", StateBisecting},
	}

	for _, marker := range markers {
		if _, err := fs.Stat(marker.name); err == nil {
			return marker.state, true
		}
	}

	return "", false
}

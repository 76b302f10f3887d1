package git

import (
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/samber/lo"
)

func newStatusSnapshot(st git.Status, trackedDirs map[string]struct{}) StatusSnapshot {
	var snapshot StatusSnapshot

	untrackedDirs := make(map[string]struct{})
	for file, fs := range st {
		if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
			snapshot.Conflicting = append(snapshot.Conflicting, file)
			continue
		}

		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			snapshot.Untracked = append(snapshot.Untracked, file)
			if dir := topUntrackedDir(file, trackedDirs); dir != "" {
				untrackedDirs[dir] = struct{}{}
			}
			continue
		}

		switch fs.Staging {
		case git.Added, git.Renamed, git.Copied:
			snapshot.Added = append(snapshot.Added, file)
		case git.Modified:
			snapshot.Changed = append(snapshot.Changed, file)
		case git.Deleted:
			snapshot.Removed = append(snapshot.Removed, file)
		}

		switch fs.Worktree {
		case git.Modified:
			snapshot.Modified = append(snapshot.Modified, file)
		case git.Deleted:
			if fs.Staging != git.Deleted {
				snapshot.Missing = append(snapshot.Missing, file)
			}
		case git.Untracked:
			// removed from the index but present on disk
			snapshot.Untracked = append(snapshot.Untracked, file)
		}
	}

	snapshot.UntrackedDirectories = lo.Keys(untrackedDirs)
	snapshot.Uncommitted = lo.Uniq(lo.Flatten([][]string{
		snapshot.Added,
		snapshot.Changed,
		snapshot.Removed,
		snapshot.Missing,
		snapshot.Modified,
		snapshot.Conflicting,
	}))

	for _, paths := range []*[]string{
		&snapshot.Conflicting, &snapshot.Added, &snapshot.Changed,
		&snapshot.Missing, &snapshot.Modified, &snapshot.Removed,
		&snapshot.Uncommitted, &snapshot.Untracked, &snapshot.UntrackedDirectories,
	} {
		if *paths == nil {
			*paths = []string{}
		}
		sort.Strings(*paths)
	}

	return snapshot
}

// topUntrackedDir returns the outermost directory of file that holds no tracked entries.
func topUntrackedDir(file string, trackedDirs map[string]struct{}) string {
	parts := strings.Split(file, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/")
		if _, tracked := trackedDirs[dir]; !tracked {
			return dir
		}
	}
	return ""
}

func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

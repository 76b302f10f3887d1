package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	config := Config{
		Author: AuthorConfig{Name: "Test Author", Email: "test@example.com"},
	}
	return NewService(config, zaptest.NewLogger(t))
}

// newTestRepo initializes a repository with one commit containing files.
func newTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	repoPath := filepath.Join(t.TempDir(), "repo")

	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatal(err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	for name, content := range files {
		writeFile(t, repoPath, name, content)
		if _, addErr := worktree.Add(name); addErr != nil {
			t.Fatal(addErr)
		}
	}

	_, err = worktree.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
		AllowEmptyCommits: len(files) == 0,
	})
	if err != nil {
		t.Fatal(err)
	}

	return repoPath
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func openTestRepo(t *testing.T, service *Service, path string) *Handle {
	t.Helper()

	handle, err := service.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return handle
}

func TestService_OpenNotARepository(t *testing.T) {
	service := newTestService(t)

	_, err := service.Open(t.TempDir())
	if !errors.Is(err, ErrRepositoryUnavailable) {
		t.Fatalf("Expected ErrRepositoryUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrNotARepository) {
		t.Errorf("Expected ErrNotARepository, got %v", err)
	}
}

func TestService_InitThenReopen(t *testing.T) {
	service := newTestService(t)
	repoPath := filepath.Join(t.TempDir(), "fresh")

	if _, err := service.Init(repoPath); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		t.Fatalf("Expected .git directory: %v", err)
	}

	// Two independent handles observe the same on-disk repository.
	writeFile(t, repoPath, "a.txt", "a")
	first := openTestRepo(t, service, repoPath)
	if err := first.StageAll(); err != nil {
		t.Fatalf("StageAll failed: %v", err)
	}
	if _, err := first.Commit("add a"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	second := openTestRepo(t, service, repoPath)
	commits, err := second.Log()
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(commits) != 1 || strings.TrimSpace(commits[0].Message) != "add a" {
		t.Errorf("Expected the commit made through the first handle, got %+v", commits)
	}

	// Re-initializing an existing repository is not an error.
	if _, err := service.Init(repoPath); err != nil {
		t.Errorf("Re-init failed: %v", err)
	}
}

func TestHandle_StatusUntrackedOnly(t *testing.T) {
	service := newTestService(t)
	repoPath := filepath.Join(t.TempDir(), "repo")
	if _, err := service.Init(repoPath); err != nil {
		t.Fatal(err)
	}
	writeFile(t, repoPath, "a.txt", "hello")

	status, err := openTestRepo(t, service, repoPath).Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if !slices.Equal(status.Untracked, []string{"a.txt"}) {
		t.Errorf("Expected untracked [a.txt], got %v", status.Untracked)
	}

	for name, paths := range map[string][]string{
		"conflicting":           status.Conflicting,
		"added":                 status.Added,
		"changed":               status.Changed,
		"missing":               status.Missing,
		"modified":              status.Modified,
		"removed":               status.Removed,
		"uncommitted":           status.Uncommitted,
		"untracked-directories": status.UntrackedDirectories,
	} {
		if len(paths) != 0 {
			t.Errorf("Expected %s to be empty, got %v", name, paths)
		}
	}
}

func TestHandle_StatusCategories(t *testing.T) {
	repoPath := newTestRepo(t, map[string]string{
		"tracked.txt": "tracked",
		"other.txt":   "other",
		"del.txt":     "del",
		"gone.txt":    "gone",
	})

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, repoPath, "tracked.txt", "tracked and modified")
	writeFile(t, repoPath, "other.txt", "other and staged")
	if _, err = worktree.Add("other.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, repoPath, "added.txt", "added")
	if _, err = worktree.Add("added.txt"); err != nil {
		t.Fatal(err)
	}
	if err = os.Remove(filepath.Join(repoPath, "del.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err = worktree.Remove("gone.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, repoPath, "newdir/x.txt", "untracked")

	status, err := openTestRepo(t, newTestService(t), repoPath).Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	tests := []struct {
		name     string
		got      []string
		expected []string
	}{
		{"conflicting", status.Conflicting, []string{}},
		{"added", status.Added, []string{"added.txt"}},
		{"changed", status.Changed, []string{"other.txt"}},
		{"missing", status.Missing, []string{"del.txt"}},
		{"modified", status.Modified, []string{"tracked.txt"}},
		{"removed", status.Removed, []string{"gone.txt"}},
		{"uncommitted", status.Uncommitted, []string{"added.txt", "del.txt", "gone.txt", "other.txt", "tracked.txt"}},
		{"untracked", status.Untracked, []string{"newdir/x.txt"}},
		{"untracked-directories", status.UntrackedDirectories, []string{"newdir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestHandle_CreateBranchWithoutCheckout(t *testing.T) {
	service := newTestService(t)
	handle := openTestRepo(t, service, newTestRepo(t, map[string]string{"test.txt": "test content"}))

	before, err := handle.CurrentBranchRef()
	if err != nil {
		t.Fatal(err)
	}

	if err = handle.CreateBranch("feature-branch"); err != nil {
		t.Fatalf("CreateBranch failed: %v", err)
	}

	after, err := handle.CurrentBranchRef()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("Expected current branch to stay %s, got %s", before, after)
	}

	branches, err := handle.Branches()
	if err != nil {
		t.Fatalf("Branches failed: %v", err)
	}

	found := false
	for _, b := range branches {
		if b.Name == "feature-branch" {
			found = true
			if b.Current {
				t.Error("Created branch must not be current")
			}
		}
	}
	if !found {
		t.Error("Created branch not found in branch list")
	}

	if err = handle.CreateBranch("feature-branch"); !errors.Is(err, ErrBranchExists) {
		t.Errorf("Expected ErrBranchExists, got %v", err)
	}
	if err = handle.CreateBranch("bad..name"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for invalid name, got %v", err)
	}
}

func TestHandle_CheckoutCreate(t *testing.T) {
	service := newTestService(t)
	handle := openTestRepo(t, service, newTestRepo(t, map[string]string{"test.txt": "test content"}))

	if err := handle.Checkout("feature", true); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	current, err := handle.CurrentBranchRef()
	if err != nil {
		t.Fatal(err)
	}
	if current != "refs/heads/feature" {
		t.Errorf("Expected refs/heads/feature, got %s", current)
	}
}

func TestHandle_CheckoutMissingBranch(t *testing.T) {
	service := newTestService(t)
	handle := openTestRepo(t, service, newTestRepo(t, map[string]string{"test.txt": "test content"}))

	err := handle.Checkout("no-such-branch", false)
	if !errors.Is(err, ErrEngine) {
		t.Fatalf("Expected ErrEngine, got %v", err)
	}
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}
}

func TestHandle_DeleteBranches(t *testing.T) {
	service := newTestService(t)
	handle := openTestRepo(t, service, newTestRepo(t, map[string]string{"test.txt": "test content"}))

	for _, name := range []string{"one", "two"} {
		if err := handle.CreateBranch(name); err != nil {
			t.Fatal(err)
		}
	}

	if err := handle.DeleteBranches("one", "two"); err != nil {
		t.Fatalf("DeleteBranches failed: %v", err)
	}

	branches, err := handle.Branches()
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range branches {
		if b.Name == "one" || b.Name == "two" {
			t.Errorf("Branch %s should have been deleted", b.Name)
		}
	}

	current, err := handle.CurrentBranchRef()
	if err != nil {
		t.Fatal(err)
	}
	currentName := strings.TrimPrefix(current, "refs/heads/")
	if err = handle.DeleteBranches(currentName); !errors.Is(err, ErrCurrentBranch) {
		t.Errorf("Expected ErrCurrentBranch, got %v", err)
	}
	if err = handle.DeleteBranches("missing"); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}
}

func TestHandle_RemotesRoundTrip(t *testing.T) {
	service := newTestService(t)
	repoPath := newTestRepo(t, nil)

	if err := openTestRepo(t, service, repoPath).SetRemote("origin", "https://x/y.git"); err != nil {
		t.Fatalf("SetRemote failed: %v", err)
	}

	// Config is durable: a fresh handle sees it.
	url, err := openTestRepo(t, service, repoPath).RemoteURL("origin")
	if err != nil {
		t.Fatalf("RemoteURL failed: %v", err)
	}
	if url != "https://x/y.git" {
		t.Errorf("Expected https://x/y.git, got %s", url)
	}

	if err = openTestRepo(t, service, repoPath).UnsetRemote("origin"); err != nil {
		t.Fatalf("UnsetRemote failed: %v", err)
	}

	remotes, err := openTestRepo(t, service, repoPath).Remotes()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := remotes["origin"]; ok {
		t.Error("Remote origin should have been removed")
	}

	if err = openTestRepo(t, service, repoPath).SetRemote("bad name", "https://x/y.git"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestHandle_CanCommit(t *testing.T) {
	service := newTestService(t)
	repoPath := newTestRepo(t, map[string]string{"test.txt": "test content"})
	handle := openTestRepo(t, service, repoPath)

	can, err := handle.CanCommit()
	if err != nil {
		t.Fatal(err)
	}
	if can {
		t.Error("Clean repository must not be committable")
	}

	writeFile(t, repoPath, "untracked.txt", "x")
	if can, _ = handle.CanCommit(); can {
		t.Error("Untracked files alone must not make the repository committable")
	}

	writeFile(t, repoPath, "test.txt", "changed content")
	if can, _ = handle.CanCommit(); !can {
		t.Error("Modified repository must be committable")
	}

	writeFile(t, repoPath, ".git/MERGE_HEAD", "0000000000000000000000000000000000000000\n")
	state, err := handle.State()
	if err != nil {
		t.Fatal(err)
	}
	if state != StateMerging {
		t.Errorf("Expected merging state, got %s", state)
	}
	if can, _ = handle.CanCommit(); can {
		t.Error("Merging repository must not be committable")
	}
	if can, _ = handle.CanCheckout(); can {
		t.Error("Merging repository must not allow checkout")
	}
}

func TestHandle_LogAndDiff(t *testing.T) {
	service := newTestService(t)
	repoPath := newTestRepo(t, map[string]string{"test.txt": "first\n"})
	handle := openTestRepo(t, service, repoPath)

	writeFile(t, repoPath, "test.txt", "second\n")
	if err := handle.StageAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := handle.Commit("second commit"); err != nil {
		t.Fatal(err)
	}

	commits, err := handle.Log()
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("Expected 2 commits, got %d", len(commits))
	}
	if strings.TrimSpace(commits[0].Message) != "second commit" {
		t.Errorf("Expected newest commit first, got %q", commits[0].Message)
	}

	diff, err := handle.Diff(commits[1].Hash, commits[0].Hash)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(diff, "-first") || !strings.Contains(diff, "+second") {
		t.Errorf("Unexpected diff:\n%s", diff)
	}

	if _, err = handle.Diff("nope", commits[0].Hash); !errors.Is(err, ErrEngine) {
		t.Errorf("Expected ErrEngine for unknown revision, got %v", err)
	}
}

func TestHandle_CommitRejectsEmptyMessage(t *testing.T) {
	handle := openTestRepo(t, newTestService(t), newTestRepo(t, nil))

	if _, err := handle.Commit("  "); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestService_CloneDestinationExists(t *testing.T) {
	service := newTestService(t)

	_, err := service.Clone(context.Background(), CloneRequest{
		URL:       "https://invalid.example/never-contacted.git",
		Directory: t.TempDir(),
	})
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("Expected ErrDestinationExists, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestService_CloneAndPushLocal(t *testing.T) {
	service := newTestService(t)
	source := newTestRepo(t, map[string]string{"test.txt": "test content"})

	bare := filepath.Join(t.TempDir(), "bare.git")
	if _, err := git.PlainInit(bare, true); err != nil {
		t.Fatal(err)
	}

	handle := openTestRepo(t, service, source)
	if err := handle.SetRemote("backup", bare); err != nil {
		t.Fatal(err)
	}
	if err := handle.Push(context.Background(), TransportRequest{Remote: "backup"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "clone")
	cloned, err := service.Clone(context.Background(), CloneRequest{URL: bare, Directory: dest})
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	commits, err := cloned.Log()
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 {
		t.Errorf("Expected 1 commit in clone, got %d", len(commits))
	}

	if err = cloned.Fetch(context.Background(), TransportRequest{}); err != nil {
		t.Errorf("Fetch from origin failed: %v", err)
	}
	if err = cloned.Fetch(context.Background(), TransportRequest{Remote: "missing"}); !errors.Is(err, ErrRemoteNotFound) {
		t.Errorf("Expected ErrRemoteNotFound, got %v", err)
	}
}

func TestHandle_StatusRemovedThenRecreated(t *testing.T) {
	repoPath := newTestRepo(t, map[string]string{"back.txt": "back"})

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err = worktree.Remove("back.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, repoPath, "back.txt", "back again")

	status, err := openTestRepo(t, newTestService(t), repoPath).Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if !slices.Equal(status.Removed, []string{"back.txt"}) {
		t.Errorf("Expected back.txt removed, got %v", status.Removed)
	}
	if !slices.Equal(status.Untracked, []string{"back.txt"}) {
		t.Errorf("Expected back.txt untracked, got %v", status.Untracked)
	}
	if len(status.UntrackedDirectories) != 0 {
		t.Errorf("Expected no untracked directories, got %v", status.UntrackedDirectories)
	}
}

func TestNewStatusSnapshot_StagedDeletionOnDisk(t *testing.T) {
	snapshot := newStatusSnapshot(git.Status{
		"a.txt": &git.FileStatus{Staging: git.Deleted, Worktree: git.Untracked},
	}, map[string]struct{}{})

	if !slices.Equal(snapshot.Removed, []string{"a.txt"}) {
		t.Errorf("Expected removed [a.txt], got %v", snapshot.Removed)
	}
	if !slices.Equal(snapshot.Untracked, []string{"a.txt"}) {
		t.Errorf("Expected untracked [a.txt], got %v", snapshot.Untracked)
	}
	if !slices.Equal(snapshot.Uncommitted, []string{"a.txt"}) {
		t.Errorf("Expected uncommitted [a.txt], got %v", snapshot.Uncommitted)
	}
}

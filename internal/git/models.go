package git

import (
	"io"
	"time"
)

// Credentials are used for a single transport call and never stored.
type Credentials struct {
	Username string
	Secret   string
}

func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Secret == ""
}

// CloneRequest represents the request to clone a repository.
type CloneRequest struct {
	URL         string // Remote repository URL
	Branch      string // Branch to check out (optional, defaults to remote HEAD)
	Directory   string // Destination, must not exist
	Credentials Credentials
	Progress    io.Writer
}

// TransportRequest describes a fetch, pull or push against a remote.
type TransportRequest struct {
	// Remote is a configured remote name or, for push, a literal URL.
	Remote      string
	Credentials Credentials
	Progress    io.Writer

	Push PushOptions
}

// PushOptions are honoured by push only.
type PushOptions struct {
	Force      bool
	FollowTags bool
}

// Commit is a log entry.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	When    time.Time
	Message string
}

// Branch represents a local branch.
type Branch struct {
	Name    string // Short name
	Ref     string // Full reference name
	Hash    string
	Current bool
}

// RemoteConfig maps remote names to their first URL.
type RemoteConfig map[string]string

// StatusSnapshot holds the nine path categories of a working tree comparison.
// Paths are repository-relative and sorted.
type StatusSnapshot struct {
	Conflicting          []string
	Added                []string
	Changed              []string
	Missing              []string
	Modified             []string
	Removed              []string
	Uncommitted          []string
	Untracked            []string
	UntrackedDirectories []string
}

// HasUncommittedChanges reports whether anything except untracked content differs from HEAD.
func (s StatusSnapshot) HasUncommittedChanges() bool {
	return len(s.Uncommitted) > 0
}

// State is the repository state tag.
type State string

const (
	StateNormal        State = "normal"
	StateMerging       State = "merging"
	StateRebasing      State = "rebasing"
	StateCherryPicking State = "cherry-picking"
	StateReverting     State = "reverting"
	StateBisecting     State = "bisecting"
	StateDetachedHead  State = "detached-head"
	StateBare          State = "bare"
)

func (s State) CanCommit() bool {
	switch s {
	case StateNormal, StateDetachedHead, StateBisecting:
		return true
	case StateMerging, StateRebasing, StateCherryPicking, StateReverting, StateBare:
		return false
	}
	return false
}

func (s State) CanCheckout() bool {
	switch s {
	case StateNormal, StateDetachedHead, StateBisecting:
		return true
	case StateMerging, StateRebasing, StateCherryPicking, StateReverting, StateBare:
		return false
	}
	return false
}

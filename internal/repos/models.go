package repos

import "github.com/repokit/repokit/internal/git"

// CloneRequest clones URL into Directory, which must not exist.
type CloneRequest struct {
	URL         string `validate:"required,max=2048"`
	Branch      string `validate:"omitempty,max=255"`
	Directory   string `validate:"required"`
	Credentials git.Credentials
}

// TransportRequest names a configured remote for fetch and pull. An empty
// remote means origin.
type TransportRequest struct {
	Remote      string `validate:"omitempty,max=2048"`
	Credentials git.Credentials
}

// PushRequest targets a configured remote name or a literal URL.
type PushRequest struct {
	Remote      string `validate:"required,max=2048"`
	Credentials git.Credentials
	Force       bool
	FollowTags  bool
}

type CommitRequest struct {
	Message  string `validate:"required"`
	StageAll bool   // Stage every change before committing
}

type remoteRequest struct {
	Name string `validate:"required,max=100,excludesall=/\\ "`
	URL  string `validate:"required,max=2048"`
}

type BranchMode int

const (
	BranchCreateAndCheckout BranchMode = iota
	BranchCreateOnly
	BranchCheckoutExisting
)

// BranchAction selects how Branch treats a branch name.
type BranchAction struct {
	Mode BranchMode
	Name string `validate:"required,max=255"`
}

// CreateAndCheckout creates name at HEAD and checks it out in the background.
func CreateAndCheckout(name string) BranchAction {
	return BranchAction{Mode: BranchCreateAndCheckout, Name: name}
}

// CreateOnly creates name at HEAD synchronously without checking it out.
func CreateOnly(name string) BranchAction {
	return BranchAction{Mode: BranchCreateOnly, Name: name}
}

// CheckoutExisting checks out an existing branch in the background.
func CheckoutExisting(name string) BranchAction {
	return BranchAction{Mode: BranchCheckoutExisting, Name: name}
}

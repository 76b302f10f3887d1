package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/status"
)

type Credentials struct {
	Username string `json:"username" validate:"max=255"`
	Password string `json:"password" validate:"max=4096"`
}

func (c Credentials) toDomain() git.Credentials {
	return git.Credentials{
		Username: c.Username,
		Secret:   c.Password,
	}
}

// CloneRequest represents the request payload for cloning into a new repository.
type CloneRequest struct {
	URL         string      `json:"url"         validate:"required,max=2048"`
	Branch      string      `json:"branch"      validate:"omitempty,max=255"`
	Credentials Credentials `json:"credentials"`
}

type CommitRequest struct {
	Message  string `json:"message"   validate:"required"`
	StageAll bool   `json:"stage_all"`
}

type CheckoutRequest struct {
	Branch string `json:"branch" validate:"required,max=255"`
}

// BranchRequest creates a branch at HEAD, checking it out when Checkout is set.
type BranchRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Checkout bool   `json:"checkout"`
}

type TransportRequest struct {
	Remote      string      `json:"remote"      validate:"omitempty,max=2048"`
	Credentials Credentials `json:"credentials"`
}

type PushRequest struct {
	Remote      string      `json:"remote"      validate:"required,max=2048"`
	Credentials Credentials `json:"credentials"`
	Force       bool        `json:"force"`
	FollowTags  bool        `json:"follow_tags"`
}

type RemoteRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	URL  string `json:"url"  validate:"required,max=2048"`
}

type DiffQuery struct {
	From string `query:"from" validate:"required"`
	To   string `query:"to"   validate:"required"`
}

type HistoryQuery struct {
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// AcceptedResponse is returned by routes that start an operation.
type AcceptedResponse struct {
	OperationID uuid.UUID `json:"operation_id"`
}

type StatusResponse struct {
	Clean   bool           `json:"clean"`
	Display status.Display `json:"display"`
	Paths   StatusPaths    `json:"paths"`
}

type StatusPaths struct {
	Conflicting          []string `json:"conflicting"`
	Added                []string `json:"added"`
	Changed              []string `json:"changed"`
	Missing              []string `json:"missing"`
	Modified             []string `json:"modified"`
	Removed              []string `json:"removed"`
	Uncommitted          []string `json:"uncommitted"`
	Untracked            []string `json:"untracked"`
	UntrackedDirectories []string `json:"untracked_directories"`
}

func newStatusResponse(snapshot git.StatusSnapshot) StatusResponse {
	return StatusResponse{
		Clean:   !snapshot.HasUncommittedChanges() && len(snapshot.Untracked) == 0,
		Display: status.Render(snapshot),
		Paths: StatusPaths{
			Conflicting:          snapshot.Conflicting,
			Added:                snapshot.Added,
			Changed:              snapshot.Changed,
			Missing:              snapshot.Missing,
			Modified:             snapshot.Modified,
			Removed:              snapshot.Removed,
			Uncommitted:          snapshot.Uncommitted,
			Untracked:            snapshot.Untracked,
			UntrackedDirectories: snapshot.UntrackedDirectories,
		},
	}
}

type BranchResponse struct {
	Name    string `json:"name"`
	Ref     string `json:"ref"`
	Hash    string `json:"hash"`
	Current bool   `json:"current"`
}

type CommitResponse struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
	Message string    `json:"message"`
}

type RemoteResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type CapabilitiesResponse struct {
	CanCommit   bool `json:"can_commit"`
	CanCheckout bool `json:"can_checkout"`
}

// OperationResponse represents a journaled operation.
type OperationResponse struct {
	ID          uuid.UUID            `json:"id"`
	Path        string               `json:"path"`
	Kind        operations.Kind      `json:"kind"`
	State       operations.State     `json:"state"`
	Error       string               `json:"error,omitempty"`
	Directive   operations.Directive `json:"directive,omitempty"`
	Progress    []string             `json:"progress,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	StartedAt   *time.Time           `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func NewOperationResponse(record *operations.Record) OperationResponse {
	return OperationResponse{
		ID:          record.ID,
		Path:        record.Path,
		Kind:        record.Kind,
		State:       record.State,
		Error:       record.Error,
		Directive:   record.Directive,
		Progress:    record.Progress,
		CreatedAt:   record.CreatedAt,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

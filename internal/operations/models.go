package operations

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInit     Kind = "init"
	KindClone    Kind = "clone"
	KindCommit   Kind = "commit"
	KindCheckout Kind = "checkout"
	KindPush     Kind = "push"
	KindPull     Kind = "pull"
	KindFetch    Kind = "fetch"
)

type State string

const (
	StateCreated   State = "created"   // Submitted, waiting for its path lane
	StateRunning   State = "running"   // Procedure is executing
	StateSucceeded State = "succeeded" // Procedure returned without error
	StateFailed    State = "failed"    // Procedure returned an error
	StateDelivered State = "delivered" // Result handed to the owner
	StateDiscarded State = "discarded" // Owner was gone, result or run dropped
)

// Directive is a side effect the caller may apply after a successful operation.
type Directive string

const (
	DirectiveNone        Directive = ""
	DirectiveDismissView Directive = "dismiss-view"
)

// Messages are the texts shown when an operation starts, succeeds and fails.
type Messages struct {
	Start   string
	Success string
	Failure string
}

// Procedure is the background part of an operation. Progress receives
// transport progress output and may be ignored.
type Procedure func(ctx context.Context, progress io.Writer) (Directive, error)

// Request describes an operation to submit. Owner receives notices and the
// result; the operation is dropped or discarded once it is closed.
type Request struct {
	Owner      *Owner
	Path       string
	Kind       Kind
	Messages   Messages
	Procedure  Procedure
	OnComplete func(Result)
}

// Result is delivered to the owner once the procedure finished.
type Result struct {
	OperationID uuid.UUID
	Path        string
	Kind        Kind
	OK          bool
	Err         error
	Directive   Directive
	Duration    time.Duration
}

type Level string

const (
	LevelStart    Level = "start"
	LevelProgress Level = "progress"
	LevelSuccess  Level = "success"
	LevelFailure  Level = "failure"
)

// Notice is a transient, user-facing notification about an operation.
type Notice struct {
	OperationID uuid.UUID
	Path        string
	Kind        Kind
	Level       Level
	Text        string
	Detail      string
}

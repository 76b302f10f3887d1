package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// progressTail is the number of progress lines kept in the journal.
const progressTail = 20

type task struct {
	req    Request
	record *Record
	queued time.Time

	// exclusive is set for synchronous work sharing the lane; it replaces
	// the operation lifecycle.
	exclusive func()
}

// lane holds the pending operations of one repository path.
type lane struct {
	queue []*task
}

// Runner executes operations in the background. Operations on the same path
// run one at a time in submission order; different paths run concurrently.
type Runner struct {
	journal  *Journal
	metrics  *Metrics
	notifier Notifier

	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. Journal and metrics may be nil.
func NewRunner(journal *Journal, metrics *Metrics, notifier Notifier, logger *zap.Logger) *Runner {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	return &Runner{
		journal:  journal,
		metrics:  metrics,
		notifier: notifier,

		logger: logger,

		lanes: make(map[string]*lane),
	}
}

// Submit queues an operation and posts its start notice on the caller's
// context. It never blocks on the operation itself.
func (r *Runner) Submit(req Request) (uuid.UUID, error) {
	if err := validateRequest(&req); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate operation id: %w", err)
	}

	if r.isClosed() {
		return uuid.Nil, ErrRunnerClosed
	}

	now := time.Now()
	t := &task{
		req: req,
		record: &Record{
			ID:        id,
			Path:      req.Path,
			Kind:      req.Kind,
			State:     StateCreated,
			CreatedAt: now,
		},
		queued: now,
	}
	r.save(t.record)

	r.Notify(req.Owner, Notice{
		OperationID: id,
		Path:        req.Path,
		Kind:        req.Kind,
		Level:       LevelStart,
		Text:        req.Messages.Start,
	})

	if err := r.enqueue(t); err != nil {
		return uuid.Nil, err
	}

	r.logger.Debug("operation queued",
		zap.Stringer("operation_id", id),
		zap.String("path", req.Path),
		zap.String("kind", string(req.Kind)))

	return id, nil
}

// Exclusive runs fn in the lane of path once the operations queued before it
// have finished, and returns its error. Nothing else touches path while fn
// runs. It must not be called from a procedure or an inline completion
// callback of the same path.
func (r *Runner) Exclusive(path string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("%w: missing function", ErrInvalidRequest)
	}

	abs, err := normalizePath(path)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	t := &task{
		req:       Request{Path: abs},
		exclusive: func() { done <- call(fn) },
	}

	if enqueueErr := r.enqueue(t); enqueueErr != nil {
		return enqueueErr
	}

	return <-done
}

// Wait blocks until every lane is idle. Deliveries posted to a Loop may still be pending.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close stops accepting operations. Queued operations still run.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
}

func (r *Runner) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

func (r *Runner) enqueue(t *task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}

	if t.exclusive == nil {
		r.metrics.enqueued()
	}

	if l, ok := r.lanes[t.req.Path]; ok {
		l.queue = append(l.queue, t)
		return nil
	}

	r.lanes[t.req.Path] = &lane{queue: []*task{t}}
	r.wg.Add(1)
	go r.drain(t.req.Path)

	return nil
}

// drain runs the lane of path until it is empty, then removes it.
func (r *Runner) drain(path string) {
	defer r.wg.Done()

	for {
		r.mu.Lock()
		l := r.lanes[path]
		if len(l.queue) == 0 {
			delete(r.lanes, path)
			r.mu.Unlock()
			return
		}
		t := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		r.mu.Unlock()

		if t.exclusive != nil {
			t.exclusive()
			continue
		}

		r.metrics.dequeued()
		r.execute(t)
	}
}

func (r *Runner) execute(t *task) {
	owner := t.req.Owner
	record := t.record
	logger := r.logger.With(
		zap.Stringer("operation_id", record.ID),
		zap.String("path", record.Path),
		zap.String("kind", string(record.Kind)),
	)

	if !owner.Alive() {
		logger.Debug("owner gone, operation dropped before start")
		r.discard(record, 0)
		return
	}

	started := time.Now()
	record.State = StateRunning
	record.StartedAt = &started
	r.save(record)

	var lines []string
	progress := newProgressWriter(func(line string) {
		lines = append(lines, line)
		if len(lines) > progressTail {
			lines = lines[1:]
		}

		notice := Notice{
			OperationID: record.ID,
			Path:        record.Path,
			Kind:        record.Kind,
			Level:       LevelProgress,
			Text:        line,
		}
		owner.post(func() {
			if owner.Alive() {
				r.Notify(owner, notice)
			}
		}, nil)
	})

	directive, err := run(t.req.Procedure, progress)
	progress.Flush()

	elapsed := time.Since(started)
	completed := time.Now()
	record.CompletedAt = &completed
	record.Progress = lines

	result := Result{
		OperationID: record.ID,
		Path:        record.Path,
		Kind:        record.Kind,
		OK:          err == nil,
		Err:         err,
		Duration:    elapsed,
	}

	if err != nil {
		logger.Error("operation failed", zap.Duration("duration", elapsed), zap.Error(err))
		record.State = StateFailed
		record.Error = err.Error()
		r.metrics.finished(record.Kind, outcomeFailed, elapsed)
	} else {
		logger.Info("operation succeeded", zap.Duration("duration", elapsed))
		result.Directive = directive
		record.State = StateSucceeded
		record.Directive = directive
		r.metrics.finished(record.Kind, outcomeSucceeded, elapsed)
	}
	r.save(record)

	r.deliver(t, result, logger)
}

// deliver hands the result to the owner's context. The owner is checked again
// on that context, so a close racing with the post still discards the result.
func (r *Runner) deliver(t *task, result Result, logger *zap.Logger) {
	owner := t.req.Owner
	record := t.record

	dropped := func() {
		logger.Debug("owner gone, result discarded")
		r.discard(record, result.Duration)
	}

	accepted := owner.post(func() {
		if !owner.Alive() {
			dropped()
			return
		}

		notice := Notice{
			OperationID: result.OperationID,
			Path:        result.Path,
			Kind:        result.Kind,
			Level:       LevelSuccess,
			Text:        t.req.Messages.Success,
		}
		if !result.OK {
			notice.Level = LevelFailure
			notice.Text = t.req.Messages.Failure
			notice.Detail = result.Err.Error()
		}
		r.Notify(owner, notice)

		if t.req.OnComplete != nil {
			t.req.OnComplete(result)
		}

		record.State = StateDelivered
		r.save(record)
	}, dropped)

	if !accepted {
		dropped()
	}
}

func (r *Runner) discard(record *Record, elapsed time.Duration) {
	record.State = StateDiscarded
	r.save(record)
	r.metrics.finished(record.Kind, outcomeDiscarded, elapsed)
}

// Notify sends a notice to the owner's notifier, or to the runner's default
// when the owner is nil or has none. It runs on the calling goroutine.
func (r *Runner) Notify(owner *Owner, notice Notice) {
	if owner != nil && owner.notifier != nil {
		owner.notifier.Notify(notice)
		return
	}
	r.notifier.Notify(notice)
}

func (r *Runner) save(record *Record) {
	if r.journal == nil {
		return
	}

	if err := r.journal.Save(context.Background(), record); err != nil {
		r.logger.Error("failed to journal operation",
			zap.Stringer("operation_id", record.ID),
			zap.String("state", string(record.State)),
			zap.Error(err))
	}
}

// run executes the procedure, turning a panic into an error.
func run(procedure Procedure, progress *progressWriter) (directive Directive, err error) {
	defer func() {
		if p := recover(); p != nil {
			directive = DirectiveNone
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()

	return procedure(context.Background(), progress)
}

// call runs fn, turning a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()

	return fn()
}

func validateRequest(req *Request) error {
	if req.Owner == nil {
		return fmt.Errorf("%w: missing owner", ErrInvalidRequest)
	}
	if req.Procedure == nil {
		return fmt.Errorf("%w: missing procedure", ErrInvalidRequest)
	}

	path, err := normalizePath(req.Path)
	if err != nil {
		return err
	}
	req.Path = path

	return nil
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return abs, nil
}

package operations

import "sync"

// Dispatcher runs callbacks on a caller's execution context.
// Post reports false when the context no longer accepts work.
type Dispatcher interface {
	Post(fn func()) bool
}

// DroppingDispatcher is a Dispatcher that may drop callbacks it already
// accepted. drop runs in place of fn when that happens.
type DroppingDispatcher interface {
	Dispatcher
	PostOrDrop(fn, drop func()) bool
}

// Owner ties an operation's delivery to the lifetime of its caller. Once
// closed, queued operations are dropped before they run and finished ones are
// discarded without invoking callbacks.
type Owner struct {
	dispatcher Dispatcher
	notifier   Notifier

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewOwner creates a live owner. A nil notifier leaves notices to the runner's default.
func NewOwner(dispatcher Dispatcher, notifier Notifier) *Owner {
	if dispatcher == nil {
		dispatcher = Inline{}
	}

	return &Owner{
		dispatcher: dispatcher,
		notifier:   notifier,
		done:       make(chan struct{}),
	}
}

func (o *Owner) Alive() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return !o.closed
}

// Close marks the owner as gone. It is safe to call more than once.
func (o *Owner) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.done)
}

// Done is closed when the owner is closed.
func (o *Owner) Done() <-chan struct{} {
	return o.done
}

// post hands fn to the owner's dispatcher. drop, when set, runs instead of
// fn if the dispatcher discards fn after accepting it.
func (o *Owner) post(fn, drop func()) bool {
	if !o.Alive() {
		return false
	}
	if d, ok := o.dispatcher.(DroppingDispatcher); ok && drop != nil {
		return d.PostOrDrop(fn, drop)
	}
	return o.dispatcher.Post(fn)
}

// Inline runs callbacks immediately on the worker goroutine.
type Inline struct{}

func (Inline) Post(fn func()) bool {
	fn()
	return true
}

// Loop is a foreground event loop: callbacks posted from workers run
// sequentially on the goroutine calling Run or Drain. Post never blocks.
type Loop struct {
	mu     sync.Mutex
	queue  []posted
	closed bool
	signal chan struct{}
}

var _ DroppingDispatcher = (*Loop)(nil)

type posted struct {
	run  func()
	drop func()
}

func NewLoop() *Loop {
	return &Loop{
		signal: make(chan struct{}, 1),
	}
}

func (l *Loop) Post(fn func()) bool {
	return l.PostOrDrop(fn, nil)
}

// PostOrDrop queues fn. If the loop is closed before fn runs, drop is called
// instead by Close.
func (l *Loop) PostOrDrop(fn, drop func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, posted{run: fn, drop: drop})
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}

	return true
}

// Drain runs every callback queued so far and returns how many ran.
func (l *Loop) Drain() int {
	l.mu.Lock()
	queue := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, p := range queue {
		p.run()
	}

	return len(queue)
}

// Run processes callbacks until done is closed.
func (l *Loop) Run(done <-chan struct{}) {
	for {
		l.Drain()

		select {
		case <-done:
			return
		case <-l.signal:
		}
	}
}

// Close rejects further posts. Callbacks already queued are dropped and
// their drop functions run on the calling goroutine.
func (l *Loop) Close() {
	l.mu.Lock()
	queue := l.queue
	l.queue = nil
	l.closed = true
	l.mu.Unlock()

	for _, p := range queue {
		if p.drop != nil {
			p.drop()
		}
	}
}

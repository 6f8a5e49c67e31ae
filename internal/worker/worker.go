// Package worker serializes every remote API call through one queue.
//
// The queue is the admission control for the remote service's call
// budget: a single drain goroutine executes operations strictly in FIFO
// submission order and sleeps a fixed delay between consecutive
// executions. The delay is static configuration derived from the
// published budget split across cooperating server instances; the worker
// never reads rate-limit headroom back from the service.
//
// Submitted operations cannot be withdrawn and have no queue-level
// timeout, so a stalled call stalls everything behind it. That risk is
// accepted; the HTTP transport's own request timeout is the only bound.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by promises for operations submitted after Close.
var ErrClosed = errors.New("worker: queue closed")

// Operation is one unit of remote work. The context is the queue's run
// context, not the submitter's: cancelling a caller never cancels an
// operation that is already queued.
type Operation func(ctx context.Context) (interface{}, error)

// Promise is the single-assignment result of a submitted operation.
// It resolves exactly once, with either a value or an error.
type Promise struct {
	done  chan struct{}
	value interface{}
	err   error
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func (p *Promise) resolve(value interface{}, err error) {
	p.value = value
	p.err = err
	close(p.done)
}

// Done returns a channel closed when the promise has resolved, for
// callers that want to attach a continuation instead of blocking.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise resolves or ctx is cancelled. A Wait
// cancelled by ctx does not withdraw the operation; it still runs.
func (p *Promise) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type task struct {
	name    string
	op      Operation
	promise *Promise
}

// Queue is an unbounded FIFO of deferred remote operations drained by
// exactly one goroutine.
type Queue struct {
	delay time.Duration
	log   *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	items  []*task
	closed bool

	startOnce sync.Once
	stopped   chan struct{}
}

// New creates a queue with the given inter-call delay. The queue does not
// process anything until Start is called.
func New(delay time.Duration, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{
		delay:   delay,
		log:     log,
		stopped: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Delay returns the configured inter-call delay.
func (q *Queue) Delay() time.Duration {
	return q.delay
}

// Start launches the drain goroutine. ctx is the run context handed to
// every operation; cancelling it aborts in-flight HTTP work at process
// shutdown. Start is idempotent.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go q.drain(ctx)
	})
}

// Submit enqueues an operation and returns its promise. It never blocks.
// The name is only used for logging.
func (q *Queue) Submit(name string, op Operation) *Promise {
	p := newPromise()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		p.resolve(nil, ErrClosed)
		return p
	}
	q.items = append(q.items, &task{name: name, op: op, promise: p})
	q.mu.Unlock()

	q.cond.Signal()
	return p
}

// Close stops the drain goroutine after the operation in flight, if any,
// finishes. Remaining queued operations resolve with ErrClosed. Close
// blocks until the drain goroutine has exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.stopped
		return
	}
	q.closed = true
	remaining := q.items
	q.items = nil
	q.mu.Unlock()

	q.cond.Broadcast()
	for _, t := range remaining {
		t.promise.resolve(nil, ErrClosed)
	}
	// If Start was never called there is no drain goroutine to wait for.
	q.startOnce.Do(func() { close(q.stopped) })
	<-q.stopped
}

func (q *Queue) drain(ctx context.Context) {
	defer close(q.stopped)

	for {
		t, ok := q.next()
		if !ok {
			return
		}

		value, err := q.run(ctx, t)
		t.promise.resolve(value, err)
		if err != nil {
			q.log.Warn("api operation failed", "op", t.name, "err", err)
		}

		// Fixed spacing between consecutive remote calls.
		select {
		case <-time.After(q.delay):
		case <-ctx.Done():
			q.discardPending()
			return
		}
	}
}

// next blocks until an item is available or the queue closes.
func (q *Queue) next() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// run executes one operation, converting a panic into a failed result so
// the drain loop can never die.
func (q *Queue) run(ctx context.Context, t *task) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("worker: operation %s panicked: %v", t.name, r)
		}
	}()
	return t.op(ctx)
}

// discardPending fails everything still queued after the run context is
// cancelled mid-drain.
func (q *Queue) discardPending() {
	q.mu.Lock()
	q.closed = true
	remaining := q.items
	q.items = nil
	q.mu.Unlock()
	for _, t := range remaining {
		t.promise.resolve(nil, ErrClosed)
	}
}

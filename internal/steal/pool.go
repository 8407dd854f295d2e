package steal

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Errors
var (
	ErrClosed = errors.New("pool is closed")
)

// Task is a unit of work run on a pool worker.
// It may fork subtasks through the worker it is given.
type Task func(w *Worker) error

// ErrorHandler is called for every task error after the first one of an Invoke call
type ErrorHandler func(err error)

// Pool is a fork/join pool with a fixed number of workers.
//
// Every worker owns a deque. Tasks forked by a worker are pushed onto the back
// of its own deque and popped from the back (LIFO), while idle workers steal
// from the front of other workers' deques (FIFO), taking the oldest and
// typically largest pending subtrees.
type Pool struct {
	workers []*Worker
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	next    atomic.Uint32

	// invoke serializes Invoke calls so that errors are attributed to one task tree
	invoke  sync.Mutex
	aborted atomic.Bool
	errMu   sync.Mutex
	err     error
	onError ErrorHandler
}

// Worker is a pool worker. It is only valid inside the task it was passed to.
type Worker struct {
	id    int
	pool  *Pool
	mu    sync.Mutex
	deque []*task
}

type task struct {
	fn    Task
	group *group
	done  chan struct{}
}

// group counts the outstanding tasks of one fork. done is closed when pending reaches zero.
type group struct {
	pending atomic.Int64
	done    chan struct{}
}

func newGroup(pending int) *group {
	g := &group{done: make(chan struct{})}
	g.pending.Store(int64(pending))
	return g
}

func (g *group) finish() {
	if g.pending.Add(-1) == 0 {
		close(g.done)
	}
}

// New starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: make([]*Worker, workers),
		wake:    make(chan struct{}, workers),
		done:    make(chan struct{}),
	}

	for i := range p.workers {
		p.workers[i] = &Worker{id: i, pool: p}
	}

	p.wg.Add(workers)
	for _, w := range p.workers {
		go w.loop()
	}

	return p
}

// Workers returns the number of workers in the pool
func (p *Pool) Workers() int {
	return len(p.workers)
}

// Close stops the workers and waits for them to exit.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Invoke runs root on the pool and waits for it and every task it forked to finish.
// It returns the first error returned by, or recovered from, any task in the tree;
// later errors are passed to onError if it is not nil.
// If ctx is done first, the remaining tasks are skipped and ctx.Err() is returned
// once the tasks already running have returned.
func (p *Pool) Invoke(ctx context.Context, root Task, onError ErrorHandler) error {
	if p.closed.Load() {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.invoke.Lock()
	defer p.invoke.Unlock()

	p.aborted.Store(false)
	p.errMu.Lock()
	p.err = nil
	p.onError = onError
	p.errMu.Unlock()

	finished := make(chan struct{})
	g := newGroup(1)

	owner := p.workers[int(p.next.Add(1))%len(p.workers)]
	owner.push(&task{fn: root, group: g, done: finished})

	select {
	case <-finished:
		return p.firstError()
	case <-ctx.Done():
		// Unwind the tree quickly, then wait so no task outlives the call
		p.aborted.Store(true)
		<-finished
		return ctx.Err()
	}
}

func (p *Pool) fail(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()

	if p.err == nil {
		p.err = err
		return
	}

	if p.onError != nil {
		p.onError(err)
	}
}

func (p *Pool) firstError() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()

	return p.err
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
		// Enough wakeups are already pending
	}
}

// steal takes the oldest task from another worker's deque
func (p *Pool) steal(thief int) *task {
	n := len(p.workers)
	for i := 1; i < n; i++ {
		if t := p.workers[(thief+i)%n].popFront(); t != nil {
			return t
		}
	}
	return nil
}

func (w *Worker) loop() {
	defer w.pool.wg.Done()

	for {
		if t := w.popBack(); t != nil {
			w.run(t)
			continue
		}

		if t := w.pool.steal(w.id); t != nil {
			w.run(t)
			continue
		}

		select {
		case <-w.pool.done:
			return
		case <-w.pool.wake:
		}
	}
}

func (w *Worker) push(t *task) {
	w.mu.Lock()
	w.deque = append(w.deque, t)
	w.mu.Unlock()

	w.pool.signal()
}

func (w *Worker) popBack() *task {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.deque)
	if n == 0 {
		return nil
	}

	t := w.deque[n-1]
	w.deque[n-1] = nil
	w.deque = w.deque[:n-1]
	return t
}

func (w *Worker) popFront() *task {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.deque) == 0 {
		return nil
	}

	t := w.deque[0]
	w.deque[0] = nil
	w.deque = w.deque[1:]
	return t
}

// run executes a task, unless the tree was aborted, and marks it done in its group
func (w *Worker) run(t *task) {
	defer func() {
		t.group.finish()
		if t.done != nil {
			close(t.done)
		}
	}()

	if w.pool.aborted.Load() {
		return
	}

	w.exec(t.fn)
}

func (w *Worker) exec(fn Task) {
	defer func() {
		if err := recover(); err != nil {
			w.pool.fail(fmt.Errorf("panic running task: %v", err))
		}
	}()

	if err := fn(w); err != nil {
		w.pool.fail(err)
	}
}

// ID returns the index of the worker within its pool
func (w *Worker) ID() int {
	return w.id
}

// InvokeAll runs the tasks in parallel and returns once all of them have returned.
// The first task runs on the calling worker; the rest are forked and may be stolen.
// While waiting, the worker runs other pending tasks instead of blocking.
func (w *Worker) InvokeAll(tasks ...Task) {
	if len(tasks) == 0 {
		return
	}

	g := newGroup(len(tasks) - 1)

	for i := len(tasks) - 1; i >= 1; i-- {
		w.push(&task{fn: tasks[i], group: g})
	}

	if w.pool.aborted.Load() {
		w.join(g)
		return
	}

	w.exec(tasks[0])
	w.join(g)
}

// join helps with pending work until every task in g has returned
func (w *Worker) join(g *group) {
	for g.pending.Load() > 0 {
		if t := w.popBack(); t != nil {
			w.run(t)
			continue
		}

		if t := w.pool.steal(w.id); t != nil {
			w.run(t)
			continue
		}

		// Our remaining children are running on other workers.
		// Park until they finish or new work is pushed.
		select {
		case <-g.done:
		case <-w.pool.wake:
		}
	}
}

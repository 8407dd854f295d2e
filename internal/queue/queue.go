package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Errors
var (
	ErrShutdown = errors.New("queue has been shutdown")
)

// Queue is a worker queue with a fixed amount of workers
type Queue[T, R any] struct {
	ctx     context.Context
	queue   chan job[T, R]
	handler func(context.Context, T) (R, error)
	workers int
	wg      sync.WaitGroup
}

// Result is the outcome of a single job
type Result[T, R any] struct {
	Data  T
	Value R
	Err   error
}

type job[T, R any] struct {
	data   T
	result chan<- Result[T, R]
}

// New creates a new Queue with the specified amount of workers.
// The workers stop once ctx is cancelled.
func New[T, R any](ctx context.Context, workers int, handler func(context.Context, T) (R, error)) *Queue[T, R] {
	return &Queue[T, R]{
		ctx:     ctx,
		queue:   make(chan job[T, R]),
		handler: handler,
		workers: workers,
	}
}

// Workers returns the number of workers
func (q *Queue[T, R]) Workers() int {
	return q.workers
}

// Run starts the workers and blocks until all of them have exited
func (q *Queue[T, R]) Run() {
	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker()
	}

	q.wg.Wait()
}

func (q *Queue[T, R]) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.queue:
			job.result <- q.handle(job.data)
		}
	}
}

func (q *Queue[T, R]) handle(data T) (result Result[T, R]) {
	result.Data = data

	// A panicking job must not take the worker down with it
	defer func() {
		if err := recover(); err != nil {
			result.Err = fmt.Errorf("panic processing job: %v", err)
		}
	}()

	result.Value, result.Err = q.handler(q.ctx, data)
	return
}

// Submit hands a job to the next free worker without waiting for it to finish.
// The result is sent on results, which must have room for it.
func (q *Queue[T, R]) Submit(ctx context.Context, data T, results chan<- Result[T, R]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if q.ctx.Err() != nil {
		return ErrShutdown
	}

	select {
	case q.queue <- job[T, R]{data: data, result: results}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return ErrShutdown
	}
}

// Process adds a job to the queue, waits for it to process, and returns the result
func (q *Queue[T, R]) Process(ctx context.Context, data T) (R, error) {
	var zero R

	results := make(chan Result[T, R], 1)
	if err := q.Submit(ctx, data, results); err != nil {
		return zero, err
	}

	select {
	case result := <-results:
		if result.Err != nil {
			return zero, result.Err
		}
		return result.Value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

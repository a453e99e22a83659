// Package workerpool runs tasks on a fixed set of long-lived goroutines that
// share one queue.
package workerpool

import (
	"errors"
	"runtime"
	"sync"
)

var ErrClosed = errors.New("workerpool: pool is closed")

type job func()

type Pool struct {
	jobs chan job
	stop chan struct{}
	wg   sync.WaitGroup
	size int

	mu     sync.RWMutex
	closed bool
}

// New starts size workers. It panics if size is not positive.
func New(size int) *Pool {
	if size <= 0 {
		panic("workerpool: size must be positive")
	}
	p := &Pool{
		jobs: make(chan job, size*4),
		stop: make(chan struct{}),
		size: size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

// Default sizes the pool to the number of CPUs.
func Default() *Pool {
	return New(runtime.NumCPU())
}

func (p *Pool) Size() int { return p.size }

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		default:
		}
		select {
		case <-p.stop:
			return
		case j := <-p.jobs:
			j()
		}
	}
}

// Execute queues task and returns a channel that receives its result once.
// Any number of calls may be outstanding; each gets its own channel.
func Execute[T any](p *Pool, task func() T) (<-chan T, error) {
	result := make(chan T, 1)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	p.jobs <- func() { result <- task() }
	return result, nil
}

// Close signals every worker to stop and waits for them to exit. Once Execute
// reports ErrClosed the stop signal is already visible to the workers. A task a
// worker has already taken runs to completion; queued tasks nobody picked up
// are dropped and their result channels never receive.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
}

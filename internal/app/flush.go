package app

import "sync"

// flushQueue coalesces visibility flush requests. At most one flush runs at
// a time; requests arriving while one runs collapse into a single follow-up
// run after the current one finishes.
type flushQueue struct {
	mu      sync.Mutex
	running bool
	queued  bool
	run     func()
	idle    chan struct{} // closed while idle, for tests
}

func newFlushQueue(run func()) *flushQueue {
	closed := make(chan struct{})
	close(closed)
	return &flushQueue{run: run, idle: closed}
}

// Request schedules a flush. Safe to call from any goroutine.
func (q *flushQueue) Request() {
	q.mu.Lock()
	if q.running {
		q.queued = true
		q.mu.Unlock()
		return
	}
	q.running = true
	q.idle = make(chan struct{})
	q.mu.Unlock()

	go q.loop()
}

func (q *flushQueue) loop() {
	for {
		q.run()

		q.mu.Lock()
		if q.queued {
			q.queued = false
			q.mu.Unlock()
			continue
		}
		q.running = false
		close(q.idle)
		q.mu.Unlock()
		return
	}
}

// Wait blocks until no flush is running or queued
func (q *flushQueue) Wait() {
	for {
		q.mu.Lock()
		idle := q.idle
		q.mu.Unlock()
		<-idle

		q.mu.Lock()
		done := !q.running && !q.queued
		q.mu.Unlock()
		if done {
			return
		}
	}
}

package sqlite

import "sync"

// workQueue is an unbounded FIFO of closures. Push never blocks, so callers
// submitting work are never held up by a slow consumer.
type workQueue struct {
	mu     sync.Mutex
	items  []func()
	closed bool
	signal chan struct{} // buffered, size 1
}

func newWorkQueue() *workQueue {
	return &workQueue{
		items:  make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// push appends fn. It returns false if the queue is closed.
func (q *workQueue) push(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, fn)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryPop removes the front item without blocking.
func (q *workQueue) tryPop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	fn := q.items[0]
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return fn, true
}

// pop blocks until an item is available. It returns false once the queue
// is closed and drained.
func (q *workQueue) pop() (func(), bool) {
	for {
		if fn, ok := q.tryPop(); ok {
			return fn, true
		}

		q.mu.Lock()
		done := q.closed && len(q.items) == 0
		q.mu.Unlock()
		if done {
			return nil, false
		}

		<-q.signal
	}
}

// wait returns a channel that signals when items may be available.
func (q *workQueue) wait() <-chan struct{} {
	return q.signal
}

// len returns the number of queued items.
func (q *workQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops accepting items. Queued items can still be popped.
func (q *workQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

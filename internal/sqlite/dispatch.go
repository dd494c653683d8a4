package sqlite

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// Inline runs completions directly on the table worker that produced them.
// Callbacks must not block; a blocked callback stalls its table.
var Inline types.Dispatcher = types.DispatcherFunc(func(fn func()) { fn() })

// Goroutine runs every completion on a fresh goroutine. Completions are not
// ordered.
var Goroutine types.Dispatcher = types.DispatcherFunc(func(fn func()) { go fn() })

// Serial runs completions one at a time, in dispatch order, on a dedicated
// goroutine. It is the registry's default: callers observe completions on a
// single context, as a UI main loop would.
type Serial struct {
	queue *workQueue
	done  chan struct{}
	once  sync.Once
}

// NewSerial starts a Serial dispatcher. Call Close to stop it.
func NewSerial() *Serial {
	s := &Serial{
		queue: newWorkQueue(),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for {
			fn, ok := s.queue.pop()
			if !ok {
				return
			}
			fn()
		}
	}()
	return s
}

// Dispatch implements types.Dispatcher. After Close, fn runs on the calling
// goroutine so that no completion is lost.
func (s *Serial) Dispatch(fn func()) {
	if !s.queue.push(fn) {
		fn()
	}
}

// Close runs the completions already dispatched and stops the goroutine.
// It must not be called from inside a completion.
func (s *Serial) Close() {
	s.once.Do(func() {
		s.queue.close()
		<-s.done
	})
}

// Loop queues completions until the owner drains them on its own goroutine,
// either continuously with Run or in steps with Drain.
type Loop struct {
	queue *workQueue
}

// NewLoop returns an empty Loop.
func NewLoop() *Loop {
	return &Loop{queue: newWorkQueue()}
}

// Dispatch implements types.Dispatcher. After Close, fn runs on the calling
// goroutine.
func (l *Loop) Dispatch(fn func()) {
	if !l.queue.push(fn) {
		fn()
	}
}

// Drain runs every queued completion and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.queue.tryPop()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Run runs completions as they arrive until ctx is done or the loop is
// closed and drained.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-l.queue.wait():
			if !ok {
				l.Drain()
				return nil
			}
		}
	}
}

// Close stops accepting completions. Queued completions can still be drained.
func (l *Loop) Close() {
	l.queue.close()
}

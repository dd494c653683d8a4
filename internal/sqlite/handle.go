package sqlite

import (
	"fmt"
	"log/slog"
	"sync"
)

// handle is the serialized execution handle of one table. A single worker
// goroutine owns the connection and runs submitted work one item at a time,
// in submission order.
type handle struct {
	table  string
	conn   *conn
	queue  *workQueue
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// newHandle starts the worker for table over c.
func newHandle(table string, c *conn, logger *slog.Logger) *handle {
	h := &handle{
		table:  table,
		conn:   c,
		queue:  newWorkQueue(),
		logger: logger,
		done:   make(chan struct{}),
	}
	go h.loop()
	return h
}

// submit queues fn for exclusive execution against the connection. It
// returns false if the handle is closed.
func (h *handle) submit(fn func(c *conn)) bool {
	return h.queue.push(func() { fn(h.conn) })
}

// run submits fn and waits for it to finish.
func (h *handle) run(fn func(c *conn)) bool {
	finished := make(chan struct{})
	ok := h.submit(func(c *conn) {
		defer close(finished)
		fn(c)
	})
	if !ok {
		return false
	}
	<-finished
	return true
}

// pending returns the number of queued, not yet started, items.
func (h *handle) pending() int {
	return h.queue.len()
}

func (h *handle) loop() {
	defer close(h.done)
	for {
		fn, ok := h.queue.pop()
		if !ok {
			return
		}
		h.exec(fn)
	}
}

// exec runs one item, keeping the worker alive if it panics.
func (h *handle) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("table operation panicked",
				slog.String("table", h.table),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// close stops accepting work, waits for queued work to finish and closes
// the connection. Idempotent.
func (h *handle) close() error {
	h.closeOnce.Do(func() {
		h.queue.close()
		<-h.done
		h.closeErr = h.conn.close()
	})
	return h.closeErr
}

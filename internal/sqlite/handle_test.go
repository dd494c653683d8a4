package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

func TestWorkQueue(t *testing.T) {
	t.Run("fifo", func(t *testing.T) {
		q := newWorkQueue()
		var got []int
		for i := 0; i < 5; i++ {
			require.True(t, q.push(func() { got = append(got, i) }))
		}
		assert.Equal(t, 5, q.len())
		for {
			fn, ok := q.tryPop()
			if !ok {
				break
			}
			fn()
		}
		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
		assert.Equal(t, 0, q.len())
	})

	t.Run("closed queue drains then stops", func(t *testing.T) {
		q := newWorkQueue()
		ran := 0
		q.push(func() { ran++ })
		q.close()
		q.close()
		assert.False(t, q.push(func() { ran++ }))

		fn, ok := q.pop()
		require.True(t, ok)
		fn()
		_, ok = q.pop()
		assert.False(t, ok)
		assert.Equal(t, 1, ran)
	})

	t.Run("pop blocks until push", func(t *testing.T) {
		q := newWorkQueue()
		got := make(chan bool, 1)
		go func() {
			_, ok := q.pop()
			got <- ok
		}()
		time.Sleep(10 * time.Millisecond)
		q.push(func() {})
		select {
		case ok := <-got:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("pop did not wake up")
		}
	})
}

func newTestHandle(t *testing.T) *handle {
	t.Helper()
	cfg := types.Config{}.WithDefaults()
	c, err := openConn(cfg, filepath.Join(t.TempDir(), "h.sqlite"))
	require.NoError(t, err)
	h := newHandle("h", c, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { h.close() })
	return h
}

func TestHandle_SerializesInSubmissionOrder(t *testing.T) {
	h := newTestHandle(t)

	var (
		mu      sync.Mutex
		order   []int
		running int
		overlap bool
	)
	for i := 0; i < 50; i++ {
		require.True(t, h.submit(func(*conn) {
			mu.Lock()
			running++
			if running > 1 {
				overlap = true
			}
			order = append(order, i)
			mu.Unlock()

			time.Sleep(100 * time.Microsecond)

			mu.Lock()
			running--
			mu.Unlock()
		}))
	}
	require.True(t, h.run(func(*conn) {}))

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, overlap)
	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestHandle_SurvivesPanics(t *testing.T) {
	h := newTestHandle(t)
	require.True(t, h.submit(func(*conn) { panic("boom") }))

	ran := false
	require.True(t, h.run(func(*conn) { ran = true }))
	assert.True(t, ran)
}

func TestHandle_Close(t *testing.T) {
	h := newTestHandle(t)

	release := make(chan struct{})
	count := 0
	h.submit(func(*conn) { <-release })
	for i := 0; i < 10; i++ {
		h.submit(func(*conn) { count++ })
	}
	assert.GreaterOrEqual(t, h.pending(), 10)

	closed := make(chan error, 1)
	go func() { closed <- h.close() }()
	close(release)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
	assert.Equal(t, 10, count)
	assert.False(t, h.submit(func(*conn) {}))
	assert.False(t, h.run(func(*conn) {}))
	assert.NoError(t, h.close())
}

func TestSerial(t *testing.T) {
	s := NewSerial()

	var got []int
	for i := 0; i < 100; i++ {
		s.Dispatch(func() { got = append(got, i) })
	}
	s.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}

	ran := false
	s.Dispatch(func() { ran = true })
	assert.True(t, ran, "dispatch after close runs inline")
	s.Close()
}

func TestLoop_Drain(t *testing.T) {
	loop := NewLoop()
	defer loop.Close()
	r := setupRegistry(t, WithDispatcher(loop))

	require.NoError(t, r.Load(personSchema))

	var results []bool
	for i := 0; i < 3; i++ {
		r.Insert(&person{name: "p"}, func(ok bool) { results = append(results, ok) })
	}
	r.handle("Person").run(func(*conn) {})

	assert.Empty(t, results, "completions wait for the owner")
	assert.Equal(t, 3, loop.Drain())
	assert.Equal(t, []bool{true, true, true}, results)
	assert.Equal(t, 0, loop.Drain())
}

func TestLoop_Run(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int, 3)
	for i := 0; i < 3; i++ {
		go loop.Dispatch(func() { got <- i })
	}

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	seen := map[int]bool{}
	for len(seen) < 3 {
		select {
		case v := <-got:
			seen[v] = true
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not run completions")
		}
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestLoop_RunReturnsAfterClose(t *testing.T) {
	loop := NewLoop()
	ran := 0
	loop.Dispatch(func() { ran++ })
	loop.Close()

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 1, ran)
}

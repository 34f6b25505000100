package pipeline

import (
	"sync"
)

// Dispatcher delivers output callbacks onto the consumer's own execution
// context, e.g. a UI thread. Dispatch must preserve submission order.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function, typically a UI toolkit's "post to main
// loop" primitive, to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// InlineDispatcher runs callbacks on the build worker itself. Suitable for
// headless callers without thread affinity.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(fn func()) {
	fn()
}

// SerialDispatcher runs callbacks one at a time, in order, on a dedicated
// goroutine. Dispatch never blocks, so a callback may dispatch further
// callbacks; it must not call Close.
type SerialDispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialDispatcher starts the dispatch goroutine. queueSize is the
// initial queue capacity; the queue grows as needed.
func NewSerialDispatcher(queueSize int) *SerialDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &SerialDispatcher{
		queue: make([]func(), 0, queueSize),
		done:  make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

func (d *SerialDispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// Dispatch enqueues fn. Calls after Close are dropped.
func (d *SerialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, fn)
	d.cond.Signal()
}

// Close stops accepting callbacks and waits until the queued ones have run.
func (d *SerialDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}

package query

import (
	"context"
	"sync"
)

// Observer watches a single key at a time. Watching a new key supersedes
// the previous one: states of abandoned keys are never returned or
// delivered to listeners, even if their requests complete later.
type Observer[T any] struct {
	cl *Client[T]

	mu        sync.Mutex
	key       Key
	enabled   bool
	watching  bool
	cancel    func()
	listeners []func(State[T])

	changed chan struct{}
}

// Observe makes new Observer over the client.
func (c *Client[T]) Observe() *Observer[T] {
	return &Observer[T]{cl: c, changed: make(chan struct{}, 1)}
}

// Watch switches the observer to the key and returns its current state.
// If enabled is false, nothing is requested and the state remains idle.
// Watching the same key again does not trigger a new request.
func (o *Observer[T]) Watch(key Key, fn FetchFunc[T], enabled bool) State[T] {
	o.mu.Lock()
	if o.watching && o.key == key && o.enabled == enabled {
		o.mu.Unlock()
		return o.State()
	}

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.key, o.enabled, o.watching = key, enabled, true

	if !enabled {
		o.mu.Unlock()
		o.signal()
		return State[T]{Key: key, Status: StatusIdle}
	}

	o.cancel = o.cl.Subscribe(key, func(st State[T]) { o.deliver(key, st) })
	o.mu.Unlock()

	st := o.cl.Ensure(key, fn)
	o.signal()

	return st
}

// State returns the state of the current key.
func (o *Observer[T]) State() State[T] {
	o.mu.Lock()
	key, enabled, watching := o.key, o.enabled, o.watching
	o.mu.Unlock()

	if !watching || !enabled {
		return State[T]{Key: key, Status: StatusIdle}
	}

	return o.cl.Peek(key)
}

// Wait blocks until the current key is not loading anymore or
// until the context is done, and returns the latest state.
func (o *Observer[T]) Wait(ctx context.Context) State[T] {
	for {
		st := o.State()
		if st.Status != StatusLoading {
			return st
		}

		select {
		case <-o.changed:
		case <-ctx.Done():
			return o.State()
		}
	}
}

// OnChange registers fn to be called on state changes of the current key.
func (o *Observer[T]) OnChange(fn func(State[T])) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Close stops watching.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.watching = false
}

func (o *Observer[T]) deliver(key Key, st State[T]) {
	o.mu.Lock()
	if !o.watching || o.key != key || !o.enabled {
		o.mu.Unlock()
		return
	}
	listeners := make([]func(State[T]), len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
	o.signal()
}

func (o *Observer[T]) signal() {
	select {
	case o.changed <- struct{}{}:
	default:
	}
}

// Package query provides a keyed cache of remote resources, which
// deduplicates in-flight requests, keeps track of the loading state
// of every key and notifies subscribers about state changes.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Semior001/topviews/app/metrics"
	"github.com/Semior001/topviews/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

// Key identifies a resource: its kind and the parameters it was requested with.
type Key string

// NewKey makes a key from the resource kind and its parameters.
func NewKey(kind string, params ...string) Key {
	return Key(strings.Join(append([]string{kind}, params...), "/"))
}

// Status is a status of a query.
type Status int

// Query statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the latest known state of a key. Fetching is set while
// previously loaded data is being revalidated.
type State[T any] struct {
	Key       Key
	Status    Status
	Data      T
	Err       error
	Fetching  bool
	UpdatedAt time.Time
}

// FetchFunc loads the resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Opts defines options for Client.
type Opts struct {
	// Kind of resources, used in logs and metrics.
	Kind string
	// TTL of successful results, zero means forever.
	TTL time.Duration
	// MaxKeys to keep in memory, zero means unlimited.
	MaxKeys int
	// Timeout for a single fetch.
	Timeout time.Duration
	// Store persists successful results, optional.
	Store store.Interface
}

// Client keeps states of queries of a single kind.
type Client[T any] struct {
	log  *slog.Logger
	opts Opts

	data  cache.Cache[Key, result[T]]
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry[T]
	nextID  int

	now func() time.Time
}

type result[T any] struct {
	Data T
	At   time.Time
}

type entry[T any] struct {
	state State[T]
	subs  map[int]func(State[T])
}

// NewClient makes new Client.
func NewClient[T any](lg *slog.Logger, opts Opts) *Client[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	data := cache.NewCache[Key, result[T]]().WithLRU()
	if opts.TTL > 0 {
		data = data.WithTTL(opts.TTL)
	}
	if opts.MaxKeys > 0 {
		data = data.WithMaxKeys(opts.MaxKeys)
	}

	return &Client[T]{
		log:     lg,
		opts:    opts,
		data:    data,
		entries: map[Key]*entry[T]{},
		now:     time.Now,
	}
}

// CacheStat returns stats of the in-memory cache.
func (c *Client[T]) CacheStat() cache.Stats { return c.data.Stat() }

// Fetch returns the resource, waiting for it to load if there is no fresh
// result in memory or in the store. Concurrent calls for the same key share
// a single request.
func (c *Client[T]) Fetch(ctx context.Context, key Key, fn FetchFunc[T]) (T, error) {
	if r, ok := c.cached(ctx, key); ok {
		return r.Data, nil
	}

	select {
	case res := <-c.start(key, fn, State[T]{Key: key, Status: StatusLoading, UpdatedAt: c.now()}):
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ensure returns the current state of the key and loads the resource
// in background, unless it is already being loaded. Previously loaded
// data is returned right away and revalidated in background.
func (c *Client[T]) Ensure(key Key, fn FetchFunc[T]) State[T] {
	if st := c.Peek(key); st.Status == StatusLoading || st.Fetching {
		return st
	}

	st := State[T]{Key: key, Status: StatusLoading, UpdatedAt: c.now()}
	if r, ok := c.cached(context.Background(), key); ok {
		st = State[T]{Key: key, Status: StatusSuccess, Data: r.Data, Fetching: true, UpdatedAt: r.At}
	}

	c.start(key, fn, st)
	return st
}

// Peek returns the current state of the key without side effects.
func (c *Client[T]) Peek(key Key) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.state.Status != StatusIdle {
		return e.state
	}

	if r, ok := c.data.Peek(key); ok {
		return State[T]{Key: key, Status: StatusSuccess, Data: r.Data, UpdatedAt: r.At}
	}

	return State[T]{Key: key, Status: StatusIdle}
}

// Subscribe registers fn to be called on every state change of the key.
// The returned function cancels the subscription.
func (c *Client[T]) Subscribe(key Key, fn func(State[T])) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	id := c.nextID
	c.nextID++
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(e.subs, id)
			c.gc(key)
		})
	}
}

// cached returns the result from memory or, if there is none, from the store.
func (c *Client[T]) cached(ctx context.Context, key Key) (result[T], bool) {
	if r, ok := c.data.Get(key); ok {
		metrics.RecordLookup(c.opts.Kind, "hit")
		return r, true
	}

	v, ok := c.restore(ctx, key)
	if !ok {
		return result[T]{}, false
	}

	metrics.RecordLookup(c.opts.Kind, "store")
	r := result[T]{Data: v, At: c.now()}
	c.data.Set(key, r, 0)
	return r, true
}

// start sets the state of the key, which must be either loading or
// fetching, and joins or starts the request.
func (c *Client[T]) start(key Key, fn FetchFunc[T], st State[T]) <-chan singleflight.Result {
	c.settle(key, st)

	ch := c.group.DoChan(string(key), func() (any, error) { return c.load(key, fn) })

	out := make(chan singleflight.Result, 1)
	go func() {
		res := <-ch
		c.publish(key, res)
		out <- res
	}()

	return out
}

// load runs once per flight, detached from callers' contexts, as the
// result is shared between them.
func (c *Client[T]) load(key Key, fn FetchFunc[T]) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	metrics.RecordLookup(c.opts.Kind, "fetch")
	c.log.DebugCtx(ctx, "fetching", slog.String("key", string(key)))

	v, err := fn(ctx)
	if err != nil {
		c.log.WarnCtx(ctx, "failed to fetch", slog.String("key", string(key)), slog.Any("err", err))
		return v, err
	}

	c.data.Set(key, result[T]{Data: v, At: c.now()}, 0)
	c.persist(ctx, key, v)

	return v, nil
}

func (c *Client[T]) restore(ctx context.Context, key Key) (v T, ok bool) {
	if c.opts.Store == nil {
		return v, false
	}

	bts, err := c.opts.Store.Get(ctx, string(key))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.WarnCtx(ctx, "failed to get stored response",
				slog.String("key", string(key)), slog.Any("err", err))
		}
		return v, false
	}

	if err = json.Unmarshal(bts, &v); err != nil {
		c.log.WarnCtx(ctx, "failed to unmarshal stored response, dropping it",
			slog.String("key", string(key)), slog.Any("err", err))
		if err = c.opts.Store.Delete(ctx, string(key)); err != nil {
			c.log.WarnCtx(ctx, "failed to delete stored response",
				slog.String("key", string(key)), slog.Any("err", err))
		}
		return v, false
	}

	return v, true
}

func (c *Client[T]) persist(ctx context.Context, key Key, v T) {
	if c.opts.Store == nil {
		return
	}

	bts, err := json.Marshal(v)
	if err != nil {
		c.log.WarnCtx(ctx, "failed to marshal response", slog.String("key", string(key)), slog.Any("err", err))
		return
	}

	if err = c.opts.Store.Put(ctx, string(key), bts); err != nil {
		c.log.WarnCtx(ctx, "failed to store response", slog.String("key", string(key)), slog.Any("err", err))
	}
}

// publish applies the result of a flight. Every caller that joined
// the flight publishes, only the first one changes the state.
// A failed revalidation keeps the previous data in the error state.
func (c *Client[T]) publish(key Key, res singleflight.Result) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !pending(e.state) {
		c.mu.Unlock()
		return
	}

	if res.Err != nil {
		e.state = State[T]{Key: key, Status: StatusError, Data: e.state.Data, Err: res.Err, UpdatedAt: c.now()}
	} else {
		e.state = State[T]{Key: key, Status: StatusSuccess, Data: res.Val.(T), UpdatedAt: c.now()}
	}

	st, subs := e.state, c.subscribers(e)
	c.gc(key)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// settle sets the state of the key and notifies subscribers.
func (c *Client[T]) settle(key Key, st State[T]) {
	c.mu.Lock()
	e := c.entry(key)
	e.state = st
	subs := c.subscribers(e)
	c.gc(key)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// entry returns the entry of the key, creating it if needed, must be
// called under lock.
func (c *Client[T]) entry(key Key) *entry[T] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{state: State[T]{Key: key}, subs: map[int]func(State[T]){}}
		c.entries[key] = e
	}
	return e
}

// gc drops the entry of the key if nobody needs it anymore, must be
// called under lock. Successful data is still kept by the cache.
func (c *Client[T]) gc(key Key) {
	e, ok := c.entries[key]
	if !ok || len(e.subs) > 0 || pending(e.state) {
		return
	}
	delete(c.entries, key)
}

func pending[T any](st State[T]) bool { return st.Status == StatusLoading || st.Fetching }

func (c *Client[T]) subscribers(e *entry[T]) []func(State[T]) {
	subs := make([]func(State[T]), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return subs
}

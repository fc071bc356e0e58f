// Package pool provides a generic, type-safe object pool with usage
// statistics. The parser uses it to recycle per-row scratch state (token
// slices, unquote buffers) across the rows and chunks a worker processes.
//
// Example usage:
//
//	tokens := pool.New(
//	    func() *[]Token { s := make([]Token, 0, 16); return &s },
//	    func(s *[]Token) { *s = (*s)[:0] },
//	)
//	buf := tokens.Get()
//	defer tokens.Put(buf)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
//
// Pointer types are recommended for T so that Put does not allocate.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The reset function, if non-nil, is called before an object is returned to
// the pool.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats holds pool usage counters
type Stats struct {
	Allocated int64 // objects created by the factory
	InUse     int64 // objects currently checked out
	Gets      int64 // total Get calls
}

// Stats returns current pool statistics. Gets minus Allocated is the number
// of requests served by reuse.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Allocated: atomic.LoadInt64(&p.stats.allocated),
		InUse:     atomic.LoadInt64(&p.stats.inUse),
		Gets:      atomic.LoadInt64(&p.stats.gets),
	}
}

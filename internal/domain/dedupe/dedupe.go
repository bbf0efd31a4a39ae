// Package dedupe tracks document digests so a script is ingested at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen digests.
type Deduper interface {
	// SeenAndRecord reports whether digest was already recorded and records
	// it if not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, digest string) bool

	// Unrecord forgets digest so a later submission is accepted again. Used
	// when a recorded submission could not be enqueued.
	Unrecord(ctx context.Context, digest string)

	Size() int64
}

// entry is one digest in insertion order.
type entry struct {
	digest     string
	prev, next *entry
}

func (e *entry) reset() {
	e.digest = ""
	e.prev = nil
	e.next = nil
}

// inMemoryDeduper keeps digests in a map plus an insertion-ordered list.
// When bounded, the oldest digest is evicted once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*entry
	newest  *entry
	oldest  *entry
	maxSize int // <= 0 means unbounded
	size    atomic.Int64
	pool    sync.Pool
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*entry),
		pool: sync.Pool{
			New: func() any { return &entry{} },
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, digest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[digest]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	e := d.pool.Get().(*entry)
	e.digest = digest
	d.pushNewest(e)
	d.seen[digest] = e
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[digest]; ok {
		d.remove(e)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// pushNewest links e at the newest end. Caller holds d.mu.
func (d *inMemoryDeduper) pushNewest(e *entry) {
	e.prev = d.newest
	if d.newest != nil {
		d.newest.next = e
	}
	d.newest = e
	if d.oldest == nil {
		d.oldest = e
	}
}

// evictOldest drops the least recently recorded digest. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	if d.oldest != nil {
		d.remove(d.oldest)
	}
}

// remove unlinks e and returns it to the pool. Caller holds d.mu.
func (d *inMemoryDeduper) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		d.oldest = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		d.newest = e.prev
	}
	delete(d.seen, e.digest)
	e.reset()
	d.pool.Put(e)
	d.size.Add(-1)
}

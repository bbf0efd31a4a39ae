package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/strokeheat/pkg/metrics"
)

// node is a treap node keyed by (speed desc, id asc) with a size for order
// statistics. Priorities come from a hash of the id so the shape does not
// depend on insertion order.
type node struct {
	id    string
	speed float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, speed float64) *node {
	if n == nil {
		return &node{id: id, speed: speed, prio: priority(id), size: 1}
	}
	if before(speed, id, n.speed, n.id) {
		n.left = insert(n.left, id, speed)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, speed)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, speed float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, speed)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, speed)
		}
	case before(speed, id, n.speed, n.id):
		n.left = remove(n.left, id, speed)
	default:
		n.right = remove(n.right, id, speed)
	}
	fix(n)
	return n
}

// countFaster returns how many nodes have a speed strictly above speed.
func countFaster(n *node, speed float64) int {
	count := 0
	for n != nil {
		if n.speed > speed {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends up to limit ids in rank order.
func collect(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collect(n.right, limit, out)
	}
}

// MemoryStore is an in-memory Store backed by a treap.
type MemoryStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]Record
}

// NewMemoryStore creates an empty in-memory library.
func NewMemoryStore() *MemoryStore {
	metrics.UpdateLibrarySize(0)
	return &MemoryStore{byID: make(map[string]Record)}
}

// Put inserts or replaces a record in O(log n) expected time.
func (s *MemoryStore) Put(_ context.Context, r Record) error {
	if r.ID == "" {
		return ErrInvalidID
	}
	start := time.Now()
	defer func() {
		metrics.RecordLibraryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	r.Rank = 0
	s.mu.Lock()
	if old, ok := s.byID[r.ID]; ok {
		s.root = remove(s.root, old.ID, old.Stats.AverageSpeed)
	}
	s.byID[r.ID] = r
	s.root = insert(s.root, r.ID, r.Stats.AverageSpeed)
	size := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLibrarySize(size)
	return nil
}

// Get returns a record with its rank.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLibraryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.Rank = countFaster(s.root, r.Stats.AverageSpeed) + 1
	return r, nil
}

// TopN returns the n fastest records.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]Record, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	start := time.Now()
	defer func() {
		metrics.RecordLibraryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, min(n, len(s.byID)))
	collect(s.root, n, &ids)
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = s.byID[id]
	}
	assignRanks(out)
	return out, nil
}

// Count returns the number of records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

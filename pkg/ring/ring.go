package ring

import "sync"

// Buffer is a thread-safe circular buffer with O(1) append that evicts the
// oldest entry once full. A Buffer created with capacity <= 0 never evicts.
type Buffer[T any] struct {
	mu      sync.RWMutex // protects all fields
	entries []T          // backing storage; len == capN when bounded
	capN    int          // 0 => unbounded
	head    int          // next write position (bounded mode)
	size    int          // number of live entries
	total   uint64       // entries ever appended
	gen     uint64       // bumped by Retain; invalidates cursors
}

// Cursor marks a position in the append stream of a Buffer.
type Cursor struct {
	gen   uint64
	total uint64
}

// New returns a buffer holding at most capacity entries (<= 0: unbounded).
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		return &Buffer[T]{}
	}
	return &Buffer[T]{entries: make([]T, capacity), capN: capacity}
}

// Append adds an entry, overwriting the oldest if full.
// Reports whether an entry was evicted.
//
// Complexity: O(1) amortized
func (b *Buffer[T]) Append(v T) (evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total++
	if b.capN == 0 {
		b.entries = append(b.entries, v)
		b.size++
		return false
	}

	b.entries[b.head] = v
	b.head = (b.head + 1) % b.capN

	if b.size == b.capN {
		return true
	}
	b.size++
	return false
}

// Items returns all entries oldest → newest in a NEW slice (caller owns memory). Never nil.
//
// Complexity: O(N)
func (b *Buffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.itemsLocked()
}

// Snapshot returns all entries like Items, plus a cursor positioned after the newest.
func (b *Buffer[T]) Snapshot() ([]T, Cursor) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.itemsLocked(), Cursor{gen: b.gen, total: b.total}
}

// Since returns the entries appended after c, oldest → newest, and the cursor
// to pass next time. Entries already evicted are skipped. ok is false when a
// Retain ran after c was taken; the caller must start over from Snapshot.
func (b *Buffer[T]) Since(c Cursor) (items []T, next Cursor, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	next = Cursor{gen: b.gen, total: b.total}
	if c.gen != b.gen || c.total > b.total {
		return nil, next, false
	}
	n := b.total - c.total
	if n > uint64(b.size) {
		n = uint64(b.size)
	}
	all := b.itemsLocked()
	return all[len(all)-int(n):], next, true
}

func (b *Buffer[T]) itemsLocked() []T {
	out := make([]T, b.size)
	if b.capN == 0 {
		copy(out, b.entries)
		return out
	}
	// oldest sits at head when full, at 0 otherwise
	start := 0
	if b.size == b.capN {
		start = b.head
	}
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(start+i)%b.capN]
	}
	return out
}

// Retain keeps only the entries for which keep returns true, preserving order.
// Dropped entries are gone for good. Returns the number of entries removed.
func (b *Buffer[T]) Retain(keep func(T) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.itemsLocked()
	kept := items[:0]
	for _, v := range items {
		if keep(v) {
			kept = append(kept, v)
		}
	}
	removed := len(items) - len(kept)

	if b.capN == 0 {
		b.entries = kept
	} else {
		var zero T
		for i := range b.entries {
			b.entries[i] = zero
		}
		copy(b.entries, kept)
		b.head = len(kept) % b.capN
	}
	b.size = len(kept)
	b.gen++
	return removed
}

// Len returns the number of live entries.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the configured capacity (0: unbounded).
func (b *Buffer[T]) Cap() int { return b.capN }

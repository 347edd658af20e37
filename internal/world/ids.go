// Package world holds the concurrent in-memory directories of users,
// rooms and games that make up the lobby's shared state, plus the ID
// allocator shared across all three.
package world

import "sync"

// FirstID is the first ID ever handed out by the allocator. ID 0 is
// reserved to mean "no room" and is never allocated.
const FirstID uint32 = 0x1000

// IDAllocator issues IDs for users, rooms and games out of a single
// 32-bit space. IDs are drawn from a monotonically increasing counter;
// freed IDs are pushed onto a recycle queue and preferred over the
// counter on the next allocation. Safe for concurrent use.
type IDAllocator struct {
	mu      sync.Mutex
	next    uint32
	recycle []uint32
}

// NewIDAllocator returns an allocator starting at FirstID.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: FirstID}
}

// Alloc returns a recycled ID if one is available, otherwise the
// counter's current value, then advances the counter. If the counter
// is ever found below FirstID (defensive: misuse or overflow) it is
// reset to FirstID before use.
func (a *IDAllocator) Alloc() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.recycle); n > 0 {
		id := a.recycle[n-1]
		a.recycle = a.recycle[:n-1]
		return id
	}

	if a.next < FirstID {
		a.next = FirstID
	}
	id := a.next
	a.next++
	return id
}

// Free returns id to the recycle pool so a subsequent Alloc prefers it
// over the monotonic counter.
func (a *IDAllocator) Free(id uint32) {
	if id == 0 {
		return
	}
	a.mu.Lock()
	a.recycle = append(a.recycle, id)
	a.mu.Unlock()
}

package slotalloc

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/internal/debug"
)

// slot is the tagged-union cell backing one Index: either Occupied (holds
// a value) or Vacant (a free-list node pointing at the next free index).
//
// This mirrors the teacher's arena/recycle.go free-list cell, which
// overwrites the first machine word of a released block with the next
// pointer; here the "block" is a whole Go value of T. All three fields
// always exist: the occupied flag decides whether value or next is the
// meaningful one, and the allocator's methods keep to that rule.
type slot[T any] struct {
	occupied bool
	value    T
	next     Index
}

// StoredSlot is the unique owning handle for a filled (or about-to-be-filled,
// see ReserveSlot) slot. It cannot be turned back into a free slot except by
// passing it to Remove or FreeReservedSlot.
type StoredSlot struct {
	idx Index
}

// Index returns the slot index this handle owns.
func (s StoredSlot) Index() Index { return s.idx }

// ReservedSlot is a non-owning, transaction-scoped claim on a slot index
// that has not yet been filled. It must be consumed by exactly one of
// FillReservedSlot or FreeReservedSlot.
type ReservedSlot struct {
	idx Index
}

// Index returns the slot index this reservation claims.
func (r ReservedSlot) Index() Index { return r.idx }

// Allocator issues and manages Index identities for values of type T held
// in this allocator's own backing store (a slice of pointers, so that
// BorrowMut's returned pointer survives the store growing).
type Allocator[T any] struct {
	reuse bool

	// entries[i] backs Index(First) + Index(i). A *slot[T] rather than a
	// slot[T] so that growing entries (append) never invalidates a
	// pointer returned by BorrowMut.
	entries []*slot[T]

	freeHead  Index // Null if the free list is empty
	freeCount int
	next      Index // next fresh index to hand out once the free list is empty
}

// New creates an empty allocator. reuse selects whether removed slots are
// recycled (true) or permanently abandoned (false).
func New[T any](reuse bool) *Allocator[T] {
	return &Allocator[T]{reuse: reuse, next: First}
}

func (a *Allocator[T]) pos(i Index) int { return int(i - First) }

func (a *Allocator[T]) entryAt(i Index) *slot[T] {
	p := a.pos(i)
	if p < 0 || p >= len(a.entries) {
		return nil
	}

	return a.entries[p]
}

// AllocateSpare pushes n freshly created Vacant slots onto the free list so
// that future Reserve calls are O(1) and cost-free. Only valid when the
// allocator was constructed with reuse=true.
func (a *Allocator[T]) AllocateSpare(n int) error {
	if !a.reuse {
		return bmerr.New(bmerr.KindCannotHaveSparesWithoutReuse, "SlotAllocator.AllocateSpare")
	}

	for i := 0; i < n; i++ {
		idx := a.next
		a.next++

		s := &slot[T]{next: a.freeHead}
		a.entries = append(a.entries, s)
		a.freeHead = idx
		a.freeCount++

		debug.Log(nil, "allocate_spare", "idx=%d", idx)
	}

	return nil
}

// popFree pops the head of the free list, if any, returning its index.
func (a *Allocator[T]) popFree() (Index, bool) {
	if a.freeHead.IsNull() {
		return Null, false
	}

	idx := a.freeHead
	s := a.entryAt(idx)
	a.freeHead = s.next
	a.freeCount--

	return idx, true
}

// ReserveSlot claims an index (reused from the free list if available, else
// the next monotonic index) without writing a value. The returned handles
// share that one index.
func (a *Allocator[T]) ReserveSlot() (StoredSlot, ReservedSlot) {
	idx, ok := a.popFree()
	if !ok {
		idx = a.next
		a.next++
		a.entries = append(a.entries, &slot[T]{})
	}

	debug.Log(nil, "reserve_slot", "idx=%d", idx)

	return StoredSlot{idx}, ReservedSlot{idx}
}

// FillReservedSlot consumes a reservation, writing v as the slot's
// Occupied value.
func (a *Allocator[T]) FillReservedSlot(r ReservedSlot, v T) {
	s := a.entryAt(r.idx)
	s.occupied = true
	s.value = v

	debug.Log(nil, "fill_reserved_slot", "idx=%d", r.idx)
}

// Add reserves a slot and immediately fills it, returning the owning handle.
func (a *Allocator[T]) Add(v T) StoredSlot {
	stored, reserved := a.ReserveSlot()
	a.FillReservedSlot(reserved, v)

	return stored
}

// Remove removes the value owned by s, returning it. The index is pushed
// onto the free list if this allocator recycles, else permanently dropped.
func (a *Allocator[T]) Remove(s StoredSlot) (T, error) {
	e := a.entryAt(s.idx)
	if e == nil || !e.occupied {
		var zero T
		return zero, bmerr.New(bmerr.KindInvalidArgument, "SlotAllocator.Remove")
	}

	v := e.value
	a.releaseEntry(s.idx, e)

	debug.Log(nil, "remove", "idx=%d", s.idx)

	return v, nil
}

func (a *Allocator[T]) releaseEntry(idx Index, e *slot[T]) {
	var zero T
	e.occupied = false
	e.value = zero

	if a.reuse {
		e.next = a.freeHead
		a.freeHead = idx
		a.freeCount++
	}
	// else: permanently abandoned; entry stays non-occupied and off the
	// free list, so its index is never handed out again.
}

// RemoveAndReserve atomically takes the value out of the slot at idx and
// returns a reservation for the same index, so the caller can refill it
// with a different value without ever holding two mutable views of the
// slot at once. Used by split/merge rebalancing (see pkg/bigmap).
func (a *Allocator[T]) RemoveAndReserve(idx Index) (ReservedSlot, T, error) {
	e := a.entryAt(idx)
	if e == nil || !e.occupied {
		var zero T
		return ReservedSlot{}, zero, bmerr.New(bmerr.KindInvalidArgument, "SlotAllocator.RemoveAndReserve")
	}

	v := e.value

	var zero T
	e.occupied = false
	e.value = zero

	debug.Log(nil, "remove_and_reserve", "idx=%d", idx)

	return ReservedSlot{idx}, v, nil
}

// FreeReservedSlot releases a reservation and its paired owning handle,
// which must reference the same index.
func (a *Allocator[T]) FreeReservedSlot(r ReservedSlot, s StoredSlot) error {
	if r.idx != s.idx {
		return bmerr.New(bmerr.KindInvalidArgument, "SlotAllocator.FreeReservedSlot")
	}

	e := a.entryAt(r.idx)
	a.releaseEntry(r.idx, e)

	debug.Log(nil, "free_reserved_slot", "idx=%d", r.idx)

	return nil
}

// Borrow returns a read-only pointer to the value at idx. It fails if the
// slot is vacant or the index was never allocated.
func (a *Allocator[T]) Borrow(idx Index) (*T, error) {
	e := a.entryAt(idx)
	if e == nil || !e.occupied {
		return nil, bmerr.New(bmerr.KindKeyNotFound, "SlotAllocator.Borrow")
	}

	return &e.value, nil
}

// BorrowMut returns a mutable pointer to the value at idx. Same contract as
// Borrow. The returned pointer remains valid across further allocator
// growth because entries are stored as *slot[T], not slot[T].
func (a *Allocator[T]) BorrowMut(idx Index) (*T, error) {
	e := a.entryAt(idx)
	if e == nil || !e.occupied {
		return nil, bmerr.New(bmerr.KindKeyNotFound, "SlotAllocator.BorrowMut")
	}

	return &e.value, nil
}

// SpareCount returns the number of indices currently sitting on the free
// list, available for O(1) reuse.
func (a *Allocator[T]) SpareCount() int { return a.freeCount }

// Len returns the number of indices ever handed out by this allocator
// (occupied, reserved, or on the free list), not counting permanently
// abandoned ones beyond their own slot.
func (a *Allocator[T]) Len() int { return len(a.entries) }

// DestroyEmpty drains the free list and asserts no Occupied slots remain.
func (a *Allocator[T]) DestroyEmpty() error {
	for _, e := range a.entries {
		if e.occupied {
			return bmerr.New(bmerr.KindMapNotEmpty, "SlotAllocator.DestroyEmpty")
		}
	}

	a.entries = nil
	a.freeHead = Null
	a.freeCount = 0

	return nil
}

// Package slotalloc implements the storage-slot allocator described by
// BigMap's L1 layer: stable u64 identities ("slot indices") backing values
// of an arbitrary type T, with reservation, fill, removal, and optional
// free-list recycling.
//
// The free-list algorithm is a direct port of the teacher arena's
// single-size-class recycler (an intrusive singly-linked list threaded
// through released slots, LIFO push/pop) generalized from raw byte blocks
// to a homogeneous, safely-typed backing slice. See Allocator for details.
package slotalloc

// Index is a slot identity. It is a distinct type (rather than a bare
// uint64) so that NULL/ROOT/FIRST can't be confused with arbitrary
// integers at a call site.
type Index uint64

const (
	// Null is the reserved "no slot" identity.
	Null Index = 0

	// Root is the first special-unused index, reserved for the caller's
	// own logical alias (BigMap uses it for its inline root node).
	Root Index = 1

	// First is the first index this package will ever allocate.
	First Index = 10
)

// IsNull reports whether i is the Null index.
func (i Index) IsNull() bool { return i == Null }

// IsSpecialUnused reports whether i lies in [1, First), a range this
// package never allocates into and leaves for higher-layer sentinels.
func (i Index) IsSpecialUnused() bool { return i > Null && i < First }

// Package bmerr defines the typed errors shared by pkg/slotalloc,
// pkg/sortedmap and pkg/bigmap.
//
// Every error the engine returns across a public API boundary wraps one of
// the Kind values below, so callers can match on Kind rather than on
// free-text messages.
package bmerr

import (
	"errors"
	"fmt"

	"github.com/endless-labs/btreemap/pkg/xerrors"
)

// Kind discriminates the engine's failure taxonomy.
type Kind int

const (
	// KindUnknown is the zero value and never returned by the engine.
	KindUnknown Kind = iota

	// KindKeyAlreadyExists is EKEY_ALREADY_EXISTS.
	KindKeyAlreadyExists
	// KindKeyNotFound is EKEY_NOT_FOUND.
	KindKeyNotFound
	// KindIterOutOfBounds is EITER_OUT_OF_BOUNDS.
	KindIterOutOfBounds
	// KindInvalidConfigParameter is EINVALID_CONFIG_PARAMETER.
	KindInvalidConfigParameter
	// KindMapNotEmpty is EMAP_NOT_EMPTY.
	KindMapNotEmpty
	// KindArgumentBytesTooLarge is EARGUMENT_BYTES_TOO_LARGE.
	KindArgumentBytesTooLarge
	// KindKeyBytesTooLarge is EKEY_BYTES_TOO_LARGE.
	KindKeyBytesTooLarge
	// KindBorrowMutRequiresConstantValueSize is EBORROW_MUT_REQUIRES_CONSTANT_VALUE_SIZE.
	KindBorrowMutRequiresConstantValueSize
	// KindCannotUseNewWithVariableSizedTypes is ECANNOT_USE_NEW_WITH_VARIABLE_SIZED_TYPES.
	KindCannotUseNewWithVariableSizedTypes
	// KindCannotHaveSparesWithoutReuse is ECANNOT_HAVE_SPARES_WITHOUT_REUSE.
	KindCannotHaveSparesWithoutReuse
	// KindInvalidArgument is EINVALID_ARGUMENT.
	KindInvalidArgument
	// KindNewKeyNotInOrder is ENEW_KEY_NOT_IN_ORDER.
	KindNewKeyNotInOrder
	// KindInternalInvariantBroken is EINTERNAL_INVARIANT_BROKEN.
	KindInternalInvariantBroken
)

//nolint:cyclop
func (k Kind) String() string {
	switch k {
	case KindKeyAlreadyExists:
		return "EKEY_ALREADY_EXISTS"
	case KindKeyNotFound:
		return "EKEY_NOT_FOUND"
	case KindIterOutOfBounds:
		return "EITER_OUT_OF_BOUNDS"
	case KindInvalidConfigParameter:
		return "EINVALID_CONFIG_PARAMETER"
	case KindMapNotEmpty:
		return "EMAP_NOT_EMPTY"
	case KindArgumentBytesTooLarge:
		return "EARGUMENT_BYTES_TOO_LARGE"
	case KindKeyBytesTooLarge:
		return "EKEY_BYTES_TOO_LARGE"
	case KindBorrowMutRequiresConstantValueSize:
		return "EBORROW_MUT_REQUIRES_CONSTANT_VALUE_SIZE"
	case KindCannotUseNewWithVariableSizedTypes:
		return "ECANNOT_USE_NEW_WITH_VARIABLE_SIZED_TYPES"
	case KindCannotHaveSparesWithoutReuse:
		return "ECANNOT_HAVE_SPARES_WITHOUT_REUSE"
	case KindInvalidArgument:
		return "EINVALID_ARGUMENT"
	case KindNewKeyNotInOrder:
		return "ENEW_KEY_NOT_IN_ORDER"
	case KindInternalInvariantBroken:
		return "EINTERNAL_INVARIANT_BROKEN"
	default:
		return "EUNKNOWN"
	}
}

// Error is the concrete error type returned by this module's public APIs.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "SlotAllocator.Borrow".
	Op string
	// Err is an optional wrapped cause.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for the given kind and operation.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap constructs an *Error for the given kind and operation, wrapping cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is (or wraps) a *bmerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := xerrors.AsA[*Error](err)
	return ok && e.Kind == kind
}

// KindOf returns the Kind of err, or KindUnknown if err is not a *bmerr.Error.
func KindOf(err error) Kind {
	e, ok := xerrors.AsA[*Error](err)
	if !ok {
		return KindUnknown
	}

	return e.Kind
}

// errAssertionFailed is the sentinel wrapped by internal invariant panics so
// that a recover() at the nearest public boundary can distinguish it from
// an unrelated panic.
var errAssertionFailed = errors.New("internal invariant broken")

// Invariant panics with a recoverable internal-invariant error if cond is
// false. Callers recover this at the nearest public API boundary via
// Recover.
func Invariant(cond bool, op, format string, args ...any) {
	if cond {
		return
	}

	panic(Wrap(KindInternalInvariantBroken, op, fmt.Errorf("%w: "+format, append([]any{errAssertionFailed}, args...)...)))
}

// Recover turns a panic raised by Invariant into a returned error. The
// public BigMap mutators (Add, Upsert, Remove, PopFront, PopBack) call it
// via defer at their top; SlotAllocator and SortedMap methods never raise
// Invariant panics and do not call it.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}

	panic(r)
}

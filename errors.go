package treedelta

import (
	"errors"
	"fmt"
)

// Kind classifies the ways a diff, resolve, or apply call can fail. Kinds
// are a closed set: callers branch on Kind rather than matching on error
// strings or sentinel values.
type Kind uint8

const (
	// KindUnknown is the zero value and should never be returned.
	KindUnknown Kind = iota
	// KindInvalidTree covers a cycle, a double parent, or a corrupt index.
	KindInvalidTree
	// KindUnsupportedType covers an unknown operation tag in a patch, or an
	// unsupported payload family.
	KindUnsupportedType
	// KindResolutionFailed means no anchor in the target scored above the
	// resolver's minimum threshold.
	KindResolutionFailed
	// KindApplyPrecondition means the remove list does not match the nodes
	// found at the resolved anchor.
	KindApplyPrecondition
	// KindHashCollisionDetected means a tree-hash collision was demoted to
	// "not equal" by the structural recheck. Callers should not normally
	// see this kind surfaced; it exists for completeness and diagnostics.
	KindHashCollisionDetected
	// KindParameterError covers an API contract violation: a missing
	// index, an attempt to re-pair an already-matched node, etc.
	KindParameterError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidTree:
		return "InvalidTree"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindResolutionFailed:
		return "ResolutionFailed"
	case KindApplyPrecondition:
		return "ApplyPrecondition"
	case KindHashCollisionDetected:
		return "HashCollisionDetected"
	case KindParameterError:
		return "ParameterError"
	default:
		return "Unknown"
	}
}

// Error is the structured failure type returned by every exported
// treedelta function that can fail. Within a single Diff or Apply call the
// first InvalidTree or ParameterError aborts with no side effects.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "Tree.Append"
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// newErr builds an *Error, the constructor every component in this module
// funnels failures through.
func newErr(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// NewError is newErr exported for adapter packages, which need to
// produce the same typed errors (e.g. UnsupportedType for a payload
// value their family doesn't understand) without reaching into this
// package's internals.
func NewError(kind Kind, op, message string, cause error) *Error {
	return newErr(kind, op, message, cause)
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, returning KindUnknown otherwise.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

package snapshot

import (
	"errors"
	"fmt"
)

/*
Errors returned while resolving references in a snapshot. All of them indicate
a malformed snapshot; a layout pass that encounters one is aborted.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrMalformed is wrapped by Decode when the payload is not a valid snapshot
// encoding.
var ErrMalformed = errors.New("malformed snapshot")

// IsMalformed reports whether err describes a snapshot that cannot be laid
// out, either because it failed to decode or because a reference in it does
// not resolve.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, InvalidNodeKindError{}) ||
		errors.Is(err, DanglingReferenceError{}) ||
		errors.Is(err, InvalidMergeError{})
}

// InvalidNodeKindError is returned when a reference carries an unrecognized
// node type tag.
type InvalidNodeKindError struct {
	Ref NodeRef
}

// Error returns a string representation of the error.
func (e InvalidNodeKindError) Error() string {
	return fmt.Sprintf("invalid node kind in reference %s", e.Ref)
}

// Is returns true if the target error is an InvalidNodeKindError.
func (e InvalidNodeKindError) Is(target error) bool {
	_, ok := target.(InvalidNodeKindError)
	return ok
}

// DanglingReferenceError is returned when a reference's index is outside the
// bounds of its table.
type DanglingReferenceError struct {
	Ref       NodeRef
	TableSize int
}

// Error returns a string representation of the error.
func (e DanglingReferenceError) Error() string {
	return fmt.Sprintf("reference %s out of range for %d %s nodes", e.Ref, e.TableSize, e.Ref.Kind)
}

// Is returns true if the target error is a DanglingReferenceError.
func (e DanglingReferenceError) Is(target error) bool {
	_, ok := target.(DanglingReferenceError)
	return ok
}

// InvalidMergeError is returned when a merge marker names a key index that
// has no right-hand sibling in its parent.
type InvalidMergeError struct {
	Parent   NodeRef
	KeyIdx   int
	Children int
}

// Error returns a string representation of the error.
func (e InvalidMergeError) Error() string {
	return fmt.Sprintf("merge key index %d invalid for %s with %d children", e.KeyIdx, e.Parent, e.Children)
}

// Is returns true if the target error is an InvalidMergeError.
func (e InvalidMergeError) Is(target error) bool {
	_, ok := target.(InvalidMergeError)
	return ok
}

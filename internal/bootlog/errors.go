package bootlog

import (
	"errors"
	"fmt"
)

// Result codes preserved from the original mtd tool so existing callers
// and scripts keep seeing the numbers they were built against.
const (
	CodeSuccess             = 0
	CodeGeometryUnavailable = -1
	CodeAllocationFailed    = -2
	CodeCorruptMagic        = -3
	CodeFullEraseFailed     = -4
	CodeBlockEraseFailed    = -5
	CodeWriteFailed         = -6
)

// GeometryError indicates the device geometry could not be obtained.
type GeometryError struct{ Err error }

func (e *GeometryError) Error() string {
	return fmt.Sprintf("bootlog: unable to obtain device geometry: %v", e.Err)
}
func (e *GeometryError) Unwrap() error { return e.Err }

// AllocationError indicates the derived layout is unusable (the erase-unit
// scratch buffer would be empty or absurdly large).
type AllocationError struct{ Err error }

func (e *AllocationError) Error() string {
	return fmt.Sprintf("bootlog: cannot size scan buffer: %v", e.Err)
}
func (e *AllocationError) Unwrap() error { return e.Err }

// CorruptMagicError indicates a slot whose magic is neither the record
// magic nor the erased-fill pattern. The operation aborts without touching
// the device: an unexpected magic means this partition should not be
// modified automatically.
type CorruptMagicError struct {
	Offset uint32
	Magic  uint32
}

func (e *CorruptMagicError) Error() string {
	return fmt.Sprintf("bootlog: unexpected magic %08x at offset %08x; aborting", e.Magic, e.Offset)
}

// EraseError indicates a failed erase. Full reports whether the failed
// erase covered the whole device (log full) or a single block.
type EraseError struct {
	Full   bool
	Offset uint32
	Length uint32
	Err    error
}

func (e *EraseError) Error() string {
	if e.Full {
		return fmt.Sprintf("bootlog: failed to erase full boot-count log (%d bytes): %v", e.Length, e.Err)
	}
	return fmt.Sprintf("bootlog: failed to erase boot-count log block [%d,%d): %v", e.Offset, e.Offset+e.Length, e.Err)
}
func (e *EraseError) Unwrap() error { return e.Err }

// WriteError indicates the reset record (or its sync to stable media)
// failed. The block it belongs to may already be erased; the device can be
// left partially rewritten. There is no transactional guarantee across the
// erase+write pair.
type WriteError struct {
	Offset uint32
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("bootlog: failed to write boot-count record at %d: %v", e.Offset, e.Err)
}
func (e *WriteError) Unwrap() error { return e.Err }

// ResultCode maps an error returned by Reset (or Scan) to the original
// tool's numeric result codes. A nil error is CodeSuccess.
func ResultCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var (
		ge *GeometryError
		ae *AllocationError
		ce *CorruptMagicError
		ee *EraseError
		we *WriteError
	)
	switch {
	case errors.As(err, &ge):
		return CodeGeometryUnavailable
	case errors.As(err, &ae):
		return CodeAllocationFailed
	case errors.As(err, &ce):
		return CodeCorruptMagic
	case errors.As(err, &ee):
		if ee.Full {
			return CodeFullEraseFailed
		}
		return CodeBlockEraseFailed
	case errors.As(err, &we):
		return CodeWriteFailed
	default:
		return CodeWriteFailed
	}
}

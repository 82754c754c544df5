// Package flashdev provides access to raw erase-before-write flash
// partitions through a small capability interface, with implementations
// for Linux MTD character devices, flash image files, and an in-memory
// fake for tests.
package flashdev

import "errors"

var (
	// ErrUnsupported indicates the platform cannot open real MTD devices.
	ErrUnsupported = errors.New("flashdev: mtd devices not supported on this platform")
	// ErrOutOfBounds indicates a read or write past the end of the device.
	ErrOutOfBounds = errors.New("flashdev: access out of bounds")
	// ErrBadErase indicates an erase range that is not aligned to, or not a
	// multiple of, the device erase unit.
	ErrBadErase = errors.New("flashdev: erase range not erase-unit aligned")
)

// Geometry describes a flash partition as reported by the device.
type Geometry struct {
	Size      uint32 // total partition size in bytes
	EraseSize uint32 // smallest erasable region
	WriteSize uint32 // write granularity (often 1 on NOR)
}

// Device is the capability surface the boot-count log needs from a flash
// partition. Erasing sets every byte in the range to 0xFF; writes may only
// clear bits within already-erased regions. Callers must hold the device
// exclusively; implementations do no locking of their own.
type Device interface {
	// Geometry reports the partition geometry. It is queried once per
	// operation and assumed stable for the lifetime of the handle.
	Geometry() (Geometry, error)

	// Erase erases the range [off, off+length). Both values must be
	// multiples of the erase unit.
	Erase(off, length uint32) error

	// ReadAt reads len(p) bytes starting at off.
	ReadAt(p []byte, off uint32) (int, error)

	// WriteAt writes p starting at off. The range must have been erased.
	WriteAt(p []byte, off uint32) (int, error)

	// Sync forces previously written data to stable media.
	Sync() error

	// Close releases the handle. The device contents are unaffected.
	Close() error
}

package flashdev

import "fmt"

// MemFlash is an in-memory Device with real flash semantics: erases must be
// erase-unit aligned and set bytes to 0xFF, and writes may only clear bits.
// It records call counts and supports fault injection, which makes it the
// workhorse for testing anything that drives a Device.
type MemFlash struct {
	geo  Geometry
	data []byte

	// Fault injection. A non-nil error makes the corresponding call fail.
	FailGeometry error
	FailErase    error
	FailWrite    error
	FailRead     error
	FailSync     error

	// Call counters.
	GeometryCalls int
	EraseCalls    int
	ReadCalls     int
	WriteCalls    int
	SyncCalls     int

	// LastErase records the most recent erase range.
	LastErase struct{ Off, Length uint32 }
}

// NewMemFlash returns a fully erased fake flash partition.
func NewMemFlash(size, eraseSize, writeSize uint32) *MemFlash {
	if size == 0 || eraseSize == 0 || size%eraseSize != 0 {
		panic(fmt.Sprintf("memflash: size %d must be a non-zero multiple of erase size %d", size, eraseSize))
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &MemFlash{
		geo:  Geometry{Size: size, EraseSize: eraseSize, WriteSize: writeSize},
		data: data,
	}
}

func (m *MemFlash) Geometry() (Geometry, error) {
	m.GeometryCalls++
	if m.FailGeometry != nil {
		return Geometry{}, m.FailGeometry
	}
	return m.geo, nil
}

func (m *MemFlash) Erase(off, length uint32) error {
	m.EraseCalls++
	m.LastErase.Off, m.LastErase.Length = off, length
	if m.FailErase != nil {
		return m.FailErase
	}
	if off%m.geo.EraseSize != 0 || length%m.geo.EraseSize != 0 || length == 0 {
		return fmt.Errorf("%w: off=%d length=%d eraseSize=%d", ErrBadErase, off, length, m.geo.EraseSize)
	}
	if uint64(off)+uint64(length) > uint64(m.geo.Size) {
		return fmt.Errorf("%w: erase off=%d length=%d size=%d", ErrOutOfBounds, off, length, m.geo.Size)
	}
	for i := off; i < off+length; i++ {
		m.data[i] = 0xFF
	}
	return nil
}

func (m *MemFlash) ReadAt(p []byte, off uint32) (int, error) {
	m.ReadCalls++
	if m.FailRead != nil {
		return 0, m.FailRead
	}
	if uint64(off)+uint64(len(p)) > uint64(m.geo.Size) {
		return 0, fmt.Errorf("%w: read off=%d len=%d size=%d", ErrOutOfBounds, off, len(p), m.geo.Size)
	}
	return copy(p, m.data[off:int(off)+len(p)]), nil
}

func (m *MemFlash) WriteAt(p []byte, off uint32) (int, error) {
	m.WriteCalls++
	if m.FailWrite != nil {
		return 0, m.FailWrite
	}
	if uint64(off)+uint64(len(p)) > uint64(m.geo.Size) {
		return 0, fmt.Errorf("%w: write off=%d len=%d size=%d", ErrOutOfBounds, off, len(p), m.geo.Size)
	}
	// NOR/NAND programming can only move bits from 1 to 0. A write that
	// needs to set a bit means the caller forgot to erase first.
	for i, b := range p {
		cur := m.data[int(off)+i]
		if cur&b != b {
			return i, fmt.Errorf("flashdev: write at %d would set erased bits (have %02x, want %02x)",
				int(off)+i, cur, b)
		}
		m.data[int(off)+i] = b
	}
	return len(p), nil
}

func (m *MemFlash) Sync() error {
	m.SyncCalls++
	return m.FailSync
}

func (m *MemFlash) Close() error { return nil }

// Snapshot returns a copy of the current contents, for byte-for-byte
// comparison in tests.
func (m *MemFlash) Snapshot() []byte {
	cp := make([]byte, len(m.data))
	copy(cp, m.data)
	return cp
}

// Load copies raw bytes into the flash image at off, bypassing flash write
// semantics. Test setup only.
func (m *MemFlash) Load(off uint32, p []byte) {
	copy(m.data[off:], p)
}

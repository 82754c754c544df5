package bootlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvaleed/bootcount/internal/flashdev"
)

// seedLog writes one record per count into consecutive slots, the way the
// bootloader appends them.
func seedLog(t *testing.T, m *flashdev.MemFlash, l Layout, counts ...uint32) {
	t.Helper()
	slot := make([]byte, l.Stride)
	for i, c := range counts {
		for j := range slot {
			slot[j] = ErasedByte
		}
		Record{Magic: Magic, Count: c, Checksum: Magic}.Encode(slot)
		m.Load(l.SlotOffset(uint32(i)), slot)
	}
}

func norFlash(t *testing.T) (*flashdev.MemFlash, Layout) {
	t.Helper()
	m := flashdev.NewMemFlash(64<<10, 4<<10, 1)
	l, err := LayoutFor(flashdev.Geometry{Size: 64 << 10, EraseSize: 4 << 10, WriteSize: 1})
	require.NoError(t, err)
	return m, l
}

func readRecord(t *testing.T, m *flashdev.MemFlash, l Layout, i uint32) Record {
	t.Helper()
	slot := make([]byte, l.Stride)
	_, err := m.ReadAt(slot, l.SlotOffset(i))
	require.NoError(t, err)
	return DecodeRecord(slot)
}

func TestReset_NoopCases(t *testing.T) {
	t.Run("never-written log", func(t *testing.T) {
		m, _ := norFlash(t)
		before := m.Snapshot()

		require.NoError(t, NewResetter(m).Reset())

		require.Equal(t, 0, m.EraseCalls)
		require.Equal(t, 0, m.WriteCalls)
		require.Equal(t, before, m.Snapshot())
	})

	t.Run("last record already zero", func(t *testing.T) {
		m, l := norFlash(t)
		seedLog(t, m, l, 1, 2, 3, 0)
		before := m.Snapshot()

		require.NoError(t, NewResetter(m).Reset())

		require.Equal(t, 0, m.EraseCalls)
		require.Equal(t, 0, m.WriteCalls)
		require.Equal(t, before, m.Snapshot())
	})
}

func TestReset_AppendsZeroRecord(t *testing.T) {
	// 64 KiB device, 4 KiB erase unit, write granularity 1, five records
	// with counts 1..5 followed by erased space.
	m, l := norFlash(t)
	seedLog(t, m, l, 1, 2, 3, 4, 5)
	before := m.Snapshot()

	require.NoError(t, NewResetter(m).Reset())

	// One block erase of the 4 KiB unit containing slot 5, one write.
	require.Equal(t, 1, m.EraseCalls)
	require.Equal(t, uint32(0), m.LastErase.Off)
	require.Equal(t, uint32(4<<10), m.LastErase.Length)
	require.Equal(t, 1, m.WriteCalls)
	require.Equal(t, 1, m.SyncCalls)

	after := m.Snapshot()

	// Slots 0..4 are byte-for-byte what they were.
	require.Equal(t, before[:5*16], after[:5*16])

	// Slot 5 holds the zero record, padded with erased fill.
	rec := readRecord(t, m, l, 5)
	require.Equal(t, Magic, rec.Magic)
	require.Equal(t, uint32(0), rec.Count)
	require.Equal(t, Magic, rec.Checksum)
	for _, b := range after[5*16+RecordSize : 6*16] {
		require.Equal(t, ErasedByte, b)
	}

	// The rest of the erased block is free space again.
	for _, b := range after[6*16 : 4<<10] {
		require.Equal(t, ErasedByte, b)
	}

	// A fresh scan agrees.
	res, err := Scan(m, l, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(6), res.Written)
	require.Equal(t, uint32(0), res.LastCount)
}

func TestReset_PreservesEarlierBlocks(t *testing.T) {
	// Two slots per erase unit: records in the first unit must survive a
	// reset that lands in the second.
	m := flashdev.NewMemFlash(128, 32, 16)
	l, err := LayoutFor(flashdev.Geometry{Size: 128, EraseSize: 32, WriteSize: 16})
	require.NoError(t, err)
	seedLog(t, m, l, 1, 2, 3)
	before := m.Snapshot()

	require.NoError(t, NewResetter(m).Reset())

	require.Equal(t, 1, m.EraseCalls)
	require.Equal(t, uint32(32), m.LastErase.Off)
	require.Equal(t, uint32(32), m.LastErase.Length)

	after := m.Snapshot()
	require.Equal(t, before[:32], after[:32]) // first unit untouched

	require.Equal(t, uint32(3), readRecord(t, m, l, 2).Count) // rewritten verbatim
	require.Equal(t, uint32(0), readRecord(t, m, l, 3).Count)
}

func TestReset_FreeSlotOnUnitBoundary(t *testing.T) {
	// The first free slot is slot 0 of the second erase unit. Only that
	// unit is erased and the zero record starts it.
	m := flashdev.NewMemFlash(128, 32, 16)
	l, err := LayoutFor(flashdev.Geometry{Size: 128, EraseSize: 32, WriteSize: 16})
	require.NoError(t, err)
	seedLog(t, m, l, 1, 2)
	before := m.Snapshot()

	require.NoError(t, NewResetter(m).Reset())

	require.Equal(t, 1, m.EraseCalls)
	require.Equal(t, uint32(32), m.LastErase.Off)

	after := m.Snapshot()
	require.Equal(t, before[:32], after[:32])
	require.Equal(t, uint32(0), readRecord(t, m, l, 2).Count)
	require.Equal(t, SlotErased, readRecord(t, m, l, 3).State())
}

func TestReset_FullLog(t *testing.T) {
	m := flashdev.NewMemFlash(64, 16, 16)
	l, err := LayoutFor(flashdev.Geometry{Size: 64, EraseSize: 16, WriteSize: 16})
	require.NoError(t, err)
	require.Equal(t, uint32(4), l.TotalSlots)
	seedLog(t, m, l, 1, 2, 3, 4)

	require.NoError(t, NewResetter(m).Reset())

	// Whole device erased exactly once, one record written at offset 0.
	require.Equal(t, 1, m.EraseCalls)
	require.Equal(t, uint32(0), m.LastErase.Off)
	require.Equal(t, uint32(64), m.LastErase.Length)
	require.Equal(t, 1, m.WriteCalls)

	require.Equal(t, uint32(0), readRecord(t, m, l, 0).Count)
	for i := uint32(1); i < 4; i++ {
		require.Equal(t, SlotErased, readRecord(t, m, l, i).State())
	}
}

func TestReset_FullLogAlreadyZero(t *testing.T) {
	m := flashdev.NewMemFlash(64, 16, 16)
	l, err := LayoutFor(flashdev.Geometry{Size: 64, EraseSize: 16, WriteSize: 16})
	require.NoError(t, err)
	seedLog(t, m, l, 1, 2, 3, 0)
	before := m.Snapshot()

	require.NoError(t, NewResetter(m).Reset())
	require.Equal(t, 0, m.EraseCalls)
	require.Equal(t, before, m.Snapshot())
}

func TestReset_CorruptMagic(t *testing.T) {
	m, l := norFlash(t)
	seedLog(t, m, l, 1, 2)
	bad := make([]byte, l.Stride)
	for i := range bad {
		bad[i] = ErasedByte
	}
	Record{Magic: 0xDEADBEEF, Count: 9}.Encode(bad)
	m.Load(l.SlotOffset(2), bad)
	before := m.Snapshot()

	err := NewResetter(m).Reset()

	var ce *CorruptMagicError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, uint32(0xDEADBEEF), ce.Magic)
	require.Equal(t, l.SlotOffset(2), ce.Offset)
	require.Equal(t, CodeCorruptMagic, ResultCode(err))

	// The device is left byte-for-byte as found.
	require.Equal(t, 0, m.EraseCalls)
	require.Equal(t, 0, m.WriteCalls)
	require.Equal(t, before, m.Snapshot())
}

func TestReset_FailureCodes(t *testing.T) {
	ioErr := errors.New("io fault")

	t.Run("geometry unavailable", func(t *testing.T) {
		m, _ := norFlash(t)
		m.FailGeometry = ioErr
		err := NewResetter(m).Reset()
		require.ErrorIs(t, err, ioErr)
		require.Equal(t, CodeGeometryUnavailable, ResultCode(err))
	})

	t.Run("unusable layout", func(t *testing.T) {
		// Lie about the erase size the way broken drivers do.
		m := flashdev.NewMemFlash(1<<10, 1<<10, 1)
		err := NewResetter(wrongGeometry{m}).Reset()
		require.Equal(t, CodeAllocationFailed, ResultCode(err))
	})

	t.Run("block erase failed", func(t *testing.T) {
		m, l := norFlash(t)
		seedLog(t, m, l, 1)
		m.FailErase = ioErr
		err := NewResetter(m).Reset()
		require.ErrorIs(t, err, ioErr)
		require.Equal(t, CodeBlockEraseFailed, ResultCode(err))
	})

	t.Run("full-device erase failed", func(t *testing.T) {
		m := flashdev.NewMemFlash(64, 16, 16)
		l, err := LayoutFor(flashdev.Geometry{Size: 64, EraseSize: 16, WriteSize: 16})
		require.NoError(t, err)
		seedLog(t, m, l, 1, 2, 3, 4)
		m.FailErase = ioErr
		err = NewResetter(m).Reset()
		require.ErrorIs(t, err, ioErr)
		require.Equal(t, CodeFullEraseFailed, ResultCode(err))
	})

	t.Run("write failed", func(t *testing.T) {
		m, l := norFlash(t)
		seedLog(t, m, l, 1)
		m.FailWrite = ioErr
		err := NewResetter(m).Reset()
		require.ErrorIs(t, err, ioErr)
		require.Equal(t, CodeWriteFailed, ResultCode(err))
	})

	t.Run("sync failure is not success", func(t *testing.T) {
		m, l := norFlash(t)
		seedLog(t, m, l, 1)
		m.FailSync = ioErr
		err := NewResetter(m).Reset()
		require.ErrorIs(t, err, ioErr)
		require.Equal(t, CodeWriteFailed, ResultCode(err))
	})
}

// wrongGeometry reports an erase unit larger than the device itself.
type wrongGeometry struct{ *flashdev.MemFlash }

func (w wrongGeometry) Geometry() (flashdev.Geometry, error) {
	return flashdev.Geometry{Size: 1 << 10, EraseSize: 1 << 20, WriteSize: 1}, nil
}

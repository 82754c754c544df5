package bootlog

import (
	"fmt"

	"github.com/mvaleed/bootcount/internal/flashdev"
)

// Resetter resets the boot-attempt counter on one flash partition. It owns
// the device handle and its scratch buffer for the duration of Reset; the
// caller guarantees exclusive access to the partition and closes the
// handle afterwards.
type Resetter struct {
	dev flashdev.Device
}

// NewResetter returns a Resetter operating on dev.
func NewResetter(dev flashdev.Device) *Resetter {
	return &Resetter{dev: dev}
}

// Reset scans the boot-count log for the last written record and, unless
// its count is already zero, erases the smallest sufficient region and
// writes back a record with count zero, syncing it to stable media before
// returning.
//
// Every failure is fatal and distinct (see ResultCode); nothing is
// retried. Once corruption is detected the device is left exactly as
// found. An erase or write failure can leave the device erased but not
// yet rewritten: there is no transactional guarantee across the
// erase+write pair, which is inherent to erase-before-write flash.
func (r *Resetter) Reset() error {
	geo, err := r.dev.Geometry()
	if err != nil {
		return &GeometryError{Err: err}
	}
	l, err := LayoutFor(geo)
	if err != nil {
		return &AllocationError{Err: err}
	}

	// One erase unit of scratch. During the scan it always mirrors the
	// block owning the most recently read slot, so a partial rewrite can
	// replay that block's earlier records verbatim.
	buf := make([]byte, l.EraseUnit)

	var lastCount uint32
	full := true
	var free uint32
	for i := uint32(0); i < l.TotalSlots; i++ {
		slot := l.slot(buf, i)
		off := l.SlotOffset(i)
		if _, err := r.dev.ReadAt(slot, off); err != nil {
			return fmt.Errorf("bootlog: read slot %d at offset %d: %w", i, off, err)
		}

		rec := DecodeRecord(slot)
		switch rec.State() {
		case SlotCorrupt:
			return &CorruptMagicError{Offset: off, Magic: rec.Magic}
		case SlotErased:
			full = false
			free = i
		case SlotWritten:
			lastCount = rec.Count
		}
		if !full {
			break
		}
	}

	// Covers both a current count of zero and a never-written log.
	if lastCount == 0 {
		return nil
	}

	var target uint32
	if full {
		// No free slot anywhere: the log region is completely occupied.
		// Erase the whole device and start the log over at slot 0. This
		// is expected occasionally on long-lived devices.
		if err := r.dev.Erase(0, geo.Size); err != nil {
			return &EraseError{Full: true, Offset: 0, Length: geo.Size, Err: err}
		}
		target = 0
	} else {
		// Erase only the block owning the free slot; records in earlier
		// blocks stay untouched.
		target = free
		start := l.EraseStart(target)
		if err := r.dev.Erase(start, l.EraseUnit); err != nil {
			return &EraseError{Offset: start, Length: l.EraseUnit, Err: err}
		}
	}

	slot := l.slot(buf, target)
	for i := range slot {
		slot[i] = ErasedByte
	}
	zeroRecord().Encode(slot)

	// Write back every slot of the erased block up through the target, so
	// records that shared the block ahead of the reset slot are restored
	// verbatim from the scratch buffer.
	start := l.EraseStart(target)
	occupied := target%l.SlotsPerUnit + 1
	if _, err := r.dev.WriteAt(buf[:occupied*l.Stride], start); err != nil {
		return &WriteError{Offset: start, Err: err}
	}
	if err := r.dev.Sync(); err != nil {
		return &WriteError{Offset: start, Err: fmt.Errorf("sync: %w", err)}
	}
	return nil
}

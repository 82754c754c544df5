package bootlog

import (
	"fmt"

	"github.com/mvaleed/bootcount/internal/flashdev"
)

// ScanResult summarizes a read-only pass over the log region.
type ScanResult struct {
	Written   uint32 // written records seen before the first free slot
	LastCount uint32 // count of the last written record, 0 if none
	Full      bool   // no free slot exists; every slot holds a record
	FreeSlot  uint32 // index of the first free slot, valid when !Full
}

// Scan walks the log region slot by slot from the start of the device.
// For every written record it calls fn (if non-nil); returning false stops
// the scan early. The scan ends at the first erased slot. A slot whose
// magic is neither the record magic nor the erased-fill pattern aborts
// with a CorruptMagicError; slots past it are never inspected.
func Scan(dev flashdev.Device, l Layout, fn func(i uint32, r Record) bool) (ScanResult, error) {
	var res ScanResult

	slot := make([]byte, l.Stride)
	for i := uint32(0); i < l.TotalSlots; i++ {
		off := l.SlotOffset(i)
		if _, err := dev.ReadAt(slot, off); err != nil {
			return res, fmt.Errorf("bootlog: read slot %d at offset %d: %w", i, off, err)
		}

		rec := DecodeRecord(slot)
		switch rec.State() {
		case SlotCorrupt:
			return res, &CorruptMagicError{Offset: off, Magic: rec.Magic}
		case SlotErased:
			res.FreeSlot = i
			return res, nil
		}

		res.Written++
		res.LastCount = rec.Count
		if fn != nil && !fn(i, rec) {
			return res, nil
		}
	}

	res.Full = true
	return res, nil
}

// Info describes the device and its boot-count log as found by a scan.
type Info struct {
	Geometry flashdev.Geometry
	Layout   Layout
	Scan     ScanResult
}

// Inspect queries geometry, derives the record layout and scans the log
// without modifying anything.
func Inspect(dev flashdev.Device) (Info, error) {
	geo, err := dev.Geometry()
	if err != nil {
		return Info{}, &GeometryError{Err: err}
	}
	l, err := LayoutFor(geo)
	if err != nil {
		return Info{}, &AllocationError{Err: err}
	}
	res, err := Scan(dev, l, nil)
	if err != nil {
		return Info{}, err
	}
	return Info{Geometry: geo, Layout: l, Scan: res}, nil
}

package bootlog

import (
	"fmt"

	"github.com/mvaleed/bootcount/internal/flashdev"
)

// MinStride is the smallest distance between record slots. NOR devices
// often report a write granularity of 1, but the bootloaders that consume
// this log (EA6350v3 and relatives) space records 16 bytes apart, so the
// stride is floored here rather than trusting the reported granularity.
const MinStride = 16

// maxEraseUnit caps the scratch buffer derived from device geometry. An
// erase unit beyond this is treated as a geometry lie rather than
// something to allocate.
const maxEraseUnit = 64 << 20

// Layout is the record geometry derived from the device geometry. It is
// computed once per operation and immutable afterwards.
type Layout struct {
	Stride       uint32 // distance in bytes between record slots
	EraseUnit    uint32 // size of one erasable region, >= Stride
	SlotsPerUnit uint32 // EraseUnit / Stride
	TotalSlots   uint32 // device size / Stride
}

// LayoutFor derives the record layout from device geometry.
func LayoutFor(geo flashdev.Geometry) (Layout, error) {
	stride := geo.WriteSize
	if stride < MinStride {
		stride = MinStride
	}
	eraseUnit := geo.EraseSize
	if eraseUnit < stride {
		eraseUnit = stride
	}
	if eraseUnit > maxEraseUnit || eraseUnit > geo.Size {
		return Layout{}, fmt.Errorf("bootlog: unusable erase unit %d for device of %d bytes", eraseUnit, geo.Size)
	}
	return Layout{
		Stride:       stride,
		EraseUnit:    eraseUnit,
		SlotsPerUnit: eraseUnit / stride,
		TotalSlots:   geo.Size / stride,
	}, nil
}

// SlotOffset returns the device offset of slot i.
func (l Layout) SlotOffset(i uint32) uint32 {
	return i * l.Stride
}

// EraseStart returns the offset of the erase-aligned block owning slot i.
func (l Layout) EraseStart(i uint32) uint32 {
	return (i / l.SlotsPerUnit) * l.EraseUnit
}

// slot returns the bytes of slot i within an erase-unit sized buffer,
// where i counts slots from the start of the device. Panics if buf is not
// one erase unit, guarding against the window and the record boundaries
// drifting apart.
func (l Layout) slot(buf []byte, i uint32) []byte {
	if uint32(len(buf)) != l.EraseUnit {
		panic(fmt.Sprintf("bootlog: slot buffer is %d bytes, want erase unit %d", len(buf), l.EraseUnit))
	}
	s := (i % l.SlotsPerUnit) * l.Stride
	return buf[s : s+l.Stride]
}

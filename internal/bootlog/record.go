// Package bootlog reads and resets the persistent boot-attempt counter
// kept as an append-only log of fixed-size records inside a raw flash
// partition. Linksys-style bootloaders append one record per boot attempt;
// resetting the counter means appending (or rewriting) a record with
// count zero.
package bootlog

import (
	"encoding/binary"
)

const (
	// Magic marks a written boot-count record on media.
	Magic uint32 = 0x20110811

	// ErasedMagic is the magic field of a slot the flash erase left
	// untouched: all bits set.
	ErasedMagic uint32 = 0xFFFFFFFF

	// ErasedByte is the fill value an erase leaves behind.
	ErasedByte byte = 0xFF

	// RecordSize is the on-media size of a boot-count record:
	// magic(4) + count(4) + checksum(4).
	RecordSize = 12
)

// SlotState classifies the content of one record slot.
type SlotState int

const (
	// SlotWritten is a slot holding a valid boot-count record.
	SlotWritten SlotState = iota
	// SlotErased is a slot still carrying the erased-fill pattern.
	SlotErased
	// SlotCorrupt is a slot whose magic is neither Magic nor erased-fill.
	SlotCorrupt
)

// Record is one boot-count record. The layout is fixed and written in the
// device's native byte order, matching what the bootloader reads.
//
// Checksum is write-only: it is always stored equal to Magic and never
// verified against the record contents on scan. That mirrors the on-media
// format every deployed log was written with; validating it would reject
// them all.
type Record struct {
	Magic    uint32
	Count    uint32
	Checksum uint32
}

// DecodeRecord reads a record from the first RecordSize bytes of slot.
func DecodeRecord(slot []byte) Record {
	var r Record
	r.Magic = binary.NativeEndian.Uint32(slot[0:4])
	r.Count = binary.NativeEndian.Uint32(slot[4:8])
	r.Checksum = binary.NativeEndian.Uint32(slot[8:12])
	return r
}

// Encode writes the record into the first RecordSize bytes of slot.
func (r Record) Encode(slot []byte) {
	binary.NativeEndian.PutUint32(slot[0:4], r.Magic)
	binary.NativeEndian.PutUint32(slot[4:8], r.Count)
	binary.NativeEndian.PutUint32(slot[8:12], r.Checksum)
}

// State classifies the slot by its magic field alone. The checksum is not
// consulted.
func (r Record) State() SlotState {
	switch r.Magic {
	case Magic:
		return SlotWritten
	case ErasedMagic:
		return SlotErased
	default:
		return SlotCorrupt
	}
}

// zeroRecord is the record a reset writes back.
func zeroRecord() Record {
	return Record{Magic: Magic, Count: 0, Checksum: Magic}
}

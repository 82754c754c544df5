package flashdev

import (
	"fmt"
	"os"
)

// Image is a Device backed by a flash dump file (e.g. produced by dd from
// an mtd partition). The file cannot report geometry, so the caller
// supplies it; Size may be zero to take the file's size.
type Image struct {
	f   *os.File
	geo Geometry
}

// OpenImage opens a flash image file with the given geometry.
func OpenImage(path string, geo Geometry) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flashdev: open image %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flashdev: stat image %s: %w", path, err)
	}
	if geo.Size == 0 {
		geo.Size = uint32(info.Size())
	}
	if int64(geo.Size) > info.Size() {
		f.Close()
		return nil, fmt.Errorf("flashdev: image %s is %d bytes, geometry claims %d",
			path, info.Size(), geo.Size)
	}
	if geo.EraseSize == 0 || geo.Size%geo.EraseSize != 0 {
		f.Close()
		return nil, fmt.Errorf("flashdev: image size %d is not a multiple of erase size %d",
			geo.Size, geo.EraseSize)
	}
	if geo.WriteSize == 0 {
		geo.WriteSize = 1
	}
	return &Image{f: f, geo: geo}, nil
}

func (d *Image) Geometry() (Geometry, error) { return d.geo, nil }

// Erase emulates a flash erase by overwriting the range with 0xFF.
func (d *Image) Erase(off, length uint32) error {
	if off%d.geo.EraseSize != 0 || length%d.geo.EraseSize != 0 || length == 0 {
		return fmt.Errorf("%w: off=%d length=%d eraseSize=%d", ErrBadErase, off, length, d.geo.EraseSize)
	}
	if uint64(off)+uint64(length) > uint64(d.geo.Size) {
		return fmt.Errorf("%w: erase off=%d length=%d size=%d", ErrOutOfBounds, off, length, d.geo.Size)
	}
	fill := make([]byte, d.geo.EraseSize)
	for i := range fill {
		fill[i] = 0xFF
	}
	for cur := off; cur < off+length; cur += d.geo.EraseSize {
		if _, err := d.f.WriteAt(fill, int64(cur)); err != nil {
			return fmt.Errorf("flashdev: erase image at %d: %w", cur, err)
		}
	}
	return nil
}

func (d *Image) ReadAt(p []byte, off uint32) (int, error) {
	if uint64(off)+uint64(len(p)) > uint64(d.geo.Size) {
		return 0, fmt.Errorf("%w: read off=%d len=%d size=%d", ErrOutOfBounds, off, len(p), d.geo.Size)
	}
	return d.f.ReadAt(p, int64(off))
}

func (d *Image) WriteAt(p []byte, off uint32) (int, error) {
	if uint64(off)+uint64(len(p)) > uint64(d.geo.Size) {
		return 0, fmt.Errorf("%w: write off=%d len=%d size=%d", ErrOutOfBounds, off, len(p), d.geo.Size)
	}
	return d.f.WriteAt(p, int64(off))
}

func (d *Image) Sync() error { return d.f.Sync() }

func (d *Image) Close() error { return d.f.Close() }

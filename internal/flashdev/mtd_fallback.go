//go:build !linux

package flashdev

// MTD is only available on Linux; other platforms can still operate on
// flash image files through OpenImage.
type MTD struct{}

func OpenMTD(path string) (*MTD, error) { return nil, ErrUnsupported }

func (d *MTD) Geometry() (Geometry, error) { return Geometry{}, ErrUnsupported }

func (d *MTD) Erase(off, length uint32) error { return ErrUnsupported }

func (d *MTD) ReadAt(p []byte, off uint32) (int, error) { return 0, ErrUnsupported }

func (d *MTD) WriteAt(p []byte, off uint32) (int, error) { return 0, ErrUnsupported }

func (d *MTD) Sync() error { return ErrUnsupported }

func (d *MTD) Close() error { return nil }

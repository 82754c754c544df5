//go:build linux

package flashdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mtdInfoUser mirrors struct mtd_info_user from <mtd/mtd-abi.h>.
type mtdInfoUser struct {
	Type      uint8
	_         [3]byte
	Flags     uint32
	Size      uint32
	Erasesize uint32
	Writesize uint32
	Oobsize   uint32
	_         uint64 // padding
}

// eraseInfoUser mirrors struct erase_info_user from <mtd/mtd-abi.h>.
type eraseInfoUser struct {
	Start  uint32
	Length uint32
}

// MTD is a Device backed by a Linux MTD character device (/dev/mtdX).
type MTD struct {
	f    *os.File
	path string
}

// OpenMTD opens an MTD character device for read/write access. The caller
// is responsible for ensuring exclusive access to the partition.
func OpenMTD(path string) (*MTD, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("flashdev: open %s: %w", path, err)
	}
	return &MTD{f: f, path: path}, nil
}

func (d *MTD) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *MTD) Geometry() (Geometry, error) {
	var mi mtdInfoUser
	if err := d.ioctl(unix.MEMGETINFO, unsafe.Pointer(&mi)); err != nil {
		return Geometry{}, fmt.Errorf("flashdev: MEMGETINFO on %s: %w", d.path, err)
	}
	return Geometry{
		Size:      mi.Size,
		EraseSize: mi.Erasesize,
		WriteSize: mi.Writesize,
	}, nil
}

func (d *MTD) Erase(off, length uint32) error {
	ei := eraseInfoUser{Start: off, Length: length}
	if err := d.ioctl(unix.MEMERASE, unsafe.Pointer(&ei)); err != nil {
		return fmt.Errorf("flashdev: MEMERASE [%d,%d) on %s: %w", off, off+length, d.path, err)
	}
	return nil
}

func (d *MTD) ReadAt(p []byte, off uint32) (int, error) {
	n, err := unix.Pread(int(d.f.Fd()), p, int64(off))
	if err != nil {
		return n, fmt.Errorf("flashdev: pread %d bytes at %d from %s: %w", len(p), off, d.path, err)
	}
	return n, nil
}

func (d *MTD) WriteAt(p []byte, off uint32) (int, error) {
	n, err := unix.Pwrite(int(d.f.Fd()), p, int64(off))
	if err != nil {
		return n, fmt.Errorf("flashdev: pwrite %d bytes at %d to %s: %w", len(p), off, d.path, err)
	}
	return n, nil
}

func (d *MTD) Sync() error {
	if err := unix.Fsync(int(d.f.Fd())); err != nil {
		return fmt.Errorf("flashdev: fsync %s: %w", d.path, err)
	}
	return nil
}

func (d *MTD) Close() error { return d.f.Close() }

package flash

import (
	"fmt"
	"io"
	"os"
)

// FileDevice is a Device persisted to a flash image file. The whole image
// is loaded at open time and all operations run in memory; Sync writes
// the image back to disk. It exists for the softeepromctl tool, where the
// "flash" is a file on the host.
type FileDevice struct {
	*MemDevice
	f *os.File
}

// OpenFile opens (or creates) a flash image file of the given geometry.
// A new or short image is padded with 0xFF, the erased state, so a fresh
// image behaves like factory-fresh flash. An image larger than size is
// rejected rather than truncated.
func OpenFile(path string, size, blockSize uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open flash image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat flash image: %w", err)
	}
	if info.Size() > int64(size) {
		f.Close()
		return nil, fmt.Errorf("flash image %s is %d bytes, larger than the configured device size %d",
			path, info.Size(), size)
	}

	dev := NewMemDevice(size, blockSize)
	if _, err := io.ReadFull(f, dev.mem[:info.Size()]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read flash image: %w", err)
	}

	return &FileDevice{MemDevice: dev, f: f}, nil
}

// Sync writes the in-memory image back to the file.
func (d *FileDevice) Sync() error {
	if _, err := d.f.WriteAt(d.mem, 0); err != nil {
		return fmt.Errorf("write flash image: %w", err)
	}
	return d.f.Sync()
}

// Close syncs the image and closes the file.
func (d *FileDevice) Close() error {
	if err := d.Sync(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

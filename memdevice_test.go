package gpt

import "fmt"

// memDevice is an in-memory Device backed by a byte slice, standing in
// for a real block device or image file across the test suite.
type memDevice struct {
	data []byte
	lbs  uint64
}

func newMemDevice(totalLBA, lbs uint64) *memDevice {
	return &memDevice{data: make([]byte, totalLBA*lbs), lbs: lbs}
}

func (d *memDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off)+len(p) > len(d.data) {
		return 0, fmt.Errorf("memDevice: read out of range at %d len %d (size %d)", off, len(p), len(d.data))
	}
	n := copy(p, d.data[off:])
	return n, nil
}

func (d *memDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off)+len(p) > len(d.data) {
		return 0, fmt.Errorf("memDevice: write out of range at %d len %d (size %d)", off, len(p), len(d.data))
	}
	n := copy(d.data[off:], p)
	return n, nil
}

func (d *memDevice) Size() (int64, error) { return int64(len(d.data)), nil }

func (d *memDevice) Sync() error { return nil }

// newFormattedDevice builds totalLBA LBAs, creates a fresh GPT on it via
// CreateFromDevice, writes it out, and returns the device plus the
// config used so callers can Open it again.
func newFormattedDevice(totalLBA, lbs uint64) (*memDevice, *Config, error) {
	dev := newMemDevice(totalLBA, lbs)
	cfg := NewConfig(WithWritable(true), WithLogicalBlockSize(lbs), WithChangePartitionCount(true))

	v, err := CreateFromDevice(dev, cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := v.Write(); err != nil {
		return nil, nil, err
	}
	return dev, cfg, nil
}

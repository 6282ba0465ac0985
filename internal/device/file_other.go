//go:build !linux

package device

import "os"

// blockDeviceSize has no portable ioctl outside Linux; FileDevice.Size
// always falls back to os.Stat on other platforms.
func blockDeviceSize(f *os.File) (int64, error) {
	return 0, errUnsupported
}

var errUnsupported = &unsupportedError{}

type unsupportedError struct{}

func (*unsupportedError) Error() string { return "device: block device sizing unsupported on this platform" }

package gpt

import "fmt"

// mbrSize is the on-disk size of the legacy MBR record at LBA 0.
const mbrSize = 512

const (
	mbrProtectiveType = 0xEE
	mbrBootCodeLen    = 446
	mbrEntrySize      = 16
	mbrEntryCount     = 4
)

// ProtectiveMBR is the legacy MBR record GPT requires at LBA 0,
// advertising a single partition of type 0xEE spanning the disk.
type ProtectiveMBR struct {
	// StartLBA and SizeLBA describe the protective entry's extent. A
	// freshly built protective MBR always has StartLBA==1.
	StartLBA uint32
	SizeLBA  uint32
}

// ParseProtectiveMBR validates the 512-byte MBR record at LBA 0.
// CHS fields are read but not validated, per spec.md §4.5.
func ParseProtectiveMBR(raw []byte) (ProtectiveMBR, error) {
	if len(raw) < mbrSize {
		return ProtectiveMBR{}, fmt.Errorf("%w: only %d bytes available", ErrInvalidMBR, len(raw))
	}

	if raw[510] != 0x55 || raw[511] != 0xAA {
		return ProtectiveMBR{}, fmt.Errorf("%w: bad boot signature", ErrInvalidMBR)
	}

	entry := raw[mbrBootCodeLen : mbrBootCodeLen+mbrEntrySize]
	if entry[4] != mbrProtectiveType {
		return ProtectiveMBR{}, fmt.Errorf("%w: partition type 0x%02x, want 0x%02x", ErrInvalidMBR, entry[4], mbrProtectiveType)
	}

	return ProtectiveMBR{
		StartLBA: getUint32(entry, 8),
		SizeLBA:  getUint32(entry, 12),
	}, nil
}

// NewProtectiveMBR builds a protective MBR describing a disk of
// totalLBA logical blocks.
func NewProtectiveMBR(totalLBA uint64) ProtectiveMBR {
	size := totalLBA - 1
	if size > 0xFFFFFFFF {
		size = 0xFFFFFFFF
	}
	return ProtectiveMBR{StartLBA: 1, SizeLBA: uint32(size)}
}

// Encode serializes m into a fresh 512-byte MBR record: 446 bytes of
// zeroed boot code, the single protective entry (not bootable, CHS
// 0x000200/0xFFFFFF, type 0xEE), three zeroed entries, and the 0x55AA
// boot signature.
func (m ProtectiveMBR) Encode() []byte {
	buf := make([]byte, mbrSize)

	entry := buf[mbrBootCodeLen : mbrBootCodeLen+mbrEntrySize]
	entry[0] = 0x00                   // not bootable
	entry[1], entry[2], entry[3] = 0x00, 0x02, 0x00 // starting CHS 0x000200
	entry[4] = mbrProtectiveType
	entry[5], entry[6], entry[7] = 0xFF, 0xFF, 0xFF // ending CHS 0xFFFFFF
	putUint32(entry, 8, m.StartLBA)
	putUint32(entry, 12, m.SizeLBA)

	buf[510] = 0x55
	buf[511] = 0xAA

	return buf
}

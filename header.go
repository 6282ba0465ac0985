package gpt

import (
	"fmt"

	"github.com/google/uuid"
)

// HeaderSize is the on-disk size of a GPT 1.0 header.
const HeaderSize = 92

// headerSignature is the fixed 8-byte magic at the start of every header.
const headerSignature = "EFI PART"

// Revision10 is the GPT 1.0 revision value.
const Revision10 = 0x00010000

// Header is a single GPT header, either primary or backup.
type Header struct {
	Revision        uint32
	HeaderSize      uint32
	HeaderCRC32     uint32
	CurrentLBA      uint64
	BackupLBA       uint64
	FirstUsableLBA  uint64
	LastUsableLBA   uint64
	DiskGUID        uuid.UUID
	PartStart       uint64
	NumParts        uint32
	PartSize        uint32
	CRC32Parts      uint32
}

// ParseHeader validates and decodes a GPT header from raw, which must
// be at least lbs bytes (a full logical block). expectedCurrentLBA is
// the LBA the caller read raw from (1 for the primary, the device's
// last LBA for the backup); mismatches are reported as ErrLBAMismatch.
func ParseHeader(raw []byte, lbs uint64, expectedCurrentLBA uint64) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, fmt.Errorf("%w: only %d bytes available", ErrBadHeaderSize, len(raw))
	}

	if string(raw[0:8]) != headerSignature {
		return Header{}, fmt.Errorf("%w: got %q", ErrBadSignature, raw[0:8])
	}

	revision := getUint32(raw, 8)
	if revision != Revision10 {
		return Header{}, fmt.Errorf("%w: 0x%08x", ErrUnsupportedRevision, revision)
	}

	size := getUint32(raw, 12)
	if size < HeaderSize || uint64(size) > lbs {
		return Header{}, fmt.Errorf("%w: %d", ErrBadHeaderSize, size)
	}

	if uint64(len(raw)) < uint64(size) {
		return Header{}, fmt.Errorf("%w: buffer shorter than declared header_size", ErrBadHeaderSize)
	}

	storedCRC := getUint32(raw, headerCRCOffset)
	computed := computeHeaderCRC(raw, size)
	if storedCRC != computed {
		return Header{}, fmt.Errorf("%w: stored=0x%08x computed=0x%08x", ErrBadCRC, storedCRC, computed)
	}

	if reserved := getUint32(raw, 20); reserved != 0 {
		return Header{}, fmt.Errorf("%w: reserved field non-zero", ErrBadHeaderSize)
	}

	h := Header{
		Revision:       revision,
		HeaderSize:     size,
		HeaderCRC32:    storedCRC,
		CurrentLBA:     getUint64(raw, 24),
		BackupLBA:      getUint64(raw, 32),
		FirstUsableLBA: getUint64(raw, 40),
		LastUsableLBA:  getUint64(raw, 48),
		DiskGUID:       decodeGUID(raw[56:72]),
		PartStart:      getUint64(raw, 72),
		NumParts:       getUint32(raw, 80),
		PartSize:       getUint32(raw, 84),
		CRC32Parts:     getUint32(raw, 88),
	}

	if h.CurrentLBA != expectedCurrentLBA {
		return Header{}, fmt.Errorf("%w: header says %d, expected %d", ErrLBAMismatch, h.CurrentLBA, expectedCurrentLBA)
	}

	if h.FirstUsableLBA > h.LastUsableLBA {
		return Header{}, fmt.Errorf("%w: first_usable %d > last_usable %d", ErrBadHeaderSize, h.FirstUsableLBA, h.LastUsableLBA)
	}

	if h.PartSize < EntrySize || h.PartSize&(h.PartSize-1) != 0 {
		return Header{}, fmt.Errorf("%w: part_size %d must be a power of two >= %d", ErrBadHeaderSize, h.PartSize, EntrySize)
	}

	if h.NumParts == 0 {
		return Header{}, fmt.Errorf("%w: num_parts is zero", ErrBadHeaderSize)
	}

	return h, nil
}

// Encode serializes h into a header_size-length (not LBS-padded) byte
// slice with a freshly computed header_crc32. Callers writing a full
// logical block must zero-pad the remainder themselves.
func (h Header) Encode() []byte {
	buf := make([]byte, h.HeaderSize)

	copy(buf[0:8], headerSignature)
	putUint32(buf, 8, h.Revision)
	putUint32(buf, 12, h.HeaderSize)
	// bytes 16:20 (CRC) and 20:24 (reserved) stay zero until computed below.
	putUint64(buf, 24, h.CurrentLBA)
	putUint64(buf, 32, h.BackupLBA)
	putUint64(buf, 40, h.FirstUsableLBA)
	putUint64(buf, 48, h.LastUsableLBA)
	encodeGUID(h.DiskGUID, buf[56:72])
	putUint64(buf, 72, h.PartStart)
	putUint32(buf, 80, h.NumParts)
	putUint32(buf, 84, h.PartSize)
	putUint32(buf, 88, h.CRC32Parts)

	crc := computeHeaderCRC(buf, h.HeaderSize)
	putUint32(buf, headerCRCOffset, crc)

	return buf
}

// HeaderBuilder collects the parameters needed to construct a fresh
// primary/backup header pair, e.g. when initializing a new GPT.
type HeaderBuilder struct {
	DiskGUID      uuid.UUID
	NumParts      uint32
	PartSize      uint32
	LBS           uint64
	BackupLBA     uint64 // the device's last LBA
	FirstUsable   uint64
	LastUsable    uint64
}

// NewHeaderBuilder returns a builder seeded with defaults (128 entries
// of 128 bytes each, a random disk GUID) and usable-range bounds
// derived from the entry array's footprint, per spec.md §4.4.
func NewHeaderBuilder(lbs, backupLBA uint64) (*HeaderBuilder, error) {
	diskGUID, err := newUUID()
	if err != nil {
		return nil, err
	}

	b := &HeaderBuilder{
		DiskGUID:  diskGUID,
		NumParts:  128,
		PartSize:  EntrySize,
		LBS:       lbs,
		BackupLBA: backupLBA,
	}
	b.FirstUsable, b.LastUsable = b.defaultUsableRange()
	return b, nil
}

func (b *HeaderBuilder) arraySectors() uint64 {
	arrayBytes := uint64(b.NumParts) * uint64(b.PartSize)
	return ceilDiv(arrayBytes, b.LBS)
}

func (b *HeaderBuilder) defaultUsableRange() (first, last uint64) {
	first = 2 + b.arraySectors()
	last = b.BackupLBA - 1 - b.arraySectors()
	return
}

// Validate enforces the usable-range bounds spec.md §4.4 requires:
// first_usable_lba ≥ 2 + ceil(entries/LBS) and
// last_usable_lba ≤ backup_lba − 1 − ceil(entries/LBS).
func (b *HeaderBuilder) Validate() error {
	minFirst, maxLast := b.defaultUsableRange()
	if b.FirstUsable < minFirst {
		return fmt.Errorf("%w: first_usable_lba %d < minimum %d", ErrOutOfUsableRange, b.FirstUsable, minFirst)
	}
	if b.LastUsable > maxLast {
		return fmt.Errorf("%w: last_usable_lba %d > maximum %d", ErrOutOfUsableRange, b.LastUsable, maxLast)
	}
	if b.FirstUsable > b.LastUsable {
		return fmt.Errorf("%w: first_usable_lba %d > last_usable_lba %d", ErrOutOfUsableRange, b.FirstUsable, b.LastUsable)
	}
	return nil
}

// Build returns the primary and backup headers ready for encoding, with
// crc32Parts already folded in (computed by the caller from the entry
// array, since the builder has no device to read from).
func (b *HeaderBuilder) Build(crc32Parts uint32) (primary, backup Header, err error) {
	if err = b.Validate(); err != nil {
		return Header{}, Header{}, err
	}

	base := Header{
		Revision:       Revision10,
		HeaderSize:     HeaderSize,
		FirstUsableLBA: b.FirstUsable,
		LastUsableLBA:  b.LastUsable,
		DiskGUID:       b.DiskGUID,
		NumParts:       b.NumParts,
		PartSize:       b.PartSize,
		CRC32Parts:     crc32Parts,
	}

	primary = base
	primary.CurrentLBA = 1
	primary.BackupLBA = b.BackupLBA
	primary.PartStart = 2

	backup = base
	backup.CurrentLBA = b.BackupLBA
	backup.BackupLBA = 1
	backup.PartStart = b.BackupLBA - b.arraySectors()

	return primary, backup, nil
}

// headersConsistent reports whether primary and backup mutually agree per
// spec.md §4.6: equal disk_guid, num_parts, part_size, first/last
// usable LBA, mutually-pointing current/backup LBAs, and equal entry
// array CRCs.
func headersConsistent(primary, backup Header) bool {
	return primary.DiskGUID == backup.DiskGUID &&
		primary.NumParts == backup.NumParts &&
		primary.PartSize == backup.PartSize &&
		primary.FirstUsableLBA == backup.FirstUsableLBA &&
		primary.LastUsableLBA == backup.LastUsableLBA &&
		primary.CurrentLBA == backup.BackupLBA &&
		backup.CurrentLBA == primary.BackupLBA &&
		primary.CRC32Parts == backup.CRC32Parts
}

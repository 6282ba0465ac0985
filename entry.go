package gpt

import (
	"fmt"

	"github.com/google/uuid"
)

// EntrySize is the fixed on-disk width of one partition entry record.
const EntrySize = 128

// Entry is a single GPT partition descriptor: type, unique identity,
// extent, attribute flags, and display name.
type Entry struct {
	TypeGUID   uuid.UUID
	UniqueGUID uuid.UUID
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Name       string
}

// SectorsLen returns the number of LBAs the entry spans.
func (e Entry) SectorsLen() uint64 {
	if e.LastLBA < e.FirstLBA {
		return 0
	}
	return e.LastLBA - e.FirstLBA + 1
}

// BytesLen returns the entry's extent in bytes given a logical block size.
func (e Entry) BytesLen(lbs uint64) uint64 {
	return e.SectorsLen() * lbs
}

// decodeEntry parses a 128-byte partition entry record. It returns
// ok==false for an all-zero (unused) slot. A non-zero type GUID paired
// with an otherwise-zero record is rejected as ErrInvalidEntry.
func decodeEntry(b []byte) (e Entry, ok bool, err error) {
	if len(b) < EntrySize {
		return Entry{}, false, fmt.Errorf("gpt: entry record too short: %d bytes", len(b))
	}

	if isAllZero(b[:EntrySize]) {
		return Entry{}, false, nil
	}

	typeGUID := decodeGUID(b[0:16])

	if typeGUID == uuid.Nil {
		return Entry{}, false, nil
	}

	rest := b[16:EntrySize]
	if isAllZero(rest) {
		return Entry{}, false, fmt.Errorf("%w: non-zero type GUID with empty body", ErrInvalidEntry)
	}

	e = Entry{
		TypeGUID:   typeGUID,
		UniqueGUID: decodeGUID(b[16:32]),
		FirstLBA:   getUint64(b, 32),
		LastLBA:    getUint64(b, 40),
		Attributes: getUint64(b, 48),
		Name:       decodeName(b[56:EntrySize]),
	}
	return e, true, nil
}

// encodeEntry serializes e into a fresh 128-byte record. An Entry with
// a nil TypeGUID encodes as an empty (unused) slot.
func encodeEntry(e Entry) ([EntrySize]byte, error) {
	var b [EntrySize]byte

	if e.TypeGUID == uuid.Nil {
		return b, nil
	}

	encodeGUID(e.TypeGUID, b[0:16])
	encodeGUID(e.UniqueGUID, b[16:32])
	putUint64(b[:], 32, e.FirstLBA)
	putUint64(b[:], 40, e.LastLBA)
	putUint64(b[:], 48, e.Attributes)

	name, err := encodeName(e.Name)
	if err != nil {
		return b, err
	}
	copy(b[56:EntrySize], name[:])

	return b, nil
}

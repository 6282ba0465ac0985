package gpt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEntryRoundtrip(t *testing.T) {
	e := Entry{
		TypeGUID:   uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"),
		UniqueGUID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		FirstLBA:   2048,
		LastLBA:    206847,
		Attributes: 1 << 2, // legacy BIOS bootable
		Name:       "boot",
	}

	buf, err := encodeEntry(e)
	require.NoError(t, err)

	got, ok, err := decodeEntry(buf[:])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestDecodeEntryUnusedSlot(t *testing.T) {
	var buf [EntrySize]byte
	got, ok, err := decodeEntry(buf[:])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Entry{}, got)
}

func TestDecodeEntryCorruptNonZeroTypeEmptyBody(t *testing.T) {
	var buf [EntrySize]byte
	encodeGUID(uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"), buf[0:16])

	_, _, err := decodeEntry(buf[:])
	require.ErrorIs(t, err, ErrInvalidEntry)
}

func TestDecodeEntryTooShort(t *testing.T) {
	_, _, err := decodeEntry(make([]byte, 10))
	require.Error(t, err)
}

func TestEncodeEntryUnusedHasNilType(t *testing.T) {
	buf, err := encodeEntry(Entry{})
	require.NoError(t, err)
	assert.True(t, isAllZero(buf[:]))
}

func TestEntrySectorsAndBytesLen(t *testing.T) {
	e := Entry{FirstLBA: 100, LastLBA: 199}
	assert.Equal(t, uint64(100), e.SectorsLen())
	assert.Equal(t, uint64(51200), e.BytesLen(512))

	backwards := Entry{FirstLBA: 200, LastLBA: 100}
	assert.Equal(t, uint64(0), backwards.SectorsLen())
}

func TestEncodeEntryNameTooLong(t *testing.T) {
	e := Entry{
		TypeGUID: uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"),
		Name:     stringOfLen(maxNameCodeUnits + 1),
	}
	_, err := encodeEntry(e)
	require.ErrorIs(t, err, ErrNameTooLong)
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

package gpt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() Header {
	return Header{
		Revision:       Revision10,
		HeaderSize:     HeaderSize,
		CurrentLBA:     1,
		BackupLBA:      2047,
		FirstUsableLBA: 34,
		LastUsableLBA:  2014,
		DiskGUID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		PartStart:      2,
		NumParts:       128,
		PartSize:       EntrySize,
		CRC32Parts:     0xDEADBEEF,
	}
}

func TestHeaderEncodeParseRoundtrip(t *testing.T) {
	h := sampleHeader()
	raw := h.Encode()

	block := make([]byte, 512)
	copy(block, raw)

	got, err := ParseHeader(block, 512, 1)
	require.NoError(t, err)

	h.HeaderCRC32 = got.HeaderCRC32
	assert.Equal(t, h, got)
}

func TestParseHeaderBadSignature(t *testing.T) {
	block := make([]byte, 512)
	copy(block, []byte("NOT A GPT"))
	_, err := ParseHeader(block, 512, 1)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestParseHeaderBadCRC(t *testing.T) {
	h := sampleHeader()
	raw := h.Encode()
	block := make([]byte, 512)
	copy(block, raw)
	block[30] ^= 0xFF // corrupt a payload byte without touching the CRC field

	_, err := ParseHeader(block, 512, 1)
	require.ErrorIs(t, err, ErrBadCRC)
}

func TestParseHeaderLBAMismatch(t *testing.T) {
	h := sampleHeader()
	block := make([]byte, 512)
	copy(block, h.Encode())

	_, err := ParseHeader(block, 512, 999)
	require.ErrorIs(t, err, ErrLBAMismatch)
}

func TestParseHeaderUnsupportedRevision(t *testing.T) {
	h := sampleHeader()
	h.Revision = 0x00020000
	block := make([]byte, 512)
	copy(block, h.Encode())

	_, err := ParseHeader(block, 512, 1)
	require.ErrorIs(t, err, ErrUnsupportedRevision)
}

func TestHeaderBuilderBuild(t *testing.T) {
	b, err := NewHeaderBuilder(512, 20479)
	require.NoError(t, err)

	primary, backup, err := b.Build(0x12345678)
	require.NoError(t, err)

	assert.True(t, headersConsistent(primary, backup))
	assert.Equal(t, uint64(1), primary.CurrentLBA)
	assert.Equal(t, uint64(20479), primary.BackupLBA)
	assert.Equal(t, uint64(20479), backup.CurrentLBA)
	assert.Equal(t, uint64(1), backup.BackupLBA)
}

func TestHeaderBuilderValidateRejectsFirstUsableBelowMinimum(t *testing.T) {
	b, err := NewHeaderBuilder(512, 20479)
	require.NoError(t, err)

	b.FirstUsable = 1 // below the minimum reserved for the entry array
	require.ErrorIs(t, b.Validate(), ErrOutOfUsableRange)
}

func TestHeadersConsistentDetectsMismatch(t *testing.T) {
	b, err := NewHeaderBuilder(512, 20479)
	require.NoError(t, err)
	primary, backup, err := b.Build(1)
	require.NoError(t, err)

	backup.NumParts = 64
	assert.False(t, headersConsistent(primary, backup))
}

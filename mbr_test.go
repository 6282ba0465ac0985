package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectiveMBREncodeParseRoundtrip(t *testing.T) {
	m := NewProtectiveMBR(20480)
	raw := m.Encode()
	require.Len(t, raw, mbrSize)

	got, err := ParseProtectiveMBR(raw)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestParseProtectiveMBRBadSignature(t *testing.T) {
	raw := NewProtectiveMBR(20480).Encode()
	raw[511] = 0x00

	_, err := ParseProtectiveMBR(raw)
	require.ErrorIs(t, err, ErrInvalidMBR)
}

func TestParseProtectiveMBRWrongType(t *testing.T) {
	raw := NewProtectiveMBR(20480).Encode()
	raw[mbrBootCodeLen+4] = 0x07 // e.g. NTFS, not the protective 0xEE

	_, err := ParseProtectiveMBR(raw)
	require.ErrorIs(t, err, ErrInvalidMBR)
}

func TestNewProtectiveMBRClampsOversizedDisk(t *testing.T) {
	m := NewProtectiveMBR(1 << 40)
	assert.Equal(t, uint32(0xFFFFFFFF), m.SizeLBA)
}

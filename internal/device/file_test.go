package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadWriteSizeRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	payload := []byte("gpt header bytes")
	n, err := dev.WriteAt(payload, 512)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	_, err = dev.ReadAt(got, 512)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	size, err := dev.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(4096), size)

	require.NoError(t, dev.Sync())
}

func TestOpenReadOnlyRejectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	dev, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer dev.Close()

	_, err = dev.WriteAt([]byte("x"), 0)
	assert.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)

	dev := NewFromFile(f)
	defer dev.Close()

	size, err := dev.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(1024), size)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

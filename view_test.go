package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadsFixtureRoundtrip(t *testing.T) {
	dev, cfg, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)

	v, err := Open(dev, cfg)
	require.NoError(t, err)
	assert.Equal(t, v.PrimaryHeader(), v.ActiveHeader())
	assert.Empty(t, v.Partitions())
}

func TestOpenCorruptPrimaryFallsBackToBackup(t *testing.T) {
	dev, cfg, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)

	// Stomp the primary header's signature, leaving the backup intact.
	dev.data[testLBS] = 0x00

	v, err := Open(dev, cfg)
	require.NoError(t, err)
	assert.False(t, v.activeIsPrimary)
	assert.True(t, v.primaryDirty)
}

func TestOpenCorruptPrimaryFailsUnderOnlyValidHeaders(t *testing.T) {
	dev, _, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)
	dev.data[testLBS] = 0x00

	strictCfg := NewConfig(WithLogicalBlockSize(testLBS), WithOnlyValidHeaders(true))
	_, err = Open(dev, strictCfg)
	require.ErrorIs(t, err, ErrPrimaryInvalid)
}

func TestOpenNeitherHeaderValidFails(t *testing.T) {
	dev, cfg, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)
	dev.data[testLBS] = 0x00
	backupLBA := uint64(len(dev.data))/testLBS - 1
	dev.data[backupLBA*testLBS] = 0x00

	_, err = Open(dev, cfg)
	require.ErrorIs(t, err, ErrNoValidHeaders)
}

func TestOpenInconsistentHeadersMarksBackupDirty(t *testing.T) {
	dev, cfg, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)

	v, err := Open(dev, cfg)
	require.NoError(t, err)
	backup := v.BackupHeader()
	backup.NumParts = 64 // individually valid, but now disagrees with the primary
	block := make([]byte, testLBS)
	copy(block, backup.Encode())
	_, err = dev.WriteAt(block, int64(backup.CurrentLBA*testLBS))
	require.NoError(t, err)

	v2, err := Open(dev, cfg)
	require.NoError(t, err)
	assert.True(t, v2.activeIsPrimary)
	assert.True(t, v2.backupDirty)
}

func TestOpenTooSmallDevice(t *testing.T) {
	dev := newMemDevice(2, testLBS)
	_, err := Open(dev, NewConfig(WithLogicalBlockSize(testLBS)))
	require.Error(t, err)
}

func TestCreateFromDeviceSeedsEmptyPartitions(t *testing.T) {
	dev := newMemDevice(1<<16, testLBS)
	cfg := NewConfig(WithWritable(true), WithLogicalBlockSize(testLBS))
	v, err := CreateFromDevice(dev, cfg)
	require.NoError(t, err)
	assert.Empty(t, v.Partitions())
	assert.True(t, v.mbrDirty)
	assert.True(t, v.primaryDirty)
	assert.True(t, v.backupDirty)
}

func TestTakeDeviceSurrendersOwnership(t *testing.T) {
	dev, cfg, err := newFormattedDevice(1<<20, testLBS)
	require.NoError(t, err)
	v, err := Open(dev, cfg)
	require.NoError(t, err)

	got := v.TakeDevice()
	assert.Equal(t, dev, got)
	assert.Nil(t, v.DeviceRef())
}

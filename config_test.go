package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaultsReadOnly(t *testing.T) {
	c := NewConfig()
	assert.False(t, c.Writable)
	assert.False(t, c.OnlyValidHeaders)
	assert.Equal(t, uint64(defaultLBS), c.logicalBlockSize())
}

func TestConfigOptionsApply(t *testing.T) {
	c := NewConfig(
		WithWritable(true),
		WithReadonlyBackup(true),
		WithOnlyValidHeaders(true),
		WithChangePartitionCount(true),
		WithRequireMBR(true),
		WithLogicalBlockSize(4096),
	)
	assert.True(t, c.Writable)
	assert.True(t, c.ReadonlyBackup)
	assert.True(t, c.OnlyValidHeaders)
	assert.True(t, c.ChangePartitionCount)
	assert.True(t, c.RequireMBR)
	assert.Equal(t, uint64(4096), c.logicalBlockSize())
}

func TestConfigLogicalBlockSizeRejectsUnsupportedValue(t *testing.T) {
	c := NewConfig(WithLogicalBlockSize(2048))
	assert.Equal(t, uint64(defaultLBS), c.logicalBlockSize())
}

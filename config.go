package gpt

import "fmt"

// defaultLBS is used when the caller doesn't override the logical
// block size and the device exposes no way to query it.
const defaultLBS = 512

// Config collects the policy flags that govern how Open and Write
// behave, per spec.md §4.9. Build one with NewConfig and Option
// functions, the way the teacher's cobra commands build up flags
// before running an action.
type Config struct {
	Writable             bool
	ReadonlyBackup       bool
	OnlyValidHeaders     bool
	ChangePartitionCount bool
	RequireMBR           bool
	LBS                  uint64
}

// Option configures a Config.
type Option func(*Config)

// WithWritable permits mutation and Write.
func WithWritable(w bool) Option { return func(c *Config) { c.Writable = w } }

// WithReadonlyBackup prevents Write from ever touching the backup copy.
func WithReadonlyBackup(b bool) Option { return func(c *Config) { c.ReadonlyBackup = b } }

// WithOnlyValidHeaders requires both headers to be valid and mutually
// consistent at Open time.
func WithOnlyValidHeaders(b bool) Option { return func(c *Config) { c.OnlyValidHeaders = b } }

// WithChangePartitionCount permits NumParts to differ from the value
// read at Open time.
func WithChangePartitionCount(b bool) Option { return func(c *Config) { c.ChangePartitionCount = b } }

// WithRequireMBR fails Open if LBA 0 isn't a valid protective MBR,
// instead of scheduling one to be written on next Write.
func WithRequireMBR(b bool) Option { return func(c *Config) { c.RequireMBR = b } }

// WithLogicalBlockSize overrides the logical block size; must be 512
// or 4096.
func WithLogicalBlockSize(lbs uint64) Option { return func(c *Config) { c.LBS = lbs } }

// NewConfig builds a Config from the given options, read-only by default.
func NewConfig(opts ...Option) *Config {
	c := &Config{}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Config) logicalBlockSize() uint64 {
	if c.LBS == 512 || c.LBS == 4096 {
		return c.LBS
	}
	return defaultLBS
}

// CreateFromDevice constructs a fresh DiskView over dev without reading
// any existing metadata: it seeds an empty partition map and a
// builder-derived header pair. Use this to initialize a brand-new GPT,
// as an alternative to Open (which always expects existing metadata).
func CreateFromDevice(dev Device, cfg *Config) (*DiskView, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	size, err := dev.Size()
	if err != nil {
		return nil, fmt.Errorf("gpt: device size: %w", err)
	}

	lbs := cfg.logicalBlockSize()
	totalLBA := uint64(size) / lbs
	if totalLBA < 3 {
		return nil, fmt.Errorf("gpt: device too small for GPT (%d LBAs)", totalLBA)
	}
	lastLBA := totalLBA - 1

	builder, err := NewHeaderBuilder(lbs, lastLBA)
	if err != nil {
		return nil, err
	}

	emptyArray := make([]byte, uint64(builder.NumParts)*uint64(builder.PartSize))
	crc := computeEntriesCRC(emptyArray, builder.NumParts, builder.PartSize)

	primary, backup, err := builder.Build(crc)
	if err != nil {
		return nil, err
	}

	v := &DiskView{
		dev:             dev,
		cfg:             *cfg,
		lbs:             lbs,
		mbr:             NewProtectiveMBR(totalLBA),
		mbrDirty:        true,
		primary:         primary,
		backup:          backup,
		activeIsPrimary: true,
		primaryDirty:    true,
		backupDirty:     true,
		partitions:      make(map[uint32]Entry),
		openedNumParts:  builder.NumParts,
	}

	return v, nil
}

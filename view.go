package gpt

import (
	"fmt"

	"github.com/google/uuid"
)

// DiskView binds a device, a logical block size, a validated pair of
// GPT headers, and the partition-entry mapping. All mutation happens
// in memory; only Write persists it. See spec.md §3 and §4.6-§4.8.
type DiskView struct {
	dev Device
	cfg Config
	lbs uint64

	mbr      ProtectiveMBR
	mbrDirty bool

	primary Header
	backup  Header

	// activeIsPrimary records which header is authoritative, per the
	// decision table in spec.md §4.6.
	activeIsPrimary bool
	primaryDirty    bool
	backupDirty     bool

	partitions map[uint32]Entry

	openedNumParts uint32 // num_parts at open time, for CountImmutable enforcement
}

func readAt(dev Device, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := dev.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("read at byte offset %d: %w", off, err)
	}
	return buf, nil
}

// Open reads a device's existing GPT metadata and returns a validated
// DiskView, applying the primary/backup decision table of spec.md §4.6.
func Open(dev Device, cfg *Config) (*DiskView, error) {
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

	v := &DiskView{dev: dev, cfg: *cfg, lbs: lbs}

	if err := v.readMBR(); err != nil {
		return nil, err
	}

	primaryRaw, primaryReadErr := readAt(dev, int64(lbs), int(lbs))
	var primary Header
	var primaryErr error
	if primaryReadErr != nil {
		primaryErr = primaryReadErr
	} else {
		primary, primaryErr = ParseHeader(primaryRaw, lbs, 1)
	}

	backupRaw, backupReadErr := readAt(dev, int64(lastLBA*lbs), int(lbs))
	var backup Header
	var backupErr error
	if backupReadErr != nil {
		backupErr = backupReadErr
	} else {
		backup, backupErr = ParseHeader(backupRaw, lbs, lastLBA)
	}

	if err := v.resolveHeaders(primary, primaryErr, backup, backupErr); err != nil {
		return nil, err
	}

	if err := v.readPartitions(); err != nil {
		return nil, err
	}

	v.openedNumParts = v.activeHeader().NumParts

	return v, nil
}

func (v *DiskView) readMBR() error {
	raw, err := readAt(v.dev, 0, mbrSize)
	if err != nil {
		if v.cfg.RequireMBR {
			return fmt.Errorf("%w: %v", ErrInvalidMBR, err)
		}
		v.mbrDirty = true
		return nil
	}

	mbr, perr := ParseProtectiveMBR(raw)
	if perr != nil {
		if v.cfg.RequireMBR {
			return perr
		}
		v.mbrDirty = true
		return nil
	}

	v.mbr = mbr
	return nil
}

// resolveHeaders implements spec.md §4.6's decision table.
func (v *DiskView) resolveHeaders(primary Header, primaryErr error, backup Header, backupErr error) error {
	primaryOK := primaryErr == nil
	backupOK := backupErr == nil

	switch {
	case primaryOK && backupOK:
		consistent := headersConsistent(primary, backup)
		if !consistent && v.cfg.OnlyValidHeaders {
			return fmt.Errorf("%w", ErrHeadersDisagree)
		}
		v.primary, v.backup = primary, backup
		v.activeIsPrimary = true
		if !consistent {
			v.backupDirty = true
		}
		return nil

	case primaryOK && !backupOK:
		if v.cfg.OnlyValidHeaders {
			return fmt.Errorf("%w: %v", ErrBackupInvalid, backupErr)
		}
		v.primary = primary
		v.backup = v.mirrorAsBackup(primary)
		v.activeIsPrimary = true
		v.backupDirty = true
		return nil

	case !primaryOK && backupOK:
		if v.cfg.OnlyValidHeaders {
			return fmt.Errorf("%w: %v", ErrPrimaryInvalid, primaryErr)
		}
		v.backup = backup
		v.primary = mirrorAsPrimary(backup)
		v.activeIsPrimary = false
		v.primaryDirty = true
		return nil

	default:
		return fmt.Errorf("%w: primary=%v backup=%v", ErrNoValidHeaders, primaryErr, backupErr)
	}
}

// mirrorAsBackup derives a plausible backup header from a valid
// primary when the on-disk backup is missing/corrupt, so the view has
// something to compare against and eventually rewrite.
func (v *DiskView) mirrorAsBackup(p Header) Header {
	b := p
	b.CurrentLBA = p.BackupLBA
	b.BackupLBA = p.CurrentLBA
	arraySectors := ceilDiv(uint64(p.NumParts)*uint64(p.PartSize), v.lbs)
	b.PartStart = p.BackupLBA - arraySectors
	return b
}

func mirrorAsPrimary(b Header) Header {
	p := b
	p.CurrentLBA = b.BackupLBA
	p.BackupLBA = b.CurrentLBA
	p.PartStart = 2
	return p
}

func (v *DiskView) activeHeader() Header {
	if v.activeIsPrimary {
		return v.primary
	}
	return v.backup
}

func (v *DiskView) readPartitions() error {
	h := v.activeHeader()

	arrayBytes := uint64(h.NumParts) * uint64(h.PartSize)
	readBytes := ceilDiv(arrayBytes, v.lbs) * v.lbs

	raw, err := readAt(v.dev, int64(h.PartStart*v.lbs), int(readBytes))
	if err != nil {
		return fmt.Errorf("gpt: read partition entries: %w", err)
	}

	got := computeEntriesCRC(raw, h.NumParts, h.PartSize)
	if got != h.CRC32Parts {
		return fmt.Errorf("%w: entries stored=0x%08x computed=0x%08x", ErrBadCRC, h.CRC32Parts, got)
	}

	partitions := make(map[uint32]Entry)
	for i := uint32(0); i < h.NumParts; i++ {
		off := uint64(i) * uint64(h.PartSize)
		entry, ok, err := decodeEntry(raw[off : off+uint64(h.PartSize)])
		if err != nil {
			return fmt.Errorf("gpt: partition entry %d: %w", i+1, err)
		}
		if !ok {
			continue
		}
		partitions[i+1] = entry
	}

	v.partitions = partitions
	return nil
}

// PrimaryHeader returns the primary header as last read or computed.
func (v *DiskView) PrimaryHeader() Header { return v.primary }

// BackupHeader returns the backup header as last read or computed.
func (v *DiskView) BackupHeader() Header { return v.backup }

// ActiveHeader returns whichever header is currently authoritative.
func (v *DiskView) ActiveHeader() Header { return v.activeHeader() }

// LogicalBlockSize returns the block size this view was opened with.
func (v *DiskView) LogicalBlockSize() uint64 { return v.lbs }

// DiskGUID returns the disk-wide identifier from the active header.
func (v *DiskView) DiskGUID() uuid.UUID { return v.activeHeader().DiskGUID }

// Partitions returns a snapshot copy of the current in-memory
// partition mapping, keyed by 1-based slot index.
func (v *DiskView) Partitions() map[uint32]Entry {
	out := make(map[uint32]Entry, len(v.partitions))
	for k, e := range v.partitions {
		out[k] = e
	}
	return out
}

// TakeDevice surrenders the underlying device back to the caller. The
// DiskView must not be used afterward.
func (v *DiskView) TakeDevice() Device {
	dev := v.dev
	v.dev = nil
	return dev
}

// DeviceRef lends read access to the underlying device without
// surrendering ownership.
func (v *DiskView) DeviceRef() Device { return v.dev }

// DeviceMut lends the underlying device back to the caller for direct
// reads and writes (e.g. issuing vendor-specific ioctls) without
// surrendering ownership the way TakeDevice does.
func (v *DiskView) DeviceMut() Device { return v.dev }

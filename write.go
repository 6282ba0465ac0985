package gpt

import "fmt"

// Write computes fresh CRCs and persists both headers, both entry
// arrays, and (if dirty) the protective MBR, in the crash-safe order
// spec.md §4.8 mandates: backup entries, backup header, primary
// entries, primary header, then the protective MBR. With ReadonlyBackup
// set, the backup entries and backup header are not written. Flush is
// invoked once, after the final write. On success it returns the
// primary and backup headers it computed.
func (v *DiskView) Write() (primary, backup Header, err error) {
	if !v.cfg.Writable {
		return Header{}, Header{}, fmt.Errorf("%w", ErrReadOnly)
	}

	numParts, err := v.effectiveNumParts()
	if err != nil {
		return Header{}, Header{}, err
	}

	if err := v.checkInvariants(); err != nil {
		return Header{}, Header{}, err
	}

	h := v.activeHeader()
	partSize := h.PartSize
	if partSize == 0 {
		partSize = EntrySize
	}

	array := make([]byte, uint64(numParts)*uint64(partSize))
	for idx, e := range v.partitions {
		off := uint64(idx-1) * uint64(partSize)
		enc, err := encodeEntry(e)
		if err != nil {
			return Header{}, Header{}, err
		}
		copy(array[off:off+uint64(partSize)], enc[:])
	}

	crcParts := computeEntriesCRC(array, numParts, partSize)

	arraySectors := ceilDiv(uint64(numParts)*uint64(partSize), v.lbs)
	lastLBA := h.BackupLBA
	if !v.activeIsPrimary {
		lastLBA = h.CurrentLBA
	}

	firstUsable := h.FirstUsableLBA
	lastUsable := h.LastUsableLBA

	if 2+arraySectors > firstUsable {
		return Header{}, Header{}, fmt.Errorf("gpt: %d entries needs %d sectors, overruns first_usable_lba %d", numParts, arraySectors, firstUsable)
	}
	if lastUsable > lastLBA-1-arraySectors {
		return Header{}, Header{}, fmt.Errorf("gpt: %d entries needs %d sectors, overruns last_usable_lba %d", numParts, arraySectors, lastUsable)
	}

	primary = Header{
		Revision:       Revision10,
		HeaderSize:     HeaderSize,
		CurrentLBA:     1,
		BackupLBA:      lastLBA,
		FirstUsableLBA: firstUsable,
		LastUsableLBA:  lastUsable,
		DiskGUID:       h.DiskGUID,
		PartStart:      2,
		NumParts:       numParts,
		PartSize:       partSize,
		CRC32Parts:     crcParts,
	}

	backup = Header{
		Revision:       Revision10,
		HeaderSize:     HeaderSize,
		CurrentLBA:     lastLBA,
		BackupLBA:      1,
		FirstUsableLBA: firstUsable,
		LastUsableLBA:  lastUsable,
		DiskGUID:       h.DiskGUID,
		PartStart:      lastLBA - arraySectors,
		NumParts:       numParts,
		PartSize:       partSize,
		CRC32Parts:     crcParts,
	}

	if !v.cfg.ReadonlyBackup {
		if err := v.writeLBARange(backup.PartStart, array); err != nil {
			return Header{}, Header{}, fmt.Errorf("gpt: write backup entries: %w", err)
		}
		if err := v.writeHeader(backup); err != nil {
			return Header{}, Header{}, fmt.Errorf("gpt: write backup header: %w", err)
		}
	}

	if err := v.writeLBARange(2, array); err != nil {
		return Header{}, Header{}, fmt.Errorf("gpt: write primary entries: %w", err)
	}
	if err := v.writeHeader(primary); err != nil {
		return Header{}, Header{}, fmt.Errorf("gpt: write primary header: %w", err)
	}

	if v.mbrDirty {
		mbr := v.mbr
		if mbr.StartLBA == 0 {
			totalLBA := lastLBA + 1
			mbr = NewProtectiveMBR(totalLBA)
		}
		if _, err := v.dev.WriteAt(mbr.Encode(), 0); err != nil {
			return Header{}, Header{}, fmt.Errorf("gpt: write protective MBR: %w", err)
		}
	}

	if err := v.dev.Sync(); err != nil {
		return Header{}, Header{}, fmt.Errorf("gpt: flush: %w", err)
	}

	v.primary, v.backup = primary, backup
	v.activeIsPrimary = true
	v.primaryDirty, v.backupDirty, v.mbrDirty = false, false, false
	v.openedNumParts = numParts

	return primary, backup, nil
}

func (v *DiskView) writeLBARange(startLBA uint64, data []byte) error {
	_, err := v.dev.WriteAt(data, int64(startLBA*v.lbs))
	return err
}

func (v *DiskView) writeHeader(h Header) error {
	raw := h.Encode()
	block := make([]byte, v.lbs)
	copy(block, raw)
	return v.writeLBARange(h.CurrentLBA, block)
}

// effectiveNumParts returns the slot count Write should use: the
// opened value unless growth is required to fit the highest occupied
// slot, in which case ChangePartitionCount must be set.
func (v *DiskView) effectiveNumParts() (uint32, error) {
	numParts := v.openedNumParts
	if numParts == 0 {
		numParts = v.activeHeader().NumParts
	}

	var maxSlot uint32
	for idx := range v.partitions {
		if idx > maxSlot {
			maxSlot = idx
		}
	}

	if maxSlot > numParts {
		if !v.cfg.ChangePartitionCount {
			return 0, fmt.Errorf("%w: need %d slots, opened with %d", ErrCountImmutable, maxSlot, numParts)
		}
		numParts = maxSlot
	}

	return numParts, nil
}

package gpt

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// defaultAlignment is the default start-LBA alignment AddPartition
// rounds up to, per spec.md §4.7.
const defaultAlignment = 2048

// AddPartition finds the lowest-addressed free range of at least
// sizeBytes (rounded to whole sectors), respecting partAlignment (0
// means defaultAlignment), allocates the lowest free slot index, and
// inserts a new entry there. Returns the assigned slot index.
func (v *DiskView) AddPartition(name string, sizeBytes uint64, typeGUID uuid.UUID, flags uint64, partAlignment uint64) (uint32, error) {
	if partAlignment == 0 {
		partAlignment = defaultAlignment
	}

	sectorsNeeded := ceilDiv(sizeBytes, v.lbs)
	if sectorsNeeded == 0 {
		return 0, fmt.Errorf("%w: %d bytes at %d-byte sectors", ErrTooSmall, sizeBytes, v.lbs)
	}

	h := v.activeHeader()
	start, ok := v.findFreeRange(sectorsNeeded, partAlignment, h.FirstUsableLBA, h.LastUsableLBA)
	if !ok {
		return 0, fmt.Errorf("%w: need %d sectors", ErrNoSpace, sectorsNeeded)
	}

	return v.insertPartition(name, start, start+sectorsNeeded-1, typeGUID, flags)
}

// AddPartitionAt inserts a partition at a caller-chosen start LBA.
// Fails ErrOverlap if the requested range intersects a live partition
// or escapes the usable bounds.
func (v *DiskView) AddPartitionAt(name string, startLBA, sizeBytes uint64, typeGUID uuid.UUID, flags uint64) (uint32, error) {
	sectorsNeeded := ceilDiv(sizeBytes, v.lbs)
	if sectorsNeeded == 0 {
		return 0, fmt.Errorf("%w: %d bytes at %d-byte sectors", ErrTooSmall, sizeBytes, v.lbs)
	}

	lastLBA := startLBA + sectorsNeeded - 1

	h := v.activeHeader()
	if startLBA < h.FirstUsableLBA || lastLBA > h.LastUsableLBA {
		return 0, fmt.Errorf("%w: %w: [%d,%d] outside [%d,%d]", ErrOverlap, ErrOutOfUsableRange, startLBA, lastLBA, h.FirstUsableLBA, h.LastUsableLBA)
	}

	for idx, e := range v.partitions {
		if rangesOverlap(startLBA, lastLBA, e.FirstLBA, e.LastLBA) {
			return 0, fmt.Errorf("%w: slot %d [%d,%d]", ErrOverlap, idx, e.FirstLBA, e.LastLBA)
		}
	}

	return v.insertPartition(name, startLBA, lastLBA, typeGUID, flags)
}

func (v *DiskView) insertPartition(name string, firstLBA, lastLBA uint64, typeGUID uuid.UUID, flags uint64) (uint32, error) {
	uniqueGUID, err := newUUID()
	if err != nil {
		return 0, fmt.Errorf("gpt: generate partition GUID: %w", err)
	}

	entry := Entry{
		TypeGUID:   typeGUID,
		UniqueGUID: uniqueGUID,
		FirstLBA:   firstLBA,
		LastLBA:    lastLBA,
		Attributes: flags,
		Name:       name,
	}

	if _, err := encodeEntry(entry); err != nil {
		return 0, err
	}

	slot := v.lowestFreeSlot()
	if slot == 0 {
		return 0, fmt.Errorf("%w: entry array full at %d slots, enable ChangePartitionCount to grow it", ErrCountImmutable, v.capacity())
	}

	v.partitions[slot] = entry

	if err := v.checkInvariants(); err != nil {
		delete(v.partitions, slot)
		return 0, err
	}

	return slot, nil
}

// capacity returns the highest slot index a mutation may use: the
// num_parts the view was opened with, ordinarily, or unbounded when
// ChangePartitionCount lets the array grow past it. Write later derives
// the actual num_parts to persist from the highest slot in use.
func (v *DiskView) capacity() uint32 {
	if v.cfg.ChangePartitionCount {
		return ^uint32(0)
	}
	return v.openedNumParts
}

// lowestFreeSlot returns the lowest 1-based slot index not currently
// occupied, or 0 if the array is full up to capacity.
func (v *DiskView) lowestFreeSlot() uint32 {
	limit := v.capacity()
	for i := uint32(1); i <= limit; i++ {
		if _, used := v.partitions[i]; !used {
			return i
		}
	}
	return 0
}

// findFreeRange first-fits sectorsNeeded sectors, aligned to
// alignment, somewhere in [firstUsable, lastUsable] that doesn't
// intersect any live partition.
func (v *DiskView) findFreeRange(sectorsNeeded, alignment, firstUsable, lastUsable uint64) (uint64, bool) {
	type span struct{ first, last uint64 }

	occupied := make([]span, 0, len(v.partitions))
	for _, e := range v.partitions {
		occupied = append(occupied, span{e.FirstLBA, e.LastLBA})
	}
	sort.Slice(occupied, func(i, j int) bool { return occupied[i].first < occupied[j].first })

	candidate := alignUp(firstUsable, alignment)

	for _, s := range occupied {
		if candidate+sectorsNeeded-1 < s.first {
			// fits before this partition
			return candidate, true
		}
		if s.last >= candidate {
			candidate = alignUp(s.last+1, alignment)
		}
	}

	if candidate+sectorsNeeded-1 <= lastUsable && candidate >= firstUsable {
		return candidate, true
	}

	return 0, false
}

func alignUp(v, alignment uint64) uint64 {
	if alignment == 0 {
		return v
	}
	return ceilDiv(v, alignment) * alignment
}

func rangesOverlap(aFirst, aLast, bFirst, bLast uint64) bool {
	return aFirst <= bLast && bFirst <= aLast
}

// RemovePartition clears slot index. Fails ErrNoSuchPartition if empty.
func (v *DiskView) RemovePartition(index uint32) (Entry, error) {
	e, ok := v.partitions[index]
	if !ok {
		return Entry{}, fmt.Errorf("%w: slot %d", ErrNoSuchPartition, index)
	}
	delete(v.partitions, index)
	return e, nil
}

// RemovePartitionByGUID finds the unique live slot whose UniqueGUID
// matches id and clears it. Fails ErrAmbiguousGUID if more than one
// slot matches, which should never occur under maintained invariants.
func (v *DiskView) RemovePartitionByGUID(id uuid.UUID) (Entry, error) {
	var matchIdx uint32
	var match Entry
	found := 0

	for idx, e := range v.partitions {
		if e.UniqueGUID == id {
			matchIdx, match = idx, e
			found++
		}
	}

	switch found {
	case 0:
		return Entry{}, fmt.Errorf("%w: GUID %s", ErrNoSuchPartition, id)
	case 1:
		delete(v.partitions, matchIdx)
		return match, nil
	default:
		return Entry{}, fmt.Errorf("%w: GUID %s", ErrAmbiguousGUID, id)
	}
}

// UpdatePartitions wholesale-replaces the partition mapping, subject to
// the usual invariant recheck.
func (v *DiskView) UpdatePartitions(m map[uint32]Entry) error {
	prev := v.partitions
	replacement := make(map[uint32]Entry, len(m))
	for k, e := range m {
		replacement[k] = e
	}
	v.partitions = replacement

	if err := v.checkInvariants(); err != nil {
		v.partitions = prev
		return err
	}
	return nil
}

// TakePartitions returns the current partition mapping and resets the
// view to an empty one.
func (v *DiskView) TakePartitions() map[uint32]Entry {
	out := v.partitions
	v.partitions = make(map[uint32]Entry)
	return out
}

// UpdateDiskGUID replaces the disk-wide identifier on both headers.
func (v *DiskView) UpdateDiskGUID(id uuid.UUID) {
	v.primary.DiskGUID = id
	v.backup.DiskGUID = id
}

// CalculateAlignment returns the largest power-of-two sector count ≤ 1
// MiB/LBS that divides every live partition's start LBA, or
// defaultAlignment if there are no partitions.
func (v *DiskView) CalculateAlignment() uint64 {
	if len(v.partitions) == 0 {
		return defaultAlignment
	}

	maxAlign := (1 << 20) / v.lbs
	if maxAlign == 0 {
		maxAlign = 1
	}

	best := uint64(1)
	for a := maxAlign; a >= 1; a >>= 1 {
		allDivide := true
		for _, e := range v.partitions {
			if e.FirstLBA%a != 0 {
				allDivide = false
				break
			}
		}
		if allDivide {
			best = a
			break
		}
	}
	return best
}

// checkInvariants rechecks the invariants spec.md §4.7 requires after
// any mutation: non-overlapping live ranges, all within usable bounds,
// unique GUIDs distinct, count within capacity.
func (v *DiskView) checkInvariants() error {
	h := v.activeHeader()
	capacity := v.capacity()

	if uint32(len(v.partitions)) > capacity {
		return fmt.Errorf("%w: %d partitions exceeds %d slots", ErrCountImmutable, len(v.partitions), capacity)
	}

	seenGUID := make(map[uuid.UUID]uint32, len(v.partitions))

	type span struct {
		idx         uint32
		first, last uint64
	}
	spans := make([]span, 0, len(v.partitions))

	for idx, e := range v.partitions {
		if idx == 0 || idx > capacity {
			return fmt.Errorf("%w: slot %d outside [1,%d]", ErrCountImmutable, idx, capacity)
		}
		if e.FirstLBA == 0 {
			return fmt.Errorf("gpt: slot %d has first_lba 0", idx)
		}
		if e.FirstLBA < h.FirstUsableLBA || e.LastLBA > h.LastUsableLBA || e.FirstLBA > e.LastLBA {
			return fmt.Errorf("%w: slot %d [%d,%d] outside [%d,%d]", ErrOutOfUsableRange, idx, e.FirstLBA, e.LastLBA, h.FirstUsableLBA, h.LastUsableLBA)
		}
		if e.UniqueGUID == uuid.Nil {
			return fmt.Errorf("gpt: slot %d has nil unique GUID", idx)
		}
		if other, dup := seenGUID[e.UniqueGUID]; dup {
			return fmt.Errorf("gpt: slots %d and %d share unique GUID %s", other, idx, e.UniqueGUID)
		}
		seenGUID[e.UniqueGUID] = idx

		spans = append(spans, span{idx, e.FirstLBA, e.LastLBA})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].first < spans[j].first })
	for i := 1; i < len(spans); i++ {
		if spans[i].first <= spans[i-1].last {
			return fmt.Errorf("%w: slots %d and %d", ErrOverlap, spans[i-1].idx, spans[i].idx)
		}
	}

	return nil
}

package engine

import (
	"fmt"

	"github.com/downfa11-org/logdb/pkg/types"
)

// FindByStatus scans every index entry in global order and collects the
// positions whose user status equals status, filling results front to back
// until it is full. Returns how many positions were written.
func (e *Engine) FindByStatus(status uint8, results []uint32) (int, error) {
	count := 0
	for i := uint32(0); i < e.indexCount && count < len(results); i++ {
		entry, err := e.entryAt(i)
		if err != nil {
			return count, err
		}
		if entry.Status == status {
			results[count] = i
			count++
		}
	}
	return count, nil
}

// RecordCount counts entries whose internalStatus has every bit of
// mustBeSet present and every bit of mustBeClear absent.
func (e *Engine) RecordCount(mustBeSet, mustBeClear uint8) (uint32, error) {
	var count uint32
	for i := uint32(0); i < e.indexCount; i++ {
		entry, err := e.entryAt(i)
		if err != nil {
			return count, err
		}
		if entry.InternalStatus&mustBeSet == mustBeSet && entry.InternalStatus&mustBeClear == 0 {
			count++
		}
	}
	return count, nil
}

// FirstMatchingEntry returns the entry with the smallest global position
// satisfying the internalStatus bit criteria.
func (e *Engine) FirstMatchingEntry(mustBeSet, mustBeClear uint8) (types.IndexEntry, uint32, error) {
	for i := uint32(0); i < e.indexCount; i++ {
		entry, err := e.entryAt(i)
		if err != nil {
			return types.IndexEntry{}, 0, err
		}
		if entry.InternalStatus&mustBeSet == mustBeSet && entry.InternalStatus&mustBeClear == 0 {
			return entry, i, nil
		}
	}
	return types.IndexEntry{}, 0, fmt.Errorf("no entry matching set=%#x clear=%#x: %w",
		mustBeSet, mustBeClear, ErrNotFound)
}

// FirstActiveEntry returns the first entry not marked deleted.
func (e *Engine) FirstActiveEntry() (types.IndexEntry, uint32, error) {
	return e.FirstMatchingEntry(0, types.InternalStatusDeleted)
}

// FirstDeletedEntry returns the first tombstoned entry.
func (e *Engine) FirstDeletedEntry() (types.IndexEntry, uint32, error) {
	return e.FirstMatchingEntry(types.InternalStatusDeleted, 0)
}

package engine

import (
	"fmt"
	"time"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/metrics"
	"github.com/downfa11-org/logdb/pkg/types"
	"github.com/downfa11-org/logdb/util"
)

// openLogHeader reads and validates the log header, creating a fresh log
// when the file is absent or unreadable.
func (e *Engine) openLogHeader() error {
	header, err := e.readLogHeader()
	if err != nil {
		util.Debug("log %s has no readable header, creating: %v", e.logName, err)
		if err := e.writeLogHeader(); err != nil {
			return fmt.Errorf("create log header: %w", err)
		}
		return nil
	}
	if !header.Valid() {
		return fmt.Errorf("log header magic=%#x version=%#x: %w",
			header.Magic, header.Version, ErrCorrupted)
	}
	return nil
}

func (e *Engine) readLogHeader() (types.LogHeader, error) {
	var header types.LogHeader
	if err := e.log.Open(e.logName, disk.ModeRead); err != nil {
		return header, err
	}
	var buf [types.LogHeaderSize]byte
	n, err := e.log.Read(buf[:])
	closeErr := e.log.Close()
	if err != nil || n < types.LogHeaderSize {
		return header, fmt.Errorf("log header read %d of %d bytes", n, types.LogHeaderSize)
	}
	if closeErr != nil {
		return header, closeErr
	}
	header.Decode(buf[:])
	return header, nil
}

func (e *Engine) writeLogHeader() error {
	if err := e.log.Open(e.logName, disk.ModeReadWrite); err != nil {
		if err := e.log.Open(e.logName, disk.ModeCreate); err != nil {
			return err
		}
	}
	if err := e.log.Seek(0); err != nil {
		e.log.Close()
		return err
	}
	header := types.LogHeader{Magic: types.Magic, Version: types.Version}
	var buf [types.LogHeaderSize]byte
	header.Encode(buf[:])
	n, err := e.log.Write(buf[:])
	if err == nil && n < types.LogHeaderSize {
		err = ErrShortWrite
	}
	if err != nil {
		e.log.Close()
		return err
	}
	return e.log.Close()
}

// Append writes a record to the end of the log and indexes it. A live
// duplicate key fails with ErrDuplicateKey; a tombstoned one has its index
// slot reused in place. A failure after the log write may leave an orphaned
// record: retrievable by offset scan, invisible to key lookup.
func (e *Engine) Append(key uint32, recordType uint8, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("payload %d bytes exceeds record limit", len(payload))
	}
	start := time.Now()

	pos, found, err := e.searchIndex(key)
	if err != nil {
		return err
	}
	reuse := false
	var existing types.IndexEntry
	if found {
		existing, err = e.entryAt(pos)
		if err != nil {
			return err
		}
		if !existing.Deleted() {
			metrics.DuplicateRejects.Inc()
			return fmt.Errorf("key %d: %w", key, ErrDuplicateKey)
		}
		reuse = true
	}

	offset, err := e.appendToLog(key, recordType, payload)
	if err != nil {
		return err
	}

	if reuse {
		existing.Offset = offset
		existing.InternalStatus &^= types.InternalStatusDeleted
		if err := e.setEntryAt(pos, existing); err != nil {
			return err
		}
	} else {
		entry := types.IndexEntry{Key: key, Offset: offset}
		if err := e.insertAt(pos, entry); err != nil {
			return err
		}
	}

	metrics.ObserveAppend(time.Since(start).Seconds(), reuse)
	return nil
}

// appendToLog writes header+payload at the end of the log, creating the
// file (with its header) when absent, and returns the record's offset.
func (e *Engine) appendToLog(key uint32, recordType uint8, payload []byte) (uint32, error) {
	if err := e.log.Open(e.logName, disk.ModeReadWrite); err != nil {
		if err := e.log.Open(e.logName, disk.ModeCreate); err != nil {
			return 0, err
		}
		header := types.LogHeader{Magic: types.Magic, Version: types.Version}
		var buf [types.LogHeaderSize]byte
		header.Encode(buf[:])
		n, err := e.log.Write(buf[:])
		if err == nil && n < types.LogHeaderSize {
			err = ErrShortWrite
		}
		if err != nil {
			e.log.Close()
			return 0, err
		}
	}

	if err := e.log.SeekToEnd(); err != nil {
		e.log.Close()
		return 0, err
	}
	offset, err := e.log.Tell()
	if err != nil {
		e.log.Close()
		return 0, err
	}

	entryHeader := types.LogEntryHeader{
		RecordType: recordType,
		Length:     uint16(len(payload)),
		Key:        key,
	}
	var headerBuf [types.LogEntryHeaderSize]byte
	entryHeader.Encode(headerBuf[:])
	n, err := e.log.Write(headerBuf[:])
	if err == nil && n < types.LogEntryHeaderSize {
		err = ErrShortWrite
	}
	if err != nil {
		e.log.Close()
		return 0, err
	}
	n, err = e.log.Write(payload)
	if err == nil && n < len(payload) {
		err = ErrShortWrite
	}
	if err != nil {
		e.log.Close()
		return 0, err
	}
	if e.syncWrites {
		if err := e.log.Sync(); err != nil {
			e.log.Close()
			return 0, err
		}
	}
	return offset, e.log.Close()
}

// Get copies the payload of the record holding key into buf and returns
// its length. Tombstoned records remain readable; callers that care can
// check IndexEntry(pos).Deleted().
func (e *Engine) Get(key uint32, buf []byte) (int, error) {
	pos, found, err := e.searchIndex(key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("key %d: %w", key, ErrNotFound)
	}
	entry, err := e.entryAt(pos)
	if err != nil {
		return 0, err
	}
	_, n, err := e.readRecord(entry.Offset, buf)
	if err != nil {
		return 0, err
	}
	metrics.Gets.Inc()
	return n, nil
}

// GetByIndex reads the record at a global index position, returning its
// log entry header alongside the payload length.
func (e *Engine) GetByIndex(globalIndex uint32, buf []byte) (types.LogEntryHeader, int, error) {
	if globalIndex >= e.indexCount {
		return types.LogEntryHeader{}, 0, fmt.Errorf("index %d out of range: %w", globalIndex, ErrNotFound)
	}
	entry, err := e.entryAt(globalIndex)
	if err != nil {
		return types.LogEntryHeader{}, 0, err
	}
	header, n, err := e.readRecord(entry.Offset, buf)
	if err != nil {
		return types.LogEntryHeader{}, 0, err
	}
	metrics.Gets.Inc()
	return header, n, nil
}

func (e *Engine) readRecord(offset uint32, buf []byte) (types.LogEntryHeader, int, error) {
	var header types.LogEntryHeader
	if err := e.log.Open(e.logName, disk.ModeRead); err != nil {
		return header, 0, err
	}
	if err := e.log.Seek(offset); err != nil {
		e.log.Close()
		return header, 0, err
	}
	var headerBuf [types.LogEntryHeaderSize]byte
	n, err := e.log.Read(headerBuf[:])
	if err != nil || n < types.LogEntryHeaderSize {
		e.log.Close()
		return header, 0, fmt.Errorf("record header at %d: read %d of %d bytes", offset, n, types.LogEntryHeaderSize)
	}
	header.Decode(headerBuf[:])
	if int(header.Length) > len(buf) {
		e.log.Close()
		return header, 0, fmt.Errorf("record %d bytes, buffer %d: %w", header.Length, len(buf), ErrBufferTooSmall)
	}
	n, err = e.log.Read(buf[:header.Length])
	if err != nil || n < int(header.Length) {
		e.log.Close()
		return header, 0, fmt.Errorf("record payload at %d: read %d of %d bytes", offset, n, header.Length)
	}
	return header, int(header.Length), e.log.Close()
}

// UpdateStatus rewrites the user status byte of the record at a global
// index position, in the log (a single-byte in-place write) and in the
// index entry.
func (e *Engine) UpdateStatus(globalIndex uint32, newStatus uint8) error {
	if globalIndex >= e.indexCount {
		return fmt.Errorf("index %d out of range: %w", globalIndex, ErrNotFound)
	}
	entry, err := e.entryAt(globalIndex)
	if err != nil {
		return err
	}
	if err := e.writeLogByte(entry.Offset+types.StatusFieldOffset, newStatus); err != nil {
		return err
	}
	entry.Status = newStatus
	return e.setEntryAt(globalIndex, entry)
}

// DeleteRecord tombstones a record by key. Deleting an already-deleted
// record succeeds as a no-op. Nothing is physically removed; the index
// slot becomes eligible for reuse by a later Append of the same key.
func (e *Engine) DeleteRecord(key uint32) error {
	pos, found, err := e.searchIndex(key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key %d: %w", key, ErrNotFound)
	}
	entry, err := e.entryAt(pos)
	if err != nil {
		return err
	}
	if entry.Deleted() {
		return nil
	}

	newInternal := entry.InternalStatus | types.InternalStatusDeleted
	if err := e.writeLogByte(entry.Offset+types.InternalStatusFieldOffset, newInternal); err != nil {
		return err
	}
	entry.InternalStatus = newInternal
	if err := e.setEntryAt(pos, entry); err != nil {
		return err
	}
	metrics.Deletes.Inc()
	return nil
}

func (e *Engine) writeLogByte(offset uint32, value uint8) error {
	if err := e.log.Open(e.logName, disk.ModeReadWrite); err != nil {
		return err
	}
	if err := e.log.Seek(offset); err != nil {
		e.log.Close()
		return err
	}
	n, err := e.log.Write([]byte{value})
	if err == nil && n < 1 {
		err = ErrShortWrite
	}
	if err != nil {
		e.log.Close()
		return err
	}
	if e.syncWrites {
		if err := e.log.Sync(); err != nil {
			e.log.Close()
			return err
		}
	}
	return e.log.Close()
}

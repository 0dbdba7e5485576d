package engine

import (
	"fmt"
	"io"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/metrics"
	"github.com/downfa11-org/logdb/pkg/types"
	"github.com/downfa11-org/logdb/util"
)

// openIndexHeader reads and validates the index header, creating a fresh
// one when the file is absent or empty.
func (e *Engine) openIndexHeader() error {
	header, err := e.readIndexHeader()
	if err != nil {
		e.indexCount = 0
		if err := e.writeIndexHeader(); err != nil {
			return fmt.Errorf("create index header: %w", err)
		}
		return nil
	}
	if !header.Valid() {
		return fmt.Errorf("index header magic=%#x version=%#x: %w",
			header.Magic, header.Version, ErrCorrupted)
	}
	e.indexCount = header.Count
	return nil
}

func (e *Engine) readIndexHeader() (types.IndexHeader, error) {
	var header types.IndexHeader
	if err := e.index.Open(e.indexName, disk.ModeRead); err != nil {
		return header, err
	}
	buf := e.pageBuf[:types.IndexHeaderSize]
	n, err := e.index.Read(buf)
	closeErr := e.index.Close()
	if err != nil || n < types.IndexHeaderSize {
		return header, fmt.Errorf("index header read %d of %d bytes", n, types.IndexHeaderSize)
	}
	if closeErr != nil {
		return header, closeErr
	}
	header.Decode(buf)
	return header, nil
}

// writeIndexHeader persists the header including the current entry count.
func (e *Engine) writeIndexHeader() error {
	if err := e.index.Open(e.indexName, disk.ModeReadWrite); err != nil {
		if err := e.index.Open(e.indexName, disk.ModeCreate); err != nil {
			return err
		}
	}
	if err := e.index.Seek(0); err != nil {
		e.index.Close()
		return err
	}
	header := types.IndexHeader{Magic: types.Magic, Version: types.Version, Count: e.indexCount}
	buf := e.pageBuf[:types.IndexHeaderSize]
	header.Encode(buf)
	n, err := e.index.Write(buf)
	if err == nil && n < types.IndexHeaderSize {
		err = ErrShortWrite
	}
	if err != nil {
		e.index.Close()
		return err
	}
	return e.index.Close()
}

// occupancy returns how many entries page p holds under the packed layout:
// every page is full except possibly the final one.
func (e *Engine) occupancy(p uint32) uint32 {
	first := p * types.PageEntries
	if e.indexCount <= first {
		return 0
	}
	n := e.indexCount - first
	if n > types.PageEntries {
		return types.PageEntries
	}
	return n
}

func (e *Engine) ensurePage(p uint32) error {
	if e.pageLoaded && e.currentPage == p {
		return nil
	}
	return e.loadPage(p)
}

// loadPage makes page p resident, flushing the previous page first. A short
// read is tolerated only here: the final page may be partially populated on
// disk, and the remainder is zero-filled.
func (e *Engine) loadPage(p uint32) error {
	if err := e.flushPage(); err != nil {
		return err
	}

	expected := e.occupancy(p)
	if expected > 0 {
		if err := e.index.Open(e.indexName, disk.ModeRead); err != nil {
			return fmt.Errorf("load page %d: %w", p, err)
		}
		if err := e.index.Seek(types.PageOffset(p)); err != nil {
			e.index.Close()
			return fmt.Errorf("load page %d: %w", p, err)
		}
		buf := e.pageBuf[:expected*types.IndexEntrySize]
		n, err := e.index.Read(buf)
		if err != nil && err != io.EOF {
			e.index.Close()
			return fmt.Errorf("load page %d: %w", p, err)
		}
		if err := e.index.Close(); err != nil {
			return err
		}
		if n < len(buf) {
			util.Debug("page %d short read (%d of %d bytes), zero-filling", p, n, len(buf))
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
		}
		for i := uint32(0); i < expected; i++ {
			e.page[i].Decode(buf[i*types.IndexEntrySize:])
		}
	}
	for i := expected; i < types.PageEntries; i++ {
		e.page[i] = types.IndexEntry{}
	}

	e.currentPage = p
	e.pageLoaded = true
	e.pageDirty = false
	metrics.PageLoads.Inc()
	return nil
}

// flushPage writes the resident page's occupied slots and rewrites the
// header so the on-disk entry count catches up with resident mutations.
func (e *Engine) flushPage() error {
	if !e.pageDirty {
		return nil
	}

	entries := e.occupancy(e.currentPage)
	if err := e.index.Open(e.indexName, disk.ModeReadWrite); err != nil {
		return fmt.Errorf("flush page %d: %w", e.currentPage, err)
	}
	if err := e.index.Seek(types.PageOffset(e.currentPage)); err != nil {
		e.index.Close()
		return fmt.Errorf("flush page %d: %w", e.currentPage, err)
	}
	buf := e.pageBuf[:entries*types.IndexEntrySize]
	for i := uint32(0); i < entries; i++ {
		e.page[i].Encode(buf[i*types.IndexEntrySize:])
	}
	n, err := e.index.Write(buf)
	if err == nil && n < len(buf) {
		err = ErrShortWrite
	}
	if err != nil {
		e.index.Close()
		return fmt.Errorf("flush page %d: %w", e.currentPage, err)
	}
	if err := e.index.Close(); err != nil {
		return err
	}

	if err := e.writeIndexHeader(); err != nil {
		return fmt.Errorf("flush page %d header: %w", e.currentPage, err)
	}
	e.pageDirty = false
	metrics.PageFlushes.Inc()
	return nil
}

// entryAt reads the entry at a global position, demand-loading its page.
func (e *Engine) entryAt(globalIndex uint32) (types.IndexEntry, error) {
	if err := e.ensurePage(globalIndex / types.PageEntries); err != nil {
		return types.IndexEntry{}, err
	}
	return e.page[globalIndex%types.PageEntries], nil
}

// setEntryAt replaces the entry at a global position and marks the page
// dirty; the write reaches disk on the next flush.
func (e *Engine) setEntryAt(globalIndex uint32, entry types.IndexEntry) error {
	if err := e.ensurePage(globalIndex / types.PageEntries); err != nil {
		return err
	}
	e.page[globalIndex%types.PageEntries] = entry
	e.pageDirty = true
	return nil
}

// searchIndex binary-searches the whole index. When the key is absent, pos
// is its insertion position: the smallest global index whose key exceeds
// the query, or indexCount when the query exceeds every key.
func (e *Engine) searchIndex(key uint32) (pos uint32, found bool, err error) {
	low, high := uint32(0), e.indexCount
	for low < high {
		mid := low + (high-low)/2
		entry, err := e.entryAt(mid)
		if err != nil {
			return 0, false, err
		}
		switch {
		case entry.Key == key:
			return mid, true, nil
		case entry.Key < key:
			low = mid + 1
		default:
			high = mid
		}
	}
	return low, false, nil
}

// insertAt places entry at global position pos, shifting everything behind
// it. A full page pushes its last entry into the next page, repeating until
// the final (partial or fresh) page absorbs the carry; pages therefore stay
// packed and the global position arithmetic stays valid for any insertion
// order, not just monotonic keys.
func (e *Engine) insertAt(pos uint32, entry types.IndexEntry) error {
	// Defensive duplicate guard at pos and pos-1, in addition to the
	// caller's search.
	if pos < e.indexCount {
		next, err := e.entryAt(pos)
		if err != nil {
			return err
		}
		if next.Key == entry.Key {
			return fmt.Errorf("key %d already at position %d: %w", entry.Key, pos, ErrDuplicateKey)
		}
	}
	if pos > 0 {
		prev, err := e.entryAt(pos - 1)
		if err != nil {
			return err
		}
		if prev.Key == entry.Key {
			return fmt.Errorf("key %d already at position %d: %w", entry.Key, pos-1, ErrDuplicateKey)
		}
	}

	p := pos / types.PageEntries
	slot := pos % types.PageEntries
	carry := entry

	for {
		if err := e.ensurePage(p); err != nil {
			return err
		}
		n := e.occupancy(p)

		if n < types.PageEntries {
			copy(e.page[slot+1:n+1], e.page[slot:n])
			e.page[slot] = carry
			e.indexCount++
			e.pageDirty = true
			metrics.IndexEntries.Set(float64(e.indexCount))
			if n+1 == types.PageEntries {
				return e.flushPage()
			}
			return nil
		}

		// Page full: push its last entry out and spill into the next page.
		spilled := e.page[types.PageEntries-1]
		copy(e.page[slot+1:], e.page[slot:types.PageEntries-1])
		e.page[slot] = carry
		e.pageDirty = true
		if err := e.flushPage(); err != nil {
			return err
		}
		util.Debug("page %d full, spilling key %d into page %d", p, spilled.Key, p+1)
		metrics.PageSpills.Inc()
		carry = spilled
		slot = 0
		p++
	}
}

// validateIndex is the open-time smoke test: the first page must be
// strictly ascending. Cross-page ordering and offset validity are audited
// offline by the inspect package instead.
func (e *Engine) validateIndex() error {
	if e.indexCount == 0 {
		return nil
	}
	if err := e.loadPage(0); err != nil {
		return err
	}
	entries := e.occupancy(0)
	for i := uint32(0); i+1 < entries; i++ {
		if e.page[i].Key >= e.page[i+1].Key {
			return fmt.Errorf("page 0 entry %d key %d >= next key %d: %w",
				i, e.page[i].Key, e.page[i+1].Key, ErrCorrupted)
		}
	}
	return nil
}

// Package engine implements the key-value storage engine: an append-only
// log of variable-length records plus a sorted, paged on-disk index keyed
// by a 32-bit integer. Exactly one index page is resident at a time, so
// memory stays bounded regardless of database size.
//
// The engine is single-threaded and non-reentrant. It owns its two disk
// handlers exclusively and assumes no other process touches either file
// while it is open.
package engine

import (
	"fmt"
	"strings"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/metrics"
	"github.com/downfa11-org/logdb/pkg/types"
	"github.com/downfa11-org/logdb/util"
)

// Engine is the facade over the log and index files.
type Engine struct {
	log   disk.Handler
	index disk.Handler

	logName   string
	indexName string

	indexCount uint32

	// Resident page state machine: not-loaded -> loaded -> dirty, back to
	// loaded via flushPage. loadPage always flushes before replacing.
	page        [types.PageEntries]types.IndexEntry
	currentPage uint32
	pageLoaded  bool
	pageDirty   bool

	// Scratch buffer for page and header I/O; sized for one full page.
	pageBuf [types.PageSize]byte

	syncWrites bool
}

// New wires an engine to its two backends. The handlers are borrowed for
// the engine's lifetime and must not be shared.
func New(logHandler, indexHandler disk.Handler) *Engine {
	return &Engine{
		log:   logHandler,
		index: indexHandler,
	}
}

// SetSyncWrites makes every log write reach stable storage before Append
// returns. Off by default; page flushes are unaffected.
func (e *Engine) SetSyncWrites(on bool) {
	e.syncWrites = on
}

// Open validates (or creates) both files and primes the index state.
// A magic or version mismatch in either header fails the open, as does an
// out-of-order first index page.
func (e *Engine) Open(logName, indexName string) error {
	if err := disk.ValidateName(logName); err != nil {
		return err
	}
	if err := disk.ValidateName(indexName); err != nil {
		return err
	}
	e.logName = logName
	e.indexName = indexName

	e.indexCount = 0
	e.currentPage = 0
	e.pageLoaded = false
	e.pageDirty = false

	if err := e.openLogHeader(); err != nil {
		return err
	}
	if err := e.openIndexHeader(); err != nil {
		return err
	}
	if err := e.validateIndex(); err != nil {
		return err
	}

	metrics.IndexEntries.Set(float64(e.indexCount))
	util.Debug("opened database log=%s index=%s entries=%d", logName, indexName, e.indexCount)
	return nil
}

// Flush writes the resident page and the index header if dirty.
func (e *Engine) Flush() error {
	return e.flushPage()
}

// Close flushes pending index state and releases both handlers.
func (e *Engine) Close() error {
	flushErr := e.flushPage()
	if err := e.log.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := e.index.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

// IndexCount returns the number of index entries, tombstones included.
func (e *Engine) IndexCount() uint32 {
	return e.indexCount
}

// Version returns the on-disk format version validated at Open.
func (e *Engine) Version() uint16 {
	return types.Version
}

// IndexEntry returns the entry at a global index position.
func (e *Engine) IndexEntry(globalIndex uint32) (types.IndexEntry, error) {
	if globalIndex >= e.indexCount {
		return types.IndexEntry{}, fmt.Errorf("index %d out of range: %w", globalIndex, ErrNotFound)
	}
	return e.entryAt(globalIndex)
}

// Stats summarizes the index: totals, page occupancy and key population.
type Stats struct {
	TotalRecords   uint32
	TotalPages     uint32
	ActiveRecords  uint32
	DeletedRecords uint32
	UniqueKeys     uint32
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database statistics:\n")
	fmt.Fprintf(&b, "  Total records: %d\n", s.TotalRecords)
	fmt.Fprintf(&b, "  Total pages: %d\n", s.TotalPages)
	fmt.Fprintf(&b, "  Active records: %d\n", s.ActiveRecords)
	fmt.Fprintf(&b, "  Deleted records: %d\n", s.DeletedRecords)
	fmt.Fprintf(&b, "  Unique keys: %d\n", s.UniqueKeys)
	return b.String()
}

// Stats sweeps every page through the resident buffer.
func (e *Engine) Stats() (Stats, error) {
	s := Stats{
		TotalRecords: e.indexCount,
		TotalPages:   (e.indexCount + types.PageEntries - 1) / types.PageEntries,
	}

	var lastKey uint32
	first := true
	for i := uint32(0); i < e.indexCount; i++ {
		entry, err := e.entryAt(i)
		if err != nil {
			return s, err
		}
		if entry.Deleted() {
			s.DeletedRecords++
		} else {
			s.ActiveRecords++
		}
		if first || entry.Key != lastKey {
			s.UniqueKeys++
			lastKey = entry.Key
			first = false
		}
	}
	return s, nil
}

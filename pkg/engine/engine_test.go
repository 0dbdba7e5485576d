package engine_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/engine"
	"github.com/downfa11-org/logdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEngine(t *testing.T, dir string) *engine.Engine {
	t.Helper()
	db := engine.New(disk.NewFileHandler(), disk.NewFileHandler())
	require.NoError(t, db.Open(filepath.Join(dir, "DB.LOG"), filepath.Join(dir, "DB.IDX")))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func payloadFor(k uint32) []byte {
	return []byte(fmt.Sprintf("id=%d name=rec-%d", k, k))
}

func TestOpenFreshDatabase(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)
	assert.Equal(t, uint32(0), db.IndexCount())
	assert.Equal(t, types.Version, db.Version())
	require.NoError(t, db.Close())

	logInfo, err := os.Stat(filepath.Join(dir, "DB.LOG"))
	require.NoError(t, err)
	assert.Equal(t, int64(types.LogHeaderSize), logInfo.Size())

	idxInfo, err := os.Stat(filepath.Join(dir, "DB.IDX"))
	require.NoError(t, err)
	assert.Equal(t, int64(types.IndexHeaderSize), idxInfo.Size())

	db2 := openEngine(t, dir)
	assert.Equal(t, uint32(0), db2.IndexCount())
}

func TestMonotonicAppendAndGet(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	const n = 1000
	for k := uint32(1); k <= n; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}
	assert.Equal(t, uint32(n), db.IndexCount())

	buf := make([]byte, 128)
	for k := uint32(1); k <= n; k++ {
		got, err := db.Get(k, buf)
		require.NoError(t, err, "get key %d", k)
		assert.Equal(t, payloadFor(k), buf[:got])
	}

	// 1000 entries span four pages; after close every entry is on disk.
	require.NoError(t, db.Close())
	idxInfo, err := os.Stat(filepath.Join(dir, "DB.IDX"))
	require.NoError(t, err)
	assert.Equal(t, int64(types.IndexHeaderSize+n*types.IndexEntrySize), idxInfo.Size())
}

func TestDuplicateKeyRejected(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	require.NoError(t, db.Append(500, 1, payloadFor(500)))
	err := db.Append(500, 1, []byte("replacement"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrDuplicateKey))

	buf := make([]byte, 128)
	got, err := db.Get(500, buf)
	require.NoError(t, err)
	assert.Equal(t, payloadFor(500), buf[:got])
	assert.Equal(t, uint32(1), db.IndexCount())
}

func TestDeleteAndReinsert(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	for k := uint32(1); k <= 10; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}

	require.NoError(t, db.DeleteRecord(5))
	// Deleting again is a no-op.
	require.NoError(t, db.DeleteRecord(5))

	pos, err := db.FindKey(5)
	require.NoError(t, err)
	entry, err := db.IndexEntry(pos)
	require.NoError(t, err)
	assert.True(t, entry.Deleted())

	// Deleted records stay readable by key.
	buf := make([]byte, 128)
	_, err = db.Get(5, buf)
	require.NoError(t, err)

	replacement := []byte("reborn")
	require.NoError(t, db.Append(5, 2, replacement))
	got, err := db.Get(5, buf)
	require.NoError(t, err)
	assert.Equal(t, replacement, buf[:got])

	// Reuse keeps the slot: count unchanged, tombstone cleared.
	assert.Equal(t, uint32(10), db.IndexCount())
	entry, err = db.IndexEntry(pos)
	require.NoError(t, err)
	assert.False(t, entry.Deleted())
}

func TestUpdateStatusAndScan(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	const n = 1000
	for k := uint32(1); k <= n; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}

	for _, g := range []uint32{0, 100, 999} {
		require.NoError(t, db.UpdateStatus(g, 0xAA))
	}

	results := make([]uint32, 10)
	count, err := db.FindByStatus(0xAA, results)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 100, 999}, results[:count])

	// The status byte also lands in the log record header.
	buf := make([]byte, 128)
	header, _, err := db.GetByIndex(0, buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAA), header.Status)

	err = db.UpdateStatus(n, 0xAA)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestReverseOrderStress(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	const n = 1000
	for k := uint32(n); k >= 1; k-- {
		require.NoError(t, db.Append(k, 1, payloadFor(k)), "append key %d", k)
	}
	require.Equal(t, uint32(n), db.IndexCount())

	var lastKey uint32
	for i := uint32(0); i < n; i++ {
		entry, err := db.IndexEntry(i)
		require.NoError(t, err)
		if i > 0 {
			require.Greater(t, entry.Key, lastKey, "entry %d out of order", i)
		}
		lastKey = entry.Key
	}

	buf := make([]byte, 128)
	for k := uint32(1); k <= n; k++ {
		got, err := db.Get(k, buf)
		require.NoError(t, err, "get key %d", k)
		require.Equal(t, payloadFor(k), buf[:got])
	}
}

func TestReopenPreservesState(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	const n = 300
	for k := uint32(1); k <= n; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}
	require.NoError(t, db.DeleteRecord(7))
	require.NoError(t, db.UpdateStatus(0, 0x42))
	require.NoError(t, db.Close())

	logBytes, err := os.ReadFile(filepath.Join(dir, "DB.LOG"))
	require.NoError(t, err)
	idxBytes, err := os.ReadFile(filepath.Join(dir, "DB.IDX"))
	require.NoError(t, err)

	db2 := openEngine(t, dir)
	assert.Equal(t, uint32(n), db2.IndexCount())

	buf := make([]byte, 128)
	for k := uint32(1); k <= n; k++ {
		_, err := db2.Get(k, buf)
		require.NoError(t, err)
	}
	pos, err := db2.FindKey(7)
	require.NoError(t, err)
	entry, err := db2.IndexEntry(pos)
	require.NoError(t, err)
	assert.True(t, entry.Deleted())
	entry, err = db2.IndexEntry(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), entry.Status)
	require.NoError(t, db2.Close())

	// Reopen without mutation leaves both files byte-identical.
	logBytes2, err := os.ReadFile(filepath.Join(dir, "DB.LOG"))
	require.NoError(t, err)
	idxBytes2, err := os.ReadFile(filepath.Join(dir, "DB.IDX"))
	require.NoError(t, err)
	assert.Equal(t, logBytes, logBytes2)
	assert.Equal(t, idxBytes, idxBytes2)
}

func TestGetBufferTooSmall(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	require.NoError(t, db.Append(1, 1, []byte("a payload that needs room")))
	buf := make([]byte, 4)
	_, err := db.Get(1, buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrBufferTooSmall))
}

func TestGetByIndex(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	for k := uint32(1); k <= 20; k++ {
		require.NoError(t, db.Append(k, uint8(k%4), payloadFor(k)))
	}

	buf := make([]byte, 128)
	for i := uint32(0); i < 20; i++ {
		header, n, err := db.GetByIndex(i, buf)
		require.NoError(t, err)
		assert.Equal(t, i+1, header.Key)
		assert.Equal(t, uint8((i+1)%4), header.RecordType)
		assert.Equal(t, payloadFor(i+1), buf[:n])
	}

	_, _, err := db.GetByIndex(20, buf)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestRecordCountAndFirstMatching(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	for k := uint32(1); k <= 10; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}
	require.NoError(t, db.DeleteRecord(3))
	require.NoError(t, db.DeleteRecord(8))

	active, err := db.RecordCount(0, types.InternalStatusDeleted)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), active)

	deleted, err := db.RecordCount(types.InternalStatusDeleted, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), deleted)

	entry, pos, err := db.FirstDeletedEntry()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), entry.Key)
	assert.Equal(t, uint32(2), pos)

	entry, pos, err = db.FirstActiveEntry()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), entry.Key)
	assert.Equal(t, uint32(0), pos)

	_, _, err = db.FirstMatchingEntry(0xF0, 0)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	for k := uint32(1); k <= 300; k++ {
		require.NoError(t, db.Append(k, 1, payloadFor(k)))
	}
	require.NoError(t, db.DeleteRecord(10))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint32(300), stats.TotalRecords)
	assert.Equal(t, uint32(2), stats.TotalPages)
	assert.Equal(t, uint32(299), stats.ActiveRecords)
	assert.Equal(t, uint32(1), stats.DeletedRecords)
	assert.Equal(t, uint32(300), stats.UniqueKeys)
}

func TestDeleteMissingKey(t *testing.T) {
	dir := t.TempDir()
	db := openEngine(t, dir)

	require.NoError(t, db.Append(1, 1, payloadFor(1)))
	err := db.DeleteRecord(99)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

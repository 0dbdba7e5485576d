package types

import "encoding/binary"

const (
	IndexHeaderSize = 10
	IndexEntrySize  = 10

	// PageEntries is the fixed page capacity. Changing it changes the
	// on-disk page geometry, so existing index files become unreadable.
	PageEntries = 256
	PageSize    = PageEntries * IndexEntrySize
)

// PageOffset returns the byte offset of page p in the index file.
func PageOffset(p uint32) uint32 {
	return IndexHeaderSize + p*PageSize
}

// IndexHeader sits at offset 0 of the index file. Count is the number of
// entries physically present after the header; deletions never decrement it.
type IndexHeader struct {
	Magic   uint32
	Version uint16
	Count   uint32
}

func (h IndexHeader) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	binary.LittleEndian.PutUint16(dst[4:6], h.Version)
	binary.LittleEndian.PutUint32(dst[6:10], h.Count)
}

func (h *IndexHeader) Decode(src []byte) {
	h.Magic = binary.LittleEndian.Uint32(src[0:4])
	h.Version = binary.LittleEndian.Uint16(src[4:6])
	h.Count = binary.LittleEndian.Uint32(src[6:10])
}

func (h IndexHeader) Valid() bool {
	return h.Magic == Magic && h.Version == Version
}

// IndexEntry links a key to the offset of its record in the log file.
// Entries are kept strictly ascending by key across all pages.
type IndexEntry struct {
	Key            uint32
	Offset         uint32
	Status         uint8
	InternalStatus uint8
}

func (e IndexEntry) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], e.Key)
	binary.LittleEndian.PutUint32(dst[4:8], e.Offset)
	dst[8] = e.Status
	dst[9] = e.InternalStatus
}

func (e *IndexEntry) Decode(src []byte) {
	e.Key = binary.LittleEndian.Uint32(src[0:4])
	e.Offset = binary.LittleEndian.Uint32(src[4:8])
	e.Status = src[8]
	e.InternalStatus = src[9]
}

// Deleted reports whether the tombstone bit is set.
func (e IndexEntry) Deleted() bool {
	return e.InternalStatus&InternalStatusDeleted != 0
}

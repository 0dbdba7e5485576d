package types

import "encoding/binary"

const (
	// Magic spells "LOGS" when laid out little-endian.
	Magic   uint32 = 0x53474F4C
	Version uint16 = 0x0001

	LogHeaderSize      = 6
	LogEntryHeaderSize = 10

	// InternalStatusDeleted marks a record as tombstoned. All other bits of
	// internalStatus are reserved: written as zero, ignored on read.
	InternalStatusDeleted uint8 = 0x01

	// MaxFileNameLength bounds base file names to 8.3-compatible lengths.
	MaxFileNameLength = 12
)

// LogHeader sits at offset 0 of the log file.
type LogHeader struct {
	Magic   uint32
	Version uint16
}

func (h LogHeader) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	binary.LittleEndian.PutUint16(dst[4:6], h.Version)
}

func (h *LogHeader) Decode(src []byte) {
	h.Magic = binary.LittleEndian.Uint32(src[0:4])
	h.Version = binary.LittleEndian.Uint16(src[4:6])
}

func (h LogHeader) Valid() bool {
	return h.Magic == Magic && h.Version == Version
}

const (
	// StatusFieldOffset is the byte offset of Status within an encoded
	// LogEntryHeader: recordType(1) + length(2) + key(4).
	StatusFieldOffset = 7
	// InternalStatusFieldOffset follows the user status byte.
	InternalStatusFieldOffset = 8
)

// LogEntryHeader precedes every record payload in the log file. Status and
// InternalStatus are mutated in place as single-byte writes at
// entryOffset+7 and entryOffset+8; the final byte is reserved padding.
type LogEntryHeader struct {
	RecordType     uint8
	Length         uint16
	Key            uint32
	Status         uint8
	InternalStatus uint8
}

func (h LogEntryHeader) Encode(dst []byte) {
	dst[0] = h.RecordType
	binary.LittleEndian.PutUint16(dst[1:3], h.Length)
	binary.LittleEndian.PutUint32(dst[3:7], h.Key)
	dst[7] = h.Status
	dst[8] = h.InternalStatus
	dst[9] = 0
}

func (h *LogEntryHeader) Decode(src []byte) {
	h.RecordType = src[0]
	h.Length = binary.LittleEndian.Uint16(src[1:3])
	h.Key = binary.LittleEndian.Uint32(src[3:7])
	h.Status = src[7]
	h.InternalStatus = src[8]
}

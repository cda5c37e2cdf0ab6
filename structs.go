package pakdump

import (
	"encoding/binary"
	"fmt"
)

// PakFileType is the signature found in the first four bytes of a PAK file.
type PakFileType uint32

const (
	CompressedBE      PakFileType = 0x4B504B62
	CompressedLE      PakFileType = 0x6C4B504B
	UncompressedBE    PakFileType = 0x624B4150
	UncompressedLE    PakFileType = 0x6C4B4150
	KaikoCompressedBE PakFileType = 0x6252414B
	KaikoCompressedLE PakFileType = 0x6C52414B
)

// the only variant this package extracts
const SupportedSignature = KaikoCompressedLE

func (t PakFileType) String() string {
	switch t {
	case CompressedBE:
		return "Compressed (Big Endian)"
	case CompressedLE:
		return "Compressed (Little Endian)"
	case UncompressedBE:
		return "Uncompressed (Big Endian)"
	case UncompressedLE:
		return "Uncompressed (Little Endian)"
	case KaikoCompressedBE:
		return "Kaiko Compressed (Big Endian)"
	case KaikoCompressedLE:
		return "Kaiko Compressed (Little Endian)"
	}
	return fmt.Sprintf("unknown (0x%08X)", uint32(t))
}

const (
	DefaultPositionScale   uint32 = 0x10
	DefaultChunkTargetSize uint32 = 0x1000 // output buffer size of the aPLib depacker
	MaxChunkTargetSize     uint32 = 0x10000
	UnknownFileSuffix      string = ".unknown_file"
)

// ContainerHeader is the fixed header at offset 0 of a PAK file.
type ContainerHeader struct {
	Signature        PakFileType
	IsValid          uint32 // the file is only processed when this is non-zero
	PositionScale    uint32 // every stored position is multiplied by this to get a byte offset
	ChunkTargetSize  uint32
	EntryTableOffset uint64
	Reserved         [2]uint32
}

// ChunkBound returns the largest number of bytes one chunk may decompress to.
// Retail archives store 0x100 in ChunkTargetSize while the depacker always
// works on a 4096 byte buffer, so the bound never drops below that. It never
// exceeds MaxChunkTargetSize either.
func (h *ContainerHeader) ChunkBound() int {
	switch {
	case h.ChunkTargetSize < DefaultChunkTargetSize:
		return int(DefaultChunkTargetSize)
	case h.ChunkTargetSize > MaxChunkTargetSize:
		return int(MaxChunkTargetSize)
	}
	return int(h.ChunkTargetSize)
}

// Offset converts a stored position into an absolute byte offset.
func (h *ContainerHeader) Offset(position uint32) uint64 {
	return uint64(position) * uint64(h.PositionScale)
}

// EntryRecord describes one data block. ContentID links it to a NameRecord.
type EntryRecord struct {
	ContentID uint32
	Position  uint32 // scaled block index
	Size      uint32 // decompressed size, informational
}

// entryTableCounts precedes the entry records.
type entryTableCounts struct {
	EntryCount   uint32
	SpecialCount uint32
}

// NameTableHeader sits at the start of the name table block.
type NameTableHeader struct {
	TableByteSize uint32
	Padding       uint32
}

// nameRecordFixed is the fixed part of a name record; NameLength raw bytes follow.
type nameRecordFixed struct {
	ContentID  uint32
	NameLength uint32
}

// ChunkedPayloadHeader starts every data block. ChunkCount u32 chunk sizes follow it.
type ChunkedPayloadHeader struct {
	DecompressedSize uint32
	ChunkCount       uint32
}

var (
	headerSize       = binary.Size(ContainerHeader{})
	entryRecordSize  = binary.Size(EntryRecord{})
	entryCountsSize  = binary.Size(entryTableCounts{})
	nameTableHdrSize = binary.Size(NameTableHeader{})
	nameRecordSize   = binary.Size(nameRecordFixed{})
	payloadHdrSize   = binary.Size(ChunkedPayloadHeader{})
)

// HeaderSize is the on-disk size of ContainerHeader.
func HeaderSize() int { return headerSize }

// File is an extractable entry with its name resolved.
type File struct {
	Name      string
	ContentID uint32
	Position  uint32
	Size      uint32
	Offset    uint64
	Resolved  bool // false when Name is a generated .unknown_file name
}

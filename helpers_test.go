package pakdump

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gitMenv/pakdump/internal/aplib"
)

// rawArchive lays out a container byte by byte so tests control every field.
type rawArchive struct {
	signature PakFileType
	invalid   bool
	scale     uint32
	blocks    map[uint32][]byte // position -> block bytes
	entries   []EntryRecord     // written in this order
	special   uint32
}

func newRawArchive() *rawArchive {
	return &rawArchive{
		signature: SupportedSignature,
		scale:     DefaultPositionScale,
		blocks:    make(map[uint32][]byte),
	}
}

// add places block at position and records an entry for it.
func (ra *rawArchive) add(id, position uint32, block []byte) *rawArchive {
	ra.blocks[position] = block
	ra.entries = append(ra.entries, EntryRecord{ContentID: id, Position: position, Size: uint32(len(block))})
	return ra
}

func (ra *rawArchive) bytes() []byte {
	end := uint64(headerSize)
	for pos, b := range ra.blocks {
		if e := uint64(pos)*uint64(ra.scale) + uint64(len(b)); e > end {
			end = e
		}
	}
	tableOff := alignUp(end, 16)
	out := make([]byte, tableOff)
	for pos, b := range ra.blocks {
		copy(out[uint64(pos)*uint64(ra.scale):], b)
	}

	hdr := ContainerHeader{
		Signature:        ra.signature,
		IsValid:          1,
		PositionScale:    ra.scale,
		ChunkTargetSize:  0x100,
		EntryTableOffset: tableOff,
	}
	if ra.invalid {
		hdr.IsValid = 0
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, hdr)
	copy(out, buf.Bytes())

	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, entryTableCounts{EntryCount: uint32(len(ra.entries)), SpecialCount: ra.special})
	for _, e := range ra.entries {
		binary.Write(&buf, binary.LittleEndian, e)
	}
	return append(out, buf.Bytes()...)
}

// payload encodes a data block from already compressed chunks.
func payload(decompressed uint32, chunks ...[]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, ChunkedPayloadHeader{DecompressedSize: decompressed, ChunkCount: uint32(len(chunks))})
	for _, c := range chunks {
		binary.Write(&buf, binary.LittleEndian, uint32(len(c)))
	}
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

// aplibPayload compresses each part as one chunk.
func aplibPayload(parts ...[]byte) []byte {
	var chunks [][]byte
	var total uint32
	for _, p := range parts {
		chunks = append(chunks, aplib.Pack(p))
		total += uint32(len(p))
	}
	return payload(total, chunks...)
}

type nameRec struct {
	id   uint32
	name string
}

// nameTable encodes a name table block.
func nameTable(recs ...nameRec) []byte {
	var records bytes.Buffer
	for _, r := range recs {
		records.Write(nameRecordBytes(r.id, r.name))
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, NameTableHeader{TableByteSize: uint32(records.Len())})
	buf.Write(records.Bytes())
	return buf.Bytes()
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return l, hook
}

func openBytes(t *testing.T, data []byte, opts ...Option) (*Archive, error) {
	t.Helper()
	l, _ := nullLogger()
	opts = append([]Option{WithLogger(l)}, opts...)
	return New(bytes.NewReader(data), int64(len(data)), opts...)
}

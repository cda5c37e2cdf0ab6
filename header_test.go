package pakdump

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, 32, HeaderSize())
	assert.Equal(t, 12, entryRecordSize)
	assert.Equal(t, 8, nameRecordSize)
	assert.Equal(t, 8, payloadHdrSize)
}

func TestReadHeader(t *testing.T) {
	data := newRawArchive().bytes()
	hdr, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, KaikoCompressedLE, hdr.Signature)
	assert.Equal(t, DefaultPositionScale, hdr.PositionScale)
	assert.Equal(t, uint64(32), hdr.EntryTableOffset)
	assert.Equal(t, uint64(160), hdr.Offset(10))
}

func TestReadHeaderTruncated(t *testing.T) {
	data := newRawArchive().bytes()[:HeaderSize()-1]
	_, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrTruncatedInput)

	// a lying size must not get past the short read either
	_, err = ReadHeader(bytes.NewReader(data), 64)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestReadHeaderUnsupportedSignatures(t *testing.T) {
	for _, sig := range []PakFileType{CompressedBE, CompressedLE, UncompressedBE, UncompressedLE, KaikoCompressedBE, 0xDEADBEEF} {
		t.Run(sig.String(), func(t *testing.T) {
			ra := newRawArchive()
			ra.signature = sig
			ra.add(7, 10, aplibPayload([]byte("data"))).add(0, 20, nameTable(nameRec{7, "weapon.dat"}))
			data := ra.bytes()

			_, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			assert.Contains(t, err.Error(), sig.String())

			a, err := openBytes(t, data)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			assert.Nil(t, a)
		})
	}
}

func TestReadHeaderInvalid(t *testing.T) {
	ra := newRawArchive()
	ra.invalid = true
	data := ra.bytes()
	_, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	ra = newRawArchive()
	ra.scale = 0
	data = ra.bytes()
	_, err = ReadHeader(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestChunkBound(t *testing.T) {
	hdr := ContainerHeader{ChunkTargetSize: 0x100}
	assert.Equal(t, 4096, hdr.ChunkBound())
	hdr.ChunkTargetSize = 0x4000
	assert.Equal(t, 0x4000, hdr.ChunkBound())
	hdr.ChunkTargetSize = 0xFFFFFFFF
	assert.Equal(t, int(MaxChunkTargetSize), hdr.ChunkBound())
}

func TestReadHeaderHugeChunkSize(t *testing.T) {
	ra := newRawArchive()
	ra.add(7, 10, aplibPayload([]byte("data"))).add(0, 20, nameTable(nameRec{7, "weapon.dat"}))
	data := ra.bytes()
	binary.LittleEndian.PutUint32(data[12:], 0x7FFFFFFF)

	_, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidHeader)
	a, err := openBytes(t, data)
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.Nil(t, a)

	// the largest accepted value still extracts
	binary.LittleEndian.PutUint32(data[12:], MaxChunkTargetSize)
	a, err = openBytes(t, data)
	require.NoError(t, err)
	got, err := a.ReadFile(a.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestPakFileTypeString(t *testing.T) {
	assert.Equal(t, "Kaiko Compressed (Little Endian)", KaikoCompressedLE.String())
	assert.Equal(t, "unknown (0x00000001)", PakFileType(1).String())
}

package pakdump

import (
	"io"

	"github.com/pkg/errors"
)

// PayloadInfo is the chunk layout of one data block.
type PayloadInfo struct {
	ChunkedPayloadHeader
	ChunkSizes []uint32
	DataOffset uint64 // absolute offset of the first chunk
}

// CompressedSize is the summed size of all chunks.
func (p *PayloadInfo) CompressedSize() uint64 {
	var total uint64
	for _, s := range p.ChunkSizes {
		total += uint64(s)
	}
	return total
}

// ReadPayloadInfo reads the payload header and chunk size table at offset
// without touching the chunk data. Every chunk must lie inside the file.
func ReadPayloadInfo(r io.ReaderAt, size int64, offset uint64) (*PayloadInfo, error) {
	if offset > uint64(size) {
		return nil, errors.Wrapf(ErrTruncatedInput, "payload offset 0x%X beyond end of file", offset)
	}
	off := int64(offset)
	info := &PayloadInfo{}
	if err := readAt(r, off, &info.ChunkedPayloadHeader, "payload header"); err != nil {
		return nil, err
	}
	off += int64(payloadHdrSize)
	if info.ChunkCount == 0 {
		info.DataOffset = uint64(off)
		return info, nil
	}

	if int64(info.ChunkCount)*4 > size-off {
		return nil, errors.Wrapf(ErrTruncatedInput, "table of %d chunk sizes at 0x%X", info.ChunkCount, off)
	}
	info.ChunkSizes = make([]uint32, info.ChunkCount)
	if err := readAt(r, off, info.ChunkSizes, "chunk size table"); err != nil {
		return nil, err
	}
	off += int64(info.ChunkCount) * 4
	info.DataOffset = uint64(off)

	if info.CompressedSize() > uint64(size-off) {
		return nil, errors.Wrapf(ErrTruncatedInput, "%d chunks of %d bytes at 0x%X", info.ChunkCount, info.CompressedSize(), off)
	}
	return info, nil
}

// ReadChunkedPayload reassembles the data block at offset. Each chunk is
// decompressed into a buffer of bound bytes and appended in chunk order.
// A block without chunks returns nil.
func ReadChunkedPayload(r io.ReaderAt, size int64, offset uint64, bound int, dec Decompressor) ([]byte, error) {
	info, err := ReadPayloadInfo(r, size, offset)
	if err != nil {
		return nil, err
	}
	if info.ChunkCount == 0 {
		return nil, nil
	}

	capacity := uint64(info.ChunkCount) * uint64(bound)
	if uint64(info.DecompressedSize) < capacity {
		capacity = uint64(info.DecompressedSize)
	}
	data := make([]byte, 0, capacity)
	dst := make([]byte, bound)
	var src []byte

	off := int64(info.DataOffset)
	for i, chunkSize := range info.ChunkSizes {
		if cap(src) < int(chunkSize) {
			src = make([]byte, chunkSize)
		}
		src = src[:chunkSize]
		if err := readFullAt(r, off, src, "chunk"); err != nil {
			return nil, err
		}
		n, err := dec(dst, src)
		if err != nil {
			return nil, errors.Wrapf(ErrDecompress, "chunk %d/%d at 0x%X: %v", i+1, info.ChunkCount, off, err)
		}
		if n < 0 || n > len(dst) {
			return nil, errors.Wrapf(ErrDecompress, "chunk %d/%d at 0x%X: decompressor reported %d bytes", i+1, info.ChunkCount, off, n)
		}
		data = append(data, dst[:n]...)
		off += int64(chunkSize)
	}
	return data, nil
}

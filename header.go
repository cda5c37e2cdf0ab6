package pakdump

import (
	"io"

	"github.com/pkg/errors"
)

// ReadHeader reads and validates the container header at offset 0.
// size is the total length of the container.
func ReadHeader(r io.ReaderAt, size int64) (*ContainerHeader, error) {
	if size < int64(headerSize) {
		return nil, errors.Wrapf(ErrTruncatedInput, "file is %d bytes, header needs %d", size, headerSize)
	}
	var hdr ContainerHeader
	if err := readAt(r, 0, &hdr, "header"); err != nil {
		return nil, err
	}
	if hdr.Signature != SupportedSignature {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "signature %s", hdr.Signature)
	}
	if hdr.IsValid == 0 {
		return nil, errors.Wrap(ErrInvalidHeader, "validity flag is not set")
	}
	if hdr.PositionScale == 0 {
		return nil, errors.Wrap(ErrInvalidHeader, "position scale is zero")
	}
	if hdr.ChunkTargetSize > MaxChunkTargetSize {
		return nil, errors.Wrapf(ErrInvalidHeader, "chunk size 0x%X above 0x%X", hdr.ChunkTargetSize, MaxChunkTargetSize)
	}
	return &hdr, nil
}

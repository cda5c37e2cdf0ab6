package pakdump

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var (
	ErrTruncatedInput            = errors.New("truncated input")
	ErrUnsupportedFormat         = errors.New("unsupported pak format")
	ErrInvalidHeader             = errors.New("invalid pak header")
	ErrInvalidNameTable          = errors.New("invalid name table")
	ErrUnsupportedSpecialEntries = errors.New("special entries are not supported")
	ErrIOFailure                 = errors.New("i/o failure")
	ErrDecompress                = errors.New("chunk decompression failed")
	ErrUnsafeName                = errors.New("file name escapes the destination")
	ErrNameCollision             = errors.New("file name already used in this extraction")
	ErrUnknownCodec              = errors.New("unknown compression method")
)

// IOError wraps a failed open, read or write. It matches ErrIOFailure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIOFailure }

func ioFailure(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

// readAt decodes v from r at an absolute offset. Short reads become ErrTruncatedInput.
func readAt(r io.ReaderAt, off int64, v interface{}, what string) error {
	sr := io.NewSectionReader(r, off, int64(binary.Size(v)))
	if err := binary.Read(sr, binary.LittleEndian, v); err != nil {
		return readError(err, what, off)
	}
	return nil
}

// readFullAt fills buf from r at off.
func readFullAt(r io.ReaderAt, off int64, buf []byte, what string) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return readError(err, what, off)
}

func readError(err error, what string, off int64) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrTruncatedInput, "%s at offset 0x%X", what, off)
	}
	return ioFailure("read "+what, err)
}

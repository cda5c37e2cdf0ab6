package pakdump

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/gitMenv/pakdump/internal/aplib"
)

// Decompressor inflates one self-contained chunk into dst and returns the number
// of bytes produced. Output beyond len(dst) is an error.
type Decompressor func(dst, src []byte) (int, error)

// Compressor is the inverse of a Decompressor; used when packing.
type Compressor func(src []byte) ([]byte, error)

// DefaultCodec is the method retail archives use.
const DefaultCodec = "aplib"

// implemented (de)compression methods (lowercased)
var (
	DecompressionMethods = map[string]Decompressor{
		"none":  decompressNone,
		"aplib": aplib.Depack,
		"lz4":   decompressLZ4,
		"zlib":  decompressZLIB,
		"zstd":  decompressZSTD,
	}
	CompressionMethods = map[string]Compressor{
		"none":  compressNone,
		"aplib": compressAPLib,
		"lz4":   compressLZ4,
		"zlib":  compressZLIB,
		"zstd":  compressZSTD,
	}
)

var errChunkTooLarge = errors.New("chunk decompresses beyond the chunk bound")

/* Decompression functions */

func decompressNone(dst, src []byte) (int, error) {
	if len(src) > len(dst) {
		return 0, errChunkTooLarge
	}
	return copy(dst, src), nil
}

func decompressLZ4(dst, src []byte) (int, error) {
	return lz4.UncompressBlock(src, dst)
}

// readBounded drains r into dst, failing if r holds more than len(dst) bytes.
func readBounded(r io.Reader, dst []byte) (int, error) {
	n, err := io.ReadFull(r, dst)
	switch err {
	case io.EOF, io.ErrUnexpectedEOF:
		return n, nil
	case nil:
	default:
		return n, err
	}
	var probe [1]byte
	if m, _ := r.Read(probe[:]); m > 0 {
		return n, errChunkTooLarge
	}
	return n, nil
}

func decompressZLIB(dst, src []byte) (int, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return readBounded(r, dst)
}

func decompressZSTD(dst, src []byte) (int, error) {
	d, err := zstd.NewReader(bytes.NewReader(src), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return 0, err
	}
	defer d.Close()
	return readBounded(d, dst)
}

/* Compression functions */

func compressNone(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func compressAPLib(src []byte) ([]byte, error) {
	return aplib.Pack(src), nil
}

func compressLZ4(src []byte) ([]byte, error) {
	// a bound sized buffer makes lz4 emit incompressible data as literals
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func compressZLIB(src []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func compressZSTD(src []byte) ([]byte, error) {
	e, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.EncodeAll(src, nil), nil
}

/* Wrappers for getting the functions */

// GetDecompressor returns the named decompression method.
func GetDecompressor(method string) (Decompressor, error) {
	if fn, ok := DecompressionMethods[strings.ToLower(method)]; ok {
		return fn, nil
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "%q", method)
}

// GetCompressor returns the named compression method.
func GetCompressor(method string) (Compressor, error) {
	if fn, ok := CompressionMethods[strings.ToLower(method)]; ok {
		return fn, nil
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "%q", method)
}

package pakdump

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Archive is a parsed PAK container. The structural pass (header, entry table
// and name table) runs in New; file payloads are read on demand.
type Archive struct {
	Path         string
	Header       ContainerHeader
	Files        []File      // extractable entries in position order
	Locator      EntryRecord // the entry holding the name table
	Names        NameTable
	SpecialCount uint32

	r      io.ReaderAt
	size   int64
	closer io.Closer
	log    logrus.FieldLogger
	dec    Decompressor
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Archive) { a.log = l }
}

// WithDecompressor replaces the chunk decompressor (aPLib by default).
func WithDecompressor(d Decompressor) Option {
	return func(a *Archive) { a.dec = d }
}

// Open opens and parses the container at path.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioFailure("open "+path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioFailure("stat "+path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ioFailure("open "+path, errors.New("is a directory"))
	}
	opts = append([]Option{func(a *Archive) { a.Path = path }}, opts...)
	a, err := New(f, st.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, path)
	}
	a.closer = f
	return a, nil
}

// New parses a container of the given size read through r.
func New(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	a := &Archive{r: r, size: size, dec: DecompressionMethods[DefaultCodec]}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	if a.Path != "" {
		a.log = a.log.WithField("archive", a.Path)
	}

	hdr, err := ReadHeader(r, size)
	if err != nil {
		return nil, err
	}
	a.Header = *hdr
	a.log.Infof("processing pak file type: %s", hdr.Signature)

	table, err := ReadEntryTable(r, size, hdr, a.log)
	if err != nil {
		return nil, errors.Wrap(err, "parse entry table")
	}
	a.SpecialCount = table.SpecialCount

	locator, rest, ok := extractNameTableLocator(table.Entries)
	if !ok {
		a.log.Info("archive holds no entries")
		return a, nil
	}
	a.Locator = locator
	a.log.Debugf("parsing name table at position %08X", locator.Position)
	names, err := ReadNameTable(r, size, hdr, locator)
	if err != nil {
		return nil, errors.Wrap(err, "parse name table")
	}
	a.Names = names
	a.Files = resolveNames(hdr, rest, names)
	return a, nil
}

// Close releases the file opened by Open.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Size is the container length in bytes.
func (a *Archive) Size() int64 { return a.size }

// Payload returns the chunk layout of f without decompressing it.
func (a *Archive) Payload(f File) (*PayloadInfo, error) {
	return ReadPayloadInfo(a.r, a.size, f.Offset)
}

// ReadFile reassembles the payload of f. It returns nil for entries without chunks.
func (a *Archive) ReadFile(f File) ([]byte, error) {
	data, err := ReadChunkedPayload(a.r, a.size, f.Offset, a.Header.ChunkBound(), a.dec)
	if err != nil {
		return nil, err
	}
	if data != nil && uint32(len(data)) != f.Size {
		a.log.WithField("entry", f.Name).Debugf("declared size %d, reassembled %d bytes", f.Size, len(data))
	}
	return data, nil
}

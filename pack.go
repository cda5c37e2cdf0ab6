package pakdump

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PackFile is one file to be stored in a container.
type PackFile struct {
	Name      string
	ContentID uint32 // 0 derives an id from the name
	Data      []byte
}

// PackOptions controls Pack. Zero values select the retail layout.
type PackOptions struct {
	Codec         string
	PositionScale uint32
	ChunkSize     uint32
	Logger        logrus.FieldLogger
}

func (o *PackOptions) setDefaults() {
	if o.Codec == "" {
		o.Codec = DefaultCodec
	}
	if o.PositionScale == 0 {
		o.PositionScale = DefaultPositionScale
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkTargetSize
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
}

// packedBlock is a data block ready to be written.
type packedBlock struct {
	id   uint32
	size uint32
	data []byte // payload header, chunk size table and chunks
}

func alignUp(off, align uint64) uint64 {
	return (off + align - 1) / align * align
}

// compressBlock splits data in chunks of chunkSize, compresses each one and
// returns the encoded block: payload header, chunk size table, chunks.
func compressBlock(data []byte, chunkSize int, compress Compressor) ([]byte, error) {
	hdr := ChunkedPayloadHeader{DecompressedSize: uint32(len(data))}
	var chunks [][]byte
	for len(data) != 0 {
		n := len(data)
		if n > chunkSize {
			n = chunkSize
		}
		c, err := compress(data[:n])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		data = data[n:]
	}
	hdr.ChunkCount = uint32(len(chunks))

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, hdr)
	for _, c := range chunks {
		binary.Write(&buf, binary.LittleEndian, uint32(len(c)))
	}
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes(), nil
}

// Pack writes a container holding files. The name table is stored as the last
// data block so that it ends up as the highest positioned entry.
func Pack(w io.Writer, files []PackFile, opts PackOptions) error {
	opts.setDefaults()
	compress, err := GetCompressor(opts.Codec)
	if err != nil {
		return err
	}
	if opts.ChunkSize > MaxChunkTargetSize {
		return errors.Errorf("chunk size 0x%X above 0x%X", opts.ChunkSize, MaxChunkTargetSize)
	}
	log := opts.Logger

	seenNames := make(map[string]bool, len(files))
	seenIDs := make(map[uint32]string, len(files))
	var blocks []packedBlock
	var names bytes.Buffer
	for _, f := range files {
		if f.Name == "" {
			return errors.New("file without a name")
		}
		if seenNames[f.Name] {
			return errors.Errorf("duplicate file name %q", f.Name)
		}
		seenNames[f.Name] = true
		id := f.ContentID
		if id == 0 {
			id = ContentIDForName(f.Name)
		}
		if other, ok := seenIDs[id]; ok {
			return errors.Errorf("content id %08X used by %q and %q", id, other, f.Name)
		}
		seenIDs[id] = f.Name
		if uint64(len(f.Data)) > math.MaxUint32 {
			return errors.Errorf("%s is too large to pack", f.Name)
		}

		data, err := compressBlock(f.Data, int(opts.ChunkSize), compress)
		if err != nil {
			return errors.Wrapf(err, "compress %s", f.Name)
		}
		blocks = append(blocks, packedBlock{id: id, size: uint32(len(f.Data)), data: data})
		names.Write(nameRecordBytes(id, f.Name))
		log.Debugf("packed %s (%08X): %d bytes", f.Name, id, len(f.Data))
	}

	if len(files) > 0 {
		var table bytes.Buffer
		binary.Write(&table, binary.LittleEndian, NameTableHeader{TableByteSize: uint32(names.Len())})
		table.Write(names.Bytes())
		blocks = append(blocks, packedBlock{id: 0, size: uint32(table.Len()), data: table.Bytes()})
	}

	scale := uint64(opts.PositionScale)
	hdr := ContainerHeader{
		Signature:       SupportedSignature,
		IsValid:         1,
		PositionScale:   opts.PositionScale,
		ChunkTargetSize: opts.ChunkSize,
	}

	// lay out the blocks after the header, each one aligned to the position scale
	off := uint64(headerSize)
	var entries []EntryRecord
	var body bytes.Buffer
	for _, b := range blocks {
		start := alignUp(off, scale)
		if start/scale > math.MaxUint32 {
			return errors.New("archive too large for its position scale")
		}
		entries = append(entries, EntryRecord{ContentID: b.id, Position: uint32(start / scale), Size: b.size})
		body.Write(make([]byte, start-off))
		body.Write(b.data)
		off = start + uint64(len(b.data))
	}
	hdr.EntryTableOffset = alignUp(off, scale)
	body.Write(make([]byte, hdr.EntryTableOffset-off))

	// the game stores entries ordered by id, not by position
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ContentID < entries[j].ContentID })

	bw := bufio.NewWriter(w)
	binary.Write(bw, binary.LittleEndian, hdr)
	bw.Write(body.Bytes())
	binary.Write(bw, binary.LittleEndian, entryTableCounts{EntryCount: uint32(len(entries))})
	if len(entries) > 0 {
		binary.Write(bw, binary.LittleEndian, entries)
	}
	if err := bw.Flush(); err != nil {
		return ioFailure("write archive", err)
	}
	log.Infof("packed %d files", len(files))
	return nil
}

// PackDirectory packs every regular file below dir into the container at out.
// Content ids are taken from dir/manifest.json when an earlier extraction left one.
func PackDirectory(dir, out string, opts PackOptions) error {
	opts.setDefaults()
	var ids map[string]uint32
	manifestPath := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := ReadManifest(manifestPath)
		if err != nil {
			return err
		}
		if ids, err = m.ContentIDs(); err != nil {
			return err
		}
		opts.Logger.Infof("using content ids from %s", manifestPath)
	}

	var files []PackFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || path == manifestPath {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, PackFile{Name: name, ContentID: ids[name], Data: data})
		return nil
	})
	if err != nil {
		return ioFailure("walk "+dir, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return ioFailure("create "+out, err)
	}
	if err := Pack(f, files, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return ioFailure("close "+out, err)
	}
	return nil
}

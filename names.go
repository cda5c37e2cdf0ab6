package pakdump

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NameTable maps content ids to file names.
type NameTable map[uint32]string

// Lookup returns the name stored for id. Empty names count as missing.
func (t NameTable) Lookup(id uint32) (string, bool) {
	name, ok := t[id]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// extractNameTableLocator pops the highest-positioned entry, which by format
// convention holds the name table. entries must already be position sorted.
func extractNameTableLocator(entries []EntryRecord) (EntryRecord, []EntryRecord, bool) {
	if len(entries) == 0 {
		return EntryRecord{}, nil, false
	}
	last := len(entries) - 1
	return entries[last], entries[:last], true
}

// ReadNameTable parses the name records of the block the locator points at.
// Records are read until their summed size reaches the declared table size.
func ReadNameTable(r io.ReaderAt, size int64, hdr *ContainerHeader, locator EntryRecord) (NameTable, error) {
	start := hdr.Offset(locator.Position)
	if start > uint64(size) {
		return nil, errors.Wrapf(ErrTruncatedInput, "name table offset 0x%X beyond end of file", start)
	}
	off := int64(start)

	var th NameTableHeader
	if err := readAt(r, off, &th, "name table header"); err != nil {
		return nil, err
	}
	if th.TableByteSize == 0 {
		return nil, errors.Wrap(ErrInvalidNameTable, "table size is zero")
	}
	off += int64(nameTableHdrSize)

	table := make(NameTable)
	total := uint64(th.TableByteSize)
	var consumed uint64
	for consumed < total {
		if consumed+uint64(nameRecordSize) > total {
			return nil, errors.Wrapf(ErrInvalidNameTable, "record at 0x%X crosses the table end", off)
		}
		var rec nameRecordFixed
		if err := readAt(r, off, &rec, "name record"); err != nil {
			return nil, err
		}
		recSize := uint64(nameRecordSize) + uint64(rec.NameLength)
		if consumed+recSize > total {
			return nil, errors.Wrapf(ErrInvalidNameTable, "name of %d bytes at 0x%X overruns the table", rec.NameLength, off)
		}
		if uint64(off)+recSize > uint64(size) {
			return nil, errors.Wrapf(ErrTruncatedInput, "name record at 0x%X", off)
		}
		name := make([]byte, rec.NameLength)
		if err := readFullAt(r, off+int64(nameRecordSize), name, "file name"); err != nil {
			return nil, err
		}
		table[rec.ContentID] = strings.TrimRight(string(name), "\x00")
		consumed += recSize
		off += int64(recSize)
	}
	return table, nil
}

// unknownNamer hands out placeholder names for entries without a name record.
type unknownNamer struct {
	next uint32
}

func (n *unknownNamer) name() string {
	s := fmt.Sprintf("%08X%s", n.next, UnknownFileSuffix)
	n.next++
	return s
}

// resolveNames attaches a name to every extractable entry, in emission order.
func resolveNames(hdr *ContainerHeader, entries []EntryRecord, table NameTable) []File {
	namer := unknownNamer{}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		f := File{
			ContentID: e.ContentID,
			Position:  e.Position,
			Size:      e.Size,
			Offset:    hdr.Offset(e.Position),
		}
		if name, ok := table.Lookup(e.ContentID); ok {
			f.Name = strings.ReplaceAll(name, "\\", "/") // the game writes windows separators
			f.Resolved = true
		} else {
			f.Name = namer.name()
		}
		files = append(files, f)
	}
	return files
}

package pakdump

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EntryTable is the decoded index of a container.
type EntryTable struct {
	Entries      []EntryRecord // sorted by position
	SpecialCount uint32        // special entries are counted but never parsed
}

// ReadEntryTable reads the counts and entry records at hdr.EntryTableOffset and
// returns the entries ordered by position.
func ReadEntryTable(r io.ReaderAt, size int64, hdr *ContainerHeader, log logrus.FieldLogger) (*EntryTable, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	off := int64(hdr.EntryTableOffset)
	if off < 0 || off > size {
		return nil, errors.Wrapf(ErrTruncatedInput, "entry table offset 0x%X beyond end of file", hdr.EntryTableOffset)
	}
	var counts entryTableCounts
	if err := readAt(r, off, &counts, "entry table counts"); err != nil {
		return nil, err
	}
	log.Debugf("entry count: %d", counts.EntryCount)
	log.Debugf("entry count: %d (special)", counts.SpecialCount)

	table := &EntryTable{SpecialCount: counts.SpecialCount}
	if counts.SpecialCount > 0 {
		log.WithError(ErrUnsupportedSpecialEntries).Warnf("skipping %d special entries", counts.SpecialCount)
	}
	if counts.EntryCount == 0 {
		return table, nil
	}

	off += int64(entryCountsSize)
	need := int64(counts.EntryCount) * int64(entryRecordSize)
	if need > size-off {
		return nil, errors.Wrapf(ErrTruncatedInput, "%d entries need %d bytes at offset 0x%X", counts.EntryCount, need, off)
	}
	entries := make([]EntryRecord, counts.EntryCount)
	if err := readAt(r, off, entries, "entry records"); err != nil {
		return nil, err
	}
	for _, e := range entries {
		log.Debugf("entry found: (crc: %08X)(pos: %08X)(size: %08X)", e.ContentID, e.Position, e.Size)
	}
	SortByPosition(entries)
	table.Entries = entries
	return table, nil
}

// SortByPosition orders entries by ascending position. Entries sharing a position
// keep the order they were read in.
func SortByPosition(entries []EntryRecord) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
}

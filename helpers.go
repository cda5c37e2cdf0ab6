package pakdump

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/tenfyzhong/cityhash"
)

// fingerprint is the hash recorded for extracted data in the manifest.
func fingerprint(data []byte) uint64 {
	return cityhash.CityHash64(data)
}

// ContentIDForName derives a content id for a name that has none yet.
// Zero is avoided since the packer treats it as "unset".
func ContentIDForName(name string) uint32 {
	h := cityhash.CityHash64([]byte(name))
	id := uint32(h) ^ uint32(h>>32)
	if id == 0 {
		id = 1
	}
	return id
}

// nameRecordBytes encodes one name table record: id, length, raw name.
func nameRecordBytes(id uint32, name string) []byte {
	rec := make([]byte, nameRecordSize+len(name))
	binary.LittleEndian.PutUint32(rec, id)
	binary.LittleEndian.PutUint32(rec[4:], uint32(len(name)))
	copy(rec[nameRecordSize:], name)
	return rec
}

func formatID(id uint32) string { return fmt.Sprintf("%08X", id) }

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

func formatHash(h uint64) string { return fmt.Sprintf("%016X", h) }

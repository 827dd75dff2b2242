package getdents

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// linux_dirent64 layout (from linux/dirent.h):
//
//	struct linux_dirent64 {
//	    ino64_t        d_ino;    // 8 bytes  (offset 0)
//	    off64_t        d_off;    // 8 bytes  (offset 8)
//	    unsigned short d_reclen; // 2 bytes  (offset 16)
//	    unsigned char  d_type;   // 1 byte   (offset 18)
//	    char           d_name[]; // variable (offset 19)
//	};
const (
	direntInoOffset    = 0
	direntReclenOffset = 16
	direntNameOffset   = 19
	direntMinSize      = direntNameOffset
)

var errInvalidDirent = errors.New("invalid dirent")

// record is one decoded linux_dirent64. raw and name view into the refill
// buffer and are valid only until the next refill; yielded entries copy raw.
type record struct {
	raw  []byte // the full d_reclen bytes of the record
	ino  uint64
	name []byte // d_name without the NUL terminator
}

// decodeRecord decodes the record at the start of data, validating
// d_reclen against the remaining buffer before anything else is trusted.
//
// The name length comes from scanning for the NUL terminator, not from
// d_reclen: the name field is padded to align the following record.
func decodeRecord(data []byte) (record, error) {
	if len(data) < direntMinSize {
		return record{}, errInvalidDirent
	}

	reclen := int(binary.NativeEndian.Uint16(data[direntReclenOffset:]))
	if reclen < direntMinSize || reclen > len(data) {
		return record{}, errInvalidDirent
	}

	raw := data[:reclen]

	name := raw[direntNameOffset:]
	end := bytes.IndexByte(name, 0)
	if end < 0 {
		return record{}, errInvalidDirent
	}

	return record{
		raw:  raw,
		ino:  binary.NativeEndian.Uint64(raw[direntInoOffset:]),
		name: name[:end],
	}, nil
}

func isDotEntry(name []byte) bool {
	if len(name) == 1 && name[0] == '.' {
		return true
	}

	return len(name) == 2 && name[0] == '.' && name[1] == '.'
}

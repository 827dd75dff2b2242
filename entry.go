package getdents

import (
	"encoding/binary"
	"path/filepath"
)

// Entry is one directory entry yielded by [Dir.Next].
//
// An Entry owns a copy of its kernel record and shares the (immutable)
// root path with the Dir that produced it, so it stays valid for as long
// as the caller keeps it, independent of the iterator's lifetime.
type Entry struct {
	rec     []byte // owned copy of one linux_dirent64 record
	namelen int    // cached d_name length (bytes before the NUL)
	root    string
}

func newEntry(rec record, root string) *Entry {
	raw := make([]byte, len(rec.raw))
	copy(raw, rec.raw)

	return &Entry{
		rec:     raw,
		namelen: len(rec.name),
		root:    root,
	}
}

// Path returns the directory path joined with the entry's name. It
// performs no I/O and never fails.
func (e *Entry) Path() string {
	return filepath.Join(e.root, e.Name())
}

// Name returns the entry's file name.
func (e *Entry) Name() string {
	return string(e.rec[direntNameOffset : direntNameOffset+e.namelen])
}

// Ino returns the entry's inode number.
func (e *Entry) Ino() uint64 {
	return binary.NativeEndian.Uint64(e.rec[direntInoOffset:])
}

// String implements fmt.Stringer for debug output.
func (e *Entry) String() string {
	return "Entry(" + e.Path() + ")"
}

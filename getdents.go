// Package getdents lists directory entries on Linux by issuing the
// getdents64 syscall directly, bypassing the libc readdir wrappers and
// os.ReadDir.
//
// The kernel fills a caller-owned buffer with as many raw linux_dirent64
// records as fit per call. [Dir] walks that buffer one record at a time and
// refills it on demand, so a full directory listing costs one open, one
// fstat (for buffer sizing), and one getdents64 call per buffer-full of
// entries, plus a final call that reports end of directory.
//
// # Usage
//
//	dir, err := getdents.ReadDir("/var/log")
//	if err != nil {
//		return err
//	}
//	defer dir.Close()
//
//	for {
//		entry, err := dir.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		fmt.Println(entry.Path())
//	}
//
// # Semantics
//
// Entries are yielded in the order the kernel returns them, which is not
// sorted. "." and ".." are never yielded. Records with inode number zero
// are skipped by default for compatibility with readdir(3); see
// [WithZeroInodeEntries].
//
// Each yielded [Entry] owns a copy of its kernel record, so entries remain
// valid after the iterator advances, refills its buffer, or is closed.
//
// # Concurrency
//
// A single Dir must be driven by one goroutine at a time: Next mutates the
// shared record buffer non-atomically. Already-yielded entries are immutable
// and safe to share. Independent Dirs, over the same directory or different
// ones, may run concurrently with no shared mutable state.
//
// Linux only.
package getdents

import (
	"io"
	"os"
	"runtime"
)

// sysReadDirents is swappable in tests for deterministic refill injection.
var sysReadDirents = readDirents

type iterState uint8

const (
	stateNeedsRefill iterState = iota
	stateHasData
	stateExhausted
	stateErrored
)

// Dir is a lazy, forward-only, non-restartable iterator over the entries of
// a single directory. Create one with [ReadDir].
//
// The zero value is not usable.
type Dir struct {
	fd   int
	root string

	// Refill buffer and cursors. Invariant: 0 <= bufOff <= bufLen <= len(buf).
	buf    []byte
	bufLen int
	bufOff int

	state iterState
	err   error // sticky terminal error, set once with state = stateErrored

	zeroInode bool
}

// ReadDir opens path as a directory and returns an iterator over its
// entries.
//
// Open and stat failures (not found, permission denied, not a directory,
// fd limits, ...) are returned here, before any iteration, wrapped in
// *os.PathError so they match errors.Is checks against fs.ErrNotExist,
// fs.ErrPermission, and raw errnos. EINTR is retried transparently and
// never returned.
//
// The directory fd is closed automatically when the iterator reaches end
// of directory or a terminal error. Callers that may abandon iteration
// early must call [Dir.Close]; a runtime cleanup closes leaked fds as a
// last resort, like os.File does.
func ReadDir(path string, opts ...Option) (*Dir, error) {
	o := withDefaults(opts)

	fd, err := openDir(path)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	size, err := statSize(fd)
	if err != nil {
		_ = closeFD(fd)

		return nil, &os.PathError{Op: "fstat", Path: path, Err: err}
	}

	capacity := o.bufSize
	if capacity > 0 {
		capacity = bufCapacity(int64(capacity))
	} else {
		capacity = bufCapacity(size)
	}

	d := &Dir{
		fd:        fd,
		root:      path,
		buf:       make([]byte, capacity),
		zeroInode: o.zeroInode,
	}
	runtime.SetFinalizer(d, (*Dir).closeOnce)

	return d, nil
}

// Next returns the next directory entry.
//
// At end of directory it returns (nil, io.EOF) and keeps doing so on every
// further call, without issuing more syscalls. If the kernel read fails or
// a record is malformed, Next returns the error once, closes the fd, and
// re-raises the same error on every further call.
func (d *Dir) Next() (*Entry, error) {
	for {
		switch d.state {
		case stateExhausted:
			return nil, io.EOF

		case stateErrored:
			return nil, d.err

		case stateNeedsRefill:
			n, err := sysReadDirents(d.fd, d.buf)
			if err != nil {
				return nil, d.fail(err)
			}

			// getdents64 returns the byte count written, or 0 once all
			// entries have been read.
			if n == 0 {
				d.state = stateExhausted
				_ = d.closeOnce()

				return nil, io.EOF
			}

			d.bufLen = n
			d.bufOff = 0
			d.state = stateHasData
		}

		rec, err := decodeRecord(d.buf[d.bufOff:d.bufLen])
		if err != nil {
			return nil, d.fail(err)
		}

		d.bufOff += len(rec.raw)
		if d.bufOff >= d.bufLen {
			d.state = stateNeedsRefill
		}

		// Skip ".", "..", and (by default) inode-zero records. The record
		// views into d.buf, so the copy in newEntry happens only for
		// entries that are actually yielded.
		if rec.ino == 0 && !d.zeroInode {
			continue
		}

		if len(rec.name) == 0 || isDotEntry(rec.name) {
			continue
		}

		return newEntry(rec, d.root), nil
	}
}

// Close releases the directory fd. It is idempotent and safe on every
// path: after a full drain, after an error, or mid-iteration. A Dir closed
// mid-iteration yields io.EOF from further Next calls.
func (d *Dir) Close() error {
	if d.state != stateErrored {
		d.state = stateExhausted
	}

	return d.closeOnce()
}

// fail transitions to the terminal errored state, releases the fd, and
// returns the sticky error.
func (d *Dir) fail(err error) error {
	d.state = stateErrored
	d.err = &os.PathError{Op: "readdirent", Path: d.root, Err: err}

	_ = d.closeOnce()

	return d.err
}

func (d *Dir) closeOnce() error {
	if d.fd < 0 {
		return nil
	}

	fd := d.fd
	d.fd = -1
	runtime.SetFinalizer(d, nil)

	err := closeFD(fd)
	if err != nil {
		return &os.PathError{Op: "close", Path: d.root, Err: err}
	}

	return nil
}

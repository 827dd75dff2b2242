package getdents

// sys_linux.go is the syscall layer: open/fstat/getdents64/close plus the
// buffer capacity heuristic. Every call site except close retries EINTR
// without an upper bound, matching Go's standard library.

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	// minBufSize is the reference block size for the capacity heuristic
	// (glibc's BUFSIZ). Must be a power of two.
	minBufSize = 8 * 1024

	// maxBufSize caps the refill buffer. Directories whose listing does
	// not fit pay one extra getdents64 call per buffer-full instead.
	maxBufSize = 1024 * 1024
)

// ignoringEINTR repeats fn until it returns anything other than EINTR.
//
// A signal delivered mid-call is not a real failure; open, fstat, and
// getdents64 all go through this.
func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// openDir opens path as a directory for raw entry reads.
func openDir(path string) (int, error) {
	var fd int

	err := ignoringEINTR(func() error {
		var err error
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC|unix.O_DIRECTORY, 0)

		return err
	})
	if err != nil {
		return -1, err
	}

	return fd, nil
}

// statSize returns the directory inode's size, used only to size the
// refill buffer.
func statSize(fd int) (int64, error) {
	var st unix.Stat_t

	err := ignoringEINTR(func() error { return unix.Fstat(fd, &st) })
	if err != nil {
		return 0, err
	}

	return st.Size, nil
}

// readDirents fills buf with raw linux_dirent64 records via getdents64 and
// returns the byte count written. A return of 0 means the directory is
// exhausted.
func readDirents(fd int, buf []byte) (int, error) {
	var n int

	err := ignoringEINTR(func() error {
		var err error
		n, err = unix.Getdents(fd, buf)

		return err
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

func closeFD(fd int) error {
	// We intentionally do not retry close(2) on EINTR.
	return unix.Close(fd)
}

// bufCapacity sizes the refill buffer from the directory inode's size.
//
// There is no exact way to size a buffer that holds a whole listing in one
// getdents64 call. glibc uses st_blksize clamped between 32K and 1M, which
// is too low for directories with a lot of files. Instead, the inode size
// is used as the reference, rounded up to the next multiple of minBufSize
// and clamped between minBufSize and maxBufSize: directories that do not
// fit pay one extra call rather than forcing a large fixed allocation.
func bufCapacity(size int64) int {
	if size >= maxBufSize {
		return maxBufSize
	}

	if size <= minBufSize {
		return minBufSize
	}

	return (int(size) + minBufSize - 1) &^ (minBufSize - 1)
}

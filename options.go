package getdents

// Option configures [ReadDir]. Options are applied in order.
type Option func(*options)

type options struct {
	bufSize   int
	zeroInode bool
}

func withDefaults(opts []Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithBufferSize overrides the refill buffer size.
//
// The size is rounded up to the next multiple of 8 KiB and clamped between
// 8 KiB and 1 MiB, the same bounds the default heuristic uses. A smaller
// buffer means more getdents64 calls per listing; a larger one means fewer
// calls but more resident memory per open iterator.
//
// Values <= 0 use the default heuristic (directory inode size, rounded and
// clamped the same way).
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.bufSize = n
	}
}

// WithZeroInodeEntries yields entries whose inode number is zero instead
// of skipping them.
//
// The default skips them for compatibility with readdir(3): glibc drops
// inode-zero records on the assumption that they represent deleted
// entries. Whether that is correct is disputed. A 2010 glibc report
// describes a filesystem where 0 is a valid inode number, but the report
// was closed and existing programs rely on the skip.
//
// https://sourceware.org/bugzilla/show_bug.cgi?id=12165
func WithZeroInodeEntries() Option {
	return func(o *options) {
		o.zeroInode = true
	}
}

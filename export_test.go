package getdents

// Export internal symbols for black-box tests in the getdents_test package.
var (
	BufCapacity = bufCapacity
	MinBufSize  = minBufSize
	MaxBufSize  = maxBufSize
)

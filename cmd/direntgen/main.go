// Direntgen generates flat directories of empty files for benchmarking
// directory enumeration.
//
// Examples:
//
//	go run ./cmd/direntgen --out .data/flat_100k --files 100000
//	go run ./cmd/direntgen --out .data/flat_1m --files 1000000 --pad 80
//
// File names are zero-padded sequence numbers, optionally padded with a
// fixed suffix to inflate dirent record sizes. Uses threads = available
// CPU cores by default.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type args struct {
	out     string
	files   uint64
	threads int
	pad     int
	ext     string
}

func parseArgs() *args {
	a := &args{}

	flag.StringVar(&a.out, "out", "", "output directory (required)")
	flag.Uint64Var(&a.files, "files", 100_000, "number of files to create")
	flag.IntVar(&a.threads, "threads", runtime.NumCPU(), "creator goroutines")
	flag.IntVar(&a.pad, "pad", 0, "extra name padding bytes (0-200)")
	flag.StringVar(&a.ext, "ext", ".dat", "file extension")

	flag.Parse()

	return a
}

func main() {
	a := parseArgs()

	err := run(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(a *args) error {
	if a.out == "" {
		return fmt.Errorf("--out is required")
	}

	if a.files == 0 {
		return fmt.Errorf("--files must be > 0")
	}

	if a.pad < 0 || a.pad > 200 {
		return fmt.Errorf("--pad must be in [0, 200]")
	}

	if a.threads <= 0 {
		a.threads = 1
	}

	err := os.MkdirAll(a.out, 0o755)
	if err != nil {
		return err
	}

	pad := strings.Repeat("x", a.pad)
	start := time.Now()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	perThread := a.files / uint64(a.threads)

	for w := 0; w < a.threads; w++ {
		lo := uint64(w) * perThread
		hi := lo + perThread

		if w == a.threads-1 {
			hi = a.files
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := lo; i < hi; i++ {
				name := fmt.Sprintf("f-%09d%s%s", i, pad, a.ext)

				f, err := os.OpenFile(filepath.Join(a.out, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()

					return
				}

				_ = f.Close()
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	fmt.Fprintf(os.Stderr, "created %d files in %s (%v)\n", a.files, a.out, time.Since(start).Round(time.Millisecond))

	return nil
}

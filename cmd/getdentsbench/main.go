// Getdentsbench times full directory listings through the getdents
// iterator, optionally against os.ReadDir for comparison.
//
// Examples:
//
//	go run ./cmd/getdentsbench .data/flat_100k
//	go run ./cmd/getdentsbench -v -d 10s .data/flat_100k .data/flat_1m
//	go run ./cmd/getdentsbench -std .data/flat_100k
//	go run ./cmd/getdentsbench -p .data/flat_100k | wc -l
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayosec/getdents"
)

// benchWarmup is the number of passes discarded before timing starts.
const benchWarmup = 5

type benchFlags struct {
	verbose    bool
	printNames bool
	useStd     bool
	duration   time.Duration
	dirs       []string
}

func parseFlags() *benchFlags {
	flags := &benchFlags{}

	flag.BoolVar(&flags.verbose, "v", false, "print duration after every run")
	flag.BoolVar(&flags.printNames, "p", false, "print file names (single pass)")
	flag.BoolVar(&flags.useStd, "std", false, "use os.ReadDir instead of the getdents iterator")
	flag.DurationVar(&flags.duration, "d", 3*time.Second, "benchmark duration per directory")

	flag.Parse()

	flags.dirs = flag.Args()

	return flags
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(flags *benchFlags) int {
	if len(flags.dirs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: getdentsbench [-v] [-p] [-std] [-d duration] dirs...")

		return 2
	}

	for _, dir := range flags.dirs {
		err := benchDir(dir, flags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", dir, err)

			return 1
		}
	}

	return 0
}

func benchDir(dir string, flags *benchFlags) error {
	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	var (
		durSum time.Duration
		durMax time.Duration
		durMin = time.Duration(1<<63 - 1)
		runs   int
	)

	start := time.Now()
	for time.Since(start) < flags.duration {
		runStart := time.Now()

		var err error
		if flags.useStd {
			err = drainStd(dir, flags.printNames, stdout)
		} else {
			err = drainGetdents(dir, flags.printNames, stdout)
		}

		// Any yielded error terminates the whole pass.
		if err != nil {
			return err
		}

		runs++
		if runs > benchWarmup {
			elapsed := time.Since(runStart)

			durSum += elapsed
			durMax = max(durMax, elapsed)
			durMin = min(durMin, elapsed)

			if flags.verbose {
				fmt.Fprintf(os.Stderr, "%v\n", elapsed)
			}
		}

		// Only one run when file names are written to stdout.
		if flags.printNames {
			break
		}
	}

	if runs > benchWarmup {
		timed := runs - benchWarmup

		fmt.Fprintf(os.Stderr, "%s: AVG: %.3f ms | MAX: %.3f ms | MIN: %.3f ms (%d runs)\n",
			dir,
			durSum.Seconds()/float64(timed)*1000.0,
			durMax.Seconds()*1000.0,
			durMin.Seconds()*1000.0,
			timed,
		)
	}

	return nil
}

func drainGetdents(dir string, printNames bool, stdout *bufio.Writer) error {
	d, err := getdents.ReadDir(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	for {
		entry, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if printNames {
			_, _ = stdout.WriteString(entry.Name())
			_ = stdout.WriteByte('\n')
		}
	}
}

func drainStd(dir string, printNames bool, stdout *bufio.Writer) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	if printNames {
		for _, entry := range entries {
			_, _ = stdout.WriteString(entry.Name())
			_ = stdout.WriteByte('\n')
		}
	}

	return nil
}

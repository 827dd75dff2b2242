package getdents_test

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"testing"

	"github.com/ayosec/getdents"
)

const testNamePad = 200

// writeEntries creates n empty files with long padded names plus one
// subdirectory and one symlink, and returns the expected child names.
func writeEntries(t *testing.T, root string, n int) []string {
	t.Helper()

	names := make([]string, 0, n+2)

	pad := strings.Repeat("x", testNamePad)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("f-%06d-%s.txt", i, pad)

		err := os.WriteFile(filepath.Join(root, name), nil, 0o644)
		if err != nil {
			t.Fatalf("write %s: %v", name, err)
		}

		names = append(names, name)
	}

	err := os.Mkdir(filepath.Join(root, "subdir"), 0o755)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err = os.Symlink("f-000000", filepath.Join(root, "dangling-link"))
	if err != nil {
		t.Fatalf("symlink: %v", err)
	}

	return append(names, "subdir", "dangling-link")
}

func drain(t *testing.T, d *getdents.Dir) []*getdents.Entry {
	t.Helper()

	var entries []*getdents.Entry

	for {
		entry, err := d.Next()
		if errors.Is(err, io.EOF) {
			return entries
		}

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries = append(entries, entry)
	}
}

func sortedNames(entries []*getdents.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names
}

func Test_ReadDir_Yields_Every_Child_Name(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := writeEntries(t, root, 50)
	sort.Strings(want)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	got := sortedNames(drain(t, d))

	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func Test_ReadDir_Matches_Os_ReadDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 120)

	stdEntries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := make([]string, 0, len(stdEntries))
	for _, e := range stdEntries {
		want = append(want, e.Name())
	}

	sort.Strings(want)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	got := sortedNames(drain(t, d))

	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("entry sets differ:\ngot:  %v\nwant: %v", got, want)
	}
}

func Test_ReadDir_Never_Yields_Dot_Entries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 3)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	for _, e := range drain(t, d) {
		if e.Name() == "." || e.Name() == ".." {
			t.Fatalf("dot entry yielded: %q", e.Name())
		}
	}
}

func Test_ReadDir_Empty_Directory_Yields_Clean_EOF(t *testing.T) {
	t.Parallel()

	d, err := getdents.ReadDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	entries := drain(t, d)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func Test_ReadDir_Missing_Path_Fails_At_Open_Time(t *testing.T) {
	t.Parallel()

	_, err := getdents.ReadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}

	var pathErr *os.PathError
	if !errors.As(err, &pathErr) || pathErr.Op != "open" {
		t.Fatalf("expected open *os.PathError, got %v", err)
	}
}

func Test_ReadDir_Regular_File_Fails_With_ENOTDIR(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")

	err := os.WriteFile(file, []byte("not a dir"), 0o644)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err = getdents.ReadDir(file)
	if !errors.Is(err, syscall.ENOTDIR) {
		t.Fatalf("expected ENOTDIR, got %v", err)
	}
}

func Test_Entry_Path_Joins_Root_And_Name(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 10)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	for _, e := range drain(t, d) {
		want := filepath.Join(root, e.Name())
		if e.Path() != want {
			t.Fatalf("expected path %q, got %q", want, e.Path())
		}
	}
}

func Test_Entry_Ino_Matches_Lstat(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 5)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	for _, e := range drain(t, d) {
		info, err := os.Lstat(e.Path())
		if err != nil {
			t.Fatalf("lstat %s: %v", e.Path(), err)
		}

		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			t.Fatalf("unexpected Sys type %T", info.Sys())
		}

		if e.Ino() != st.Ino {
			t.Fatalf("%s: expected ino %d, got %d", e.Name(), st.Ino, e.Ino())
		}
	}
}

func Test_Entry_Outlives_Iterator(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 30)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := drain(t, d)

	// Entries own their record bytes: closing the iterator (and dropping
	// its buffer) must not disturb them.
	err = d.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Path(), root) {
			t.Fatalf("entry path %q lost its root", e.Path())
		}

		if e.Name() == "" {
			t.Fatalf("entry lost its name")
		}
	}
}

func Test_ReadDir_Two_Iterators_Yield_Identical_Sets(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 80)

	first, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer first.Close()

	second, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer second.Close()

	a := sortedNames(drain(t, first))
	b := sortedNames(drain(t, second))

	if strings.Join(a, "\n") != strings.Join(b, "\n") {
		t.Fatalf("iterators disagree:\nfirst:  %v\nsecond: %v", a, b)
	}
}

func Test_ReadDir_Small_Buffer_Forces_Multiple_Refills(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	// 300 entries with ~220-byte names is ~70 KiB of records, far more
	// than the minimum buffer, so the listing spans many refills.
	want := writeEntries(t, root, 300)
	sort.Strings(want)

	d, err := getdents.ReadDir(root, getdents.WithBufferSize(getdents.MinBufSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	got := sortedNames(drain(t, d))

	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("entry sets differ with small buffer:\ngot %d entries, want %d", len(got), len(want))
	}
}

func Test_Next_After_Close_Returns_EOF(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntries(t, root, 20)

	d, err := getdents.ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Abandon after a partial read.
	_, err = d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = d.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = d.Next()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after Close, got %v", err)
	}
}

func Test_BufCapacity_Export_Bounds(t *testing.T) {
	t.Parallel()

	if got := getdents.BufCapacity(0); got != getdents.MinBufSize {
		t.Fatalf("expected min capacity, got %d", got)
	}

	if got := getdents.BufCapacity(1 << 40); got != getdents.MaxBufSize {
		t.Fatalf("expected max capacity, got %d", got)
	}
}

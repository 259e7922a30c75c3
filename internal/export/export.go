// Package export writes shader payloads and reports into an output
// directory.
//
// Files are written to a temporary name and renamed into place, so a crash
// never leaves a truncated payload under its final name. Within one
// Exporter every name may be written at most once; files left by an earlier
// run are overwritten.
package export

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// ErrAlreadyExported is returned when a name is exported twice.
var ErrAlreadyExported = errors.New("export: file already written in this run")

const tempPrefix = ".tmp-"

// FSExporter writes files into the root of a billy.Filesystem.
type FSExporter struct {
	fs      billy.Filesystem
	written map[string]int
}

// New returns an exporter over fs.
func New(fs billy.Filesystem) *FSExporter {
	return &FSExporter{fs: fs, written: make(map[string]int)}
}

// NewDir creates dir (and parents) and returns an exporter rooted at it.
func NewDir(dir string) (*FSExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return New(osfs.New(dir)), nil
}

// Remove deletes a non-payload artifact left by an earlier run.
// A missing file is not an error.
func (e *FSExporter) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := e.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Export writes data to name. A second Export of the same name fails.
func (e *FSExporter) Export(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if _, dup := e.written[name]; dup {
		return fmt.Errorf("%s: %w", name, ErrAlreadyExported)
	}
	if err := e.writeFile(name, data); err != nil {
		return err
	}
	e.written[name] = len(data)
	return nil
}

// WriteFile writes a non-payload artifact such as a report. Unlike Export
// it does not participate in the write-once bookkeeping.
func (e *FSExporter) WriteFile(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	return e.writeFile(name, data)
}

func (e *FSExporter) writeFile(name string, data []byte) error {
	tmp := tempPrefix + name
	f, err := e.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = e.fs.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = e.fs.Remove(tmp)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := e.fs.Rename(tmp, name); err != nil {
		_ = e.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Written returns the exported payload names in sorted order.
func (e *FSExporter) Written() []string {
	names := make([]string, 0, len(e.written))
	for n := range e.written {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Bytes returns the total number of payload bytes exported.
func (e *FSExporter) Bytes() int64 {
	var total int64
	for _, n := range e.written {
		total += int64(n)
	}
	return total
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.HasPrefix(name, tempPrefix) {
		return fmt.Errorf("export: invalid file name %q", name)
	}
	return nil
}

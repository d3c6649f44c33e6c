package archive

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Writer is a zip file that accepts each entry name at most once. Entries
// go to a temporary file next to the target; Close moves it into place.
type Writer struct {
	path     string
	f        *os.File
	zw       *zip.Writer
	modified time.Time
	names    []string
	seen     map[string]struct{}
}

// Create starts an archive that will replace path on Close.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	return &Writer{
		path:     path,
		f:        f,
		zw:       zip.NewWriter(f),
		modified: time.Now(),
		seen:     make(map[string]struct{}),
	}, nil
}

func (w *Writer) Path() string {
	return w.path
}

// Write adds one entry. A repeated name fails with an error wrapping
// fs.ErrExist and leaves the archive unchanged.
func (w *Writer) Write(name string, data []byte) error {
	if _, ok := w.seen[name]; ok {
		return fmt.Errorf("archive entry %s: %w", name, fs.ErrExist)
	}

	entry, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return err
	}
	if _, err := entry.Write(data); err != nil {
		return err
	}

	w.seen[name] = struct{}{}
	w.names = append(w.names, name)
	return nil
}

// Names returns entry names in the order they were written.
func (w *Writer) Names() []string {
	return append([]string(nil), w.names...)
}

// Close finishes the archive and renames it to its final path.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.Abort()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := os.Chmod(w.f.Name(), 0o644); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.path); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}

// Abort discards everything written. An existing archive at the target
// path is left as it was.
func (w *Writer) Abort() {
	w.f.Close()
	os.Remove(w.f.Name())
}

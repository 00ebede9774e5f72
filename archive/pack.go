package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	fixzip "github.com/hidez8891/zip"
)

// File is a single entry to be written by Pack.
type File struct {
	Name string
	Data []byte
}

// Pack writes files into new zip archive dst. Names must be unique and
// relative, directories are created implicitly by slashes in names. On error
// partially written archive is removed.
func Pack(dst string, files []File) (err error) {
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if !IsSafePath(f.Name) {
			return fmt.Errorf("unable to pack %q: unsafe path", f.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("unable to pack %q: duplicate name", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create archive (%s): %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("unable to close archive (%s): %w", dst, cerr)
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	w := fixzip.NewWriter(out)
	for _, f := range files {
		fw, err := w.CreateHeader(&fixzip.FileHeader{Name: f.Name, Method: fixzip.Deflate})
		if err != nil {
			return fmt.Errorf("unable to add %s to archive: %w", f.Name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(f.Data)); err != nil {
			return fmt.Errorf("unable to write %s to archive: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finish archive (%s): %w", dst, err)
	}
	return nil
}

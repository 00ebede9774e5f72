// Package archive reads and writes zip archives with email templates.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is called for every file in archive visited by Walk. The archive
// argument is the path passed to Walk. If an error is returned, processing
// stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every regular file in the archive whose name starts
// with prefix. Archive with absolute or ".." entry names is rejected as a
// whole before anything is visited.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !IsSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
	}
	// paths inside archive always use forward slashes
	prefix = strings.TrimLeft(strings.ReplaceAll(prefix, `\`, "/"), "/")

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// IsSafePath returns false for names that could escape extraction directory:
// absolute paths and those containing ".." components.
func IsSafePath(name string) bool {
	if name == "" || path.IsAbs(name) || strings.HasPrefix(name, `\`) || (len(name) > 1 && name[1] == ':') {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

package config

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	fixzip "github.com/hidez8891/zip"

	"mailsmith/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty debug report.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
	// temporary copy to be removed when report is closed
	copied bool
}

// Report accumulates files and data for debug report archive. All methods
// could be called on nil Report which means no report was requested.
// NOTE: not to be used concurrently.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close writes report archive and removes temporary copies.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	defer r.cleanup()
	return r.finalize()
}

// Name returns absolute name of report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to file or directory to be put into archive on Close.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, path))
	}
	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData puts data into archive under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("Attempt to overwrite data in the report for [%s]", name))
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// StoreCopy makes a copy of the file as it is now. Repeated names are
// versioned with timestamp.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	e := entry{stamp: time.Now(), original: path, copied: true}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", misc.GetAppName()+"-r-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return err
	}
	e.actual = dst.Name()
	r.entries[name] = e
	return nil
}

func (r *Report) cleanup() {
	for _, e := range r.entries {
		if e.copied {
			os.Remove(e.actual)
		}
	}
}

// finalize creates archive with manifest and all stored items. Absent files
// are ignored.
func (r *Report) finalize() error {
	arc := fixzip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := prepareManifest(r.entries)
	if err := saveFile(arc, "MANIFEST", manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.data) > 0 {
			if err := saveFile(arc, name, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		info, err := os.Stat(e.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			err = savePath(arc, name, e.actual)
		case info.IsDir():
			err = saveDir(arc, name, e.actual)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	now := time.Now()
	buf := new(bytes.Buffer)

	names := slices.Sorted(maps.Keys(entries))
	for _, k := range names {
		e := entries[k]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), k, e.original, e.actual)
	}
	return names, buf
}

func saveFile(dst *fixzip.Writer, name string, src io.Reader) error {
	w, err := dst.CreateHeader(&fixzip.FileHeader{Name: name, Method: fixzip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func savePath(dst *fixzip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, f)
}

func saveDir(dst *fixzip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			// ignore directories, links, sockets, etc.
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return savePath(dst, filepath.ToSlash(filepath.Join(name, rel)), path)
	})
}

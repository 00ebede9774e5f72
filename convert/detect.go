package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// enough to see past BOM and leading whitespace
const headerSize = 512

var htmlType = filetype.NewType("html", "text/html")

func init() {
	filetype.AddMatcher(htmlType, htmlMatcher)
}

// htmlMatcher accepts anything which looks like markup. UTF-16 input is
// accepted on BOM alone, charset reader will sort it out later.
func htmlMatcher(buf []byte) bool {
	if bytes.HasPrefix(buf, []byte{0xFF, 0xFE}) || bytes.HasPrefix(buf, []byte{0xFE, 0xFF}) {
		return true
	}
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	buf = bytes.TrimLeft(buf, " \t\r\n\f")
	return len(buf) > 0 && buf[0] == '<'
}

func hasTemplateExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return !strings.HasSuffix(strings.ToLower(name), outputExt)
	}
	return false
}

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isTemplateFile checks if file is an html template we should inline. Our
// own results are never picked up again.
func isTemplateFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !hasTemplateExt(path) {
		return false, nil
	}
	head, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.IsType(head, htmlType), nil
}

func isTemplateInArchive(f *zip.File) (bool, error) {
	if !hasTemplateExt(f.Name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHeader(r)
	if err != nil {
		return false, err
	}
	return filetype.IsType(head, htmlType), nil
}

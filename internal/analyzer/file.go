package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxFileSize is the largest upload accepted, 10 MiB.
const MaxFileSize = 10 * 1024 * 1024

const (
	ErrMsgFileType = "Invalid file type. Please upload an image file (PNG, JPG, GIF, or WEBP)."
	ErrMsgFileSize = "File size exceeds 10MB. Please upload a smaller image."
)

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// File is an upload candidate.
type File struct {
	Name string `json:"name"`
	Type string `json:"type"` // MIME type
	Size int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// NewFile wraps in-memory image data.
func NewFile(name, mimeType string, data []byte) File {
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// OpenFile describes a file on disk. The MIME type comes from the extension
// and falls back to content sniffing; the body is read only on upload.
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if typ == "" {
		typ, err = sniffType(path)
		if err != nil {
			return File{}, err
		}
	}
	if mt, _, err := mime.ParseMediaType(typ); err == nil {
		typ = mt
	}

	return File{
		Name: filepath.Base(path),
		Type: typ,
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func sniffType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}

// Open returns the file body.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

// Validate checks type before size and returns the message to show.
func Validate(f File) (string, bool) {
	if !allowedTypes[strings.ToLower(f.Type)] {
		return ErrMsgFileType, false
	}
	if f.Size > MaxFileSize {
		return ErrMsgFileSize, false
	}
	return "", true
}

// Preview is the locally rendered stand-in for the selected image.
type Preview struct {
	Name   string
	Type   string
	Size   int64
	Width  int
	Height int
}

// DecodePreview reads only the image header.
func DecodePreview(f File) (Preview, error) {
	p := Preview{Name: f.Name, Type: f.Type, Size: f.Size}

	rc, err := f.Open()
	if err != nil {
		return p, err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return p, fmt.Errorf("decoding %s header: %w", f.Name, err)
	}
	p.Width, p.Height = cfg.Width, cfg.Height
	return p, nil
}

// Package photo models the photo attached to a recipe cover or an
// instruction step.
package photo

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	magicNumberSeek = 512
	// MaximumUploadSize bounds a single local photo.
	MaximumUploadSize = 20 << 20 // ~ 20 MB
)

// allowedImageTypes lists the simple MIME types we accept.
var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/svg+xml": true,
	"image/webp":    true,
	"image/gif":     true,
}

var mimeTypeSuffix = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
}

var (
	ErrUnsupportedMimeType = errors.New("unsupported mime type")
	ErrEmptyFile           = errors.New("empty file")
	ErrFileTooLarge        = errors.New("file too large")
)

// File is a binary photo payload chosen by the user that has not been
// uploaded yet.
type File struct {
	Name     string
	Size     int64
	Data     []byte
	Suffix   string
	MimeType string
}

// ReadFile reads and sniffs an image. The reader is closed.
func ReadFile(name string, file io.ReadCloser) (*File, error) {
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(io.LimitReader(file, MaximumUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return NewFile(name, data)
}

// Open reads an image from disk.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening photo: %w", err)
	}
	return ReadFile(filepath.Base(path), f)
}

// NewFile validates data as an accepted image type.
func NewFile(name string, data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaximumUploadSize {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrFileTooLarge)
	}

	contentType := http.DetectContentType(data[:min(len(data), magicNumberSeek)])
	if contentType == "text/xml; charset=utf-8" && ExtractSuffix(name) == ".svg" {
		contentType = "image/svg+xml"
	}
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("mime type %q: %w", contentType, ErrUnsupportedMimeType)
	}

	if name == "" {
		name = "photo" + mimeTypeSuffix[contentType]
	}
	return &File{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: contentType,
		Suffix:   mimeTypeSuffix[contentType],
		Data:     data,
	}, nil
}

// ExtractSuffix returns the lowercased extension of s including the dot.
func ExtractSuffix(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx == -1 {
		return ""
	}
	return strings.ToLower(s[idx:])
}

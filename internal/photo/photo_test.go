package photo

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestNewFile(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		data       []byte
		wantErr    error
		wantMime   string
		wantSuffix string
	}{
		{
			name:       "png",
			fileName:   "step.png",
			data:       pngHeader,
			wantMime:   "image/png",
			wantSuffix: ".png",
		},
		{
			name:       "jpeg without name",
			data:       []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'},
			wantMime:   "image/jpeg",
			wantSuffix: ".jpg",
		},
		{
			name:     "plain text",
			fileName: "notes.txt",
			data:     []byte("hello world"),
			wantErr:  ErrUnsupportedMimeType,
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: ErrEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFile(tt.fileName, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			if f.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", f.MimeType, tt.wantMime)
			}
			if f.Suffix != tt.wantSuffix {
				t.Errorf("Suffix = %q, want %q", f.Suffix, tt.wantSuffix)
			}
			if f.Size != int64(len(tt.data)) {
				t.Errorf("Size = %d, want %d", f.Size, len(tt.data))
			}
			if f.Name == "" {
				t.Error("Name should never be empty")
			}
		})
	}
}

func TestReadFile_TooLarge(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), make([]byte, MaximumUploadSize)...)
	_, err := ReadFile("big.png", io.NopCloser(bytes.NewReader(data)))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("ReadFile() error = %v, want %v", err, ErrFileTooLarge)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if f.Name != "cover.png" {
		t.Errorf("Name = %q, want %q", f.Name, "cover.png")
	}

	if _, err := Open(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Open() on a missing file should fail")
	}
}

func TestReferenceConstructors(t *testing.T) {
	path := "recipes/1/cover.png"
	empty := ""

	tests := []struct {
		name string
		ref  Reference
		want Kind
	}{
		{name: "remote", ref: Remote(path), want: KindRemotePath},
		{name: "remote empty", ref: Remote(""), want: KindNone},
		{name: "from nil path", ref: FromPath(nil), want: KindNone},
		{name: "from empty path", ref: FromPath(&empty), want: KindNone},
		{name: "from path", ref: FromPath(&path), want: KindRemotePath},
		{name: "local nil", ref: Local(nil), want: KindNone},
		{name: "local", ref: Local(&File{Data: pngHeader}), want: KindLocalFile},
		{name: "or none", ref: OrNone(nil), want: KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

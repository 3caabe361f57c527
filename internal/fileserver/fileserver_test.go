package fileserver

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestFileServer(t *testing.T) (*FileServer, string) {
	t.Helper()
	base := t.TempDir()
	return New(base), base
}

func TestCleanPath(t *testing.T) {
	baseDir := filepath.Join("testdata", "base")
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		t.Fatalf("failed to get abs base: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  bool
	}{
		{name: "simple relative path", path: "covers/foo.png", expected: filepath.Join("covers", "foo.png")},
		{name: "dot segments", path: "./covers/./foo.png", expected: filepath.Join("covers", "foo.png")},
		{name: "inner dot-dot staying inside", path: "steps/2025/../foo.png", expected: filepath.Join("steps", "foo.png")},
		{name: "empty path resolves to base", path: "", expected: "."},
		{name: "starts with dot-dot", path: "../secret.txt", wantErr: true},
		{name: "cleaned becomes dot-dot", path: "foo/../../secret.txt", wantErr: true},
		{name: "absolute path", path: filepath.Join(string(filepath.Separator), "etc", "passwd"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanPath(baseDir, tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("cleanPath(%q) = %q, %v, want ErrInvalidPath", tt.path, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("cleanPath() returned unexpected error: %v", err)
			}
			if want := filepath.Join(absBase, tt.expected); got != want {
				t.Fatalf("cleanPath(%q) = %q, want %q", tt.path, got, want)
			}
		})
	}
}

func TestTopLevelDirectory(t *testing.T) {
	sep := string(filepath.Separator)

	tests := []struct {
		path     string
		expected string
	}{
		{path: "covers/12/abc.png", expected: "covers"},
		{path: sep + "steps/12/1/abc.png", expected: "steps"},
		{path: "./covers/./foo", expected: "covers"},
		{path: "a/b/../c/d", expected: "a"},
		{path: "covers" + sep, expected: "covers"},
		{path: "", expected: "."},
		{path: sep, expected: ""},
		{path: sep + sep + "foo/bar", expected: "foo"},
		{path: "../foo", expected: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := topLevelDirectory(tt.path); got != tt.expected {
				t.Fatalf("topLevelDirectory(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestIsEmptyDirectory(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		ok, err := isEmptyDirectory(t.TempDir())
		if err != nil || !ok {
			t.Fatalf("isEmptyDirectory() = %v, %v, want true", ok, err)
		}
	})

	t.Run("directory with one file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello"), 0o644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		ok, err := isEmptyDirectory(dir)
		if err != nil || ok {
			t.Fatalf("isEmptyDirectory() = %v, %v, want false", ok, err)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := isEmptyDirectory("does/not/exist"); err == nil {
			t.Fatal("expected error for non-existent directory, got nil")
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if ok, err := isEmptyDirectory(file); err == nil {
			t.Fatalf("expected error for file path, got ok=%v err=nil", ok)
		}
	})
}

func TestFileServerWriteOpen(t *testing.T) {
	fs, base := newTestFileServer(t)
	relPath := filepath.Join("steps", "12", "1", "photo.png")

	n, err := fs.Write(relPath, []byte("first"))
	if err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if n != len("first") {
		t.Errorf("Write() n = %d", n)
	}
	if _, err := fs.Write(relPath, []byte("second")); err != nil {
		t.Fatalf("Write() overwrite returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, relPath))
	if err != nil || string(data) != "second" {
		t.Fatalf("stored data = %q, %v, want %q", data, err, "second")
	}

	f, err := fs.Open(relPath)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	defer func() { _ = f.Close() }()
	got, _ := io.ReadAll(f)
	if string(got) != "second" {
		t.Errorf("Open() read %q", got)
	}

	ok, err := fs.Exists(relPath)
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v, want true", ok, err)
	}
	ok, err = fs.Exists(filepath.Join("steps", "missing.png"))
	if err != nil || ok {
		t.Errorf("Exists() missing = %v, %v, want false", ok, err)
	}
}

func TestFileServerWrite_RejectsPaths(t *testing.T) {
	fs, _ := newTestFileServer(t)

	for _, path := range []string{"other/file.png", "covers/../../escape.png", "../covers/x.png"} {
		if _, err := fs.Write(path, []byte("x")); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
	if _, err := fs.Open("covers/missing.png"); !errors.Is(err, ErrNotExist) {
		t.Errorf("Open() missing error = %v, want ErrNotExist", err)
	}
}

func TestFileServerDelete_SuccessAndPruneEmptyDirs(t *testing.T) {
	fs, base := newTestFileServer(t)
	relPath := filepath.Join("covers", "recipe1", "cover.png")

	if _, err := fs.Write(relPath, []byte("data")); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if err := fs.Delete(relPath); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(base, relPath)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be removed, got err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "covers", "recipe1")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected recipe1 directory to be pruned, got err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "covers")); err != nil {
		t.Fatalf("expected covers directory to remain, got err=%v", err)
	}
}

func TestFileServerDelete_Errors(t *testing.T) {
	fs, _ := newTestFileServer(t)

	if err := fs.Delete(filepath.Join("other", "file.png")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Delete() invalid top-level error = %v, want ErrInvalidPath", err)
	}
	if err := fs.Delete(filepath.Join("covers", "recipe1", "missing.png")); !errors.Is(err, ErrNotExist) {
		t.Errorf("Delete() missing error = %v, want ErrNotExist", err)
	}

	var nilFS *FileServer
	if err := nilFS.Delete("covers/recipe1/cover.png"); err != nil {
		t.Errorf("expected nil error on nil receiver, got %v", err)
	}
}

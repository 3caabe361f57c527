// Package fileserver stores uploaded objects on the local disk.
package fileserver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	directoryPerms = 0o755
	filePerms      = 0o644
)

const (
	CoversDir = "covers"
	StepsDir  = "steps"
)

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrNotExist    = errors.New("file does not exist")
)

// topLevelDirectories are the only directories objects may be written to.
var topLevelDirectories = []string{CoversDir, StepsDir}

type FileServer struct {
	baseDir string
}

func New(baseDir string) *FileServer {
	return &FileServer{
		baseDir: baseDir,
	}
}

func (f *FileServer) BaseDirectory() string {
	if f == nil {
		return ""
	}
	return f.baseDir
}

// cleanPath joins path onto baseDir and returns the absolute result. Paths
// resolving outside baseDir are rejected.
func cleanPath(baseDir, path string) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%q is absolute: %w", path, ErrInvalidPath)
	}
	full := filepath.Join(absBase, filepath.Clean(path))
	rel, err := filepath.Rel(absBase, full)
	if err != nil {
		return "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes base directory: %w", path, ErrInvalidPath)
	}
	return full, nil
}

func topLevelDirectory(path string) string {
	cleaned := strings.TrimPrefix(filepath.Clean(path), string(filepath.Separator))
	if idx := strings.IndexRune(cleaned, filepath.Separator); idx != -1 {
		return cleaned[:idx]
	}
	return cleaned
}

func isEmptyDirectory(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = dir.Close() }()

	_, err = dir.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// resolve validates an object path and returns its location on disk.
func (f *FileServer) resolve(path string) (string, error) {
	top := topLevelDirectory(path)
	allowed := false
	for _, dir := range topLevelDirectories {
		if top == dir {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("top-level directory %q: %w", top, ErrInvalidPath)
	}
	return cleanPath(f.baseDir, path)
}

// Write stores data at path, replacing any existing object.
func (f *FileServer) Write(path string, data []byte) (n int, err error) {
	if f == nil {
		return 0, nil
	}

	fullpath, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullpath), directoryPerms); err != nil {
		return 0, fmt.Errorf("creating parent directories: %w", err)
	}

	file, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerms)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() { _ = file.Close() }()

	n, err = file.Write(data)
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}
	return n, nil
}

// Open opens the object at path for reading.
func (f *FileServer) Open(path string) (*os.File, error) {
	if f == nil {
		return nil, ErrNotExist
	}
	fullpath, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullpath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", path, ErrNotExist)
	} else if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return file, nil
}

func (f *FileServer) Exists(path string) (bool, error) {
	if f == nil {
		return false, nil
	}
	fullpath, err := f.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullpath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the object at path and prunes parent directories left
// empty, stopping at the top-level directory.
func (f *FileServer) Delete(path string) error {
	if f == nil {
		return nil
	}

	fullpath, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullpath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%q: %w", path, ErrNotExist)
	} else if err != nil {
		return fmt.Errorf("removing file: %w", err)
	}

	stop, err := cleanPath(f.baseDir, topLevelDirectory(path))
	if err != nil {
		return err
	}
	for dir := filepath.Dir(fullpath); dir != stop && strings.HasPrefix(dir, stop); dir = filepath.Dir(dir) {
		empty, err := isEmptyDirectory(dir)
		if err != nil {
			return fmt.Errorf("checking directory: %w", err)
		}
		if !empty {
			break
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("pruning directory: %w", err)
		}
	}
	return nil
}

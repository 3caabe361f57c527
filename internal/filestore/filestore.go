// Package filestore wraps the fileserver package with recipe object keys and
// public URLs.
package filestore

import (
	"errors"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/nonsess/recipe-social-network/internal/fileserver"
)

const (
	DefaultURLPrefix = "/files"
)

var ErrForeignKey = errors.New("object key does not belong to recipe")

// FileStore keeps uploaded objects on local disk and serves them under
// urlPathPrefix.
type FileStore struct {
	urlPathPrefix string
	host          string
	fs            *fileserver.FileServer
}

func New(baseDirectory, urlPathPrefix, host string) *FileStore {
	if urlPathPrefix == "" {
		urlPathPrefix = DefaultURLPrefix
	}
	return &FileStore{
		urlPathPrefix: "/" + strings.Trim(urlPathPrefix, "/"),
		host:          strings.TrimRight(host, "/"),
		fs:            fileserver.New(baseDirectory),
	}
}

// CoverKey returns a fresh object key for a recipe cover. Every call yields a
// new key so a replaced cover never overwrites the one still attached.
func CoverKey(recipeID int64) string {
	return coverImagePath(recipeID, ulid.Make().String())
}

// StepKey returns a fresh object key for a step photo.
func StepKey(recipeID int64, stepNumber int) string {
	return stepsImagePath(recipeID, stepNumber, ulid.Make().String())
}

func coverImagePath(recipeID int64, name string) string {
	return path.Join(fileserver.CoversDir, strconv.FormatInt(recipeID, 10), name)
}

func stepsImagePath(recipeID int64, stepNumber int, name string) string {
	return path.Join(fileserver.StepsDir,
		strconv.FormatInt(recipeID, 10), strconv.Itoa(stepNumber), name)
}

// BelongsTo reports whether key was issued for recipeID.
func BelongsTo(key string, recipeID int64) bool {
	id := strconv.FormatInt(recipeID, 10)
	parts := strings.Split(path.Clean(key), "/")
	switch {
	case len(parts) == 3 && parts[0] == fileserver.CoversDir:
		return parts[1] == id
	case len(parts) == 4 && parts[0] == fileserver.StepsDir:
		return parts[1] == id
	}
	return false
}

func (f *FileStore) Put(key string, data []byte) (int, error) {
	return f.fs.Write(key, data)
}

func (f *FileStore) Open(key string) (*os.File, error) {
	return f.fs.Open(key)
}

func (f *FileStore) Exists(key string) (bool, error) {
	return f.fs.Exists(key)
}

func (f *FileStore) Delete(key string) error {
	return f.fs.Delete(key)
}

// URLPathPrefix is the path objects are served under, with a leading slash.
func (f *FileStore) URLPathPrefix() string {
	return f.urlPathPrefix
}

// URLPath maps an object key to the path it is served at.
func (f *FileStore) URLPath(key string) string {
	return f.urlPathPrefix + "/" + strings.TrimLeft(key, "/")
}

// FileURL returns the absolute URL of an object.
func (f *FileStore) FileURL(key string) string {
	return f.host + f.URLPath(key)
}

// KeyFromURLPath is the inverse of URLPath.
func (f *FileStore) KeyFromURLPath(urlpath string) string {
	return trimURLPathPrefix(urlpath, f.urlPathPrefix)
}

func trimURLPathPrefix(p string, prefix string) string {
	urlpath := strings.Trim(p, "/")
	pathPrefix := strings.Trim(prefix, "/")
	urlpath = strings.TrimPrefix(urlpath, pathPrefix)
	return strings.TrimLeft(urlpath, "/")
}

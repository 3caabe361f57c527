package photo

import "fmt"

// Kind names the variant held by a Reference.
type Kind int

const (
	KindNone Kind = iota
	KindLocalFile
	KindRemotePath
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLocalFile:
		return "local_file"
	case KindRemotePath:
		return "remote_path"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reference is either None, a LocalFile awaiting upload, or a RemotePath
// that is already persisted. The interface is sealed; switch on the
// concrete type or on Kind.
type Reference interface {
	Kind() Kind
	sealed()
}

// None is the absence of a photo.
type None struct{}

// LocalFile is a photo chosen in this session whose bytes are not uploaded.
type LocalFile struct {
	File *File
}

// RemotePath is an object path already stored by the backend.
type RemotePath struct {
	Path string
}

func (None) Kind() Kind       { return KindNone }
func (LocalFile) Kind() Kind  { return KindLocalFile }
func (RemotePath) Kind() Kind { return KindRemotePath }

func (None) sealed()       {}
func (LocalFile) sealed()  {}
func (RemotePath) sealed() {}

// Remote returns a RemotePath reference, or None for an empty path.
func Remote(path string) Reference {
	if path == "" {
		return None{}
	}
	return RemotePath{Path: path}
}

// FromPath returns a RemotePath for a non-nil, non-empty path and None
// otherwise.
func FromPath(path *string) Reference {
	if path == nil {
		return None{}
	}
	return Remote(*path)
}

// Local wraps f as a LocalFile reference.
func Local(f *File) Reference {
	if f == nil {
		return None{}
	}
	return LocalFile{File: f}
}

// OrNone treats a nil Reference as None.
func OrNone(r Reference) Reference {
	if r == nil {
		return None{}
	}
	return r
}

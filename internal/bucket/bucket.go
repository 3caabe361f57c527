// Package bucket issues presigned browser-style POST uploads against the
// object store backing recipe images.
package bucket

import (
	"context"
	"errors"
	"time"
)

// MaxObjectSize bounds every presigned upload.
const MaxObjectSize int64 = 20 << 20

var ErrInvalidPolicy = errors.New("invalid upload policy")

// Upload is a presigned POST: the client sends Fields followed by the file
// to Destination.
type Upload struct {
	Destination string
	Fields      map[string]string
	Key         string
	ExpiresAt   time.Time
}

type Bucket interface {
	// PresignUpload authorizes a single upload of key for ttl.
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (Upload, error)
	// Exists reports whether an object has been stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

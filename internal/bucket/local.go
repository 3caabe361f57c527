package bucket

import (
	"context"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/nonsess/recipe-social-network/internal/filestore"
	"github.com/nonsess/recipe-social-network/internal/jwt"
)

const (
	// KeyField and PolicyField are the form fields of a local upload.
	KeyField    = "key"
	PolicyField = "policy"

	uploadRole = "upload"
)

// Local signs uploads for the on-disk file store. The policy field is a JWT
// whose subject is the object key.
type Local struct {
	files       *filestore.FileStore
	secret      []byte
	version     string
	destination string
	now         func() time.Time
}

var _ Bucket = (*Local)(nil)

// NewLocal returns a bucket whose uploads are POSTed to destination.
func NewLocal(files *filestore.FileStore, secret []byte, version, destination string) *Local {
	return &Local{
		files:       files,
		secret:      secret,
		version:     version,
		destination: destination,
		now:         time.Now,
	}
}

func (l *Local) PresignUpload(ctx context.Context, key string, ttl time.Duration) (Upload, error) {
	policy, err := jwt.GenerateJWT(jwt.JWTParams{Subject: key, Role: uploadRole}, l.secret, l.version, ttl)
	if err != nil {
		return Upload{}, fmt.Errorf("signing upload policy: %w", err)
	}
	return Upload{
		Destination: l.destination,
		Fields: map[string]string{
			KeyField:    key,
			PolicyField: policy,
		},
		Key:       key,
		ExpiresAt: l.now().Add(ttl),
	}, nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	return l.files.Exists(key)
}

// Verify checks that policy authorizes an upload of key.
func (l *Local) Verify(key, policy string) error {
	token, err := jwt.ValidateJWT(policy, l.version, l.secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return fmt.Errorf("%w: unexpected claims", ErrInvalidPolicy)
	}
	if r, _ := claims["role"].(string); r != uploadRole {
		return fmt.Errorf("%w: role %q", ErrInvalidPolicy, r)
	}
	if sub != key {
		return fmt.Errorf("%w: issued for %q", ErrInvalidPolicy, sub)
	}
	return nil
}

// Store writes an uploaded object.
func (l *Local) Store(key string, data []byte) (int, error) {
	return l.files.Put(key, data)
}

// Open reads a stored object.
func (l *Local) Open(key string) (*os.File, error) {
	return l.files.Open(key)
}

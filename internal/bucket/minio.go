package bucket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// Minio presigns POST policies with the MinIO client.
type Minio struct {
	client *minio.Client
	bucket string
	region string
}

var _ Bucket = (*Minio)(nil)

func NewMinio(conf MinioConfig) (*Minio, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
		Region: conf.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &Minio{client: client, bucket: conf.Bucket, region: conf.Region}, nil
}

func (m *Minio) PresignUpload(ctx context.Context, key string, ttl time.Duration) (Upload, error) {
	expires := time.Now().UTC().Add(ttl)
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(m.bucket); err != nil {
		return Upload{}, fmt.Errorf("setting policy bucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return Upload{}, fmt.Errorf("setting policy key: %w", err)
	}
	if err := policy.SetExpires(expires); err != nil {
		return Upload{}, fmt.Errorf("setting policy expiry: %w", err)
	}
	if err := policy.SetContentLengthRange(1, MaxObjectSize); err != nil {
		return Upload{}, fmt.Errorf("setting policy size: %w", err)
	}

	u, fields, err := m.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return Upload{}, fmt.Errorf("presigning post policy: %w", err)
	}
	return Upload{
		Destination: u.String(),
		Fields:      fields,
		Key:         key,
		ExpiresAt:   expires,
	}, nil
}

func (m *Minio) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("stat object: %w", err)
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if ok {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", m.bucket, err)
	}
	return nil
}

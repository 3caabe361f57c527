package bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	// Endpoint overrides the AWS endpoint, e.g. http://garage:3900.
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

// S3 presigns POST uploads with the AWS SDK. Garage is served through it with
// path-style addressing.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ Bucket = (*S3)(nil)

func NewS3(conf S3Config) *S3 {
	opts := s3.Options{
		Region: conf.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     conf.AccessKey,
					SecretAccessKey: conf.SecretKey,
					Source:          "recipes-config",
				}, nil
			})),
	}
	if conf.Endpoint != "" {
		opts.BaseEndpoint = aws.String(conf.Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  conf.Bucket,
	}
}

func (b *S3) PresignUpload(ctx context.Context, key string, ttl time.Duration) (Upload, error) {
	expires := time.Now().Add(ttl)
	req, err := b.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = ttl
		o.Conditions = []interface{}{
			[]interface{}{"content-length-range", 1, MaxObjectSize},
		}
	})
	if err != nil {
		return Upload{}, fmt.Errorf("presigning post object: %w", err)
	}
	return Upload{
		Destination: req.URL,
		Fields:      req.Values,
		Key:         key,
		ExpiresAt:   expires,
	}, nil
}

func (b *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head object: %w", err)
}

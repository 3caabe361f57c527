// Package setup is responsible for setting up components.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nonsess/recipe-social-network/internal/backend"
	"github.com/nonsess/recipe-social-network/internal/bucket"
	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/credential"
	"github.com/nonsess/recipe-social-network/internal/filestore"
	"github.com/nonsess/recipe-social-network/internal/garage"
	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/publish"
	"github.com/nonsess/recipe-social-network/internal/storage"
)

func Logger(conf config.Config) (*slog.Logger, error) {
	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(&slog.HandlerOptions{Level: level}), nil
}

func httpConfig(conf config.Config, logger *slog.Logger) mHttp.Config {
	c := mHttp.DefaultConfig()
	if conf.HTTP.Timeout > 0 {
		c.Timeout = conf.HTTP.Timeout
	}
	c.Logger = logger
	return c
}

// HTTP builds the client the publishing pipeline talks through. It never
// retries: upload slots are single-use and recipe creation is not
// idempotent.
func HTTP(conf config.Config, logger *slog.Logger) *mHttp.HTTP {
	c := httpConfig(conf, logger)
	c.RetryMax = 0
	return mHttp.New(c)
}

// AdminHTTP builds the client used for storage bootstrap calls, which are
// safe to repeat.
func AdminHTTP(conf config.Config, logger *slog.Logger) *mHttp.HTTP {
	c := httpConfig(conf, logger)
	c.RetryMax = conf.HTTP.RetryMax
	return mHttp.New(c)
}

func FileStore(conf config.Config) (*filestore.FileStore, error) {
	fs := conf.Devserver.Fileserver
	if fs.Volume == "" {
		return nil, NewConfigMissingError("devserver.fileserver.volume")
	}
	fileserverPath, err := filepath.Abs(fs.Volume)
	if err != nil {
		return nil, fmt.Errorf("creating fileserver path: %w", err)
	}
	urlPrefix := fs.URLPrefix
	if urlPrefix == "" {
		urlPrefix = filestore.DefaultURLPrefix
	}
	if conf.Devserver.HostOrigin == "" {
		return nil, NewConfigMissingError("devserver.host_origin")
	}
	return filestore.New(fileserverPath, urlPrefix, conf.Devserver.HostOrigin), nil
}

func storageEndpoint(s config.Storage) string {
	if s.UseSSL {
		return "https://" + s.Endpoint
	}
	return "http://" + s.Endpoint
}

func requireKeys(s config.Storage) error {
	if s.AccessKey == "" {
		return NewConfigMissingError("devserver.storage.access_key")
	}
	if s.SecretKey == "" {
		return NewConfigMissingError("devserver.storage.secret_key")
	}
	return nil
}

// Bucket builds the object store the backend presigns uploads for. Local
// uploads are POSTed to uploadPath on the host origin. MinIO and Garage
// buckets are created if missing.
func Bucket(ctx context.Context, conf config.Config, httpClient mHttp.HTTPDoer,
	logger *slog.Logger, uploadPath string,
) (bucket.Bucket, error) {
	s := conf.Devserver.Storage
	logger.DebugContext(ctx, "setting up bucket", slog.String("provider", string(s.Provider)))

	switch s.Provider {
	case config.StorageLocal, "":
		files, err := FileStore(conf)
		if err != nil {
			return nil, err
		}
		secret := conf.Devserver.AppSecret
		if secret.Value == nil {
			return nil, NewConfigMissingError("devserver.app_secret.value")
		}
		destination := strings.TrimRight(conf.Devserver.HostOrigin, "/") + uploadPath
		return bucket.NewLocal(files, []byte(*secret.Value), secret.Version, destination), nil

	case config.StorageMinio:
		if err := requireKeys(s); err != nil {
			return nil, err
		}
		if s.Endpoint == "" {
			return nil, NewConfigMissingError("devserver.storage.endpoint")
		}
		b, err := bucket.NewMinio(bucket.MinioConfig{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			Bucket:    s.Bucket,
			UseSSL:    s.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := b.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensuring minio bucket: %w", err)
		}
		return b, nil

	case config.StorageS3:
		if err := requireKeys(s); err != nil {
			return nil, err
		}
		s3Config := bucket.S3Config{
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			Bucket:    s.Bucket,
		}
		if s.Endpoint != "" {
			s3Config.Endpoint = storageEndpoint(s)
		}
		return bucket.NewS3(s3Config), nil

	case config.StorageGarage:
		if err := requireKeys(s); err != nil {
			return nil, err
		}
		if s.Endpoint == "" {
			return nil, NewConfigMissingError("devserver.storage.endpoint")
		}
		if err := Garage(ctx, conf, httpClient, logger); err != nil {
			return nil, err
		}
		return bucket.NewS3(bucket.S3Config{
			Endpoint:  storageEndpoint(s),
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			Bucket:    s.Bucket,
		}), nil
	}
	return nil, s.Provider.Validate()
}

// Garage applies the cluster layout and creates the image bucket. It is a
// no-op without admin credentials.
func Garage(ctx context.Context, conf config.Config, httpClient mHttp.HTTPDoer, logger *slog.Logger) error {
	g := conf.Devserver.Garage
	if g.AdminHost == "" {
		logger.InfoContext(ctx, "garage admin host not set, skipping garage setup")
		return nil
	}
	client := garage.NewClient(g.AdminHost, g.AdminToken, httpClient, logger)
	if err := client.InitializeLayout(ctx, g.Zone, g.Capacity); err != nil {
		return fmt.Errorf("initializing garage layout: %w", err)
	}
	s := conf.Devserver.Storage
	if _, err := client.EnsureBucket(ctx, s.Bucket, s.AccessKey); err != nil {
		return fmt.Errorf("ensuring garage bucket: %w", err)
	}
	return nil
}

// Credentials picks the bearer credential provider for the client. A
// refresh token wins over a bare access token.
func Credentials(conf config.Config, httpClient mHttp.HTTPDoer, logger *slog.Logger) (credential.Provider, error) {
	auth := conf.Auth
	if auth.RefreshToken != "" {
		return credential.NewRefreshing(httpClient, logger, auth.RefreshURL, auth.AccessToken, auth.RefreshToken), nil
	}
	if auth.AccessToken != "" {
		return credential.Static(auth.AccessToken), nil
	}
	return nil, NewConfigMissingError("auth.access_token")
}

// Client wires the publishing pipeline against the configured backend.
type Client struct {
	Orchestrator *publish.Orchestrator
	Records      *backend.RecordMutator
}

func PublishingClient(conf config.Config, logger *slog.Logger) (*Client, error) {
	httpClient := HTTP(conf, logger)
	creds, err := Credentials(conf, httpClient, logger)
	if err != nil {
		return nil, err
	}
	api, err := backend.NewClient(conf.APIBaseURL, httpClient, creds, logger)
	if err != nil {
		return nil, err
	}
	records := backend.NewRecordMutator(api)
	orch := publish.NewOrchestrator(
		backend.NewSlotBroker(api),
		storage.NewUploader(httpClient, logger),
		records,
		publish.Config{Concurrency: conf.UploadConcurrency, Logger: logger},
	)
	return &Client{Orchestrator: orch, Records: records}, nil
}

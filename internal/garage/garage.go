// Package garage bootstraps a single-node Garage cluster through its admin
// API: layout, image bucket and key permissions.
package garage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
	"github.com/nonsess/recipe-social-network/internal/log"
)

const (
	DefaultZone           = "dc1"
	DefaultCapacity int64 = 500_000_000_000 // 500 GB
)

var (
	ErrNoNodes        = errors.New("no nodes found in garage cluster")
	ErrBucketNotFound = errors.New("bucket not found")
	layoutTags        = []string{"storage"}
)

type role struct {
	ID       string   `json:"id"`
	Zone     string   `json:"zone"`
	Capacity int64    `json:"capacity"`
	Tags     []string `json:"tags"`
}

type node struct {
	ID       string  `json:"id"`
	Hostname *string `json:"hostname"`
	IsUp     *bool   `json:"isUp"`
}

type ClusterStatus struct {
	LayoutVersion int64  `json:"layoutVersion"`
	Nodes         []node `json:"nodes"`
}

type zoneRedundancy struct {
	AtLeast int64 `json:"atLeast"`
}

type layoutParameters struct {
	ZoneRedundancy zoneRedundancy `json:"zoneRedundancy"`
}

type updateClusterLayoutRequest struct {
	Parameters layoutParameters `json:"parameters"`
	Roles      []role           `json:"roles"`
}

type applyClusterLayoutRequest struct {
	Version int64 `json:"version"`
}

type bucketInfo struct {
	ID string `json:"id"`
}

type createBucketRequest struct {
	GlobalAlias string `json:"globalAlias"`
}

type permissions struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
	Owner bool `json:"owner"`
}

type allowBucketKeyRequest struct {
	BucketID    string      `json:"bucketId"`
	AccessKeyID string      `json:"accessKeyId"`
	Permissions permissions `json:"permissions"`
}

// Client calls the Garage admin API v2.
type Client struct {
	http       mHttp.HTTPDoer
	adminHost  string
	adminToken string
	logger     *slog.Logger
}

func NewClient(adminHost, adminToken string, httpClient mHttp.HTTPDoer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = log.NullLogger()
	}
	if !strings.Contains(adminHost, "://") {
		adminHost = "http://" + adminHost
	}
	return &Client{
		http:       httpClient,
		adminHost:  strings.TrimRight(adminHost, "/"),
		adminToken: adminToken,
		logger:     logger,
	}
}

func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, body, dst any) error {
	var reader io.Reader
	if body != nil {
		r, err := mJson.EncodeBody(body)
		if err != nil {
			return err
		}
		reader = r
	}
	u := c.adminHost + "/v2/" + endpoint
	if query != nil {
		u += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if err := mHttp.ExpectStatus2xx(resp); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil
	}
	if err := mJson.DecodeResponse(dst, resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) ClusterStatus(ctx context.Context) (ClusterStatus, error) {
	var status ClusterStatus
	err := c.call(ctx, http.MethodGet, "GetClusterStatus", nil, nil, &status)
	return status, err
}

// InitializeLayout assigns every node a storage role and applies the layout.
// A cluster that already has a layout is left untouched.
func (c *Client) InitializeLayout(ctx context.Context, zone string, capacity int64) error {
	if zone == "" {
		zone = DefaultZone
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	status, err := c.ClusterStatus(ctx)
	if err != nil {
		return fmt.Errorf("getting cluster status: %w", err)
	}
	if status.LayoutVersion > 0 {
		c.logger.DebugContext(ctx, "garage layout already applied", slog.Int64("version", status.LayoutVersion))
		return nil
	}
	if len(status.Nodes) == 0 {
		return ErrNoNodes
	}

	update := updateClusterLayoutRequest{
		Parameters: layoutParameters{ZoneRedundancy: zoneRedundancy{AtLeast: 1}},
	}
	for _, n := range status.Nodes {
		update.Roles = append(update.Roles, role{
			ID:       n.ID,
			Zone:     zone,
			Capacity: capacity,
			Tags:     layoutTags,
		})
	}
	if err := c.call(ctx, http.MethodPost, "UpdateClusterLayout", nil, update, nil); err != nil {
		return fmt.Errorf("updating cluster layout: %w", err)
	}

	apply := applyClusterLayoutRequest{Version: status.LayoutVersion + 1}
	if err := c.call(ctx, http.MethodPost, "ApplyClusterLayout", nil, apply, nil); err != nil {
		return fmt.Errorf("applying cluster layout: %w", err)
	}
	c.logger.InfoContext(ctx, "applied garage layout", slog.Int("nodes", len(status.Nodes)))
	return nil
}

// BucketID looks a bucket up by its global alias.
func (c *Client) BucketID(ctx context.Context, alias string) (string, error) {
	var info bucketInfo
	err := c.call(ctx, http.MethodGet, "GetBucketInfo", url.Values{"globalAlias": {alias}}, nil, &info)
	var statusErr *mHttp.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%q: %w", alias, ErrBucketNotFound)
	} else if err != nil {
		return "", err
	}
	return info.ID, nil
}

// EnsureBucket creates the bucket if needed and grants accessKeyID read and
// write access to it.
func (c *Client) EnsureBucket(ctx context.Context, alias, accessKeyID string) (string, error) {
	id, err := c.BucketID(ctx, alias)
	if errors.Is(err, ErrBucketNotFound) {
		var info bucketInfo
		if err := c.call(ctx, http.MethodPost, "CreateBucket", nil, createBucketRequest{GlobalAlias: alias}, &info); err != nil {
			return "", fmt.Errorf("creating bucket: %w", err)
		}
		c.logger.InfoContext(ctx, "created garage bucket", slog.String("bucket", alias))
		id = info.ID
	} else if err != nil {
		return "", fmt.Errorf("looking up bucket: %w", err)
	}

	if accessKeyID == "" {
		return id, nil
	}
	allow := allowBucketKeyRequest{
		BucketID:    id,
		AccessKeyID: accessKeyID,
		Permissions: permissions{Read: true, Write: true},
	}
	if err := c.call(ctx, http.MethodPost, "AllowBucketKey", nil, allow, nil); err != nil {
		return "", fmt.Errorf("allowing bucket key: %w", err)
	}
	return id, nil
}

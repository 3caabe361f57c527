// Package backend talks to the recipe backend: upload slot requests and
// recipe record mutations.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nonsess/recipe-social-network/internal/credential"
	"github.com/nonsess/recipe-social-network/internal/failure"
	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
	"github.com/nonsess/recipe-social-network/internal/log"
)

// Client holds what every backend call needs. The credential provider is
// asked for a token before each request.
type Client struct {
	baseURL     *url.URL
	http        mHttp.HTTPDoer
	credentials credential.Provider
	logger      *slog.Logger
}

func NewClient(baseURL string, httpClient mHttp.HTTPDoer,
	credentials credential.Provider, logger *slog.Logger,
) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = log.NullLogger()
	}
	return &Client{
		baseURL:     u,
		http:        httpClient,
		credentials: credentials,
		logger:      logger,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends an authorized JSON request and returns a 2xx response. Credential
// failures come back as *failure.CredentialError, non-2xx responses as
// *mHttp.StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, failure.Credential(err)
	}

	var reader io.Reader
	if body != nil {
		r, err := mJson.EncodeBody(body)
		if err != nil {
			return nil, err
		}
		reader = r
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := mHttp.ExpectStatus2xx(resp); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, dst any) error {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if err := mJson.DecodeResponse(dst, resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func recipePath(recipeID int64, suffix string) string {
	return fmt.Sprintf("/recipes/%d%s", recipeID, suffix)
}

// Package http provides a wrapper around the retryablehttp.Client
// for making outbound HTTP requests.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const maxErrorBody = 4 << 10

type HTTPDoer interface {
	Do(*retryablehttp.Request) (*http.Response, error)
}

type HTTP struct {
	*retryablehttp.Client
}

var _ HTTPDoer = (*retryablehttp.Client)(nil)

// Config controls the outbound client. RetryMax defaults to zero: the
// publishing pipeline surfaces every failure to its caller instead of
// retrying.
type Config struct {
	Timeout  time.Duration
	RetryMax int
	Logger   *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		RetryMax: 0,
	}
}

func New(conf Config) *HTTP {
	client := retryablehttp.NewClient()
	client.RetryMax = conf.RetryMax
	client.HTTPClient.Timeout = conf.Timeout
	if conf.Logger != nil {
		client.Logger = conf.Logger
	} else {
		client.Logger = nil
	}
	// hand the final response back to the caller instead of a generic
	// "giving up after N attempts" error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &HTTP{
		Client: client,
	}
}

// StatusError is returned by ExpectStatus2xx for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ExpectStatus2xx returns a *StatusError and closes the body when resp is not
// a 2xx response.
func ExpectStatus2xx(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

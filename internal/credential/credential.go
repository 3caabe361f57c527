// Package credential supplies bearer credentials for backend requests.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
	"github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/log"
)

// Provider returns a bearer credential that is valid right now, renewing it
// first if needed. Callers must not cache the result.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

var ErrNoCredential = errors.New("no credential configured")

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

const defaultSkew = 30 * time.Second

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Refreshing renews its access token through a refresh endpoint once the
// token is within Skew of its exp claim.
type Refreshing struct {
	RefreshURL string
	Skew       time.Duration

	http   mHttp.HTTPDoer
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expires      time.Time
}

func NewRefreshing(httpClient mHttp.HTTPDoer, logger *slog.Logger,
	refreshURL, accessToken, refreshToken string,
) *Refreshing {
	if logger == nil {
		logger = log.NullLogger()
	}
	r := &Refreshing{
		RefreshURL:   refreshURL,
		Skew:         defaultSkew,
		http:         httpClient,
		logger:       logger,
		now:          time.Now,
		refreshToken: refreshToken,
	}
	r.setAccessToken(accessToken)
	return r
}

func (r *Refreshing) setAccessToken(token string) {
	r.accessToken = token
	r.expires = time.Time{}
	if token == "" {
		return
	}
	exp, err := jwt.ExpiresAt(token)
	if err != nil {
		// opaque tokens are treated as expired so they are renewed once
		r.logger.Debug("access token expiry unreadable", slog.Any("error", err))
		return
	}
	r.expires = exp
}

func (r *Refreshing) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && r.now().Add(r.Skew).Before(r.expires) {
		return r.accessToken, nil
	}

	r.logger.DebugContext(ctx, "renewing access token")
	if err := r.refresh(ctx); err != nil {
		r.logger.ErrorContext(ctx, "failed to renew access token", slog.Any("error", err))
		return "", err
	}
	return r.accessToken, nil
}

func (r *Refreshing) refresh(ctx context.Context) error {
	if r.refreshToken == "" {
		return ErrNoCredential
	}
	body, err := mJson.EncodeBody(refreshRequest{RefreshToken: r.refreshToken})
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.RefreshURL, body)
	if err != nil {
		return fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("refreshing access token: %w", err)
	}
	if err := mHttp.ExpectStatus2xx(resp); err != nil {
		return fmt.Errorf("refreshing access token: %w", err)
	}
	var out refreshResponse
	if err := mJson.DecodeResponse(&out, resp); err != nil {
		return fmt.Errorf("decoding refresh response: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return errors.New("refresh response has no access token")
	}

	r.setAccessToken(out.AccessToken)
	if out.RefreshToken != "" {
		r.refreshToken = out.RefreshToken
	}
	return nil
}

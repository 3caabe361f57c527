package credential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	"github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/log"
)

var testSecret = []byte("test-secret-32-bytes-long-123456")

func newToken(t *testing.T, lifetime time.Duration) string {
	t.Helper()
	token, err := jwt.GenerateJWT(jwt.JWTParams{Subject: "1", Role: "user"}, testSecret, jwt.DefaultKID, lifetime)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	return token
}

func TestStatic(t *testing.T) {
	got, err := Static("abc").Token(context.Background())
	if err != nil || got != "abc" {
		t.Errorf("Token() = %q, %v, want %q, nil", got, err, "abc")
	}
	if _, err := Static("").Token(context.Background()); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Token() error = %v, want %v", err, ErrNoCredential)
	}
}

func TestRefreshing(t *testing.T) {
	fresh := newToken(t, 10*time.Minute)

	tests := []struct {
		name         string
		accessToken  string
		refreshToken string
		status       int
		response     refreshResponse
		wantToken    string
		wantCalls    int32
		wantErr      bool
	}{
		{
			name:         "valid token is reused",
			accessToken:  fresh,
			refreshToken: "refresh-1",
			wantToken:    fresh,
			wantCalls:    0,
		},
		{
			name:         "token inside skew is renewed",
			accessToken:  newToken(t, 10*time.Second),
			refreshToken: "refresh-1",
			status:       http.StatusOK,
			response:     refreshResponse{AccessToken: fresh},
			wantToken:    fresh,
			wantCalls:    1,
		},
		{
			name:         "missing token is renewed",
			refreshToken: "refresh-1",
			status:       http.StatusOK,
			response:     refreshResponse{AccessToken: fresh},
			wantToken:    fresh,
			wantCalls:    1,
		},
		{
			name:         "refresh rejected",
			refreshToken: "refresh-1",
			status:       http.StatusUnauthorized,
			wantCalls:    1,
			wantErr:      true,
		},
		{
			name:         "empty access token in response",
			refreshToken: "refresh-1",
			status:       http.StatusOK,
			response:     refreshResponse{},
			wantCalls:    1,
			wantErr:      true,
		},
		{
			name:      "no refresh token",
			wantCalls: 0,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				var req refreshRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decoding refresh request: %v", err)
				}
				if req.RefreshToken != tt.refreshToken {
					t.Errorf("refresh token = %q, want %q", req.RefreshToken, tt.refreshToken)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer srv.Close()

			p := NewRefreshing(mHttp.New(mHttp.DefaultConfig()), log.NullLogger(),
				srv.URL, tt.accessToken, tt.refreshToken)
			got, err := p.Token(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Token() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantToken {
				t.Errorf("Token() = %q, want %q", got, tt.wantToken)
			}
			if c := calls.Load(); c != tt.wantCalls {
				t.Errorf("refresh endpoint called %d times, want %d", c, tt.wantCalls)
			}
		})
	}
}

func TestRefreshing_ExpiresMidSession(t *testing.T) {
	first := newToken(t, 5*time.Minute)
	second := newToken(t, 20*time.Minute)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(refreshResponse{AccessToken: second, RefreshToken: "refresh-2"})
	}))
	defer srv.Close()

	p := NewRefreshing(mHttp.New(mHttp.DefaultConfig()), nil, srv.URL, first, "refresh-1")
	clock := time.Now()
	p.now = func() time.Time { return clock }

	got, err := p.Token(context.Background())
	if err != nil || got != first {
		t.Fatalf("Token() = %q, %v, want first token", got, err)
	}

	clock = clock.Add(10 * time.Minute)
	got, err = p.Token(context.Background())
	if err != nil || got != second {
		t.Fatalf("Token() after expiry = %q, %v, want second token", got, err)
	}
	if p.refreshToken != "refresh-2" {
		t.Errorf("refresh token = %q, want rotated %q", p.refreshToken, "refresh-2")
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("refresh endpoint called %d times, want 1", c)
	}
}

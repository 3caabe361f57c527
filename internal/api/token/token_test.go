package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/role"
)

var testSecret = []byte("test-secret-32-bytes-long-123456")

func TestNewPairAndRefresh(t *testing.T) {
	pair, err := NewPair(42, role.RoleUser, testSecret, jwt.DefaultKID)
	if err != nil {
		t.Fatalf("NewPair() error = %v", err)
	}

	access, err := jwt.ValidateJWT(pair.AccessToken, jwt.DefaultKID, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT(access) error = %v", err)
	}
	userID, roleClaim, err := Claims(access)
	if err != nil || userID != 42 || roleClaim != "user" {
		t.Fatalf("Claims(access) = %d, %q, %v", userID, roleClaim, err)
	}

	next, err := Refresh(pair.RefreshToken, testSecret, jwt.DefaultKID)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	token, err := jwt.ValidateJWT(next.AccessToken, jwt.DefaultKID, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT(refreshed) error = %v", err)
	}
	if userID, roleClaim, _ := Claims(token); userID != 42 || roleClaim != "user" {
		t.Errorf("refreshed claims = %d, %q", userID, roleClaim)
	}
}

func TestRefresh_Rejects(t *testing.T) {
	pair, err := NewPair(1, role.RoleAdmin, testSecret, jwt.DefaultKID)
	if err != nil {
		t.Fatalf("NewPair() error = %v", err)
	}
	if _, err := Refresh(pair.AccessToken, testSecret, jwt.DefaultKID); !errors.Is(err, ErrNotRefreshToken) {
		t.Errorf("Refresh(access token) error = %v, want ErrNotRefreshToken", err)
	}
	if _, err := Refresh(pair.RefreshToken, testSecret, "2"); err == nil {
		t.Error("Refresh() with another secret version should fail")
	}
	bad, err := jwt.GenerateJWT(jwt.JWTParams{Subject: "abc", Role: "refresh:user"}, testSecret, jwt.DefaultKID, 0)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	if _, err := Refresh(bad, testSecret, jwt.DefaultKID); !errors.Is(err, ErrInvalidSubject) {
		t.Errorf("Refresh(non-numeric subject) error = %v, want ErrInvalidSubject", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer ", wantErr: true},
		{header: "", wantErr: true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(r)
		if tt.wantErr {
			if !errors.Is(err, ErrMissingBearer) {
				t.Errorf("BearerToken(%q) error = %v, want ErrMissingBearer", tt.header, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("BearerToken(%q) = %q, %v, want %q", tt.header, got, err, tt.want)
		}
	}
}

func TestUserIDCtx(t *testing.T) {
	if _, err := UserIDFromCtx(context.Background()); !errors.Is(err, ErrNoUserID) {
		t.Errorf("UserIDFromCtx() error = %v, want ErrNoUserID", err)
	}
	ctx := UserIDWithCtx(context.Background(), 7)
	if id, err := UserIDFromCtx(ctx); err != nil || id != 7 {
		t.Errorf("UserIDFromCtx() = %d, %v", id, err)
	}
}

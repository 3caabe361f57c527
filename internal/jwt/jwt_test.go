package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-32-bytes-long-123456")

func TestGenerateAndValidate(t *testing.T) {
	raw, err := GenerateJWT(JWTParams{Subject: "42", Role: "user"}, testSecret, DefaultKID, time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	token, err := ValidateJWT(raw, DefaultKID, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		t.Fatalf("GetSubject() error = %v", err)
	}
	if sub != "42" {
		t.Errorf("subject = %q, want %q", sub, "42")
	}
}

func TestValidateJWT_Rejects(t *testing.T) {
	valid, err := GenerateJWT(JWTParams{Subject: "1"}, testSecret, DefaultKID, time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	expired, err := GenerateJWT(JWTParams{Subject: "1"}, testSecret, DefaultKID, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	// negative lifetime falls back to the default duration
	if _, err := ValidateJWT(expired, DefaultKID, testSecret); err != nil {
		t.Fatalf("ValidateJWT() on default lifetime error = %v", err)
	}

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	stale.Header["kid"] = DefaultKID
	staleRaw, err := stale.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing stale token: %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		version string
		secret  []byte
		wantErr error
	}{
		{name: "wrong version", raw: valid, version: "2", secret: testSecret},
		{name: "wrong secret", raw: valid, version: DefaultKID, secret: []byte("another-secret-32-bytes-long-123")},
		{name: "expired", raw: staleRaw, version: DefaultKID, secret: testSecret, wantErr: jwt.ErrTokenExpired},
		{name: "garbage", raw: "not-a-jwt", version: DefaultKID, secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.raw, tt.version, tt.secret)
			if err == nil {
				t.Fatal("ValidateJWT() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateJWT() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpiresAt(t *testing.T) {
	raw, err := GenerateJWT(JWTParams{Subject: "1"}, testSecret, DefaultKID, 10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	exp, err := ExpiresAt(raw)
	if err != nil {
		t.Fatalf("ExpiresAt() error = %v", err)
	}
	if d := time.Until(exp); d < 9*time.Minute || d > 11*time.Minute {
		t.Errorf("ExpiresAt() in %v, want about 10m", d)
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"})
	noExpRaw, err := noExp.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	if _, err := ExpiresAt(noExpRaw); !errors.Is(err, ErrNoExpiry) {
		t.Errorf("ExpiresAt() error = %v, want %v", err, ErrNoExpiry)
	}

	if _, err := ExpiresAt("garbage"); err == nil {
		t.Error("ExpiresAt() on garbage should fail")
	}
}

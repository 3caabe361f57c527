package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apiError "github.com/nonsess/recipe-social-network/internal/api/error"
	"github.com/nonsess/recipe-social-network/internal/api/requestid"
	"github.com/nonsess/recipe-social-network/internal/api/token"
	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/env"
	mJwt "github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/role"
)

const appSecret = "test-secret-32-bytes-long-123456"

func testEnv(conf config.Config) *env.Env {
	secret := config.AppSecretValue(appSecret)
	conf.Devserver.AppSecret = config.AppSecret{Value: &secret, Version: mJwt.DefaultKID}
	return env.New(nil, conf, nil, nil)
}

func TestAuthorizeRequest(t *testing.T) {
	userID := int64(123)

	createPair := func(t *testing.T, userRole role.Role) token.Pair {
		t.Helper()
		pair, err := token.NewPair(userID, userRole, []byte(appSecret), mJwt.DefaultKID)
		if err != nil {
			t.Fatalf("failed to create tokens: %v", err)
		}
		return pair
	}
	expired := func(t *testing.T) string {
		t.Helper()
		tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
			"sub":  "123",
			"role": "user",
			"exp":  time.Now().Add(-time.Minute).Unix(),
		})
		tok.Header["kid"] = mJwt.DefaultKID
		raw, err := tok.SignedString([]byte(appSecret))
		if err != nil {
			t.Fatalf("signing token: %v", err)
		}
		return raw
	}

	tests := []struct {
		name          string
		requiredRole  role.Role
		authorization string
		wantErrorCode apiError.ErrorCode
	}{
		{
			name:          "user role accessing user endpoint",
			requiredRole:  role.RoleUser,
			authorization: "Bearer " + createPair(t, role.RoleUser).AccessToken,
		},
		{
			name:          "admin role accessing user endpoint",
			requiredRole:  role.RoleUser,
			authorization: "Bearer " + createPair(t, role.RoleAdmin).AccessToken,
		},
		{
			name:          "user role accessing admin endpoint",
			requiredRole:  role.RoleAdmin,
			authorization: "Bearer " + createPair(t, role.RoleUser).AccessToken,
			wantErrorCode: apiError.InsufficientPermissions,
		},
		{
			name:          "refresh token used as access token",
			requiredRole:  role.RoleUser,
			authorization: "Bearer " + createPair(t, role.RoleUser).RefreshToken,
			wantErrorCode: apiError.InsufficientPermissions,
		},
		{
			name:          "missing bearer prefix",
			requiredRole:  role.RoleUser,
			authorization: createPair(t, role.RoleUser).AccessToken,
			wantErrorCode: apiError.InvalidAccessToken,
		},
		{
			name:          "no header",
			requiredRole:  role.RoleUser,
			wantErrorCode: apiError.InvalidAccessToken,
		},
		{
			name:          "invalid access token",
			requiredRole:  role.RoleUser,
			authorization: "Bearer invalid-token-12345",
			wantErrorCode: apiError.InvalidAccessToken,
		},
		{
			name:          "expired access token",
			requiredRole:  role.RoleUser,
			authorization: "Bearer " + expired(t),
			wantErrorCode: apiError.ExpiredAccessToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := token.UserIDFromCtx(r.Context())
				if err != nil {
					t.Errorf("UserIDFromCtx() error = %v", err)
				}
				if _, ok := token.AccessTokenFromCtx(r.Context()); !ok {
					t.Error("access token missing from context")
				}
				gotUserID = id
				w.WriteHeader(http.StatusNoContent)
			})
			handler := InjectEnv(testEnv(config.Config{}))(AuthorizeRequest(tt.requiredRole)(next))

			req := httptest.NewRequest(http.MethodGet, "/api/recipes/1", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tt.wantErrorCode == "" {
				if rec.Code != http.StatusNoContent {
					t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
				}
				if gotUserID != userID {
					t.Errorf("user id = %d, want %d", gotUserID, userID)
				}
				return
			}

			var body apiError.Error
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Code != tt.wantErrorCode || rec.Code != tt.wantErrorCode.StatusCode() {
				t.Errorf("got %d %q, want %d %q", rec.Code, body.Code, tt.wantErrorCode.StatusCode(), tt.wantErrorCode)
			}
		})
	}
}

func TestAuthorizeRequest_NoSecret(t *testing.T) {
	handler := InjectEnv(env.Null())(AuthorizeRequest(role.RoleUser)(http.NotFoundHandler()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAddRequestID(t *testing.T) {
	var got string
	handler := AddRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestid.ExtractRequestID(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(got) != 26 {
		t.Errorf("request id = %q, want a ulid", got)
	}
}

func TestAddCors(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{name: "dev echoes origin", env: config.EnvDev, origin: "http://app.local", method: http.MethodGet,
			wantOrigin: "http://app.local", wantStatus: http.StatusOK},
		{name: "prod pins host origin", env: config.EnvProd, origin: "http://evil.local", method: http.MethodGet,
			wantOrigin: "http://localhost:8080", wantStatus: http.StatusOK},
		{name: "dev without origin", env: config.EnvDev, method: http.MethodGet,
			wantOrigin: "http://localhost:8080", wantStatus: http.StatusOK},
		{name: "preflight", env: config.EnvDev, origin: "http://app.local", method: http.MethodOptions,
			wantOrigin: "http://app.local", wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.Config{Env: tt.env}
			conf.Devserver.HostOrigin = "http://localhost:8080"
			handler := InjectEnv(testEnv(conf))(AddCors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			req := httptest.NewRequest(tt.method, "/api/ping", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allowed origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

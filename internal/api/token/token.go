// Package token contains utilities for http tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/role"
)

const (
	AccessTokenLifetime  = 30 * time.Minute
	RefreshTokenLifetime = 14 * 24 * time.Hour

	refreshRolePrefix = "refresh:"
)

var (
	ErrMissingBearer    = errors.New("missing bearer token")
	ErrNotRefreshToken  = errors.New("not a refresh token")
	ErrNoUserID         = errors.New("no user id in context")
	ErrInvalidSubject   = errors.New("invalid token subject")
	errUnexpectedClaims = errors.New("unexpected claims type")
)

type userIDKeyType struct{}

type accessTokenKeyType struct{}

var (
	userIDKey      userIDKeyType
	accessTokenKey accessTokenKeyType
)

// Pair is the body returned when tokens are issued or refreshed.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewPair issues an access token and a refresh token for a user. The refresh
// token carries the user's role so it can be reissued without a lookup.
func NewPair(userID int64, r role.Role, secret []byte, version string) (Pair, error) {
	sub := strconv.FormatInt(userID, 10)
	access, err := jwt.GenerateJWT(jwt.JWTParams{Subject: sub, Role: r.String()},
		secret, version, AccessTokenLifetime)
	if err != nil {
		return Pair{}, fmt.Errorf("generating access token: %w", err)
	}
	refresh, err := jwt.GenerateJWT(jwt.JWTParams{Subject: sub, Role: refreshRolePrefix + r.String()},
		secret, version, RefreshTokenLifetime)
	if err != nil {
		return Pair{}, fmt.Errorf("generating refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Claims returns the user id and role claim of a validated token.
func Claims(token *gojwt.Token) (int64, string, error) {
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, "", err
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidSubject, sub)
	}
	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return 0, "", errUnexpectedClaims
	}
	roleClaim, _ := claims["role"].(string)
	return userID, roleClaim, nil
}

// Refresh validates a refresh token and issues a new pair.
func Refresh(raw string, secret []byte, version string) (Pair, error) {
	token, err := jwt.ValidateJWT(raw, version, secret)
	if err != nil {
		return Pair{}, err
	}
	userID, roleClaim, err := Claims(token)
	if err != nil {
		return Pair{}, err
	}
	r, ok := strings.CutPrefix(roleClaim, refreshRolePrefix)
	if !ok {
		return Pair{}, ErrNotRefreshToken
	}
	return NewPair(userID, role.ToRole(r), secret, version)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return "", ErrMissingBearer
	}
	return strings.TrimSpace(value), nil
}

func UserIDWithCtx(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromCtx(ctx context.Context) (int64, error) {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v, nil
	}
	return 0, ErrNoUserID
}

func AccessTokenWithCtx(ctx context.Context, token *gojwt.Token) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func AccessTokenFromCtx(ctx context.Context) (*gojwt.Token, bool) {
	token, ok := ctx.Value(accessTokenKey).(*gojwt.Token)
	return token, ok
}

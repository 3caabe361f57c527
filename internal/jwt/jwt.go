// Package jwt provides functions for generating, validating and inspecting
// bearer JWTs.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTParams struct {
	Subject string
	Role    string
}

const (
	JWTDuration = 30 * time.Minute
	DefaultKID  = "1"
)

var ErrNoExpiry = errors.New("token has no exp claim")

func GenerateJWT(params JWTParams, secret []byte, version string, lifetime time.Duration) (string, error) {
	if lifetime <= 0 {
		lifetime = JWTDuration
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  params.Subject,
		"role": params.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(lifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = version

	signedKey, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signedKey, nil
}

func ValidateJWT(rawToken, version string, secret []byte) (*jwt.Token, error) {
	parserFunc := func(token *jwt.Token) (any, error) {
		kidVal, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing/invalid kid value")
		}

		if kidVal != version {
			return nil, fmt.Errorf("verifying KID value, value=%q", kidVal)
		}

		return secret, nil
	}

	token, err := jwt.Parse(rawToken, parserFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	return token, nil
}

// ExpiresAt reads the exp claim without verifying the signature. Clients use
// it to decide when to renew a token they cannot verify themselves.
func ExpiresAt(rawToken string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing token: %w", err)
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Package auth contains handlers for the auth endpoints
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	apiError "github.com/nonsess/recipe-social-network/internal/api/error"
	"github.com/nonsess/recipe-social-network/internal/api/requestid"
	"github.com/nonsess/recipe-social-network/internal/api/token"
	"github.com/nonsess/recipe-social-network/internal/env"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
	mJwt "github.com/nonsess/recipe-social-network/internal/jwt"
)

const maxBodySize = 64 << 10

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh godoc
//
//	@Summary		Refresh an access token
//	@Description	Exchanges a refresh token for a new access and refresh token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	token.Pair
//	@Failure		400	{object}	apiError.Error	"Malformed body"
//	@Failure		401	{object}	apiError.Error	"Expired or invalid refresh token"
//	@Failure		500	{object}	apiError.Error	"Internal server error"
//	@Router			/api/auth/refresh [post]
func HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)
	requestID := requestid.ExtractRequestID(ctx)

	var body RefreshRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := mJson.DecodeJSON(&body, json.NewDecoder(r.Body)); err != nil || body.RefreshToken == "" {
		env.Logger.ErrorContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "bad request", requestID)
		return
	}

	secret := env.Secret()
	if len(secret) == 0 {
		env.Logger.ErrorContext(ctx, "app secret not loaded")
		_ = apiError.EncodeInternalError(w, requestID)
		return
	}
	version := env.SecretVersion()
	if version == "" {
		version = mJwt.DefaultKID
	}

	pair, err := token.Refresh(body.RefreshToken, secret, version)
	if errors.Is(err, jwt.ErrTokenExpired) {
		env.Logger.ErrorContext(ctx, "refresh token expired", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.ExpiredRefreshToken, "refresh token expired", requestID)
		return
	} else if err != nil {
		env.Logger.ErrorContext(ctx, "invalid refresh token", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.InvalidRefreshToken, "invalid refresh token", requestID)
		return
	}

	if err := mJson.WriteJSON(w, http.StatusOK, pair); err != nil {
		env.Logger.ErrorContext(ctx, "failed to write response", slog.Any("error", err))
	}
}

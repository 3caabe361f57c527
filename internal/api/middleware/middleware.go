// Package middleware contains middleware functions for the API
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	apiError "github.com/nonsess/recipe-social-network/internal/api/error"
	"github.com/nonsess/recipe-social-network/internal/api/requestid"
	"github.com/nonsess/recipe-social-network/internal/api/token"
	"github.com/nonsess/recipe-social-network/internal/env"
	mJwt "github.com/nonsess/recipe-social-network/internal/jwt"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/role"
)

// InjectEnv injects an environment struct into the request context.
func InjectEnv(environment *env.Env) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(env.WithCtx(r.Context(), environment)))
		})
	}
}

func LogRequest(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		LogExtraAttrs: func(r *http.Request, reqBody string, respStatus int) []slog.Attr {
			if id := requestid.ExtractRequestID(r.Context()); id != "" {
				return []slog.Attr{slog.String("log_id", id)}
			}
			return []slog.Attr{slog.String("log_id", "N/A")}
		},
	})
}

// AddRequestID adds a request ID to the request context.
func AddRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := ulid.Make().String()
		r = r.WithContext(log.AppendCtx(r.Context(), slog.String("log_id", requestID)))
		r = r.WithContext(requestid.InjectRequestID(r.Context(), requestID))
		next.ServeHTTP(w, r)
	})
}

// AddCors adds the necessary CORS headers to the response.
func AddCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e := env.EnvFromCtx(r.Context())
		origin := r.Header.Get("Origin")
		hostOrigin := e.Config.Devserver.HostOrigin

		var allowedOrigin string
		if e.IsProd() {
			allowedOrigin = hostOrigin
		} else if origin != "" {
			// In dev mode, allow all origins
			allowedOrigin = origin
		}
		if allowedOrigin == "" {
			allowedOrigin = hostOrigin
		}

		if allowedOrigin == "" {
			e.Logger.WarnContext(r.Context(),
				"host origin not set and no valid origin found; Access-Control-Allow-Origin will be empty")
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthorizeRequest creates a middleware that validates bearer JWTs and checks user roles.
func AuthorizeRequest(requiredRole role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env := env.EnvFromCtx(r.Context())
			requestID := requestid.ExtractRequestID(r.Context())

			rawToken, err := token.BearerToken(r)
			if err != nil {
				env.Logger.ErrorContext(r.Context(), "unable to get access token", slog.Any("error", err))
				_ = apiError.EncodeError(w, apiError.InvalidAccessToken, "invalid access token", requestID)
				return
			}

			secret := env.Secret()
			if len(secret) == 0 {
				env.Logger.ErrorContext(r.Context(), "app secret not loaded")
				_ = apiError.EncodeInternalError(w, requestID)
				return
			}
			secretVersion := env.SecretVersion()
			if secretVersion == "" {
				secretVersion = mJwt.DefaultKID
			}

			accessJwt, err := mJwt.ValidateJWT(rawToken, secretVersion, secret)
			if errors.Is(err, jwt.ErrTokenExpired) {
				env.Logger.ErrorContext(r.Context(), "access token expired", slog.Any("error", err))
				_ = apiError.EncodeError(w, apiError.ExpiredAccessToken, "access token expired", requestID)
				return
			} else if err != nil {
				env.Logger.ErrorContext(r.Context(), "invalid access token", slog.Any("error", err))
				_ = apiError.EncodeError(w, apiError.InvalidAccessToken, "invalid access token", requestID)
				return
			}

			userID, roleClaim, err := token.Claims(accessJwt)
			if err != nil {
				env.Logger.ErrorContext(r.Context(), "failed to read access token claims", slog.Any("error", err))
				_ = apiError.EncodeError(w, apiError.InvalidAccessToken, "invalid access token", requestID)
				return
			}
			r = r.WithContext(log.AppendCtx(r.Context(), slog.Int64("user-id", userID)))
			r = r.WithContext(token.UserIDWithCtx(r.Context(), userID))
			env.Logger.DebugContext(r.Context(), "validating user role")

			userRole := role.ToRole(roleClaim)
			if userRole < requiredRole {
				env.Logger.ErrorContext(r.Context(), "user does not have required role",
					slog.String("user-role", userRole.String()),
					slog.String("required-role", requiredRole.String()))
				_ = apiError.EncodeError(w, apiError.InsufficientPermissions, "insufficient permissions", requestID)
				return
			}
			r = r.WithContext(token.AccessTokenWithCtx(r.Context(), accessJwt))

			next.ServeHTTP(w, r)
		})
	}
}

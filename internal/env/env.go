// Package env provides a structure for managing application-wide dependencies.
package env

import (
	"context"
	"log/slog"

	"github.com/nonsess/recipe-social-network/internal/bucket"
	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/store"
)

type envKeyType struct{}

var envKey envKeyType

type Env struct {
	Logger *slog.Logger
	Config config.Config
	Store  *store.Store
	Bucket bucket.Bucket
}

func New(logger *slog.Logger, conf config.Config, st *store.Store, bkt bucket.Bucket) *Env {
	if logger == nil {
		logger = log.NullLogger()
	}
	if st == nil {
		st = store.New()
	}
	return &Env{
		Logger: logger,
		Config: conf,
		Store:  st,
		Bucket: bkt,
	}
}

func Null() *Env {
	return New(nil, config.Config{}, nil, nil)
}

// Secret returns the app secret signing access tokens and upload policies.
func (e *Env) Secret() []byte {
	if v := e.Config.Devserver.AppSecret.Value; v != nil {
		return []byte(*v)
	}
	return nil
}

func (e *Env) SecretVersion() string {
	return e.Config.Devserver.AppSecret.Version
}

func (e *Env) IsProd() bool {
	return e.Config.Env == config.EnvProd
}

func WithCtx(ctx context.Context, e *Env) context.Context {
	return context.WithValue(ctx, envKey, e)
}

// EnvFromCtx returns the request's Env, or a null Env when none is set.
func EnvFromCtx(ctx context.Context) *Env {
	if e, ok := ctx.Value(envKey).(*Env); ok && e != nil {
		return e
	}
	return Null()
}

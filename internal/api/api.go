// Package api sets up and starts the reference recipe backend: recipe
// records, upload slots and the local object store.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nonsess/recipe-social-network/internal/api/middleware"
	"github.com/nonsess/recipe-social-network/internal/api/routes/auth"
	"github.com/nonsess/recipe-social-network/internal/api/routes/ping"
	"github.com/nonsess/recipe-social-network/internal/api/routes/recipes"
	"github.com/nonsess/recipe-social-network/internal/api/routes/uploads"
	"github.com/nonsess/recipe-social-network/internal/env"
	"github.com/nonsess/recipe-social-network/internal/filestore"
	"github.com/nonsess/recipe-social-network/internal/role"
)

const (
	// UploadPath is where local presigned uploads are POSTed.
	UploadPath = "/api/uploads"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func addRoutes(router *chi.Mux, filesPrefix string) {
	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping.HandlePing)
		r.Post("/auth/refresh", auth.HandleRefresh)
		r.Post("/uploads", uploads.HandleUpload)

		r.Route("/recipes", func(r chi.Router) {
			r.Use(middleware.AuthorizeRequest(role.RoleUser))

			r.Post("/", recipes.CreateRecipe)
			r.Get("/{recipeID}", recipes.GetRecipe)
			r.Patch("/{recipeID}", recipes.PatchRecipe)
			r.Get("/{recipeID}/image/upload-url", recipes.GetCoverUploadSlot)
			r.Get("/{recipeID}/instructions/upload-urls", recipes.GetStepUploadSlots)
		})
	})

	if filesPrefix == "" {
		filesPrefix = filestore.DefaultURLPrefix
	}
	router.Get("/"+strings.Trim(filesPrefix, "/")+"/*", uploads.HandleFile)
}

// NewRouter builds the handler serving env.
func NewRouter(env *env.Env) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.AddRequestID)
	router.Use(middleware.LogRequest(env.Logger))
	router.Use(middleware.InjectEnv(env))
	router.Use(middleware.AddCors)

	addRoutes(router, env.Config.Devserver.Fileserver.URLPrefix)
	return router
}

// Start serves the API until ctx is cancelled.
func Start(ctx context.Context, env *env.Env) error {
	addr := env.Config.Devserver.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(env),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		env.Logger.Info(fmt.Sprintf("Listening at %s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	env.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		env.Logger.Error("failed to shut down server", slog.Any("error", err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

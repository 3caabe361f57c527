// Package ping reports whether the dev server can take uploads.
package ping

import (
	"log/slog"
	"net/http"

	"github.com/nonsess/recipe-social-network/internal/env"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
)

type Status struct {
	Status  string `json:"status"`
	Storage bool   `json:"storage"`
	Recipes int    `json:"recipes"`
}

// HandlePing godoc
//
//	@Summary	Reports server readiness and the number of stored recipes.
//	@Tags		Ping
//
//	@Produce	json
//	@Success	200	{object}	Status
//	@Failure	503	{object}	Status	"No object store configured"
//	@Router		/api/ping [GET]
func HandlePing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)

	res := Status{Status: "ok", Storage: env.Bucket != nil, Recipes: env.Store.Len()}
	code := http.StatusOK
	if !res.Storage {
		res.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := mJson.WriteJSON(w, code, res); err != nil {
		env.Logger.ErrorContext(ctx, "failed to write ping response", slog.Any("error", err))
	}
}

// Package recipes contains handlers for the recipes endpoint.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apiError "github.com/nonsess/recipe-social-network/internal/api/error"
	"github.com/nonsess/recipe-social-network/internal/api/requestid"
	"github.com/nonsess/recipe-social-network/internal/api/token"
	"github.com/nonsess/recipe-social-network/internal/bucket"
	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/env"
	"github.com/nonsess/recipe-social-network/internal/filestore"
	mJson "github.com/nonsess/recipe-social-network/internal/json"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/recipe"
	"github.com/nonsess/recipe-social-network/internal/store"
)

const maxBodySize = 1 << 20

var (
	errForeignImage  = errors.New("image does not belong to recipe")
	errImageNotFound = errors.New("image has not been uploaded")
	errNoBucket      = errors.New("no object store configured")
)

// request gathers what every handler needs.
type request struct {
	ctx       context.Context
	env       *env.Env
	requestID string
	userID    int64
}

func newRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)
	requestID := requestid.ExtractRequestID(ctx)
	userID, err := token.UserIDFromCtx(ctx)
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to extract user id from context", slog.Any("error", err))
		_ = apiError.EncodeInternalError(w, requestID)
		return request{}, false
	}
	return request{ctx: ctx, env: env, requestID: requestID, userID: userID}, true
}

// recipeIDParam validates the {recipeID} URL parameter and adds it to the
// request's log context.
func (req *request) recipeIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := recipeID(chi.URLParam(r, "recipeID"))
	if err := id.Validate(); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "invalid recipe id", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "invalid recipe id", req.requestID)
		return 0, false
	}
	req.ctx = log.AppendCtx(req.ctx, slog.Int64("recipe-id", id.Int64()))
	return id.Int64(), true
}

func (req request) writeResponse(w http.ResponseWriter, status int, v any) {
	if err := mJson.WriteJSON(w, status, v); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to write response", slog.Any("error", err))
	}
}

// encodeStoreError maps store and validation failures onto API errors.
func (req request) encodeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = apiError.EncodeError(w, apiError.RecipeNotFound, "recipe not found", req.requestID)
	case errors.Is(err, store.ErrNotOwned):
		_ = apiError.EncodeError(w, apiError.RecipeNotOwned, "recipe not owned by user", req.requestID)
	case errors.Is(err, store.ErrNoCover):
		_ = apiError.EncodeError(w, apiError.MissingCoverImage, "recipe needs a cover image to be published", req.requestID)
	case errors.Is(err, errForeignImage), errors.Is(err, errImageNotFound):
		_ = apiError.EncodeError(w, apiError.ImageNotFound, err.Error(), req.requestID)
	default:
		req.env.Logger.ErrorContext(req.ctx, "unexpected recipe error", slog.Any("error", err))
		_ = apiError.EncodeInternalError(w, req.requestID)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return mJson.DecodeJSON(dst, json.NewDecoder(r.Body))
}

// CreateRecipe godoc
//
//	@Summary	Create an unpublished recipe without images.
//	@Tags		Recipes
//	@Success	201	{object}	GetRecipeResponse
//	@Failure	400	{object}	apiError.Error	"Invalid recipe"
//	@Router		/api/recipes [POST]
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	req, ok := newRequest(w, r)
	if !ok {
		return
	}

	var body CreateRecipeRequest
	if err := decodeBody(w, r, &body); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to decode request", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "bad request", req.requestID)
		return
	}
	if err := validate.Struct(body); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to validate request", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "invalid recipe", req.requestID)
		return
	}
	if err := checkNumbering(body.Instructions); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to validate instructions", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, err.Error(), req.requestID)
		return
	}

	req.env.Logger.DebugContext(req.ctx, "creating recipe")
	rec := req.env.Store.Create(req.userID, body.metadata())
	req.ctx = log.AppendCtx(req.ctx, slog.Int64("recipe-id", rec.ID))
	req.env.Logger.InfoContext(req.ctx, "created recipe")
	req.writeResponse(w, http.StatusCreated, GetRecipeResponse(rec))
}

// GetRecipe godoc
//
//	@Summary	Get a recipe. Unpublished recipes are visible to their owner only.
//	@Tags		Recipes
//	@Param		recipeID	path	int	true	"Recipe ID"
//	@Success	200	{object}	GetRecipeResponse
//	@Failure	404	{object}	apiError.Error	"Recipe not found"
//	@Router		/api/recipes/{recipeID} [GET]
func GetRecipe(w http.ResponseWriter, r *http.Request) {
	req, ok := newRequest(w, r)
	if !ok {
		return
	}
	id, ok := req.recipeIDParam(w, r)
	if !ok {
		return
	}

	rec, err := req.env.Store.Get(req.userID, id)
	if err != nil {
		req.encodeStoreError(w, err)
		return
	}
	req.writeResponse(w, http.StatusOK, GetRecipeResponse(rec))
}

// checkImagePath accepts a path that is already attached to the recipe, or
// one issued for this recipe whose object has been uploaded.
func checkImagePath(ctx context.Context, b bucket.Bucket, rec recipe.Record, attached map[string]bool, p *string) error {
	if p == nil || attached[*p] {
		return nil
	}
	if !filestore.BelongsTo(*p, rec.ID) {
		return fmt.Errorf("%q: %w", *p, errForeignImage)
	}
	if b == nil {
		return errNoBucket
	}
	ok, err := b.Exists(ctx, *p)
	if err != nil {
		return fmt.Errorf("checking image %q: %w", *p, err)
	}
	if !ok {
		return fmt.Errorf("%q: %w", *p, errImageNotFound)
	}
	return nil
}

func attachedPaths(rec recipe.Record) map[string]bool {
	attached := map[string]bool{}
	if rec.ImagePath != nil {
		attached[*rec.ImagePath] = true
	}
	for _, in := range rec.Instructions {
		if in.ImagePath != nil {
			attached[*in.ImagePath] = true
		}
	}
	return attached
}

// PatchRecipe godoc
//
//	@Summary		Update a recipe's cover, instructions or publication flag.
//	@Description	Only fields present in the body change. image_path may be null to clear the cover.
//	@Description	instructions replaces the complete list. Publishing requires a cover.
//	@Tags			Recipes
//	@Param			recipeID	path	int	true	"Recipe ID"
//	@Success		200	{object}	GetRecipeResponse
//	@Failure		400	{object}	apiError.Error	"Invalid request"
//	@Failure		403	{object}	apiError.Error	"User does not own recipe"
//	@Failure		404	{object}	apiError.Error	"Recipe not found"
//	@Failure		422	{object}	apiError.Error	"Image not uploaded or cover missing"
//	@Router			/api/recipes/{recipeID} [PATCH]
func PatchRecipe(w http.ResponseWriter, r *http.Request) {
	req, ok := newRequest(w, r)
	if !ok {
		return
	}
	id, ok := req.recipeIDParam(w, r)
	if !ok {
		return
	}

	var body PatchRecipeRequest
	if err := decodeBody(w, r, &body); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to decode request", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "bad request", req.requestID)
		return
	}
	if err := validate.Struct(body); err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to validate request", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "invalid request", req.requestID)
		return
	}
	if body.Instructions != nil {
		if err := checkNumbering(*body.Instructions); err != nil {
			req.env.Logger.ErrorContext(req.ctx, "failed to validate instructions", slog.Any("error", err))
			_ = apiError.EncodeError(w, apiError.BadRequest, err.Error(), req.requestID)
			return
		}
	}

	if err := req.env.Store.Owned(req.userID, id); err != nil {
		req.encodeStoreError(w, err)
		return
	}
	current, err := req.env.Store.Get(req.userID, id)
	if err != nil {
		req.encodeStoreError(w, err)
		return
	}

	attached := attachedPaths(current)
	if body.ImagePath.Set {
		if err := checkImagePath(req.ctx, req.env.Bucket, current, attached, body.ImagePath.Value); err != nil {
			req.encodeStoreError(w, err)
			return
		}
	}
	if body.Instructions != nil {
		for _, step := range *body.Instructions {
			if err := checkImagePath(req.ctx, req.env.Bucket, current, attached, step.ImagePath); err != nil {
				req.encodeStoreError(w, fmt.Errorf("step %d: %w", step.StepNumber, err))
				return
			}
		}
	}

	req.env.Logger.DebugContext(req.ctx, "updating recipe")
	rec, err := req.env.Store.Update(req.userID, id, func(rec *recipe.Record) error {
		if body.ImagePath.Set {
			rec.ImagePath = body.ImagePath.Value
		}
		if body.Instructions != nil {
			rec.Instructions = toInstructions(*body.Instructions)
		}
		if body.Published != nil {
			rec.Published = *body.Published
		}
		return nil
	})
	if err != nil {
		req.encodeStoreError(w, err)
		return
	}
	req.writeResponse(w, http.StatusOK, GetRecipeResponse(rec))
}

func slotTTL(conf config.Config) time.Duration {
	if ttl := conf.Devserver.Storage.SlotTTL; ttl > 0 {
		return ttl
	}
	return config.DefaultSlotTTL
}

func (req request) presign(key string) (bucket.Upload, error) {
	if req.env.Bucket == nil {
		return bucket.Upload{}, errNoBucket
	}
	return req.env.Bucket.PresignUpload(req.ctx, key, slotTTL(req.env.Config))
}

// GetCoverUploadSlot godoc
//
//	@Summary	Issue a presigned upload for the recipe cover.
//	@Tags		Recipes
//	@Param		recipeID	path	int	true	"Recipe ID"
//	@Success	200	{object}	UploadSlotResponse
//	@Failure	403	{object}	apiError.Error	"User does not own recipe"
//	@Failure	404	{object}	apiError.Error	"Recipe not found"
//	@Router		/api/recipes/{recipeID}/image/upload-url [GET]
func GetCoverUploadSlot(w http.ResponseWriter, r *http.Request) {
	req, ok := newRequest(w, r)
	if !ok {
		return
	}
	id, ok := req.recipeIDParam(w, r)
	if !ok {
		return
	}
	if err := req.env.Store.Owned(req.userID, id); err != nil {
		req.encodeStoreError(w, err)
		return
	}

	up, err := req.presign(filestore.CoverKey(id))
	if err != nil {
		req.env.Logger.ErrorContext(req.ctx, "failed to presign cover upload", slog.Any("error", err))
		_ = apiError.EncodeInternalError(w, req.requestID)
		return
	}
	req.env.Logger.DebugContext(req.ctx, "issued cover upload slot", slog.String("key", up.Key))
	req.writeResponse(w, http.StatusOK, newUploadSlotResponse(0, up))
}

// GetStepUploadSlots godoc
//
//	@Summary	Issue presigned uploads for instruction step photos.
//	@Tags		Recipes
//	@Param		recipeID	path	int		true	"Recipe ID"
//	@Param		steps		query	string	true	"Comma separated step numbers"
//	@Success	200	{array}		UploadSlotResponse
//	@Failure	400	{object}	apiError.Error	"Invalid steps"
//	@Failure	403	{object}	apiError.Error	"User does not own recipe"
//	@Failure	404	{object}	apiError.Error	"Recipe not found"
//	@Router		/api/recipes/{recipeID}/instructions/upload-urls [GET]
func GetStepUploadSlots(w http.ResponseWriter, r *http.Request) {
	req, ok := newRequest(w, r)
	if !ok {
		return
	}
	id, ok := req.recipeIDParam(w, r)
	if !ok {
		return
	}
	steps, err := parseSteps(r.URL.Query().Get("steps"))
	if err != nil {
		req.env.Logger.ErrorContext(req.ctx, "invalid steps", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, err.Error(), req.requestID)
		return
	}
	if err := req.env.Store.Owned(req.userID, id); err != nil {
		req.encodeStoreError(w, err)
		return
	}

	slots := make([]UploadSlotResponse, 0, len(steps))
	for _, n := range steps {
		up, err := req.presign(filestore.StepKey(id, n))
		if err != nil {
			req.env.Logger.ErrorContext(req.ctx, "failed to presign step upload",
				slog.Int("step", n), slog.Any("error", err))
			_ = apiError.EncodeInternalError(w, req.requestID)
			return
		}
		slots = append(slots, newUploadSlotResponse(n, up))
	}
	req.env.Logger.DebugContext(req.ctx, "issued step upload slots", slog.Any("steps", steps))
	req.writeResponse(w, http.StatusOK, slots)
}

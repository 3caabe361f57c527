// Package uploads accepts presigned uploads for the local file store and
// serves the stored objects.
package uploads

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apiError "github.com/nonsess/recipe-social-network/internal/api/error"
	"github.com/nonsess/recipe-social-network/internal/api/requestid"
	"github.com/nonsess/recipe-social-network/internal/bucket"
	"github.com/nonsess/recipe-social-network/internal/env"
	"github.com/nonsess/recipe-social-network/internal/fileserver"
	"github.com/nonsess/recipe-social-network/internal/photo"
)

const (
	// FileField is the form field holding the object bytes.
	FileField = "file"

	maxFormMemory = 32 << 20
	formOverhead  = 1 << 20
)

func localBucket(e *env.Env) (*bucket.Local, bool) {
	local, ok := e.Bucket.(*bucket.Local)
	return local, ok && local != nil
}

// HandleUpload godoc
//
//	@Summary		Upload an object to the local file store
//	@Description	Accepts a multipart form with the key and policy fields issued by an
//	@Description	upload slot, followed by the file. No access token is needed.
//	@Tags			Uploads
//	@Accept			multipart/form-data
//	@Success		204	"Object stored"
//	@Failure		400	{object}	apiError.Error	"Malformed form or unsupported file type"
//	@Failure		403	{object}	apiError.Error	"Invalid or expired policy"
//	@Failure		404	"Local uploads disabled"
//	@Router			/api/uploads [post]
func HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)
	requestID := requestid.ExtractRequestID(ctx)

	local, ok := localBucket(env)
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, bucket.MaxObjectSize+formOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		env.Logger.ErrorContext(ctx, "failed to parse multipart form", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "malformed upload", requestID)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	key := r.FormValue(bucket.KeyField)
	if err := local.Verify(key, r.FormValue(bucket.PolicyField)); err != nil {
		env.Logger.ErrorContext(ctx, "rejected upload policy", slog.String("key", key), slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.InvalidUploadPolicy, "invalid upload policy", requestID)
		return
	}

	file, header, err := r.FormFile(FileField)
	if err != nil {
		env.Logger.ErrorContext(ctx, "no file in upload", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "missing file", requestID)
		return
	}
	img, err := photo.ReadFile(header.Filename, file)
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to read uploaded image", slog.Any("error", err))
		_ = apiError.EncodeError(w, apiError.BadRequest, "unsupported file", requestID)
		return
	}

	n, err := local.Store(key, img.Data)
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to store object", slog.Any("error", err))
		_ = apiError.EncodeInternalError(w, requestID)
		return
	}
	env.Logger.DebugContext(ctx, "stored object", slog.String("key", key), slog.Int("bytes", n))
	w.WriteHeader(http.StatusNoContent)
}

// HandleFile serves a stored object.
func HandleFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)

	local, ok := localBucket(env)
	if !ok {
		http.NotFound(w, r)
		return
	}

	key := chi.URLParam(r, "*")
	f, err := local.Open(key)
	if errors.Is(err, fileserver.ErrNotExist) || errors.Is(err, fileserver.ErrInvalidPath) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		env.Logger.ErrorContext(ctx, "failed to open object", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to stat object", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if stat.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, key, stat.ModTime(), f)
}

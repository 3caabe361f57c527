// Package storage uploads photo bytes directly to the object store using a
// presigned upload slot.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nonsess/recipe-social-network/internal/failure"
	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/photo"
	"github.com/nonsess/recipe-social-network/internal/slot"
)

// FileField is the form field carrying the photo bytes. Object stores
// require it to be the last part of the form.
const FileField = "file"

var (
	ErrSlotExpired = errors.New("upload slot expired")
	ErrNoFile      = errors.New("no file to upload")
)

// Uploader posts photos to presigned destinations. It never adds
// credentials; the slot fields are the authorization.
type Uploader struct {
	http   mHttp.HTTPDoer
	logger *slog.Logger
	now    func() time.Time
}

func NewUploader(httpClient mHttp.HTTPDoer, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = log.NullLogger()
	}
	return &Uploader{
		http:   httpClient,
		logger: logger,
		now:    time.Now,
	}
}

// Upload sends file to the slot destination exactly once.
func (u *Uploader) Upload(ctx context.Context, s slot.UploadSlot, file *photo.File) error {
	target := s.Target.String()
	ctx = log.AppendCtx(ctx, slog.String("upload_target", target))

	if file == nil {
		return &failure.UploadTransportError{Target: target, Err: ErrNoFile}
	}
	if s.Expired(u.now()) {
		return &failure.UploadTransportError{Target: target, Err: ErrSlotExpired}
	}

	body, contentType, err := encodeForm(s.Fields, file)
	if err != nil {
		return &failure.UploadTransportError{Target: target, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.Destination, body)
	if err != nil {
		return &failure.UploadTransportError{Target: target, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	u.logger.DebugContext(ctx, "uploading photo", slog.Int64("size", file.Size))
	resp, err := u.http.Do(req)
	if err != nil {
		u.logger.ErrorContext(ctx, "failed to upload photo", slog.Any("error", err))
		return &failure.UploadTransportError{Target: target, Err: err}
	}
	if err := mHttp.ExpectStatus2xx(resp); err != nil {
		u.logger.ErrorContext(ctx, "object store rejected upload", slog.Any("error", err))
		return &failure.UploadTransportError{Target: target, Err: err}
	}
	_ = resp.Body.Close()
	return nil
}

// encodeForm writes the slot fields in a stable order followed by the file
// part.
func encodeForm(fields map[string]string, file *photo.File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FileField, fileName(file)))
	h.Set("Content-Type", file.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func fileName(file *photo.File) string {
	if file.Name != "" {
		return file.Name
	}
	return "photo" + file.Suffix
}

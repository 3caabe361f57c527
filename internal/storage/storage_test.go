package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nonsess/recipe-social-network/internal/failure"
	mHttp "github.com/nonsess/recipe-social-network/internal/http"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/photo"
	"github.com/nonsess/recipe-social-network/internal/slot"
)

var pngData = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type part struct {
	name        string
	fileName    string
	contentType string
	data        string
}

func readParts(t *testing.T, r *http.Request) []part {
	t.Helper()
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("parsing content type: %v", err)
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	var parts []part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, part{
			name:        p.FormName(),
			fileName:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			data:        string(data),
		})
	}
}

func testFile(t *testing.T) *photo.File {
	t.Helper()
	f, err := photo.NewFile("step.png", pngData)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	return f
}

func TestUpload_FieldsThenFile(t *testing.T) {
	var parts []part
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("upload carried Authorization %q", auth)
		}
		parts = readParts(t, r)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	u := NewUploader(mHttp.New(mHttp.DefaultConfig()), log.NullLogger())
	s := slot.UploadSlot{
		Target:      slot.Step(2),
		Destination: srv.URL + "/bucket",
		Fields:      map[string]string{"key": "steps/2.png", "policy": "abc", "x-amz-signature": "sig"},
		Path:        "steps/2.png",
	}
	if err := u.Upload(context.Background(), s, testFile(t)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if len(parts) != 4 {
		t.Fatalf("got %d parts, want 4", len(parts))
	}
	for i, want := range []string{"key", "policy", "x-amz-signature"} {
		if parts[i].name != want || parts[i].data != s.Fields[want] {
			t.Errorf("part %d = %+v, want field %q", i, parts[i], want)
		}
	}
	last := parts[3]
	if last.name != FileField || last.fileName != "step.png" {
		t.Errorf("last part = %q/%q, want file part", last.name, last.fileName)
	}
	if last.contentType != "image/png" {
		t.Errorf("file content type = %q, want image/png", last.contentType)
	}
	if last.data != string(pngData) {
		t.Error("file part data mismatch")
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		closed  bool
		expires time.Time
		file    bool
		wantErr error
	}{
		{name: "rejected by store", status: http.StatusForbidden, file: true},
		{name: "server error", status: http.StatusInternalServerError, file: true},
		{name: "unreachable", closed: true, file: true},
		{name: "expired slot", status: http.StatusNoContent, expires: time.Now().Add(-time.Minute), file: true, wantErr: ErrSlotExpired},
		{name: "no file", status: http.StatusNoContent, wantErr: ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			}))
			dest := srv.URL
			if tt.closed {
				srv.Close()
			} else {
				defer srv.Close()
			}

			var f *photo.File
			if tt.file {
				f = testFile(t)
			}
			u := NewUploader(mHttp.New(mHttp.DefaultConfig()), nil)
			err := u.Upload(context.Background(), slot.UploadSlot{
				Target:      slot.Cover(),
				Destination: dest,
				Fields:      map[string]string{"key": "covers/1.png"},
				Path:        "covers/1.png",
				Expires:     tt.expires,
			}, f)

			var transportErr *failure.UploadTransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("Upload() error = %v, want UploadTransportError", err)
			}
			if transportErr.Target != "cover" {
				t.Errorf("Target = %q, want cover", transportErr.Target)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
			}
			if calls > 1 {
				t.Errorf("store called %d times, uploads must not be retried", calls)
			}
		})
	}
}

package recipes

import (
	"time"

	"github.com/nonsess/recipe-social-network/internal/bucket"
	"github.com/nonsess/recipe-social-network/internal/recipe"
)

type GetRecipeResponse recipe.Record

// UploadSlotResponse is one presigned upload. Path is the key to attach once
// the upload succeeded.
type UploadSlotResponse struct {
	StepNumber  int               `json:"step_number,omitempty"`
	Destination string            `json:"destination"`
	Fields      map[string]string `json:"fields"`
	Path        string            `json:"path"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

func newUploadSlotResponse(stepNumber int, up bucket.Upload) UploadSlotResponse {
	return UploadSlotResponse{
		StepNumber:  stepNumber,
		Destination: up.Destination,
		Fields:      up.Fields,
		Path:        up.Key,
		ExpiresAt:   up.ExpiresAt.UTC(),
	}
}

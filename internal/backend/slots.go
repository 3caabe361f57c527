package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nonsess/recipe-social-network/internal/failure"
	"github.com/nonsess/recipe-social-network/internal/slot"
)

var (
	ErrNoSteps        = errors.New("no step numbers requested")
	ErrDuplicateStep  = errors.New("duplicate step number")
	ErrSlotMismatch   = errors.New("slot response does not match request")
	ErrSlotIncomplete = errors.New("slot has no destination or path")
)

type slotResponse struct {
	StepNumber  int               `json:"step_number,omitempty"`
	Destination string            `json:"destination"`
	Fields      map[string]string `json:"fields"`
	Path        string            `json:"path,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

func (s slotResponse) toSlot(target slot.Target) (slot.UploadSlot, error) {
	path := s.Path
	if path == "" {
		// S3-style POST policies carry the object key as a form field
		path = s.Fields["key"]
	}
	if s.Destination == "" || path == "" {
		return slot.UploadSlot{}, ErrSlotIncomplete
	}
	out := slot.UploadSlot{
		Target:      target,
		Destination: s.Destination,
		Fields:      s.Fields,
		Path:        path,
	}
	if s.ExpiresAt != nil {
		out.Expires = *s.ExpiresAt
	}
	return out, nil
}

// SlotBroker asks the backend for presigned upload slots.
type SlotBroker struct {
	*Client
}

func NewSlotBroker(c *Client) *SlotBroker {
	return &SlotBroker{Client: c}
}

func uploadCredentialError(target string, err error) error {
	if failure.IsCredential(err) {
		return err
	}
	return &failure.UploadCredentialError{Target: target, Err: err}
}

// RequestCoverSlot issues a slot for the recipe's cover image.
func (b *SlotBroker) RequestCoverSlot(ctx context.Context, recipeID int64) (slot.UploadSlot, error) {
	target := slot.Cover()
	b.logger.DebugContext(ctx, "requesting cover upload slot")

	var res slotResponse
	if err := b.doJSON(ctx, http.MethodGet, recipePath(recipeID, "/image/upload-url"), nil, nil, &res); err != nil {
		b.logger.ErrorContext(ctx, "failed to request cover upload slot", slog.Any("error", err))
		return slot.UploadSlot{}, uploadCredentialError(target.String(), err)
	}
	s, err := res.toSlot(target)
	if err != nil {
		return slot.UploadSlot{}, uploadCredentialError(target.String(), err)
	}
	return s, nil
}

// RequestStepSlots issues one slot per step number in a single request. The
// result is keyed by the step number each returned slot carries.
func (b *SlotBroker) RequestStepSlots(ctx context.Context, recipeID int64,
	stepNumbers []int,
) (map[int]slot.UploadSlot, error) {
	if len(stepNumbers) == 0 {
		return nil, ErrNoSteps
	}
	wanted := make(map[int]bool, len(stepNumbers))
	for _, n := range stepNumbers {
		if n < 1 {
			return nil, fmt.Errorf("step number %d: %w", n, ErrSlotMismatch)
		}
		if wanted[n] {
			return nil, fmt.Errorf("step %d: %w", n, ErrDuplicateStep)
		}
		wanted[n] = true
	}
	sorted := append([]int(nil), stepNumbers...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	target := "steps " + strings.Join(parts, ",")

	b.logger.DebugContext(ctx, "requesting step upload slots", slog.Any("steps", sorted))
	query := url.Values{"steps": []string{strings.Join(parts, ",")}}
	var res []slotResponse
	if err := b.doJSON(ctx, http.MethodGet, recipePath(recipeID, "/instructions/upload-urls"), query, nil, &res); err != nil {
		b.logger.ErrorContext(ctx, "failed to request step upload slots", slog.Any("error", err))
		return nil, uploadCredentialError(target, err)
	}

	slots := make(map[int]slot.UploadSlot, len(res))
	for _, r := range res {
		if !wanted[r.StepNumber] {
			return nil, uploadCredentialError(target,
				fmt.Errorf("unexpected slot for step %d: %w", r.StepNumber, ErrSlotMismatch))
		}
		if _, dup := slots[r.StepNumber]; dup {
			return nil, uploadCredentialError(target,
				fmt.Errorf("second slot for step %d: %w", r.StepNumber, ErrSlotMismatch))
		}
		s, err := r.toSlot(slot.Step(r.StepNumber))
		if err != nil {
			return nil, uploadCredentialError(target, err)
		}
		slots[r.StepNumber] = s
	}
	for n := range wanted {
		if _, ok := slots[n]; !ok {
			return nil, uploadCredentialError(target,
				fmt.Errorf("no slot for step %d: %w", n, ErrSlotMismatch))
		}
	}
	return slots, nil
}

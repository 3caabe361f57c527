package backend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nonsess/recipe-social-network/internal/failure"
	"github.com/nonsess/recipe-social-network/internal/recipe"
)

type attachAssetsRequest struct {
	ImagePath    *string              `json:"image_path"`
	Instructions []recipe.Instruction `json:"instructions"`
}

type publishRequest struct {
	Published bool `json:"is_published"`
}

// RecordMutator creates and patches recipe records. Nothing is retried.
type RecordMutator struct {
	*Client
}

func NewRecordMutator(c *Client) *RecordMutator {
	return &RecordMutator{Client: c}
}

func mutationError(stage failure.Stage, err error) error {
	if failure.IsCredential(err) {
		return err
	}
	return &failure.RecordMutationError{Stage: stage, Err: err}
}

// Get loads a record.
func (m *RecordMutator) Get(ctx context.Context, recipeID int64) (recipe.Record, error) {
	m.logger.DebugContext(ctx, "loading recipe")
	var rec recipe.Record
	if err := m.doJSON(ctx, http.MethodGet, recipePath(recipeID, ""), nil, nil, &rec); err != nil {
		m.logger.ErrorContext(ctx, "failed to load recipe", slog.Any("error", err))
		return recipe.Record{}, mutationError(failure.StageLoad, err)
	}
	return rec, nil
}

// Create persists the draft metadata. The new record is unpublished and has
// no cover.
func (m *RecordMutator) Create(ctx context.Context, meta recipe.Metadata) (recipe.Record, error) {
	m.logger.DebugContext(ctx, "creating recipe")
	var rec recipe.Record
	if err := m.doJSON(ctx, http.MethodPost, "/recipes", nil, meta, &rec); err != nil {
		m.logger.ErrorContext(ctx, "failed to create recipe", slog.Any("error", err))
		return recipe.Record{}, mutationError(failure.StageCreate, err)
	}
	return rec, nil
}

// AttachAssets replaces the cover path and the complete instruction list.
func (m *RecordMutator) AttachAssets(ctx context.Context, recipeID int64,
	coverPath *string, instructions []recipe.Instruction,
) (recipe.Record, error) {
	m.logger.DebugContext(ctx, "attaching recipe assets", slog.Int("instructions", len(instructions)))
	if instructions == nil {
		instructions = []recipe.Instruction{}
	}
	body := attachAssetsRequest{ImagePath: coverPath, Instructions: instructions}
	var rec recipe.Record
	if err := m.doJSON(ctx, http.MethodPatch, recipePath(recipeID, ""), nil, body, &rec); err != nil {
		m.logger.ErrorContext(ctx, "failed to attach recipe assets", slog.Any("error", err))
		return recipe.Record{}, mutationError(failure.StageAttach, err)
	}
	return rec, nil
}

// Publish flips the publication flag.
func (m *RecordMutator) Publish(ctx context.Context, recipeID int64) (recipe.Record, error) {
	m.logger.DebugContext(ctx, "publishing recipe")
	var rec recipe.Record
	if err := m.doJSON(ctx, http.MethodPatch, recipePath(recipeID, ""), nil, publishRequest{Published: true}, &rec); err != nil {
		m.logger.ErrorContext(ctx, "failed to publish recipe", slog.Any("error", err))
		return recipe.Record{}, mutationError(failure.StagePublish, err)
	}
	return rec, nil
}

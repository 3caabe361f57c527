package publish

import (
	"errors"
	"fmt"
)

var (
	ErrCoverRequired = errors.New("a new recipe needs a cover photo")
	ErrNoRecipeID    = errors.New("original recipe has no id")
	ErrStageOrder    = errors.New("transition out of order")
)

// PublishingError is the only error CreateRecipe and UpdateRecipe return.
// Stage is the last stage that completed, so a RecipeID together with a
// stage before Published means an unpublished record exists server-side.
// The cause is one of the failure package errors or recipe.ErrInvalidDraft
// and is reachable with errors.As / errors.Is.
type PublishingError struct {
	Flow     Flow
	Stage    Stage
	RecipeID int64
	Err      error
}

func (e *PublishingError) Error() string {
	if e.RecipeID == 0 {
		return fmt.Sprintf("%s recipe: %v", e.Flow, e.Err)
	}
	return fmt.Sprintf("%s recipe %d after stage %s: %v", e.Flow, e.RecipeID, e.Stage, e.Err)
}

func (e *PublishingError) Unwrap() error { return e.Err }

// Persisted reports whether a record exists server-side for the failed
// submission.
func (e *PublishingError) Persisted() bool {
	return e.RecipeID != 0
}

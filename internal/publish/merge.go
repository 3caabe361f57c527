package publish

import (
	"errors"
	"fmt"

	"github.com/nonsess/recipe-social-network/internal/recipe"
)

var ErrMissingUpload = errors.New("step was classified for upload but has no uploaded path")

// merge builds the complete instruction list sent with AttachAssets: one
// entry per draft step, in draft order. Uploaded paths win, every other
// step gets the path the classification kept for it.
func merge(draft recipe.Draft, c Classification, uploaded map[int]string) ([]recipe.Instruction, error) {
	if err := draft.CheckNumbering(); err != nil {
		return nil, err
	}
	instructions := make([]recipe.Instruction, len(draft.Instructions))
	for i, step := range draft.Instructions {
		in := recipe.Instruction{
			StepNumber:  step.StepNumber,
			Description: step.Description,
		}
		if c.NeedsUpload(step.StepNumber) {
			path, ok := uploaded[step.StepNumber]
			if !ok {
				return nil, fmt.Errorf("step %d: %w", step.StepNumber, ErrMissingUpload)
			}
			in.ImagePath = stringPtr(path)
		} else {
			in.ImagePath = c.StepPaths[step.StepNumber]
		}
		instructions[i] = in
	}
	return instructions, nil
}

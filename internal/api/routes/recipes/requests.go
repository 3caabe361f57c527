package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nonsess/recipe-social-network/internal/recipe"
)

const maxSteps = 100

var (
	errStepNumbering = errors.New("instructions must be numbered 1..n")
	errBadSteps      = errors.New("invalid steps parameter")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type recipeID string

func (r recipeID) Validate() error {
	v, err := strconv.ParseInt(string(r), 10, 64)
	if err != nil {
		return errors.New("expected an integer")
	}
	if v <= 0 {
		return errors.New("recipe id should be positive")
	}
	return nil
}

func (r recipeID) Int64() int64 {
	v, _ := strconv.ParseInt(string(r), 10, 64)
	return v
}

type instruction struct {
	StepNumber  int     `json:"step_number" validate:"gt=0"`
	Description string  `json:"description" validate:"required"`
	ImagePath   *string `json:"image_path"`
}

type CreateRecipeRequest struct {
	Title           string              `json:"title" validate:"required,max=255"`
	Description     string              `json:"short_description" validate:"max=1000"`
	Difficulty      recipe.Difficulty   `json:"difficulty" validate:"validateFn"`
	CookTimeMinutes int                 `json:"cook_time_minutes" validate:"gt=0"`
	Ingredients     []recipe.Ingredient `json:"ingredients" validate:"dive"`
	Instructions    []instruction       `json:"instructions" validate:"max=100,dive"`
	Tags            []string            `json:"tags" validate:"dive,required"`
}

func (c CreateRecipeRequest) metadata() recipe.Metadata {
	return recipe.Metadata{
		Title:           strings.TrimSpace(c.Title),
		Description:     c.Description,
		Difficulty:      c.Difficulty,
		CookTimeMinutes: c.CookTimeMinutes,
		Ingredients:     c.Ingredients,
		Instructions:    toInstructions(c.Instructions),
		Tags:            c.Tags,
	}
}

// optionalPath tells an absent image_path apart from an explicit null.
type optionalPath struct {
	Set   bool
	Value *string
}

func (o *optionalPath) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// PatchRecipeRequest replaces the fields it carries. Instructions are
// replaced as a whole.
type PatchRecipeRequest struct {
	ImagePath    optionalPath   `json:"image_path"`
	Instructions *[]instruction `json:"instructions" validate:"omitempty,max=100,dive"`
	Published    *bool          `json:"is_published"`
}

func toInstructions(in []instruction) []recipe.Instruction {
	out := make([]recipe.Instruction, len(in))
	for i, step := range in {
		out[i] = recipe.Instruction{
			StepNumber:  step.StepNumber,
			Description: step.Description,
			ImagePath:   step.ImagePath,
		}
	}
	return out
}

func checkNumbering(in []instruction) error {
	for i, step := range in {
		if step.StepNumber != i+1 {
			return fmt.Errorf("position %d has step %d: %w", i+1, step.StepNumber, errStepNumbering)
		}
	}
	return nil
}

// parseSteps reads a comma separated list of distinct step numbers.
func parseSteps(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty", errBadSteps)
	}
	seen := map[int]bool{}
	var steps []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadSteps, part)
		}
		if n < 1 || n > maxSteps {
			return nil, fmt.Errorf("%w: step %d out of range", errBadSteps, n)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: step %d repeated", errBadSteps, n)
		}
		seen[n] = true
		steps = append(steps, n)
	}
	return steps, nil
}

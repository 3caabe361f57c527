// Package recipe contains the recipe draft authored on the client and the
// record persisted by the backend.
package recipe

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nonsess/recipe-social-network/internal/photo"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func (d Difficulty) Validate() error {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return nil
	}
	return fmt.Errorf("unknown difficulty: %q", d)
}

type Ingredient struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Quantity string `json:"quantity" yaml:"quantity"`
}

// InstructionStep is one step of a draft. Origin is the step number this
// step had in the record the draft was loaded from, 0 if the step was added
// while editing.
type InstructionStep struct {
	StepNumber  int
	Description string `validate:"required"`
	Photo       photo.Reference
	Origin      int `validate:"gte=0"`
}

// Draft is the client-side authoring state of a recipe.
type Draft struct {
	Title           string            `validate:"required,max=255"`
	Description     string            `validate:"max=1000"`
	Difficulty      Difficulty        `validate:"validateFn"`
	CookTimeMinutes int               `validate:"gt=0"`
	Ingredients     []Ingredient      `validate:"min=1,dive"`
	Instructions    []InstructionStep `validate:"min=1,dive"`
	Cover           photo.Reference
	Tags            []string `validate:"dive,required"`
}

// Instruction is a persisted step with its resolved image path.
type Instruction struct {
	StepNumber  int     `json:"step_number"`
	Description string  `json:"description"`
	ImagePath   *string `json:"image_path"`
}

// Record is the server-side recipe entity.
type Record struct {
	ID              int64         `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	Description     string        `json:"short_description"`
	Difficulty      Difficulty    `json:"difficulty"`
	CookTimeMinutes int           `json:"cook_time_minutes"`
	Published       bool          `json:"is_published"`
	ImagePath       *string       `json:"image_path"`
	Ingredients     []Ingredient  `json:"ingredients"`
	Instructions    []Instruction `json:"instructions"`
	Tags            []string      `json:"tags"`
}

// Metadata is the create payload: the draft without any photos.
type Metadata struct {
	Title           string        `json:"title"`
	Description     string        `json:"short_description"`
	Difficulty      Difficulty    `json:"difficulty"`
	CookTimeMinutes int           `json:"cook_time_minutes"`
	Ingredients     []Ingredient  `json:"ingredients"`
	Instructions    []Instruction `json:"instructions"`
	Tags            []string      `json:"tags"`
}

var ErrInvalidDraft = errors.New("invalid recipe draft")

var validate = newValidator()

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Validate checks the draft fields. It does not check photos.
func (d *Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Join(ErrInvalidDraft, err)
	}
	return nil
}

// MetadataOf strips photos from the draft. Instructions are sent without
// image paths; those are attached once uploads finish.
func MetadataOf(d Draft) Metadata {
	instructions := make([]Instruction, len(d.Instructions))
	for i, step := range d.Instructions {
		instructions[i] = Instruction{
			StepNumber:  step.StepNumber,
			Description: step.Description,
		}
	}
	return Metadata{
		Title:           d.Title,
		Description:     d.Description,
		Difficulty:      d.Difficulty,
		CookTimeMinutes: d.CookTimeMinutes,
		Ingredients:     append([]Ingredient(nil), d.Ingredients...),
		Instructions:    instructions,
		Tags:            append([]string(nil), d.Tags...),
	}
}

// DraftFromRecord starts an editing session from a persisted record.
func DraftFromRecord(r Record) Draft {
	steps := make([]InstructionStep, len(r.Instructions))
	for i, in := range r.Instructions {
		steps[i] = InstructionStep{
			StepNumber:  in.StepNumber,
			Description: in.Description,
			Photo:       photo.FromPath(in.ImagePath),
			Origin:      in.StepNumber,
		}
	}
	d := Draft{
		Title:           r.Title,
		Description:     r.Description,
		Difficulty:      r.Difficulty,
		CookTimeMinutes: r.CookTimeMinutes,
		Ingredients:     append([]Ingredient(nil), r.Ingredients...),
		Instructions:    steps,
		Cover:           photo.FromPath(r.ImagePath),
		Tags:            append([]string(nil), r.Tags...),
	}
	d.Renumber()
	return d
}

// Instruction returns the record's instruction with the given step number.
func (r *Record) Instruction(stepNumber int) (Instruction, bool) {
	for _, in := range r.Instructions {
		if in.StepNumber == stepNumber {
			return in, true
		}
	}
	return Instruction{}, false
}

package recipe

import (
	"errors"
	"fmt"

	"github.com/nonsess/recipe-social-network/internal/photo"
)

var ErrStepOutOfRange = errors.New("step index out of range")

// Renumber sets every StepNumber to its 1-based position.
func (d *Draft) Renumber() {
	for i := range d.Instructions {
		d.Instructions[i].StepNumber = i + 1
	}
}

// InsertStep inserts step at index i (0 <= i <= len) and renumbers.
func (d *Draft) InsertStep(i int, step InstructionStep) error {
	if i < 0 || i > len(d.Instructions) {
		return fmt.Errorf("insert at %d: %w", i, ErrStepOutOfRange)
	}
	step.Photo = photo.OrNone(step.Photo)
	d.Instructions = append(d.Instructions, InstructionStep{})
	copy(d.Instructions[i+1:], d.Instructions[i:])
	d.Instructions[i] = step
	d.Renumber()
	return nil
}

// AppendStep adds a step at the end.
func (d *Draft) AppendStep(step InstructionStep) {
	_ = d.InsertStep(len(d.Instructions), step)
}

// RemoveStep removes the step at index i and renumbers.
func (d *Draft) RemoveStep(i int) error {
	if i < 0 || i >= len(d.Instructions) {
		return fmt.Errorf("remove at %d: %w", i, ErrStepOutOfRange)
	}
	d.Instructions = append(d.Instructions[:i], d.Instructions[i+1:]...)
	d.Renumber()
	return nil
}

// MoveStep moves the step at index from to index to and renumbers.
func (d *Draft) MoveStep(from, to int) error {
	n := len(d.Instructions)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d to %d: %w", from, to, ErrStepOutOfRange)
	}
	step := d.Instructions[from]
	if err := d.RemoveStep(from); err != nil {
		return err
	}
	return d.InsertStep(to, step)
}

// LocalPhotoSteps returns the step numbers, in order, whose photo is a
// LocalFile.
func (d *Draft) LocalPhotoSteps() []int {
	var steps []int
	for _, step := range d.Instructions {
		if _, ok := step.Photo.(photo.LocalFile); ok {
			steps = append(steps, step.StepNumber)
		}
	}
	return steps
}

// Step returns the draft step with the given step number.
func (d *Draft) Step(stepNumber int) (InstructionStep, bool) {
	if stepNumber < 1 || stepNumber > len(d.Instructions) {
		return InstructionStep{}, false
	}
	step := d.Instructions[stepNumber-1]
	if step.StepNumber != stepNumber {
		return InstructionStep{}, false
	}
	return step, true
}

// CheckNumbering reports whether step numbers are exactly 1..N.
func (d *Draft) CheckNumbering() error {
	for i, step := range d.Instructions {
		if step.StepNumber != i+1 {
			return fmt.Errorf("step at position %d numbered %d: %w", i+1, step.StepNumber, ErrInvalidDraft)
		}
	}
	return nil
}

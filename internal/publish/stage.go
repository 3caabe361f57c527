package publish

import (
	"fmt"

	"github.com/nonsess/recipe-social-network/internal/recipe"
)

type Flow string

const (
	FlowCreate Flow = "create"
	FlowUpdate Flow = "update"
)

// Stage is a state of a submission. Stages only move forward, one at a
// time.
type Stage int

const (
	StageDraft Stage = iota
	StageCreated
	StageCoverUploaded
	StageStepsUploaded
	StageAssetsAttached
	StagePublished
)

func (s Stage) String() string {
	switch s {
	case StageDraft:
		return "draft"
	case StageCreated:
		return "created"
	case StageCoverUploaded:
		return "cover_uploaded"
	case StageStepsUploaded:
		return "steps_uploaded"
	case StageAssetsAttached:
		return "assets_attached"
	case StagePublished:
		return "published"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// terminal is the last stage of a flow. Updates never publish.
func (f Flow) terminal() Stage {
	if f == FlowCreate {
		return StagePublished
	}
	return StageAssetsAttached
}

// submission is the state of one CreateRecipe or UpdateRecipe call.
type submission struct {
	flow     Flow
	stage    Stage
	draft    recipe.Draft
	original *recipe.Record
	class    Classification

	recipeID  int64
	coverPath *string
	uploaded  map[int]string
	record    recipe.Record
}

func (s *submission) done() bool {
	return s.stage == s.flow.terminal()
}

// expect guards a transition: it may only run from stage from.
func (s *submission) expect(from Stage) error {
	if s.stage != from {
		return fmt.Errorf("at %s, want %s: %w", s.stage, from, ErrStageOrder)
	}
	return nil
}

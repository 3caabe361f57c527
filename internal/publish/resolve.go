package publish

import (
	"github.com/nonsess/recipe-social-network/internal/photo"
	"github.com/nonsess/recipe-social-network/internal/recipe"
)

// Classification says which photos of a draft must be uploaded and which
// paths are kept as they are.
type Classification struct {
	CoverNeedsUpload bool
	// CoverPath is the kept cover path. Nil when the cover needs upload or
	// there is no cover.
	CoverPath *string

	// StepsNeedingUpload is ascending.
	StepsNeedingUpload []int
	// StepPaths holds the kept path of every step that does not need an
	// upload, nil for steps without a photo.
	StepPaths map[int]*string
}

// NeedsUpload reports whether step n is waiting for an upload.
func (c Classification) NeedsUpload(n int) bool {
	for _, s := range c.StepsNeedingUpload {
		if s == n {
			return true
		}
	}
	return false
}

// Classify decides per photo whether it needs an upload. Only a LocalFile
// does. A RemotePath is kept verbatim. None falls back to the path the
// original record had for the same photo, so clearing a photo while editing
// restores it; a step added in this session has nothing to fall back to.
// original is nil in the create flow. The draft must be renumbered.
func Classify(original *recipe.Record, draft recipe.Draft) Classification {
	c := Classification{
		StepsNeedingUpload: draft.LocalPhotoSteps(),
		StepPaths:          make(map[int]*string, len(draft.Instructions)),
	}

	switch ref := photo.OrNone(draft.Cover).(type) {
	case photo.LocalFile:
		c.CoverNeedsUpload = true
	case photo.RemotePath:
		c.CoverPath = stringPtr(ref.Path)
	case photo.None:
		if original != nil {
			c.CoverPath = copyPath(original.ImagePath)
		}
	}

	for _, step := range draft.Instructions {
		switch ref := photo.OrNone(step.Photo).(type) {
		case photo.RemotePath:
			c.StepPaths[step.StepNumber] = stringPtr(ref.Path)
		case photo.None:
			c.StepPaths[step.StepNumber] = originalStepPath(original, step.Origin)
		}
	}
	return c
}

func originalStepPath(original *recipe.Record, origin int) *string {
	if original == nil || origin == 0 {
		return nil
	}
	in, ok := original.Instruction(origin)
	if !ok {
		return nil
	}
	return copyPath(in.ImagePath)
}

func copyPath(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return stringPtr(*p)
}

func stringPtr(s string) *string {
	return &s
}

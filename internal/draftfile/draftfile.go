// Package draftfile reads and writes recipe drafts as YAML documents.
//
// A photo is given either as a local file, resolved relative to the draft
// file, or as a remote path already stored by the backend:
//
//	cover:
//	  file: ./cover.jpg
//	instructions:
//	  - description: Peel the beets
//	    photo:
//	      remote: steps/12/1.png
//	    origin: 1
//
// origin is the step number the step had in the recipe being edited. A step
// with an origin and no photo keeps the original step's photo.
package draftfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/nonsess/recipe-social-network/internal/photo"
	"github.com/nonsess/recipe-social-network/internal/recipe"
)

var ErrAmbiguousPhoto = errors.New("photo sets both file and remote")

type Photo struct {
	File   string `yaml:"file,omitempty"`
	Remote string `yaml:"remote,omitempty"`
}

type Step struct {
	Description string `yaml:"description" validate:"required"`
	Photo       *Photo `yaml:"photo,omitempty"`
	Origin      int    `yaml:"origin,omitempty" validate:"gte=0"`
}

type Ingredient struct {
	Name     string `yaml:"name" validate:"required"`
	Quantity string `yaml:"quantity,omitempty"`
}

// Document is the on-disk draft.
type Document struct {
	Title           string       `yaml:"title"`
	Description     string       `yaml:"description,omitempty"`
	Difficulty      string       `yaml:"difficulty"`
	CookTimeMinutes int          `yaml:"cook_time_minutes"`
	Tags            []string     `yaml:"tags,omitempty"`
	Ingredients     []Ingredient `yaml:"ingredients" validate:"dive"`
	Cover           *Photo       `yaml:"cover,omitempty"`
	Instructions    []Step       `yaml:"instructions" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a draft file and opens every local photo it references.
func Load(path string) (recipe.Draft, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return recipe.Draft{}, fmt.Errorf("reading draft: %w", err)
	}
	return Parse(contents, filepath.Dir(path))
}

// Parse decodes a draft. Relative photo files are resolved against baseDir.
func Parse(contents []byte, baseDir string) (recipe.Draft, error) {
	var doc Document
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return recipe.Draft{}, fmt.Errorf("unmarshaling draft: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return recipe.Draft{}, fmt.Errorf("validating draft file: %w", err)
	}
	return doc.toDraft(baseDir)
}

func (d Document) toDraft(baseDir string) (recipe.Draft, error) {
	cover, err := d.Cover.reference(baseDir)
	if err != nil {
		return recipe.Draft{}, fmt.Errorf("cover: %w", err)
	}

	draft := recipe.Draft{
		Title:           d.Title,
		Description:     d.Description,
		Difficulty:      recipe.Difficulty(d.Difficulty),
		CookTimeMinutes: d.CookTimeMinutes,
		Tags:            d.Tags,
		Cover:           cover,
	}
	for _, in := range d.Ingredients {
		draft.Ingredients = append(draft.Ingredients, recipe.Ingredient{Name: in.Name, Quantity: in.Quantity})
	}
	for i, step := range d.Instructions {
		ref, err := step.Photo.reference(baseDir)
		if err != nil {
			return recipe.Draft{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		draft.AppendStep(recipe.InstructionStep{
			Description: step.Description,
			Photo:       ref,
			Origin:      step.Origin,
		})
	}
	return draft, nil
}

func (p *Photo) reference(baseDir string) (photo.Reference, error) {
	if p == nil {
		return photo.None{}, nil
	}
	switch {
	case p.File != "" && p.Remote != "":
		return nil, ErrAmbiguousPhoto
	case p.File != "":
		path := p.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		f, err := photo.Open(path)
		if err != nil {
			return nil, err
		}
		return photo.Local(f), nil
	default:
		return photo.Remote(p.Remote), nil
	}
}

func photoOf(ref photo.Reference) *Photo {
	switch r := photo.OrNone(ref).(type) {
	case photo.RemotePath:
		return &Photo{Remote: r.Path}
	case photo.LocalFile:
		return &Photo{File: r.File.Name}
	default:
		return nil
	}
}

// FromDraft converts a draft back into a document. Local photos are written
// by file name only.
func FromDraft(d recipe.Draft) Document {
	doc := Document{
		Title:           d.Title,
		Description:     d.Description,
		Difficulty:      string(d.Difficulty),
		CookTimeMinutes: d.CookTimeMinutes,
		Tags:            d.Tags,
		Cover:           photoOf(d.Cover),
	}
	for _, in := range d.Ingredients {
		doc.Ingredients = append(doc.Ingredients, Ingredient{Name: in.Name, Quantity: in.Quantity})
	}
	for _, step := range d.Instructions {
		doc.Instructions = append(doc.Instructions, Step{
			Description: step.Description,
			Photo:       photoOf(step.Photo),
			Origin:      step.Origin,
		})
	}
	return doc
}

// Marshal encodes a draft as YAML.
func Marshal(d recipe.Draft) ([]byte, error) {
	out, err := yaml.Marshal(FromDraft(d))
	if err != nil {
		return nil, fmt.Errorf("marshaling draft: %w", err)
	}
	return out, nil
}

// DropsStepImages reports whether updating original from d would lose the
// original's step photos because no step names an origin. Steps without an
// origin count as new.
func DropsStepImages(d recipe.Draft, original recipe.Record) bool {
	for _, step := range d.Instructions {
		if step.Origin != 0 {
			return false
		}
	}
	for _, in := range original.Instructions {
		if in.ImagePath != nil {
			return true
		}
	}
	return false
}

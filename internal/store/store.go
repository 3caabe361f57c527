// Package store keeps the reference backend's recipe records in memory.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/nonsess/recipe-social-network/internal/recipe"
)

var (
	ErrNotFound = errors.New("recipe not found")
	ErrNotOwned = errors.New("recipe not owned by user")
	// ErrNoCover is returned when publishing a recipe without a cover.
	ErrNoCover = errors.New("recipe has no cover image")
)

type entry struct {
	owner  int64
	record recipe.Record
}

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	recipes map[int64]*entry
}

func New() *Store {
	return &Store{
		nextID:  1,
		recipes: make(map[int64]*entry),
	}
}

func slugify(title string, id int64) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return fmt.Sprintf("recipe-%d", id)
	}
	return fmt.Sprintf("%s-%d", slug, id)
}

func clone(r recipe.Record) recipe.Record {
	out := r
	if r.ImagePath != nil {
		p := *r.ImagePath
		out.ImagePath = &p
	}
	out.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	out.Tags = append([]string(nil), r.Tags...)
	out.Instructions = make([]recipe.Instruction, len(r.Instructions))
	for i, in := range r.Instructions {
		out.Instructions[i] = in
		if in.ImagePath != nil {
			p := *in.ImagePath
			out.Instructions[i].ImagePath = &p
		}
	}
	return out
}

// Create stores a new unpublished recipe without images.
// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

func (s *Store) Create(owner int64, meta recipe.Metadata) recipe.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	instructions := make([]recipe.Instruction, len(meta.Instructions))
	for i, in := range meta.Instructions {
		instructions[i] = recipe.Instruction{StepNumber: in.StepNumber, Description: in.Description}
	}
	rec := recipe.Record{
		ID:              id,
		Slug:            slugify(meta.Title, id),
		Title:           meta.Title,
		Description:     meta.Description,
		Difficulty:      meta.Difficulty,
		CookTimeMinutes: meta.CookTimeMinutes,
		Ingredients:     meta.Ingredients,
		Instructions:    instructions,
		Tags:            meta.Tags,
	}
	s.recipes[id] = &entry{owner: owner, record: clone(rec)}
	return clone(rec)
}

// Get returns a recipe. Unpublished recipes are only visible to their owner.
func (s *Store) Get(viewer, id int64) (recipe.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.recipes[id]
	if !ok || (!e.record.Published && e.owner != viewer) {
		return recipe.Record{}, ErrNotFound
	}
	return clone(e.record), nil
}

// Owned checks that owner may modify the recipe.
func (s *Store) Owned(owner, id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.recipes[id]
	if !ok {
		return ErrNotFound
	}
	if e.owner != owner {
		return ErrNotOwned
	}
	return nil
}

// Update applies fn to a copy of the recipe and stores the result if fn
// succeeds. Publishing without a cover is rejected.
func (s *Store) Update(owner, id int64, fn func(*recipe.Record) error) (recipe.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.recipes[id]
	if !ok {
		return recipe.Record{}, ErrNotFound
	}
	if e.owner != owner {
		return recipe.Record{}, ErrNotOwned
	}

	next := clone(e.record)
	if err := fn(&next); err != nil {
		return recipe.Record{}, err
	}
	next.ID = id
	if next.Published && next.ImagePath == nil {
		return recipe.Record{}, ErrNoCover
	}
	e.record = clone(next)
	return clone(next), nil
}

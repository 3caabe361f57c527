package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/nonsess/recipe-social-network/internal/recipe"
)

func testMetadata() recipe.Metadata {
	return recipe.Metadata{
		Title:           "Grandma's Borscht!",
		Difficulty:      recipe.DifficultyMedium,
		CookTimeMinutes: 90,
		Ingredients:     []recipe.Ingredient{{Name: "beet", Quantity: "3"}},
		Instructions: []recipe.Instruction{
			{StepNumber: 1, Description: "Peel"},
			{StepNumber: 2, Description: "Boil"},
		},
		Tags: []string{"soup"},
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Grandma's Borscht!", want: "grandma-s-borscht-4"},
		{title: "  Plov  ", want: "plov-4"},
		{title: "Щи", want: "щи-4"},
		{title: "!!!", want: "recipe-4"},
	}
	for _, tt := range tests {
		if got := slugify(tt.title, 4); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCreateGet(t *testing.T) {
	s := New()
	first := s.Create(1, testMetadata())
	second := s.Create(1, testMetadata())

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.Published || first.ImagePath != nil {
		t.Errorf("new recipe should be an unpublished record without cover: %+v", first)
	}
	if len(first.Instructions) != 2 || first.Instructions[1].ImagePath != nil {
		t.Errorf("instructions = %+v", first.Instructions)
	}

	if _, err := s.Get(1, first.ID); err != nil {
		t.Errorf("owner Get() error = %v", err)
	}
	if _, err := s.Get(2, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unpublished Get() by other user error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(1, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	s := New()
	rec := s.Create(1, testMetadata())
	cover := "covers/1/01J"

	if _, err := s.Update(2, rec.ID, func(*recipe.Record) error { return nil }); !errors.Is(err, ErrNotOwned) {
		t.Errorf("Update() by other user error = %v, want ErrNotOwned", err)
	}
	if err := s.Owned(2, rec.ID); !errors.Is(err, ErrNotOwned) {
		t.Errorf("Owned() error = %v, want ErrNotOwned", err)
	}

	_, err := s.Update(1, rec.ID, func(r *recipe.Record) error {
		r.Published = true
		return nil
	})
	if !errors.Is(err, ErrNoCover) {
		t.Fatalf("publishing without cover error = %v, want ErrNoCover", err)
	}

	failing := errors.New("boom")
	if _, err := s.Update(1, rec.ID, func(r *recipe.Record) error {
		r.Title = "changed"
		return failing
	}); !errors.Is(err, failing) {
		t.Fatalf("Update() error = %v, want %v", err, failing)
	}
	if got, _ := s.Get(1, rec.ID); got.Title != rec.Title {
		t.Errorf("failed update was stored: title %q", got.Title)
	}

	updated, err := s.Update(1, rec.ID, func(r *recipe.Record) error {
		r.ImagePath = &cover
		r.Published = true
		r.ID = 42
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != rec.ID || !updated.Published || *updated.ImagePath != cover {
		t.Errorf("updated = %+v", updated)
	}

	// stored records are not aliased by returned ones
	*updated.ImagePath = "tampered"
	got, err := s.Get(2, rec.ID)
	if err != nil {
		t.Fatalf("published Get() by other user error = %v", err)
	}
	if *got.ImagePath != cover {
		t.Errorf("stored cover = %q, want %q", *got.ImagePath, cover)
	}
}

func TestCreate_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	ids := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Create(1, testMetadata()).ID
		}()
	}
	wg.Wait()
	close(ids)

	if got := s.Len(); got != 50 {
		t.Errorf("Len() = %d, want 50", got)
	}
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

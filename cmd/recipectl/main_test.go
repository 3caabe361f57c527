package main

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/nonsess/recipe-social-network/internal/publish"
)

func attrMap(attrs []any) map[string]slog.Value {
	m := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		attr := a.(slog.Attr)
		m[attr.Key] = attr.Value
	}
	return m
}

func TestFailureAttrs(t *testing.T) {
	cause := errors.New("object store rejected upload")

	tests := []struct {
		name     string
		err      error
		wantKeys []string
		noKeys   []string
	}{
		{
			name:     "plain error",
			err:      cause,
			wantKeys: []string{"error"},
			noKeys:   []string{"flow", "stage", "recipe_id"},
		},
		{
			name:     "before create",
			err:      &publish.PublishingError{Flow: publish.FlowCreate, Stage: publish.StageDraft, Err: cause},
			wantKeys: []string{"error", "flow", "stage"},
			noKeys:   []string{"recipe_id"},
		},
		{
			name: "persisted record",
			err: &publish.PublishingError{
				Flow: publish.FlowCreate, Stage: publish.StageCreated, RecipeID: 7, Err: cause,
			},
			wantKeys: []string{"error", "flow", "stage", "recipe_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attrMap(failureAttrs(tt.err))
			for _, k := range tt.wantKeys {
				if _, ok := got[k]; !ok {
					t.Errorf("missing %q in %v", k, got)
				}
			}
			for _, k := range tt.noKeys {
				if _, ok := got[k]; ok {
					t.Errorf("unexpected %q in %v", k, got)
				}
			}
		})
	}

	got := attrMap(failureAttrs(&publish.PublishingError{
		Flow: publish.FlowUpdate, Stage: publish.StageCoverUploaded, RecipeID: 7, Err: cause,
	}))
	if got["recipe_id"].Int64() != 7 {
		t.Errorf("recipe_id = %v, want 7", got["recipe_id"])
	}
	if got["stage"].String() != publish.StageCoverUploaded.String() {
		t.Errorf("stage = %v", got["stage"])
	}
	if got["flow"].String() != "update" {
		t.Errorf("flow = %v", got["flow"])
	}
}

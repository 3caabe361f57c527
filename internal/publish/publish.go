// Package publish turns recipe drafts into persisted recipes with their
// photos uploaded to the object store.
package publish

//go:generate mockgen -destination=publishmock/publishmock.go -package=publishmock . SlotBroker,Uploader,RecordMutator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/photo"
	"github.com/nonsess/recipe-social-network/internal/recipe"
	"github.com/nonsess/recipe-social-network/internal/slot"
)

const DefaultConcurrency = 4

type SlotBroker interface {
	RequestCoverSlot(ctx context.Context, recipeID int64) (slot.UploadSlot, error)
	RequestStepSlots(ctx context.Context, recipeID int64, stepNumbers []int) (map[int]slot.UploadSlot, error)
}

type Uploader interface {
	Upload(ctx context.Context, s slot.UploadSlot, file *photo.File) error
}

type RecordMutator interface {
	Create(ctx context.Context, meta recipe.Metadata) (recipe.Record, error)
	AttachAssets(ctx context.Context, recipeID int64, coverPath *string,
		instructions []recipe.Instruction) (recipe.Record, error)
	Publish(ctx context.Context, recipeID int64) (recipe.Record, error)
}

type Config struct {
	// Concurrency bounds the step uploads in flight per submission.
	Concurrency int
	Logger      *slog.Logger
}

// Orchestrator runs submissions. It holds no per-submission state and may
// serve concurrent submissions.
type Orchestrator struct {
	broker      SlotBroker
	uploader    Uploader
	mutator     RecordMutator
	concurrency int
	logger      *slog.Logger
}

func NewOrchestrator(broker SlotBroker, uploader Uploader, mutator RecordMutator, conf Config) *Orchestrator {
	if conf.Concurrency <= 0 {
		conf.Concurrency = DefaultConcurrency
	}
	if conf.Logger == nil {
		conf.Logger = log.NullLogger()
	}
	return &Orchestrator{
		broker:      broker,
		uploader:    uploader,
		mutator:     mutator,
		concurrency: conf.Concurrency,
		logger:      conf.Logger,
	}
}

// CreateRecipe creates, uploads, attaches and publishes a new recipe. On
// failure the record, if one was created, is left unpublished.
func (o *Orchestrator) CreateRecipe(ctx context.Context, draft recipe.Draft) (recipe.Record, error) {
	s := &submission{flow: FlowCreate, draft: prepare(draft)}
	return o.run(ctx, s)
}

// UpdateRecipe uploads the photos replaced since original was loaded and
// replaces the record's assets. It does not publish.
func (o *Orchestrator) UpdateRecipe(ctx context.Context, original recipe.Record,
	draft recipe.Draft,
) (recipe.Record, error) {
	s := &submission{flow: FlowUpdate, draft: prepare(draft), original: &original}
	return o.run(ctx, s)
}

// prepare copies the step list so renumbering never touches the caller's
// draft.
func prepare(d recipe.Draft) recipe.Draft {
	d.Instructions = append([]recipe.InstructionStep(nil), d.Instructions...)
	for i := range d.Instructions {
		d.Instructions[i].Photo = photo.OrNone(d.Instructions[i].Photo)
	}
	d.Cover = photo.OrNone(d.Cover)
	d.Renumber()
	return d
}

func (o *Orchestrator) run(ctx context.Context, s *submission) (recipe.Record, error) {
	ctx = log.AppendCtx(ctx,
		slog.String("submission_id", ulid.Make().String()),
		slog.String("flow", string(s.flow)),
	)

	if err := o.check(s); err != nil {
		o.logger.ErrorContext(ctx, "rejected recipe draft", slog.Any("error", err))
		return recipe.Record{}, &PublishingError{Flow: s.flow, Stage: s.stage, Err: err}
	}
	s.class = Classify(s.original, s.draft)

	for !s.done() {
		next, err := o.step(ctx, s)
		if err != nil {
			o.logger.ErrorContext(ctx, "recipe submission failed",
				slog.String("stage", s.stage.String()), slog.Any("error", err))
			return recipe.Record{}, &PublishingError{
				Flow:     s.flow,
				Stage:    s.stage,
				RecipeID: s.recipeID,
				Err:      err,
			}
		}
		s.stage = next
		if s.stage == StageCreated {
			ctx = log.AppendCtx(ctx, slog.Int64("recipe_id", s.recipeID))
		}
		o.logger.DebugContext(ctx, "recipe submission advanced", slog.String("stage", s.stage.String()))
	}
	return s.record, nil
}

// check validates the draft before any network call.
func (o *Orchestrator) check(s *submission) error {
	var errs []error
	if err := s.draft.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.flow == FlowCreate {
		if _, none := s.draft.Cover.(photo.None); none {
			errs = append(errs, fmt.Errorf("%w: %w", recipe.ErrInvalidDraft, ErrCoverRequired))
		}
	} else if s.original.ID == 0 {
		errs = append(errs, ErrNoRecipeID)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) step(ctx context.Context, s *submission) (Stage, error) {
	switch s.stage {
	case StageDraft:
		if s.flow == FlowCreate {
			return o.create(ctx, s)
		}
		return o.load(s)
	case StageCreated:
		return o.uploadCover(ctx, s)
	case StageCoverUploaded:
		return o.uploadSteps(ctx, s)
	case StageStepsUploaded:
		return o.attach(ctx, s)
	case StageAssetsAttached:
		return o.publish(ctx, s)
	default:
		return s.stage, fmt.Errorf("no transition from %s: %w", s.stage, ErrStageOrder)
	}
}

func (o *Orchestrator) create(ctx context.Context, s *submission) (Stage, error) {
	if err := s.expect(StageDraft); err != nil {
		return s.stage, err
	}
	rec, err := o.mutator.Create(ctx, recipe.MetadataOf(s.draft))
	if err != nil {
		return s.stage, err
	}
	s.recipeID = rec.ID
	s.record = rec
	return StageCreated, nil
}

// load enters the update flow from the record the draft was edited from.
func (o *Orchestrator) load(s *submission) (Stage, error) {
	if err := s.expect(StageDraft); err != nil {
		return s.stage, err
	}
	s.recipeID = s.original.ID
	s.record = *s.original
	return StageCreated, nil
}

func (o *Orchestrator) uploadCover(ctx context.Context, s *submission) (Stage, error) {
	if err := s.expect(StageCreated); err != nil {
		return s.stage, err
	}
	if !s.class.CoverNeedsUpload {
		s.coverPath = s.class.CoverPath
		return StageCoverUploaded, nil
	}

	local, ok := s.draft.Cover.(photo.LocalFile)
	if !ok {
		return s.stage, errors.New("cover classified for upload is not a local file")
	}
	cover, err := o.broker.RequestCoverSlot(ctx, s.recipeID)
	if err != nil {
		return s.stage, err
	}
	if err := o.uploader.Upload(ctx, cover, local.File); err != nil {
		return s.stage, err
	}
	s.coverPath = stringPtr(cover.Path)
	return StageCoverUploaded, nil
}

func (o *Orchestrator) uploadSteps(ctx context.Context, s *submission) (Stage, error) {
	if err := s.expect(StageCoverUploaded); err != nil {
		return s.stage, err
	}
	steps := s.class.StepsNeedingUpload
	s.uploaded = make(map[int]string, len(steps))
	if len(steps) == 0 {
		return StageStepsUploaded, nil
	}

	files := make([]*photo.File, len(steps))
	for i, n := range steps {
		step, ok := s.draft.Step(n)
		if !ok {
			return s.stage, fmt.Errorf("step %d not in draft", n)
		}
		local, ok := step.Photo.(photo.LocalFile)
		if !ok {
			return s.stage, fmt.Errorf("step %d classified for upload is not a local file", n)
		}
		files[i] = local.File
	}

	slots, err := o.broker.RequestStepSlots(ctx, s.recipeID, steps)
	if err != nil {
		return s.stage, err
	}

	ordered := make([]slot.UploadSlot, len(steps))
	for i, n := range steps {
		stepSlot, ok := slots[n]
		if !ok {
			return s.stage, fmt.Errorf("no slot for step %d", n)
		}
		ordered[i] = stepSlot
	}

	paths := make([]string, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, stepSlot := range ordered {
		g.Go(func() error {
			if err := o.uploader.Upload(gctx, stepSlot, files[i]); err != nil {
				return err
			}
			paths[i] = stepSlot.Path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.stage, err
	}

	for i, n := range steps {
		s.uploaded[n] = paths[i]
	}
	return StageStepsUploaded, nil
}

func (o *Orchestrator) attach(ctx context.Context, s *submission) (Stage, error) {
	if err := s.expect(StageStepsUploaded); err != nil {
		return s.stage, err
	}
	instructions, err := merge(s.draft, s.class, s.uploaded)
	if err != nil {
		return s.stage, err
	}
	rec, err := o.mutator.AttachAssets(ctx, s.recipeID, s.coverPath, instructions)
	if err != nil {
		return s.stage, err
	}
	s.record = rec
	return StageAssetsAttached, nil
}

func (o *Orchestrator) publish(ctx context.Context, s *submission) (Stage, error) {
	if err := s.expect(StageAssetsAttached); err != nil {
		return s.stage, err
	}
	if s.flow != FlowCreate {
		return s.stage, fmt.Errorf("%s flow does not publish: %w", s.flow, ErrStageOrder)
	}
	rec, err := o.mutator.Publish(ctx, s.recipeID)
	if err != nil {
		return s.stage, err
	}
	s.record = rec
	return StagePublished, nil
}

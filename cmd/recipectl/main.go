// Command recipectl publishes recipe drafts to the recipe backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/draftfile"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/publish"
	"github.com/nonsess/recipe-social-network/internal/recipe"
	"github.com/nonsess/recipe-social-network/internal/setup"
)

type app struct {
	logger *slog.Logger
	client *setup.Client
}

func newApp() (*app, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := setup.Logger(conf)
	if err != nil {
		return nil, err
	}
	client, err := setup.PublishingClient(conf, logger)
	if err != nil {
		return nil, err
	}
	return &app{logger: logger, client: client}, nil
}

// failureAttrs describes err for the single failure log line, including how
// far a failed submission got.
func failureAttrs(err error) []any {
	attrs := []any{slog.Any("error", err)}
	var pubErr *publish.PublishingError
	if errors.As(err, &pubErr) {
		attrs = append(attrs,
			slog.String("flow", string(pubErr.Flow)),
			slog.String("stage", pubErr.Stage.String()),
		)
		if pubErr.Persisted() {
			attrs = append(attrs, slog.Int64("recipe_id", pubErr.RecipeID))
		}
	}
	return attrs
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recipe id %q", raw)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and publish a recipe from a draft file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			draft, err := draftfile.Load(file)
			if err != nil {
				return err
			}
			rec, err := a.client.Orchestrator.CreateRecipe(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func updateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a recipe's instructions and photos from a draft file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			draft, err := draftfile.Load(file)
			if err != nil {
				return err
			}
			original, err := a.client.Records.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if draftfile.DropsStepImages(draft, original) {
				a.logger.WarnContext(cmd.Context(),
					"no step in the draft has an origin, original step images will be dropped unless re-specified",
					slog.Int64("recipe_id", id))
			}
			rec, err := a.client.Orchestrator.UpdateRecipe(cmd.Context(), original, draft)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func getCmd() *cobra.Command {
	var asDraft bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a recipe, or a draft file to edit it from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			rec, err := a.client.Records.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !asDraft {
				return printJSON(cmd, rec)
			}
			out, err := draftfile.Marshal(recipe.DraftFromRecord(rec))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asDraft, "draft", false, "print as a draft file")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Publish recipes with their cover and step photos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(createCmd(), updateCmd(), getCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		log.New(nil).Error("recipectl failed", failureAttrs(err)...)
		os.Exit(1)
	}
}

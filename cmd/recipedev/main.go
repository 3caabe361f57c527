// Command recipedev runs the reference recipe backend and issues tokens for
// it.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nonsess/recipe-social-network/internal/api"
	"github.com/nonsess/recipe-social-network/internal/api/token"
	"github.com/nonsess/recipe-social-network/internal/config"
	"github.com/nonsess/recipe-social-network/internal/env"
	"github.com/nonsess/recipe-social-network/internal/log"
	"github.com/nonsess/recipe-social-network/internal/role"
	"github.com/nonsess/recipe-social-network/internal/setup"
	"github.com/nonsess/recipe-social-network/internal/store"
)

const setupTime = 30 * time.Second

func loadConfig() (config.Config, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return conf, err
	}
	if err := conf.LoadAppSecret(); err != nil {
		return conf, err
	}
	return conf, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe API, upload slots and stored images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := setup.Logger(conf)
			if err != nil {
				return err
			}

			setupCtx, cancel := context.WithTimeout(ctx, setupTime)
			defer cancel()
			bkt, err := setup.Bucket(setupCtx, conf, setup.AdminHTTP(conf, logger), logger, api.UploadPath)
			if err != nil {
				logger.Error("failed to setup bucket", slog.Any("error", err))
				return err
			}

			return api.Start(ctx, env.New(logger, conf, store.New(), bkt))
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID int64
		admin  bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access and refresh token pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			r := role.RoleUser
			if admin {
				r = role.RoleAdmin
			}
			secret := conf.Devserver.AppSecret
			pair, err := token.NewPair(userID, r, []byte(*secret.Value), secret.Version)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pair)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 1, "user id the tokens are issued for")
	cmd.Flags().BoolVar(&admin, "admin", false, "issue an admin token")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "recipedev",
		Short:         "Reference backend for the recipe publishing client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), tokenCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		log.New(nil).Error("recipedev failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// Package cli holds the cobra commands of the hradmin binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hradmin/internal/app/server"
	"hradmin/internal/platform/config"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/jobs"
	"hradmin/internal/platform/legacy"
	"hradmin/internal/platform/logger"
	"hradmin/internal/platform/seed"
)

// Execute runs the root command; serve is the default.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func NewRootCommand() *cobra.Command {
	serve := newServeCommand()
	root := &cobra.Command{
		Use:           "hradmin",
		Short:         "HR administration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newMigrateCommand(), newSeedCommand(), newPurgeResetsCommand(), newImportLegacyCommand())
	return root
}

// loadConfig reads configuration and sets up the process logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(cfg.Environment, cfg.LogLevel)
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(cmd.Context())
		},
	}
}

var migrateCommands = []string{"up", "down", "status", "reset", "version"}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(migrateCommands, "|") + "]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if err := db.Migrate(cmd.Context(), cfg.DatabaseURL, command); err != nil {
				return err
			}
			logger.From(cmd.Context()).Info("migrations finished", "command", command)
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the form catalogue, the Admin role and the admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return seed.Run(cmd.Context(), pool, cfg)
		},
	}
}

func newPurgeResetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-resets",
		Short: "Delete used and expired password reset tokens now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := jobs.New(jobs.NewStore(pool), 1)
			details, err := runner.RunNow(cmd.Context(), jobs.JobResetPurge, server.ResetPurgeTask(pool))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", jobs.JobResetPurge, details)
			return nil
		},
	}
}

func newImportLegacyCommand() *cobra.Command {
	var uri, database string
	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Copy data from the legacy MongoDB database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if uri == "" {
				uri = cfg.LegacyMongoURI
			}
			if database == "" {
				database = cfg.LegacyMongoDB
			}
			if uri == "" {
				return fmt.Errorf("LEGACY_MONGO_URI or --uri is required")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := db.Migrate(ctx, cfg.DatabaseURL, "up"); err != nil {
				return err
			}
			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			client, source, err := legacy.Connect(ctx, uri, database)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			report, err := legacy.NewImporter(source, pool).Run(ctx)
			if err != nil {
				return err
			}
			for collection, n := range report {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", collection, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "MongoDB connection string (defaults to LEGACY_MONGO_URI)")
	cmd.Flags().StringVar(&database, "db", "", "MongoDB database name (defaults to LEGACY_MONGO_DB)")
	return cmd
}

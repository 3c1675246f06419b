package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agrihealth-server/internal/database"
	"github.com/agrihealth-server/internal/repository"
	"github.com/agrihealth-server/internal/review"
	"github.com/agrihealth-server/internal/setup"
)

func migrateCommand(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.runMigrations(func(mr *database.MigrationRunner) error { return mr.Up(ctx) })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.runMigrations(func(mr *database.MigrationRunner) error { return mr.Down(ctx) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMigrations(func(mr *database.MigrationRunner) error {
					version, dirty, err := mr.Version()
					if err != nil {
						return fmt.Errorf("reading migration version: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid migration version %q: %w", args[0], err)
				}
				return a.runMigrations(func(mr *database.MigrationRunner) error {
					return mr.Force(version)
				})
			},
		},
	)

	return migrateCmd
}

// runMigrations opens a migration runner for the configured database and
// hands it to fn.
func (a *app) runMigrations(fn func(mr *database.MigrationRunner) error) error {
	runner, err := database.NewMigrationRunner(a.manager.GetDatabaseURL(), a.cfg.Database.MigrationsPath, a.logger)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	defer func() {
		if err := runner.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close migration runner")
		}
	}()

	return fn(runner)
}

func seedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the initial disease catalog into empty partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.NewConnection(ctx, database.ConfigFromSettings(a.cfg.Database), a.logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			report, err := setup.NewSeeder(repository.NewDiseaseRepository(db, a.logger), a.logger).Seed(ctx)
			if err != nil {
				return err
			}

			setup.PrintReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func reviewsCommand(a *app) *cobra.Command {
	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Export or import expert reviews",
	}

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every expert review as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReviewStore(func(store review.Store) error {
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create export file: %w", err)
					}
					defer f.Close()
					w = f
				}
				return store.ExportJSON(cmd.Context(), w)
			})
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load expert reviews from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReviewStore(func(store review.Store) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()

				imported, skipped, err := store.ImportJSON(cmd.Context(), f)
				if err != nil {
					return err
				}

				a.logger.WithFields(logrus.Fields{
					"file":     args[0],
					"imported": imported,
					"skipped":  skipped,
				}).Info("Expert reviews imported")
				fmt.Fprintf(cmd.OutOrStdout(), "imported: %d skipped: %d\n", imported, skipped)
				return nil
			})
		},
	}

	reviewsCmd.AddCommand(exportCmd, importCmd)
	return reviewsCmd
}

func (a *app) withReviewStore(fn func(store review.Store) error) error {
	store, err := review.Open(a.cfg.Review, a.manager.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to open review store: %w", err)
	}
	defer store.Close()

	return fn(store)
}

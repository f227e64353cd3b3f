package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"ms-reporting/internal/config"
	"ms-reporting/internal/database"
	"ms-reporting/internal/database/migrations"
	"ms-reporting/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	rootCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the reporting schema and local seed data",
	}

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending index migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error { return r.MigrateUp() })
		},
	}

	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back all index migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error { return r.MigrateDown() })
		},
	}

	toCmd = &cobra.Command{
		Use:   "to [version]",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withRunner(func(r *migrations.Runner) error { return r.MigrateTo(uint(version)) })
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error { return nil })
		},
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Create the source tables from the models (local development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBun(func(ctx context.Context, db *bun.DB) error {
				if reset {
					if err := dropTables(ctx, db); err != nil {
						return err
					}
				}
				return createTables(ctx, db)
			})
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert a sample business with orders, bookings and refunds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBun(seedData)
		},
	}

	reset bool
	log   *logger.Logger
	cfg   *config.Config
)

func withRunner(fn func(r *migrations.Runner) error) error {
	sqldb, err := database.OpenPostgres(context.Background(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	opts := migrations.DefaultOptions()
	opts.MigrationsDir = cfg.Migrations.Dir
	runner := migrations.NewRunner(sqldb, opts, log)
	defer runner.Close()

	if err := fn(runner); err != nil {
		return err
	}

	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	log.LogDatabase("MIGRATE", opts.MigrationsTable, fmt.Sprintf("version %d (dirty=%t)", version, dirty))
	return nil
}

func withBun(fn func(ctx context.Context, db *bun.DB) error) error {
	ctx := context.Background()

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return fn(ctx, bun.NewDB(sqldb, pgdialect.New()))
}

func main() {
	_ = godotenv.Load()
	cfg = config.Load()
	log = logger.NewWithWriters(os.Stdout, nil)
	log.SetLevel(cfg.Log.Level)

	schemaCmd.Flags().BoolVar(&reset, "reset", false, "drop the tables before creating them")
	rootCmd.AddCommand(upCmd, downCmd, toCmd, versionCmd, schemaCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error("DATABASE", err.Error())
		os.Exit(1)
	}
}

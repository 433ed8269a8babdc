package main

import (
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"tabletop-companion/internal/config"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger.SetOutput(cmd.ErrOrStderr())
	goose.SetLogger(logger)

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	cmd.Println("Running migrations...")
	if err := st.migrate(ctx); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

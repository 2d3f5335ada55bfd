package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()

		dsn, err := cfg.DB.DSN()
		if err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, dsn, cfg.DB.Pool())
		if err != nil {
			return err
		}
		defer pool.Close()

		schema := postgres.NewSchema(pool, log)
		applied, err := schema.Upgrade(ctx)
		if err != nil {
			return err
		}
		version, err := schema.Version(ctx)
		if err != nil {
			return err
		}

		log.Info("schema up to date", zap.Int("applied", applied), zap.Int("version", version))
		return nil
	},
}

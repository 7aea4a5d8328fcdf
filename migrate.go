package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stsysd/nippo/config"
	"github.com/stsysd/nippo/logger"
	"github.com/stsysd/nippo/store"
)

// newMigrateCommand はtableバックエンドのスキーマを作成・更新するコマンドを返します。
func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "データベースのマイグレーションを実行します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Backend != config.BackendTable {
				return fmt.Errorf("migrate requires the %s backend (current: %s)", config.BackendTable, cfg.Backend)
			}

			log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()

			// NewTableStore が接続時にマイグレーションを実行する
			s, err := store.NewTableStore(cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", s.Dialect())
			return nil
		},
	}
}

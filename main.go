// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stsysd/nippo/api"
	"github.com/stsysd/nippo/config"
	"github.com/stsysd/nippo/logger"
	"github.com/stsysd/nippo/service"
	"github.com/stsysd/nippo/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options はコマンドラインで環境変数を上書きするための値です。
type options struct {
	backend string
	port    string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "nippo",
		Short: "現場日報の入力・一覧Webアプリケーション",
		Long: `nippo は現場の作業日報を入力フォームから登録し、新しい順に一覧表示します。

保存先は NIPPO_BACKEND で選択します:
  file   BOM付きUTF-8のCSVファイル (NIPPO_CSV_FILE)
  table  DATABASE_URL で指定したデータベースのテーブル`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "storage backend (file or table); overrides NIPPO_BACKEND")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serveCmd.Flags().StringVar(&opts.port, "port", "", "listen port; overrides NIPPO_SERVER_PORT")

	rootCmd.AddCommand(serveCmd, newMigrateCommand(opts))
	return rootCmd
}

// loadConfig は設定を読み込み、フラグの値で上書きします。
func loadConfig(opts *options) (*config.Config, error) {
	return config.Load(
		config.WithBackend(opts.backend),
		config.WithPort(opts.port),
	)
}

// openStore は設定に応じたストアを初期化します。
func openStore(cfg *config.Config, log *zap.Logger) (store.ReportStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFileStore(cfg.CSVFile, log)
	case config.BackendTable:
		return store.NewTableStore(cfg.DatabaseURL, log)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

func runServe(ctx context.Context, opts *options) error {
	// 設定の読み込み
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// ストアの初期化
	reportStore, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", cfg.Backend, err)
	}
	defer reportStore.Close()

	// サーバーインスタンスの作成
	server, err := api.NewServer(service.NewReportService(reportStore, log), cfg.Choices, log)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting nippo", zap.String("backend", cfg.Backend), zap.String("port", cfg.Port))
	if err := server.Run(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package config はアプリケーション設定を管理します。
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/stsysd/nippo/model"
)

// 永続化バックエンドの種類
const (
	BackendFile  = "file"
	BackendTable = "table"
)

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	// HTTPサーバーのポート
	Port string

	// 永続化バックエンド（file または table）
	Backend string

	// データディレクトリのパス
	DataDir string

	// CSVファイルのパス（fileバックエンド）
	CSVFile string

	// データベース接続文字列（tableバックエンド）
	DatabaseURL string

	// ログレベルと出力形式
	LogLevel  string
	LogFormat string

	// フォームの選択肢
	Choices *model.Choices
}

// Option は環境変数から読み込んだ値を上書きします。
type Option func(*Config)

// WithBackend はバックエンドを上書きします。空文字列の場合は何もしません。
func WithBackend(backend string) Option {
	return func(c *Config) {
		if backend = strings.TrimSpace(backend); backend != "" {
			c.Backend = strings.ToLower(backend)
		}
	}
}

// WithPort はHTTPサーバーのポートを上書きします。空文字列の場合は何もしません。
func WithPort(port string) Option {
	return func(c *Config) {
		if port = strings.TrimSpace(port); port != "" {
			c.Port = port
		}
	}
}

// Load はカレントディレクトリの .env を読み込んだうえで NewConfig を呼び出します。
// .env が存在しない場合は環境変数のみを使用します。
func Load(opts ...Option) (*Config, error) {
	_ = godotenv.Load()
	return NewConfig(opts...)
}

// NewConfig は環境変数から設定を読み込み、optsを適用してからConfigインスタンスを生成します。
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		Port:      getenv("NIPPO_SERVER_PORT", "8080"),
		Backend:   strings.ToLower(getenv("NIPPO_BACKEND", BackendTable)),
		DataDir:   getenv("NIPPO_DATA_DIR", filepath.Join(".", "data")),
		LogLevel:  getenv("NIPPO_LOG_LEVEL", "info"),
		LogFormat: getenv("NIPPO_LOG_FORMAT", "json"),
		Choices:   model.DefaultChoices(),
	}
	cfg.CSVFile = getenv("NIPPO_CSV_FILE", filepath.Join(cfg.DataDir, "reports.csv"))
	cfg.DatabaseURL = normalizeDatabaseURL(os.Getenv("DATABASE_URL"))
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.CSVFile == "" {
			return model.NewConfigurationError("NIPPO_CSV_FILE", "is empty")
		}
	case BackendTable:
		// tableバックエンドでは接続文字列が必須
		if c.DatabaseURL == "" {
			return model.NewConfigurationError("DATABASE_URL", "is not set")
		}
		if strings.Contains(c.DatabaseURL, "://") {
			if _, err := url.Parse(c.DatabaseURL); err != nil {
				return model.NewConfigurationError("DATABASE_URL", "cannot parse: "+err.Error())
			}
		}
	default:
		return model.NewConfigurationError("NIPPO_BACKEND", "must be file or table")
	}
	return nil
}

// normalizeDatabaseURL はHerokuやRender形式の postgres:// を postgresql:// に揃えます。
func normalizeDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(raw, "postgres://")
	}
	return raw
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

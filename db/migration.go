// Package db はデータベーススキーマのマイグレーションを提供します。
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed schema/*/*.sql
var embedMigrations embed.FS

// サポートしているgooseのダイアレクト
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Migrate はデータベースに対してマイグレーションを実行します。
// スキーマはダイアレクトごとに schema/<dialect> 以下に置かれています。
func Migrate(conn *sql.DB, dialect string, logger *zap.Logger) error {
	switch dialect {
	case DialectSQLite, DialectPostgres, DialectMySQL:
	default:
		return fmt.Errorf("unsupported migration dialect: %s", dialect)
	}

	// goose の設定
	goose.SetBaseFS(embedMigrations)
	if logger != nil {
		goose.SetLogger(zap.NewStdLog(logger.Named("migrate")))
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// マイグレーションを実行
	if err := goose.Up(conn, path.Join("schema", dialect)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

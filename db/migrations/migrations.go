package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed postgres/*.sql sqlite3/*.sql
var migrationsFS embed.FS

// Run применяет все миграции для драйвера driver ("postgres" или "sqlite3").
func Run(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: log.Sugar()})

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	log.Info("running migrations", zap.String("dialect", driver))
	if err := goose.UpContext(ctx, db, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version возвращает текущую версию схемы.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(driver); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Infof(format, v...) }

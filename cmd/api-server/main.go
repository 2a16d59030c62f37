package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"redeploy/db"
	"redeploy/internal/config"
	"redeploy/internal/logging"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "api-server",
		Short:         "Redeployment tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.Development())
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.AddCommand(a.serveCommand(), a.migrateCommand(), a.seedCommand(), hashPasswordCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openDB подключается к базе из конфигурации
func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	return db.Open(ctx, db.Config{
		Driver:          a.cfg.DBDriver,
		DSN:             a.cfg.DatabaseURL,
		MaxOpenConns:    a.cfg.DBMaxOpenConns,
		MaxIdleConns:    a.cfg.DBMaxIdleConns,
		ConnMaxLifetime: a.cfg.DBConnMaxLifetime,
		ConnectTimeout:  30 * time.Second,
	}, a.log)
}
